package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tokopangan/checkout-backend/config"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	"github.com/tokopangan/checkout-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// Column order of the catalog sheet; the first row is a header.
const (
	colName = iota
	colPrice
	colWeightGrams
	colStock
	colCategory
	colDescription
	minColumns = colCategory + 1
)

var allowedCategories = map[string]bool{
	"Makanan":   true,
	"Minuman":   true,
	"Aksesoris": true,
}

type importSummary struct {
	rows    int
	valid   int
	skipped int
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [--yes]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "--yes"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, summary, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", summary.rows)
	fmt.Printf("  Valid products: %d\n", summary.valid)
	fmt.Printf("  Skipped rows: %d\n", summary.skipped)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := productRepo.CreateBatch(context.Background(), products, batchSize); err != nil {
		log.Fatal("Failed to import products:", err)
	}
	fmt.Printf("Import completed: %d products\n", len(products))
}

func readProductsFromXLSX(filePath string) ([]model.Product, importSummary, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, importSummary{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, importSummary{}, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, importSummary{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, importSummary{}, fmt.Errorf("no data found in XLSX file")
	}

	products, summary := parseProductRows(rows[1:])
	return products, summary, nil
}

// parseProductRows converts sheet rows into products, skipping rows that
// would violate catalog constraints. Duplicate names keep the first row.
func parseProductRows(rows [][]string) ([]model.Product, importSummary) {
	summary := importSummary{rows: len(rows)}
	seen := make(map[string]bool)
	products := make([]model.Product, 0, len(rows))

	for _, row := range rows {
		product, ok := parseProductRow(row)
		if !ok {
			summary.skipped++
			continue
		}
		key := strings.ToLower(product.Name)
		if seen[key] {
			summary.skipped++
			continue
		}
		seen[key] = true
		products = append(products, product)
	}

	summary.valid = len(products)
	return products, summary
}

func parseProductRow(row []string) (model.Product, bool) {
	if len(row) < minColumns {
		return model.Product{}, false
	}

	name := strings.TrimSpace(row[colName])
	category := strings.TrimSpace(row[colCategory])
	if name == "" || !allowedCategories[category] {
		return model.Product{}, false
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[colPrice]), 64)
	if err != nil || price <= 0 {
		return model.Product{}, false
	}
	grams, err := strconv.ParseFloat(strings.TrimSpace(row[colWeightGrams]), 64)
	if err != nil || grams <= 0 {
		return model.Product{}, false
	}
	stock, err := strconv.Atoi(strings.TrimSpace(row[colStock]))
	if err != nil || stock < 0 {
		return model.Product{}, false
	}

	var description string
	if len(row) > colDescription {
		description = strings.TrimSpace(row[colDescription])
	}

	return model.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Weight:      model.GramsToKilograms(grams),
		Stock:       stock,
		Category:    category,
	}, true
}
