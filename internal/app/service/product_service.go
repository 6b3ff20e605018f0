package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/storage"
	"github.com/tokopangan/checkout-backend/pkg/logger"
)

var (
	ErrProductNotFound      = apperrors.NotFound(apperrors.ProductNotFound, "Product not found")
	ErrImageStorageDisabled = apperrors.Upstream(apperrors.StorageUpstream, "Image upload is not available", nil)
	ErrUnsupportedImageType = apperrors.Validation(apperrors.ValidationInvalidInput, "Only JPEG, PNG and WebP images are accepted", nil)
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Product categories accepted by the catalog.
var ProductCategories = []string{"Makanan", "Minuman", "Aksesoris"}

type ProductQuery struct {
	Category string
	Search   string
	Page     int
	Size     int
}

type ProductPage struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// ProductInput is the admin write model. Weight arrives in grams.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	WeightGrams float64
	Stock       int
	Category    string
	ImageURL    string
}

type ProductService interface {
	ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, adminID uint, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	RequestImageUpload(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImageStorage
}

// NewProductService builds the catalog service. images may be nil when object
// storage is not configured.
func NewProductService(productRepo repository.ProductRepository, images ImageStorage) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
	}
}

func (s *productService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = defaultPageSize
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}

	items, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Category: q.Category,
		Search:   strings.TrimSpace(q.Search),
		Limit:    q.Size,
		Offset:   (q.Page - 1) * q.Size,
	})
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return &ProductPage{Items: items, Total: total, Page: q.Page, Size: q.Size}, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbError(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, adminID uint, input ProductInput) (*model.Product, error) {
	product := &model.Product{AddedByID: &adminID}
	applyProductInput(product, input)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperrors.Internal("", err)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"admin_id":   adminID,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbError(err, ErrProductNotFound)
	}
	applyProductInput(product, input)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, apperrors.Internal("", err)
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return dbError(err, ErrProductNotFound)
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) RequestImageUpload(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if s.images == nil {
		return nil, ErrImageStorageDisabled
	}
	resp, err := s.images.PresignProductImage(ctx, filename, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, ErrUnsupportedImageType
		}
		logger.Error("Failed to presign product image upload", err, map[string]interface{}{
			"content_type": contentType,
		})
		return nil, apperrors.Upstream(apperrors.StorageUpstream, "Image upload is not available", err)
	}
	return resp, nil
}

func applyProductInput(p *model.Product, input ProductInput) {
	p.Name = strings.TrimSpace(input.Name)
	p.Description = input.Description
	p.Price = input.Price
	p.Weight = model.GramsToKilograms(input.WeightGrams)
	p.Stock = input.Stock
	p.Category = input.Category
	p.ImageURL = input.ImageURL
}
