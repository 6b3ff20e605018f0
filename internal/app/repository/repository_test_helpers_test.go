package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/db"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, testDB *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Price:    price,
		Weight:   1,
		Stock:    stock,
		Category: "Makanan",
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}
