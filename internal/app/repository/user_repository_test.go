package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := &model.User{Email: "buyer@example.com", PasswordHash: "hash", FullName: "Buyer"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, model.RoleUser, found.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buyer", byID.FullName)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Email: "dup@example.com", PasswordHash: "h", FullName: "A"}))
	assert.Error(t, repo.Create(ctx, &model.User{Email: "dup@example.com", PasswordHash: "h", FullName: "B"}))
}

func TestUserRepository_NotFound(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, testDB, "update@example.com")
	user.Phone = "08123456789"
	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "08123456789", found.Phone)
}
