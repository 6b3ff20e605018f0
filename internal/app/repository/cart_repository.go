package repository

import (
	"context"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error)
	FindByUserID(ctx context.Context, userID uint) (*model.Cart, error)
	LoadForCheckout(ctx context.Context, userID uint) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error)
	SaveItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uint) error
	ClearItems(ctx context.Context, cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where(model.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		logger.Error("Failed to get or create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &cart, nil
}

// FindByUserID loads the cart with its items and their live products.
func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LoadForCheckout reads product rows including soft-deleted ones, so a
// product removed from the catalog shows up as unavailable instead of as an
// empty line.
func (r *cartRepository) LoadForCheckout(ctx context.Context, userID uint) (*model.Cart, error) {
	logger.Debug("Loading cart for checkout", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) SaveItem(ctx context.Context, item *model.CartItem) error {
	if err := r.db.WithContext(ctx).Omit("Product").Save(item).Error; err != nil {
		logger.Error("Failed to save cart item", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uint) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item", result.Error, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearItems removes every line; the cart row itself is kept.
func (r *cartRepository) ClearItems(ctx context.Context, cartID uint) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to clear cart items", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}
