package repository

import (
	"context"
	"time"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Order, error)
	SetGatewayOrderID(ctx context.Context, id uint, gatewayOrderID string) error
	SetPaymentSession(ctx context.Context, id uint, token, url string) error
	UpdatePayment(ctx context.Context, id uint, updates map[string]interface{}) error
	FindAwaitingPayment(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) preloadOrder(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		})
}

// Create inserts the order together with its items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	})

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("midtrans_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uint, gatewayOrderID string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"midtrans_order_id": gatewayOrderID,
	})
}

func (r *orderRepository) SetPaymentSession(ctx context.Context, id uint, token, url string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"payment_token": token,
		"payment_url":   url,
	})
}

// UpdatePayment writes the payment columns computed by the reconciler.
func (r *orderRepository) UpdatePayment(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.updateColumns(ctx, id, updates)
}

func (r *orderRepository) updateColumns(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindAwaitingPayment lists orders that have a gateway id but no final
// payment outcome yet, oldest first.
func (r *orderRepository) FindAwaitingPayment(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := r.db.WithContext(ctx).
		Where("payment_status IN ?", []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusChallenge}).
		Where("midtrans_order_id IS NOT NULL").
		Where("created_at < ?", createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders awaiting payment", err, nil)
		return nil, err
	}
	return orders, nil
}
