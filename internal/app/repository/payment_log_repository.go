package repository

import (
	"context"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"gorm.io/gorm"
)

// PaymentLogRepository only appends; logs are never updated or deleted.
type PaymentLogRepository interface {
	WithTx(tx *gorm.DB) PaymentLogRepository
	Create(ctx context.Context, log *model.PaymentLog) error
	ListByOrder(ctx context.Context, orderID uint) ([]model.PaymentLog, error)
}

type paymentLogRepository struct {
	db *gorm.DB
}

func NewPaymentLogRepository(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepository{db: db}
}

func (r *paymentLogRepository) WithTx(tx *gorm.DB) PaymentLogRepository {
	return &paymentLogRepository{db: tx}
}

func (r *paymentLogRepository) Create(ctx context.Context, log *model.PaymentLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		logger.Error("Failed to append payment log", err, map[string]interface{}{
			"order_id":       log.OrderID,
			"transaction_id": log.TransactionID,
			"status":         log.Status,
		})
		return err
	}
	return nil
}

func (r *paymentLogRepository) ListByOrder(ctx context.Context, orderID uint) ([]model.PaymentLog, error) {
	var logs []model.PaymentLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
