package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/storage"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
	"gorm.io/gorm"
)

// ShippingQuoter is the shipping-rate provider.
type ShippingQuoter interface {
	GetRates(ctx context.Context, q komerce.RateQuery) ([]komerce.Rate, error)
	SearchDestinations(ctx context.Context, keyword string) ([]komerce.Destination, error)
}

// PaymentGateway opens hosted payment sessions and reports canonical
// transaction state.
type PaymentGateway interface {
	CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error)
	TransactionStatus(ctx context.Context, ref string) (*midtrans.StatusResponse, error)
}

type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// JSONCache is a best-effort cache; a failing cache never fails a request.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type ImageStorage interface {
	PresignProductImage(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error)
}

// dbError classifies a repository error: missing rows become notFound,
// everything else is an internal failure.
func dbError(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Internal("", err)
}
