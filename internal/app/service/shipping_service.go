package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	rediscache "github.com/tokopangan/checkout-backend/pkg/redis"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
)

var (
	ErrKeywordTooShort  = apperrors.Validation(apperrors.ShippingKeywordTooShort, "Keyword must be at least 3 characters", nil)
	ErrShippingUpstream = apperrors.Upstream(apperrors.ShippingUpstream, "Shipping service unavailable", nil)
)

type ShippingOptionsQuery struct {
	DestinationID string
	WeightKg      float64
	ItemValue     float64
	COD           bool
}

type ShippingService interface {
	GetOptions(ctx context.Context, q ShippingOptionsQuery) ([]komerce.Rate, error)
	SearchDestinations(ctx context.Context, keyword string) ([]komerce.Destination, error)
}

type shippingService struct {
	quoter   ShippingQuoter
	cache    JSONCache
	originID string
	cacheTTL time.Duration
}

// NewShippingService builds the browsing-side shipping service. cache may be
// nil. Checkout does not go through this service and never sees cached rates.
func NewShippingService(quoter ShippingQuoter, cache JSONCache, originID string, cacheTTL time.Duration) ShippingService {
	return &shippingService{
		quoter:   quoter,
		cache:    cache,
		originID: originID,
		cacheTTL: cacheTTL,
	}
}

func (s *shippingService) GetOptions(ctx context.Context, q ShippingOptionsQuery) ([]komerce.Rate, error) {
	key := optionsCacheKey(s.originID, q)
	if s.cache != nil {
		var cached []komerce.Rate
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, rediscache.ErrCacheMiss) {
			logger.Warn("Shipping options cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	rates, err := s.quoter.GetRates(ctx, komerce.RateQuery{
		OriginID:      s.originID,
		DestinationID: q.DestinationID,
		WeightKg:      q.WeightKg,
		ItemValue:     q.ItemValue,
		COD:           q.COD,
	})
	if err != nil {
		return nil, ErrShippingUpstream.Wrap(err)
	}
	if rates == nil {
		rates = []komerce.Rate{}
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, rates, s.cacheTTL); err != nil {
			logger.Warn("Shipping options cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return rates, nil
}

func (s *shippingService) SearchDestinations(ctx context.Context, keyword string) ([]komerce.Destination, error) {
	dests, err := s.quoter.SearchDestinations(ctx, keyword)
	if err != nil {
		if errors.Is(err, komerce.ErrKeywordTooShort) {
			return nil, ErrKeywordTooShort
		}
		return nil, ErrShippingUpstream.Wrap(err)
	}
	return dests, nil
}

func optionsCacheKey(originID string, q ShippingOptionsQuery) string {
	return fmt.Sprintf("shipping:options:%s:%s:%s:%s:%t",
		originID,
		q.DestinationID,
		strconv.FormatFloat(q.WeightKg, 'f', -1, 64),
		strconv.FormatFloat(q.ItemValue, 'f', -1, 64),
		q.COD,
	)
}
