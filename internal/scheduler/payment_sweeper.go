package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/pkg/logger"
)

const (
	defaultSweepSpec  = "*/10 * * * *"
	sweepBatchSize    = 100
	sweepOrderTimeout = 15 * time.Second
)

// AwaitingPaymentFinder lists orders whose payment is still unresolved.
type AwaitingPaymentFinder interface {
	FindAwaitingPayment(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error)
}

// OrderReconciler pulls the gateway status for one order.
type OrderReconciler interface {
	ReconcileOrder(ctx context.Context, order *model.Order) error
}

// PaymentSweeper periodically reconciles PENDING/CHALLENGE orders whose
// webhook never arrived.
type PaymentSweeper struct {
	cron       *cron.Cron
	spec       string
	minAge     time.Duration
	orders     AwaitingPaymentFinder
	reconciler OrderReconciler
	now        func() time.Time
}

func NewPaymentSweeper(orders AwaitingPaymentFinder, reconciler OrderReconciler, spec string, minAge time.Duration) *PaymentSweeper {
	if spec == "" {
		spec = defaultSweepSpec
	}
	return &PaymentSweeper{
		cron:       cron.New(),
		spec:       spec,
		minAge:     minAge,
		orders:     orders,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *PaymentSweeper) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		logger.Error("Failed to add cron job for payment sweep", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Payment sweeper started", map[string]interface{}{
		"spec":    s.spec,
		"min_age": s.minAge.String(),
	})
	return nil
}

// Stop waits for a running sweep to finish.
func (s *PaymentSweeper) Stop() {
	logger.Info("Stopping payment sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Payment sweeper stopped")
}

// Sweep reconciles one batch of stale orders and reports how many were
// processed without error. A failing order never stops the batch.
func (s *PaymentSweeper) Sweep(ctx context.Context) int {
	orders, err := s.orders.FindAwaitingPayment(ctx, s.now().Add(-s.minAge), sweepBatchSize)
	if err != nil {
		logger.Error("Payment sweep: failed to list awaiting orders", err)
		return 0
	}
	if len(orders) == 0 {
		return 0
	}

	ok := 0
	for i := range orders {
		order := &orders[i]
		orderCtx, cancel := context.WithTimeout(ctx, sweepOrderTimeout)
		err := s.reconciler.ReconcileOrder(orderCtx, order)
		cancel()
		if err != nil {
			logger.Error("Payment sweep: reconcile failed", err, map[string]interface{}{
				"order_id":          order.ID,
				"midtrans_order_id": order.GatewayOrderID(),
			})
			continue
		}
		ok++
	}

	logger.Info("Payment sweep finished", map[string]interface{}{
		"candidates": len(orders),
		"reconciled": ok,
	})
	return ok
}
