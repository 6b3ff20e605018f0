package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	"gorm.io/gorm"
)

var (
	ErrNotificationBodyMissing = apperrors.Validation(apperrors.PaymentBodyMissing, "Missing request body", nil)
	ErrNotificationMalformed   = apperrors.Validation(apperrors.PaymentPayloadMalformed, "Malformed notification payload", nil)
	ErrSignatureInvalid        = apperrors.Authentication(apperrors.PaymentSignatureInvalid, "Invalid signature")
	ErrNotificationMismatch    = apperrors.Authentication(apperrors.PaymentSignatureInvalid, "Notification does not match gateway transaction")
)

// gatewayLocation is the zone of the gateway's "2006-01-02 15:04:05" timestamps.
var gatewayLocation = time.FixedZone("WIB", 7*60*60)

const gatewayTimeLayout = "2006-01-02 15:04:05"

// mapGatewayStatus maps the gateway vocabulary onto payment states. Unknown
// statuses stay PENDING so nothing is ever marked paid by accident.
func mapGatewayStatus(status midtrans.TransactionStatus) model.PaymentStatus {
	switch status {
	case midtrans.StatusCapture, midtrans.StatusSettlement:
		return model.PaymentStatusPaid
	case midtrans.StatusPending:
		return model.PaymentStatusPending
	case midtrans.StatusDeny, midtrans.StatusCancel, midtrans.StatusExpire:
		return model.PaymentStatusFailed
	case midtrans.StatusRefund:
		return model.PaymentStatusRefunded
	case midtrans.StatusChallenge:
		return model.PaymentStatusChallenge
	default:
		return model.PaymentStatusPending
	}
}

type ReconcileService interface {
	// Reconcile authenticates a raw webhook body and applies the canonical
	// gateway status to the matching order.
	Reconcile(ctx context.Context, rawBody []byte) error
	// ReconcileOrder pulls the current gateway status for an order that may
	// have missed its notification.
	ReconcileOrder(ctx context.Context, order *model.Order) error
}

type reconcileService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	logRepo   repository.PaymentLogRepository
	gateway   PaymentGateway
	serverKey string
	now       func() time.Time
}

func NewReconcileService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	logRepo repository.PaymentLogRepository,
	gateway PaymentGateway,
	serverKey string,
) ReconcileService {
	return &reconcileService{
		db:        db,
		orderRepo: orderRepo,
		logRepo:   logRepo,
		gateway:   gateway,
		serverKey: serverKey,
		now:       time.Now,
	}
}

func (s *reconcileService) Reconcile(ctx context.Context, rawBody []byte) error {
	if len(bytes.TrimSpace(rawBody)) == 0 {
		return ErrNotificationBodyMissing
	}

	var n midtrans.Notification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return ErrNotificationMalformed.Wrap(err)
	}
	if n.OrderID == "" {
		return ErrNotificationMalformed
	}

	if !n.VerifySignature(s.serverKey) {
		logger.Warn("Invalid payment notification signature", map[string]interface{}{
			"order_id":    n.OrderID,
			"status_code": n.StatusCode,
		})
		return ErrSignatureInvalid
	}

	ref := n.TransactionID
	if ref == "" {
		ref = n.OrderID
	}
	status, err := s.gateway.TransactionStatus(ctx, ref)
	if err != nil {
		return ErrPaymentUpstream.Wrap(err)
	}
	if status.OrderID != n.OrderID {
		logger.Warn("Gateway status does not match notification", map[string]interface{}{
			"notification_order_id": n.OrderID,
			"gateway_order_id":      status.OrderID,
		})
		return ErrNotificationMismatch
	}

	logger.Info("Payment notification verified", map[string]interface{}{
		"order_id":         n.OrderID,
		"pushed_status":    n.TransactionStatus,
		"canonical_status": status.TransactionStatus,
		"transaction_id":   status.TransactionID,
	})
	return s.apply(ctx, status)
}

func (s *reconcileService) ReconcileOrder(ctx context.Context, order *model.Order) error {
	gatewayID := order.GatewayOrderID()
	if gatewayID == "" {
		return nil
	}

	status, err := s.gateway.TransactionStatus(ctx, gatewayID)
	if err != nil {
		// The buyer never opened the payment page; nothing to reconcile yet.
		if errors.Is(err, midtrans.ErrTransactionNotFound) {
			return nil
		}
		return ErrPaymentUpstream.Wrap(err)
	}
	if status.OrderID != gatewayID {
		return ErrNotificationMismatch
	}

	// No notification arrived on this path, so only a status change is worth
	// an order update and a payment log.
	next := mapGatewayStatus(status.TransactionStatus)
	if next == order.PaymentStatus || !order.PaymentStatus.CanTransitionTo(next) {
		logger.Debug("Payment sweep: status unchanged", map[string]interface{}{
			"order_id":       order.ID,
			"payment_status": order.PaymentStatus,
			"gateway_status": status.TransactionStatus,
		})
		return nil
	}
	return s.apply(ctx, status)
}

// apply updates the order and appends a payment log in one transaction.
func (s *reconcileService) apply(ctx context.Context, status *midtrans.StatusResponse) error {
	payload := string(status.Raw)
	if payload == "" {
		raw, err := json.Marshal(status)
		if err != nil {
			return apperrors.Internal("", err)
		}
		payload = string(raw)
	}

	next := mapGatewayStatus(status.TransactionStatus)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)

		order, err := orderRepo.FindByGatewayOrderID(ctx, status.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Payment notification for unknown order", map[string]interface{}{
					"midtrans_order_id": status.OrderID,
				})
			}
			return dbError(err, ErrOrderNotFound)
		}

		updates := map[string]interface{}{
			"payment_method":    status.PaymentType,
			"midtrans_response": payload,
		}

		var paidAt *time.Time
		if order.PaymentStatus.CanTransitionTo(next) {
			updates["payment_status"] = next
			if !order.Status.IsFulfillmentStage() {
				updates["status"] = next.OrderStatus()
			}
			if next == model.PaymentStatusPaid {
				t := s.parseGatewayTime(status.SettlementTime, status.TransactionTime)
				paidAt = &t
				updates["paid_at"] = t
			}
		} else {
			logger.Warn("Suppressed payment status regression", map[string]interface{}{
				"order_id": order.ID,
				"current":  order.PaymentStatus,
				"incoming": next,
			})
		}

		if strings.Contains(status.PaymentType, "bank_transfer") && len(status.VANumbers) > 0 {
			updates["payment_va_number"] = status.VANumbers[0].VANumber
			updates["payment_bank"] = status.VANumbers[0].Bank
		}

		if err := orderRepo.UpdatePayment(ctx, order.ID, updates); err != nil {
			return apperrors.Internal("", err)
		}

		entry := &model.PaymentLog{
			OrderID:       order.ID,
			PaymentMethod: status.PaymentType,
			Amount:        parseAmount(status.GrossAmount, order.TotalAmount),
			Status:        next,
			TransactionID: status.TransactionID,
			PaymentTime:   s.parseGatewayTime(status.TransactionTime),
			PaidAt:        paidAt,
			Payload:       payload,
		}
		if err := logRepo.Create(ctx, entry); err != nil {
			return apperrors.Internal("", err)
		}

		logger.Info("Payment reconciled", map[string]interface{}{
			"order_id":       order.ID,
			"payment_status": next,
			"transaction_id": status.TransactionID,
		})
		return nil
	})
}

// parseGatewayTime returns the first parseable candidate, or now.
func (s *reconcileService) parseGatewayTime(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.ParseInLocation(gatewayTimeLayout, c, gatewayLocation); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t
		}
	}
	return s.now()
}

func parseAmount(raw string, fallback float64) float64 {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return amount
}
