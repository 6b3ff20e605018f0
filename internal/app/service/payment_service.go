package service

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
)

var (
	ErrOrderNotFound   = apperrors.NotFound(apperrors.OrderNotFound, "Order not found")
	ErrOrderNotPayable = apperrors.Conflict(apperrors.OrderNotPayable, "Order is no longer awaiting payment")
	ErrPaymentUpstream = apperrors.Upstream(apperrors.PaymentUpstream, "Payment gateway unavailable", nil)
)

const maxItemNameLength = 50

type PaymentService interface {
	// IssuePaymentSession opens a hosted payment page for a committed order and
	// stores its token and redirect URL.
	IssuePaymentSession(ctx context.Context, order *model.Order) (*model.Order, error)
	// RetryPaymentSession reissues a session for the caller's PENDING order.
	RetryPaymentSession(ctx context.Context, userID, orderID uint) (*model.Order, error)
}

type paymentService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	gateway   PaymentGateway
}

func NewPaymentService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, gateway PaymentGateway) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		gateway:   gateway,
	}
}

func (s *paymentService) IssuePaymentSession(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.GatewayOrderID() == "" {
		return nil, apperrors.Internal("", fmt.Errorf("order %d has no gateway order id", order.ID))
	}

	req := buildSnapRequest(order)
	if user, err := s.userRepo.FindByID(ctx, order.UserID); err == nil {
		req.CustomerDetails = &midtrans.CustomerDetails{
			FirstName: user.FullName,
			Email:     user.Email,
			Phone:     user.Phone,
		}
	}

	resp, err := s.gateway.CreateSnapTransaction(ctx, req)
	if err != nil {
		return nil, ErrPaymentUpstream.Wrap(err)
	}

	if err := s.orderRepo.SetPaymentSession(ctx, order.ID, resp.Token, resp.RedirectURL); err != nil {
		return nil, apperrors.Internal("", err)
	}

	logger.Info("Payment session issued", map[string]interface{}{
		"order_id":          order.ID,
		"midtrans_order_id": order.GatewayOrderID(),
	})

	updated := *order
	updated.PaymentToken = resp.Token
	updated.PaymentURL = resp.RedirectURL
	return &updated, nil
}

func (s *paymentService) RetryPaymentSession(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, dbError(err, ErrOrderNotFound)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if order.Status != model.OrderStatusPending || order.PaymentStatus != model.PaymentStatusPending {
		return nil, ErrOrderNotPayable
	}
	return s.IssuePaymentSession(ctx, order)
}

// buildSnapRequest lists every order line plus shipping. The gateway requires
// the item sum to equal gross_amount, so gross_amount is taken from the
// rounded lines; when rounding drifts from the order total the item list is
// dropped instead.
func buildSnapRequest(order *model.Order) midtrans.SnapRequest {
	var (
		items []midtrans.ItemDetail
		sum   int64
	)
	for _, it := range order.Items {
		price := toRupiah(it.Price)
		name := fmt.Sprintf("Product %d", it.ProductID)
		if it.Product != nil && it.Product.Name != "" {
			name = it.Product.Name
		}
		items = append(items, midtrans.ItemDetail{
			ID:       strconv.FormatUint(uint64(it.ProductID), 10),
			Name:     truncateName(name),
			Price:    price,
			Quantity: it.Quantity,
		})
		sum += price * int64(it.Quantity)
	}
	if order.ShippingCost > 0 {
		shipping := toRupiah(order.ShippingCost)
		items = append(items, midtrans.ItemDetail{
			ID:       "SHIPPING",
			Name:     truncateName("Shipping " + order.Courier + " " + order.ShippingService),
			Price:    shipping,
			Quantity: 1,
		})
		sum += shipping
	}

	gross := toRupiah(order.TotalAmount)
	req := midtrans.SnapRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     order.GatewayOrderID(),
			GrossAmount: gross,
		},
	}
	if sum == gross {
		req.ItemDetails = items
	}
	return req
}

func toRupiah(amount float64) int64 {
	return int64(math.Round(amount))
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > maxItemNameLength {
		return string(r[:maxItemNameLength])
	}
	return name
}
