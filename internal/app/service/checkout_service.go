package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
	"gorm.io/gorm"
)

var (
	ErrCartEmpty            = apperrors.Validation(apperrors.CartEmpty, "Cart is empty", nil)
	ErrCartChanged          = apperrors.Conflict(apperrors.CartChanged, "Cart changed during checkout, please review it and try again")
	ErrInvalidPaymentMethod = apperrors.Validation(apperrors.ValidationInvalidInput, "Unsupported payment method", nil)
	ErrPaymentSessionFailed = apperrors.Upstream(apperrors.PaymentSessionFailed, "Order created but the payment session could not be opened; retry from the order page", nil)
)

type CheckoutRequest struct {
	ShippingAddress string
	DestinationID   string
	ShippingService string
	PaymentMethod   model.PaymentMethod
	Notes           string
}

// StockShortage describes one cart line that cannot be fulfilled.
type StockShortage struct {
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

type CheckoutService interface {
	// ProcessCheckout quotes shipping for the user's cart, then converts it into
	// a PENDING order in one transaction: stock decrement, order creation and
	// cart clear commit together.
	ProcessCheckout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error)
	// Checkout runs ProcessCheckout and then opens a payment session. A
	// session failure leaves the committed order in place.
	Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error)
}

type checkoutService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	quoter      ShippingQuoter
	payments    PaymentService
	originID    string
}

func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	quoter ShippingQuoter,
	payments PaymentService,
	originID string,
) CheckoutService {
	return &checkoutService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		quoter:      quoter,
		payments:    payments,
		originID:    originID,
	}
}

type cartTotals struct {
	subTotal    float64
	totalWeight float64
	items       []model.OrderItem
}

func (s *checkoutService) Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error) {
	order, err := s.ProcessCheckout(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	paid, err := s.payments.IssuePaymentSession(ctx, order)
	if err != nil {
		logger.Error("Payment session failed after checkout; order kept", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return order, ErrPaymentSessionFailed.Wrap(err).WithDetails(map[string]interface{}{
			"order_id":          order.ID,
			"midtrans_order_id": order.GatewayOrderID(),
		})
	}
	return paid, nil
}

func (s *checkoutService) ProcessCheckout(ctx context.Context, userID uint, req CheckoutRequest) (*model.Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	logger.Info("Processing checkout", map[string]interface{}{
		"user_id":          userID,
		"destination_id":   req.DestinationID,
		"shipping_service": req.ShippingService,
		"payment_method":   req.PaymentMethod,
	})

	// The quote runs outside the transaction. The transaction re-reads the cart
	// and relies on the conditional decrement for stock.
	cart, err := loadCheckoutCart(ctx, s.cartRepo, userID)
	if err != nil {
		return nil, err
	}

	totals := calculateTotals(cart.Items)
	if shortages := findShortages(cart.Items); len(shortages) > 0 {
		logger.Warn("Checkout rejected: insufficient stock", map[string]interface{}{
			"user_id":   userID,
			"shortages": shortages,
		})
		return nil, insufficientStock(shortages)
	}

	rates, err := s.quoter.GetRates(ctx, komerce.RateQuery{
		OriginID:      s.originID,
		DestinationID: req.DestinationID,
		WeightKg:      totals.totalWeight,
		ItemValue:     totals.subTotal,
		COD:           req.PaymentMethod == model.PaymentMethodCOD,
	})
	if err != nil {
		return nil, ErrShippingUpstream.Wrap(err)
	}

	selected, ok := findRate(rates, req.ShippingService)
	if !ok {
		if rates == nil {
			rates = []komerce.Rate{}
		}
		return nil, apperrors.Validation(apperrors.ShippingServiceUnavailable, "Selected shipping service not available", map[string]interface{}{
			"availableServices": rates,
		})
	}

	var orderID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		current, err := loadCheckoutCart(ctx, cartRepo, userID)
		if err != nil {
			return err
		}
		if !sameCart(cart.Items, current.Items) {
			logger.Warn("Checkout rejected: cart changed while quoting", map[string]interface{}{
				"user_id": userID,
			})
			return ErrCartChanged
		}

		for _, item := range current.Items {
			if err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return s.raceShortage(ctx, productRepo, item)
				}
				return apperrors.Internal("", err)
			}
		}

		order := &model.Order{
			UserID:            userID,
			SubTotal:          totals.subTotal,
			ShippingCost:      selected.Price,
			TotalAmount:       totals.subTotal + selected.Price,
			Status:            model.OrderStatusPending,
			PaymentStatus:     model.PaymentStatusPending,
			ShippingAddress:   strings.TrimSpace(req.ShippingAddress),
			DestinationID:     req.DestinationID,
			Courier:           selected.CourierName,
			ShippingService:   selected.ServiceName,
			EstimatedDelivery: selected.Etd,
			Notes:             req.Notes,
			PaymentMethod:     string(req.PaymentMethod),
			Items:             totals.items,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return apperrors.Internal("", err)
		}
		if err := orderRepo.SetGatewayOrderID(ctx, order.ID, newGatewayOrderID(order.ID)); err != nil {
			return apperrors.Internal("", err)
		}

		if err := cartRepo.ClearItems(ctx, current.ID); err != nil {
			return apperrors.Internal("", err)
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	})
	return order, nil
}

// raceShortage reports a line whose stock was taken by a concurrent checkout
// between validation and decrement.
func (s *checkoutService) raceShortage(ctx context.Context, productRepo repository.ProductRepository, item model.CartItem) error {
	available := 0
	if current, err := productRepo.FindByID(ctx, item.ProductID); err == nil {
		available = current.Stock
	}
	return insufficientStock([]StockShortage{{
		ProductID:   item.ProductID,
		ProductName: item.Product.Name,
		Requested:   item.Quantity,
		Available:   available,
	}})
}

func loadCheckoutCart(ctx context.Context, cartRepo repository.CartRepository, userID uint) (*model.Cart, error) {
	cart, err := cartRepo.LoadForCheckout(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, apperrors.Internal("", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}
	return cart, nil
}

// sameCart reports whether two reads of a cart would price and ship the same.
func sameCart(quoted, current []model.CartItem) bool {
	if len(quoted) != len(current) {
		return false
	}
	type line struct {
		quantity int
		price    float64
		weight   float64
	}
	lines := make(map[uint]line, len(quoted))
	for _, item := range quoted {
		lines[item.ProductID] = line{item.Quantity, item.Product.Price, item.Product.Weight}
	}
	for _, item := range current {
		l, ok := lines[item.ProductID]
		if !ok || l != (line{item.Quantity, item.Product.Price, item.Product.Weight}) {
			return false
		}
	}
	return true
}

// calculateTotals prices every line from the product row, never from the cart.
func calculateTotals(items []model.CartItem) cartTotals {
	var t cartTotals
	for _, item := range items {
		qty := float64(item.Quantity)
		t.subTotal += item.Product.Price * qty
		t.totalWeight += item.Product.Weight * qty
		t.items = append(t.items, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}
	return t
}

func findShortages(items []model.CartItem) []StockShortage {
	var shortages []StockShortage
	for _, item := range items {
		available := item.Product.Stock
		if item.Product.DeletedAt.Valid {
			available = 0
		}
		if available < item.Quantity {
			shortages = append(shortages, StockShortage{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Requested:   item.Quantity,
				Available:   available,
			})
		}
	}
	return shortages
}

func insufficientStock(shortages []StockShortage) error {
	return apperrors.Validation(apperrors.StockInsufficient, "Insufficient stock", map[string]interface{}{
		"outOfStockItems": shortages,
	})
}

func findRate(rates []komerce.Rate, serviceCode string) (komerce.Rate, bool) {
	for _, r := range rates {
		if r.ServiceCode == serviceCode {
			return r, true
		}
	}
	return komerce.Rate{}, false
}

// newGatewayOrderID builds the correlation id sent to the payment gateway.
// It is fixed at checkout so payment-session retries reuse it.
func newGatewayOrderID(orderID uint) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("ORDER-%d-%s", orderID, suffix)
}
