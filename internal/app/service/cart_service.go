package service

import (
	"context"
	"errors"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = apperrors.NotFound(apperrors.CartItemNotFound, "Cart item not found")
	ErrInvalidQuantity  = apperrors.Validation(apperrors.ValidationInvalidInput, "Quantity must be at least 1", nil)
)

// CartSummary is the cart as shown to its owner, with totals from live prices.
type CartSummary struct {
	ID          uint             `json:"id"`
	Items       []model.CartItem `json:"items"`
	ItemCount   int              `json:"item_count"`
	SubTotal    float64          `json:"sub_total"`
	TotalWeight float64          `json:"total_weight"`
}

type CartService interface {
	GetCart(ctx context.Context, userID uint) (*CartSummary, error)
	AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartSummary, error)
	UpdateItem(ctx context.Context, userID, productID uint, quantity int) (*CartSummary, error)
	RemoveItem(ctx context.Context, userID, productID uint) (*CartSummary, error)
	ClearCart(ctx context.Context, userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uint) (*CartSummary, error) {
	if _, err := s.cartRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, apperrors.Internal("", err)
	}
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return summarize(cart), nil
}

// AddItem merges quantity into an existing line for the same product.
func (s *cartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartSummary, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, dbError(err, ErrProductNotFound)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}

	item, err := s.cartRepo.FindItem(ctx, cart.ID, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &model.CartItem{CartID: cart.ID, ProductID: productID}
	case err != nil:
		return nil, apperrors.Internal("", err)
	}

	requested := item.Quantity + quantity
	if requested > product.Stock {
		return nil, stockShortage(product, requested)
	}
	item.Quantity = requested

	if err := s.cartRepo.SaveItem(ctx, item); err != nil {
		return nil, apperrors.Internal("", err)
	}

	logger.Info("Product added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   item.Quantity,
	})
	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID uint, quantity int) (*CartSummary, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	item, err := s.cartRepo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, dbError(err, ErrCartItemNotFound)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, dbError(err, ErrProductNotFound)
	}
	if quantity > product.Stock {
		return nil, stockShortage(product, quantity)
	}

	item.Quantity = quantity
	if err := s.cartRepo.SaveItem(ctx, item); err != nil {
		return nil, apperrors.Internal("", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uint) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	if err := s.cartRepo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, dbError(err, ErrCartItemNotFound)
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uint) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return apperrors.Internal("", err)
	}
	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		return apperrors.Internal("", err)
	}
	return nil
}

func summarize(cart *model.Cart) *CartSummary {
	summary := &CartSummary{ID: cart.ID, Items: cart.Items}
	if summary.Items == nil {
		summary.Items = []model.CartItem{}
	}
	for _, item := range cart.Items {
		summary.ItemCount += item.Quantity
		summary.SubTotal += item.Product.Price * float64(item.Quantity)
		summary.TotalWeight += item.Product.Weight * float64(item.Quantity)
	}
	return summary
}

func stockShortage(product *model.Product, requested int) error {
	return apperrors.Validation(apperrors.StockInsufficient, "Insufficient stock", map[string]interface{}{
		"outOfStockItems": []StockShortage{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   requested,
			Available:   product.Stock,
		}},
	})
}
