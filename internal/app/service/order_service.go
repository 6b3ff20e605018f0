package service

import (
	"context"

	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
)

type OrderService interface {
	ListOrders(ctx context.Context, userID uint) ([]model.Order, error)
	// GetOrder returns the order only when it belongs to userID; other users'
	// orders are reported as missing.
	GetOrder(ctx context.Context, userID, orderID uint) (*model.Order, error)
	ListPaymentLogs(ctx context.Context, userID, orderID uint) ([]model.PaymentLog, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	logRepo   repository.PaymentLogRepository
}

func NewOrderService(orderRepo repository.OrderRepository, logRepo repository.PaymentLogRepository) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logRepo:   logRepo,
	}
}

func (s *orderService) ListOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, dbError(err, ErrOrderNotFound)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListPaymentLogs(ctx context.Context, userID, orderID uint) ([]model.PaymentLog, error) {
	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return logs, nil
}
