package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
)

type OrderController struct {
	orderService   service.OrderService
	paymentService service.PaymentService
}

func NewOrderController(orderService service.OrderService, paymentService service.PaymentService) *OrderController {
	return &OrderController{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// GetOrders
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetPaymentLogs lists the gateway notifications applied to an order
// GET /api/v1/orders/:id/payments
func (ctrl *OrderController) GetPaymentLogs(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	logs, err := ctrl.orderService.ListPaymentLogs(c.Request.Context(), userID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": logs})
}

// RetryPaymentSession reopens the hosted payment page for a PENDING order
// POST /api/v1/orders/:id/payment-session
func (ctrl *OrderController) RetryPaymentSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.paymentService.RetryPaymentSession(c.Request.Context(), userID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
