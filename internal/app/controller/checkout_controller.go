package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress" binding:"required,min=10,max=255"`
	DestinationID   string `json:"destinationId" binding:"required,number"`
	ShippingService string `json:"shippingService" binding:"required"`
	PaymentMethod   string `json:"paymentMethod" binding:"required,oneof=CREDIT_CARD PAYPAL BANK_TRANSFER COD"`
	Notes           string `json:"notes" binding:"max=500"`
}

// Checkout turns the caller's cart into an order and opens a payment session
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	order, err := ctrl.checkoutService.Checkout(c.Request.Context(), userID, service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		DestinationID:   req.DestinationID,
		ShippingService: req.ShippingService,
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		Notes:           req.Notes,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}
