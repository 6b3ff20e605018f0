package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
)

type ShippingController struct {
	shippingService service.ShippingService
}

func NewShippingController(shippingService service.ShippingService) *ShippingController {
	return &ShippingController{
		shippingService: shippingService,
	}
}

type ShippingOptionsQuery struct {
	DestinationID string  `form:"destinationId" binding:"required,number"`
	Weight        float64 `form:"weight" binding:"required,gt=0"`
	ItemValue     float64 `form:"itemValue" binding:"min=0"`
	COD           bool    `form:"cod"`
}

type DestinationSearchQuery struct {
	Keyword string `form:"keyword" binding:"required"`
}

// GetOptions quotes every courier service for a destination. Weight is in kilograms.
// GET /api/v1/shipping/options
func (ctrl *ShippingController) GetOptions(c *gin.Context) {
	var q ShippingOptionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	rates, err := ctrl.shippingService.GetOptions(c.Request.Context(), service.ShippingOptionsQuery{
		DestinationID: q.DestinationID,
		WeightKg:      q.Weight,
		ItemValue:     q.ItemValue,
		COD:           q.COD,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": rates})
}

// SearchDestinations
// GET /api/v1/shipping/destinations?keyword=
func (ctrl *ShippingController) SearchDestinations(c *gin.Context) {
	var q DestinationSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	dests, err := ctrl.shippingService.SearchDestinations(c.Request.Context(), q.Keyword)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": dests})
}
