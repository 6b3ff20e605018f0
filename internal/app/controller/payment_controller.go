package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/middleware"
)

type PaymentController struct {
	reconcileService service.ReconcileService
}

func NewPaymentController(reconcileService service.ReconcileService) *PaymentController {
	return &PaymentController{
		reconcileService: reconcileService,
	}
}

// HandleNotification applies a payment gateway webhook. It reads the bytes
// captured by middleware.RawBody; any 5xx makes the gateway redeliver.
// POST /api/v1/payments/notification
func (ctrl *PaymentController) HandleNotification(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.reconcileService.Reconcile(c.Request.Context(), middleware.GetRawBody(c)); err != nil {
		kind := apperrors.KindOf(err)
		if kind == apperrors.KindInternal || kind == apperrors.KindUpstream {
			log.Error("Payment notification failed", err)
		}
		apperrors.Respond(c, err)
		return
	}

	c.String(http.StatusOK, "OK")
}
