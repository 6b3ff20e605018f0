package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter, responding 400 when it is not one.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// requireUserID reads the authenticated user, responding 401 when absent.
func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}
