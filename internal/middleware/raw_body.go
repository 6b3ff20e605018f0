package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/internal/errors"
)

const (
	RawBodyKey     = "raw_body"
	maxRawBodySize = 1 << 20
)

// RawBody captures the exact request bytes before any binding so signature
// checks see what the sender signed. The body stays readable downstream.
func RawBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Set(RawBodyKey, []byte{})
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRawBodySize+1))
		if err != nil {
			GetLoggerFromContext(c).Warn("Failed to read request body", map[string]interface{}{
				"error": err.Error(),
			})
			errors.BadRequest(c, errors.PaymentBodyMissing, "Unable to read request body")
			c.Abort()
			return
		}
		if len(body) > maxRawBodySize {
			errors.RespondWithError(c, http.StatusRequestEntityTooLarge, errors.ValidationInvalidInput, "Request body too large")
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(RawBodyKey, body)
		c.Next()
	}
}

// GetRawBody returns the bytes captured by RawBody.
func GetRawBody(c *gin.Context) []byte {
	v, ok := c.Get(RawBodyKey)
	if !ok {
		return nil
	}
	body, _ := v.([]byte)
	return body
}
