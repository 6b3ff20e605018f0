package controller

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/service"
)

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"shippingAddress": "Jl. Sudirman No. 1, Jakarta",
		"destinationId":   "31555",
		"shippingService": "REG23",
		"paymentMethod":   "BANK_TRANSFER",
	}
}

func checkoutRequest() service.CheckoutRequest {
	return service.CheckoutRequest{
		ShippingAddress: "Jl. Sudirman No. 1, Jakarta",
		DestinationID:   "31555",
		ShippingService: "REG23",
		PaymentMethod:   model.PaymentMethodBankTransfer,
	}
}

func TestCheckoutController_Created(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "Kopi Gayo", 20000, 5)
	env.fillCart(t, user.ID, product.ID, 1)

	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	w := doJSON(env.router, http.MethodPost, "/checkout", checkoutBody())
	assertStatus(t, w, http.StatusCreated)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(20000), data["sub_total"])
	assert.Equal(t, float64(9000), data["shipping_cost"])
	assert.Equal(t, float64(29000), data["total_amount"])
	assert.Equal(t, "PENDING", data["payment_status"])
	assert.NotEmpty(t, data["payment_url"])
	assert.NotEmpty(t, data["midtrans_order_id"])

	var stored model.Product
	require.NoError(t, env.db.First(&stored, product.ID).Error)
	assert.Equal(t, 4, stored.Stock)
}

func TestCheckoutController_Validation(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "buyer@example.com")
	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	tests := []struct {
		name  string
		patch map[string]interface{}
		field string
	}{
		{"short address", map[string]interface{}{"shippingAddress": "Jl. A"}, "shippingAddress"},
		{"non numeric destination", map[string]interface{}{"destinationId": "JKT-1"}, "destinationId"},
		{"missing service", map[string]interface{}{"shippingService": ""}, "shippingService"},
		{"unknown method", map[string]interface{}{"paymentMethod": "bank_transfer"}, "paymentMethod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := checkoutBody()
			for k, v := range tt.patch {
				body[k] = v
			}
			w := doJSON(env.router, http.MethodPost, "/checkout", body)
			assertStatus(t, w, http.StatusBadRequest)

			resp := decode(t, w)
			assert.Equal(t, "VALIDATION_INVALID_INPUT", resp["error"])
			assert.Contains(t, resp["details"], tt.field)
		})
	}
}

func TestCheckoutController_EmptyCart(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "buyer@example.com")
	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	w := doJSON(env.router, http.MethodPost, "/checkout", checkoutBody())
	assertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "CART_EMPTY", decode(t, w)["error"])
}

func TestCheckoutController_InsufficientStockDetails(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "Kopi Gayo", 20000, 2)
	env.fillCart(t, user.ID, product.ID, 2)
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", product.ID).Update("stock", 1).Error)

	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	w := doJSON(env.router, http.MethodPost, "/checkout", checkoutBody())
	assertStatus(t, w, http.StatusBadRequest)

	resp := decode(t, w)
	assert.Equal(t, "STOCK_INSUFFICIENT", resp["error"])
	items := resp["details"].(map[string]interface{})["outOfStockItems"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Kopi Gayo", item["productName"])
	assert.Equal(t, float64(1), item["available"])
}

func TestCheckoutController_UnavailableService(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "Kopi Gayo", 20000, 5)
	env.fillCart(t, user.ID, product.ID, 1)

	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	body := checkoutBody()
	body["shippingService"] = "SAMEDAY"
	w := doJSON(env.router, http.MethodPost, "/checkout", body)
	assertStatus(t, w, http.StatusBadRequest)

	resp := decode(t, w)
	assert.Equal(t, "SHIPPING_SERVICE_UNAVAILABLE", resp["error"])
	services := resp["details"].(map[string]interface{})["availableServices"].([]interface{})
	assert.Len(t, services, 1)
}

func TestCheckoutController_SessionFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.gateway.snapErr = errors.New("snap down")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "Kopi Gayo", 20000, 5)
	env.fillCart(t, user.ID, product.ID, 1)

	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", asUser(user.ID, ctrl.Checkout))

	w := doJSON(env.router, http.MethodPost, "/checkout", checkoutBody())
	assertStatus(t, w, http.StatusInternalServerError)

	resp := decode(t, w)
	assert.Equal(t, "PAYMENT_SESSION_FAILED", resp["error"])
	assert.NotContains(t, w.Body.String(), "snap down")
	details := resp["details"].(map[string]interface{})
	assert.NotZero(t, details["order_id"])

	var orders int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestCheckoutController_RequiresUser(t *testing.T) {
	env := setupTestEnv(t)
	ctrl := NewCheckoutController(env.checkout)
	env.router.POST("/checkout", ctrl.Checkout)

	w := doJSON(env.router, http.MethodPost, "/checkout", checkoutBody())
	assertStatus(t, w, http.StatusUnauthorized)
}
