package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
)

func TestShippingController_Options(t *testing.T) {
	env := setupTestEnv(t)
	ctrl := NewShippingController(env.shipping)
	env.router.GET("/shipping/options", ctrl.GetOptions)

	w := doJSON(env.router, http.MethodGet, "/shipping/options?destinationId=31555&weight=1.5&itemValue=20000&cod=true", nil)
	assertStatus(t, w, http.StatusOK)
	options := decode(t, w)["options"].([]interface{})
	first := options[0].(map[string]interface{})
	assert.Equal(t, "REG23", first["service_code"])

	w = doJSON(env.router, http.MethodGet, "/shipping/options?weight=1", nil)
	assertStatus(t, w, http.StatusBadRequest)
	details := decode(t, w)["details"].(map[string]interface{})
	assert.Equal(t, "required", details["destinationId"])

	w = doJSON(env.router, http.MethodGet, "/shipping/options?destinationId=31555&weight=1&itemValue=-5", nil)
	assertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, decode(t, w)["details"], "itemValue")

	env.quoter.err = komerce.ErrUpstream
	w = doJSON(env.router, http.MethodGet, "/shipping/options?destinationId=31555&weight=1", nil)
	assertStatus(t, w, http.StatusInternalServerError)
	assert.Equal(t, "SHIPPING_UPSTREAM", decode(t, w)["error"])
}

func TestShippingController_Destinations(t *testing.T) {
	env := setupTestEnv(t)
	env.quoter.dests = []komerce.Destination{{ID: 31555, Label: "GAMBIR, JAKARTA PUSAT"}}
	ctrl := NewShippingController(env.shipping)
	env.router.GET("/shipping/destinations", ctrl.SearchDestinations)

	w := doJSON(env.router, http.MethodGet, "/shipping/destinations?keyword=gambir", nil)
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, decode(t, w)["destinations"], 1)

	w = doJSON(env.router, http.MethodGet, "/shipping/destinations?keyword=ga", nil)
	assertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "SHIPPING_KEYWORD_TOO_SHORT", decode(t, w)["error"])
}
