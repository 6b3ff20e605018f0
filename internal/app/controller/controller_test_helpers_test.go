package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	"github.com/tokopangan/checkout-backend/internal/db"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/middleware"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
	"gorm.io/gorm"
)

const (
	testServerKey = "SB-Mid-server-controller"
	testJWTSecret = "controller-test-secret"
)

type stubQuoter struct {
	rates []komerce.Rate
	dests []komerce.Destination
	err   error
}

func (s *stubQuoter) GetRates(ctx context.Context, q komerce.RateQuery) ([]komerce.Rate, error) {
	return s.rates, s.err
}

func (s *stubQuoter) SearchDestinations(ctx context.Context, keyword string) ([]komerce.Destination, error) {
	if len([]rune(keyword)) < 3 {
		return nil, komerce.ErrKeywordTooShort
	}
	return s.dests, s.err
}

type stubGateway struct {
	mu       sync.Mutex
	snapErr  error
	statuses map[string]*midtrans.StatusResponse
}

func (s *stubGateway) CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error) {
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	return &midtrans.SnapResponse{Token: "tok-" + req.TransactionDetails.OrderID, RedirectURL: "https://pay.example/" + req.TransactionDetails.OrderID}, nil
}

func (s *stubGateway) TransactionStatus(ctx context.Context, ref string) (*midtrans.StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[ref]
	if !ok {
		return nil, midtrans.ErrTransactionNotFound
	}
	cp := *status
	return &cp, nil
}

// testEnv wires real services over an in-memory database with stubbed upstreams.
type testEnv struct {
	db        *gorm.DB
	quoter    *stubQuoter
	gateway   *stubGateway
	router    *gin.Engine
	auth      service.AuthService
	checkout  service.CheckoutService
	payments  service.PaymentService
	orders    service.OrderService
	carts     service.CartService
	products  service.ProductService
	shipping  service.ShippingService
	reconcile service.ReconcileService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	quoter := &stubQuoter{rates: []komerce.Rate{{ServiceCode: "REG23", CourierName: "JNE", ServiceName: "REG", Price: 9000, Etd: "2-3 day"}}}
	gateway := &stubGateway{statuses: map[string]*midtrans.StatusResponse{}}

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	logRepo := repository.NewPaymentLogRepository(testDB)

	payments := service.NewPaymentService(orderRepo, userRepo, gateway)

	gin.SetMode(gin.TestMode)
	apperrors.RegisterFieldNames()
	env := &testEnv{
		db:        testDB,
		quoter:    quoter,
		gateway:   gateway,
		router:    gin.New(),
		auth:      service.NewAuthService(userRepo, nil, testJWTSecret, 15*time.Minute, time.Hour),
		checkout:  service.NewCheckoutService(testDB, cartRepo, productRepo, orderRepo, quoter, payments, "17588"),
		payments:  payments,
		orders:    service.NewOrderService(orderRepo, logRepo),
		carts:     service.NewCartService(cartRepo, productRepo),
		products:  service.NewProductService(productRepo, nil),
		shipping:  service.NewShippingService(quoter, nil, "17588", 0),
		reconcile: service.NewReconcileService(testDB, orderRepo, logRepo, gateway, testServerKey),
	}
	return env
}

func setUserIDInContext(c *gin.Context, userID uint) {
	c.Set(middleware.UserIDKey, userID)
}

// asUser returns a handler chain that authenticates as userID before h.
func asUser(userID uint, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setUserIDInContext(c, userID)
		h(c)
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", FullName: "Test User", Role: model.RoleUser}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{Name: name, Price: price, Weight: 1, Stock: stock, Category: "Makanan"}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) fillCart(t *testing.T, userID, productID uint, qty int) {
	t.Helper()
	_, err := e.carts.AddItem(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.([]byte); ok {
			buf.Write(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
