package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/db"
	"github.com/tokopangan/checkout-backend/internal/storage"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	rediscache "github.com/tokopangan/checkout-backend/pkg/redis"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
	"gorm.io/gorm"
)

const testServerKey = "SB-Mid-server-test"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Test User",
		Phone:        "081234567890",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, testDB *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Price:    price,
		Weight:   1,
		Stock:    stock,
		Category: "Makanan",
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func addToCart(t *testing.T, testDB *gorm.DB, userID, productID uint, qty int) {
	t.Helper()
	cart := model.Cart{UserID: userID}
	require.NoError(t, testDB.Where("user_id = ?", userID).FirstOrCreate(&cart).Error)
	require.NoError(t, testDB.Create(&model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}).Error)
}

// fakeQuoter returns fixed rates and records every query. onQuote, when
// set, runs while the quote is in flight.
type fakeQuoter struct {
	mu      sync.Mutex
	rates   []komerce.Rate
	dests   []komerce.Destination
	err     error
	queries []komerce.RateQuery
	onQuote func()
}

func (f *fakeQuoter) GetRates(ctx context.Context, q komerce.RateQuery) ([]komerce.Rate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hook, rates, err := f.onQuote, f.rates, f.err
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (f *fakeQuoter) SearchDestinations(ctx context.Context, keyword string) ([]komerce.Destination, error) {
	if len([]rune(keyword)) < 3 {
		return nil, komerce.ErrKeywordTooShort
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.dests, nil
}

func (f *fakeQuoter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func regRate() komerce.Rate {
	return komerce.Rate{ServiceCode: "REG23", CourierName: "JNE", ServiceName: "REG", Price: 9000, Etd: "2-3 day"}
}

// fakeGateway serves snap sessions and canned status responses keyed by
// transaction reference.
type fakeGateway struct {
	mu        sync.Mutex
	snapErr   error
	snapReqs  []midtrans.SnapRequest
	statuses  map[string]*midtrans.StatusResponse
	statusErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]*midtrans.StatusResponse{}}
}

func (f *fakeGateway) CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapReqs = append(f.snapReqs, req)
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return &midtrans.SnapResponse{
		Token:       "snap-token-" + req.TransactionDetails.OrderID,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + req.TransactionDetails.OrderID,
	}, nil
}

func (f *fakeGateway) TransactionStatus(ctx context.Context, ref string) (*midtrans.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status, ok := f.statuses[ref]
	if !ok {
		return nil, midtrans.ErrTransactionNotFound
	}
	cp := *status
	return &cp, nil
}

func (f *fakeGateway) setStatus(ref string, status *midtrans.StatusResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[ref] = status
}

// memoryCache implements JSONCache over a plain map.
type memoryCache struct {
	mu     sync.Mutex
	data   map[string]interface{}
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]interface{}{}}
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return rediscache.ErrCacheMiss
	}
	rates, ok := dest.(*[]komerce.Rate)
	if !ok {
		return errors.New("unsupported cache type")
	}
	*rates = v.([]komerce.Rate)
	return nil
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type memoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{tokens: map[string]time.Duration{}}
}

func (m *memoryBlacklist) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = expiry
	return nil
}

func (m *memoryBlacklist) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok, nil
}

type fakeImageStorage struct {
	err error
}

func (f *fakeImageStorage) PresignProductImage(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storage.PresignedURLResponse{
		UploadURL: "https://bucket.s3.amazonaws.com/products/abc.png?X-Amz-Signature=x",
		FileURL:   "https://cdn.example.com/products/abc.png",
		Key:       "products/abc.png",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}
