package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	"gorm.io/gorm"
)

type reconcileFixture struct {
	db        *gorm.DB
	gateway   *fakeGateway
	reconcile ReconcileService
	order     *model.Order
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	testDB := setupTestDB(t)
	gateway := newFakeGateway()
	orderRepo := repository.NewOrderRepository(testDB)

	user := createTestUser(t, testDB, "buyer@example.com")
	product := createTestProduct(t, testDB, "Kopi Gayo", 20000, 5)
	gatewayID := "ORDER-1-a1b2c3d4"
	order := &model.Order{
		UserID:          user.ID,
		SubTotal:        20000,
		ShippingCost:    9000,
		TotalAmount:     29000,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   string(model.PaymentMethodBankTransfer),
		MidtransOrderID: &gatewayID,
		Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: 20000}},
	}
	require.NoError(t, orderRepo.Create(context.Background(), order))

	svc := NewReconcileService(testDB, orderRepo, repository.NewPaymentLogRepository(testDB), gateway, testServerKey)
	return &reconcileFixture{db: testDB, gateway: gateway, reconcile: svc, order: order}
}

func (f *reconcileFixture) reload(t *testing.T) *model.Order {
	t.Helper()
	var o model.Order
	require.NoError(t, f.db.First(&o, f.order.ID).Error)
	return &o
}

func (f *reconcileFixture) logs(t *testing.T) []model.PaymentLog {
	t.Helper()
	var logs []model.PaymentLog
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).Order("id").Find(&logs).Error)
	return logs
}

// settle registers a canonical gateway state and returns a signed notification body for it.
func (f *reconcileFixture) settle(t *testing.T, status midtrans.TransactionStatus, statusCode string) []byte {
	t.Helper()
	gatewayID := f.order.GatewayOrderID()
	resp := &midtrans.StatusResponse{
		StatusCode:        statusCode,
		OrderID:           gatewayID,
		TransactionID:     "trx-" + string(status),
		TransactionStatus: status,
		TransactionTime:   "2024-05-01 10:00:00",
		GrossAmount:       "29000.00",
		PaymentType:       "bank_transfer",
		VANumbers:         []midtrans.VANumber{{Bank: "bca", VANumber: "12345"}},
	}
	if status == midtrans.StatusSettlement {
		resp.SettlementTime = "2024-05-01 10:05:00"
	}
	f.gateway.setStatus(resp.TransactionID, resp)

	return signedNotification(t, midtrans.Notification{
		OrderID:           gatewayID,
		StatusCode:        statusCode,
		GrossAmount:       "29000.00",
		TransactionStatus: status,
		TransactionID:     resp.TransactionID,
		PaymentType:       "bank_transfer",
		VANumbers:         resp.VANumbers,
	})
}

func signedNotification(t *testing.T, n midtrans.Notification) []byte {
	t.Helper()
	n.SignatureKey = midtrans.ComputeSignature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	body, err := json.Marshal(n)
	require.NoError(t, err)
	return body
}

func TestReconcile_SettlementMarksOrderPaid(t *testing.T) {
	f := newReconcileFixture(t)
	body := f.settle(t, midtrans.StatusSettlement, "200")

	require.NoError(t, f.reconcile.Reconcile(context.Background(), body))

	order := f.reload(t)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "bca", order.PaymentBank)
	assert.Equal(t, "12345", order.PaymentVaNumber)
	assert.Equal(t, "bank_transfer", order.PaymentMethod)
	require.NotNil(t, order.PaidAt)
	wantPaidAt := time.Date(2024, 5, 1, 10, 5, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.True(t, wantPaidAt.Equal(*order.PaidAt), "paid_at = %v", order.PaidAt)
	assert.NotEmpty(t, order.MidtransResponse)

	logs := f.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.PaymentStatusPaid, logs[0].Status)
	assert.Equal(t, float64(29000), logs[0].Amount)
	assert.Equal(t, "trx-settlement", logs[0].TransactionID)
	require.NotNil(t, logs[0].PaidAt)
	assert.NotEmpty(t, logs[0].Payload)
}

func TestReconcile_ReplayIsIdempotent(t *testing.T) {
	f := newReconcileFixture(t)
	body := f.settle(t, midtrans.StatusSettlement, "200")

	require.NoError(t, f.reconcile.Reconcile(context.Background(), body))
	first := f.reload(t)
	require.NoError(t, f.reconcile.Reconcile(context.Background(), body))
	second := f.reload(t)

	assert.Equal(t, model.PaymentStatusPaid, second.PaymentStatus)
	assert.Equal(t, first.Status, second.Status)
	assert.Len(t, f.logs(t), 2)
}

func TestReconcile_UsesCanonicalStatusOverPushedStatus(t *testing.T) {
	f := newReconcileFixture(t)
	gatewayID := f.order.GatewayOrderID()
	f.gateway.setStatus("trx-1", &midtrans.StatusResponse{
		StatusCode:        "201",
		OrderID:           gatewayID,
		TransactionID:     "trx-1",
		TransactionStatus: midtrans.StatusPending,
		GrossAmount:       "29000.00",
		PaymentType:       "bank_transfer",
	})

	// pushed body claims settlement, the gateway says pending
	body := signedNotification(t, midtrans.Notification{
		OrderID:           gatewayID,
		StatusCode:        "200",
		GrossAmount:       "29000.00",
		TransactionStatus: midtrans.StatusSettlement,
		TransactionID:     "trx-1",
	})
	require.NoError(t, f.reconcile.Reconcile(context.Background(), body))

	order := f.reload(t)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.PaidAt)
}

func TestReconcile_StatusMapping(t *testing.T) {
	tests := []struct {
		status      midtrans.TransactionStatus
		code        string
		wantPayment model.PaymentStatus
		wantOrder   model.OrderStatus
	}{
		{midtrans.StatusCapture, "200", model.PaymentStatusPaid, model.OrderStatusPaid},
		{midtrans.StatusPending, "201", model.PaymentStatusPending, model.OrderStatusPending},
		{midtrans.StatusDeny, "202", model.PaymentStatusFailed, model.OrderStatusFailed},
		{midtrans.StatusCancel, "202", model.PaymentStatusFailed, model.OrderStatusFailed},
		{midtrans.StatusExpire, "407", model.PaymentStatusFailed, model.OrderStatusFailed},
		{midtrans.StatusRefund, "200", model.PaymentStatusRefunded, model.OrderStatusRefunded},
		{midtrans.StatusChallenge, "201", model.PaymentStatusChallenge, model.OrderStatusChallenge},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newReconcileFixture(t)
			body := f.settle(t, tt.status, tt.code)
			require.NoError(t, f.reconcile.Reconcile(context.Background(), body))

			order := f.reload(t)
			assert.Equal(t, tt.wantPayment, order.PaymentStatus)
			assert.Equal(t, tt.wantOrder, order.Status)
		})
	}
}

func TestMapGatewayStatus_UnknownStaysPending(t *testing.T) {
	assert.Equal(t, model.PaymentStatusPending, mapGatewayStatus("authorize"))
	assert.Equal(t, model.PaymentStatusPending, mapGatewayStatus(""))
}

func TestReconcile_PaidOrderIsNotRegressed(t *testing.T) {
	f := newReconcileFixture(t)
	require.NoError(t, f.reconcile.Reconcile(context.Background(), f.settle(t, midtrans.StatusSettlement, "200")))

	// a late expiry for a settled order is recorded but does not undo the payment
	require.NoError(t, f.reconcile.Reconcile(context.Background(), f.settle(t, midtrans.StatusExpire, "407")))

	order := f.reload(t)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	logs := f.logs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, model.PaymentStatusFailed, logs[1].Status)
}

func TestReconcile_FulfilledOrderKeepsStatus(t *testing.T) {
	f := newReconcileFixture(t)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", f.order.ID).Update("status", model.OrderStatusCompleted).Error)

	require.NoError(t, f.reconcile.Reconcile(context.Background(), f.settle(t, midtrans.StatusSettlement, "200")))

	order := f.reload(t)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
}

func TestReconcile_InvalidSignatureChangesNothing(t *testing.T) {
	f := newReconcileFixture(t)
	f.settle(t, midtrans.StatusSettlement, "200")

	body, err := json.Marshal(midtrans.Notification{
		OrderID:           f.order.GatewayOrderID(),
		StatusCode:        "200",
		GrossAmount:       "29000.00",
		SignatureKey:      midtrans.ComputeSignature(f.order.GatewayOrderID(), "200", "29000.00", "wrong-key"),
		TransactionStatus: midtrans.StatusSettlement,
		TransactionID:     "trx-settlement",
	})
	require.NoError(t, err)

	err = f.reconcile.Reconcile(context.Background(), body)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))

	order := f.reload(t)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Empty(t, order.PaymentVaNumber)
	assert.Empty(t, f.logs(t))
}

func TestReconcile_TamperedAmountFailsSignature(t *testing.T) {
	f := newReconcileFixture(t)
	body := f.settle(t, midtrans.StatusSettlement, "200")

	var n map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &n))
	n["gross_amount"] = "1.00"
	tampered, err := json.Marshal(n)
	require.NoError(t, err)

	assert.ErrorIs(t, f.reconcile.Reconcile(context.Background(), tampered), ErrSignatureInvalid)
	assert.Empty(t, f.logs(t))
}

func TestReconcile_MalformedBodies(t *testing.T) {
	f := newReconcileFixture(t)

	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"empty", nil, ErrNotificationBodyMissing},
		{"whitespace", []byte("  \n"), ErrNotificationBodyMissing},
		{"not json", []byte("order_id=1"), ErrNotificationMalformed},
		{"missing order id", []byte(`{"status_code":"200"}`), ErrNotificationMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.reconcile.Reconcile(context.Background(), tt.body)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
	assert.Empty(t, f.logs(t))
}

func TestReconcile_UnknownOrder(t *testing.T) {
	f := newReconcileFixture(t)
	f.gateway.setStatus("trx-x", &midtrans.StatusResponse{
		OrderID:           "ORDER-999-ffffffff",
		TransactionID:     "trx-x",
		TransactionStatus: midtrans.StatusSettlement,
		GrossAmount:       "1000.00",
	})
	body := signedNotification(t, midtrans.Notification{
		OrderID:       "ORDER-999-ffffffff",
		StatusCode:    "200",
		GrossAmount:   "1000.00",
		TransactionID: "trx-x",
	})

	err := f.reconcile.Reconcile(context.Background(), body)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestReconcile_GatewayMismatchIsRejected(t *testing.T) {
	f := newReconcileFixture(t)
	f.gateway.setStatus("trx-1", &midtrans.StatusResponse{
		OrderID:           "ORDER-2-00000000",
		TransactionID:     "trx-1",
		TransactionStatus: midtrans.StatusSettlement,
	})
	body := signedNotification(t, midtrans.Notification{
		OrderID:       f.order.GatewayOrderID(),
		StatusCode:    "200",
		GrossAmount:   "29000.00",
		TransactionID: "trx-1",
	})

	err := f.reconcile.Reconcile(context.Background(), body)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
	assert.Empty(t, f.logs(t))
}

func TestReconcile_GatewayUnavailable(t *testing.T) {
	f := newReconcileFixture(t)
	body := f.settle(t, midtrans.StatusSettlement, "200")
	f.gateway.statusErr = midtrans.ErrNetworkError

	err := f.reconcile.Reconcile(context.Background(), body)
	assert.ErrorIs(t, err, ErrPaymentUpstream)
	assert.True(t, errors.Is(err, midtrans.ErrNetworkError))
	assert.Equal(t, model.PaymentStatusPending, f.reload(t).PaymentStatus)
}

func TestReconcileOrder(t *testing.T) {
	f := newReconcileFixture(t)

	// no transaction at the gateway yet
	require.NoError(t, f.reconcile.ReconcileOrder(context.Background(), f.order))
	assert.Empty(t, f.logs(t))

	resp := &midtrans.StatusResponse{
		StatusCode:        "407",
		OrderID:           f.order.GatewayOrderID(),
		TransactionID:     "trx-exp",
		TransactionStatus: midtrans.StatusExpire,
		GrossAmount:       "29000.00",
		PaymentType:       "bank_transfer",
	}
	f.gateway.setStatus(f.order.GatewayOrderID(), resp)

	require.NoError(t, f.reconcile.ReconcileOrder(context.Background(), f.order))
	assert.Equal(t, model.PaymentStatusFailed, f.reload(t).PaymentStatus)
	assert.Len(t, f.logs(t), 1)
}

func TestReconcileOrder_UnchangedStatusWritesNothing(t *testing.T) {
	f := newReconcileFixture(t)
	f.gateway.setStatus(f.order.GatewayOrderID(), &midtrans.StatusResponse{
		StatusCode:        "201",
		OrderID:           f.order.GatewayOrderID(),
		TransactionID:     "trx-pending",
		TransactionStatus: midtrans.StatusPending,
		GrossAmount:       "29000.00",
		PaymentType:       "bank_transfer",
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, f.reconcile.ReconcileOrder(context.Background(), f.order))
	}

	assert.Empty(t, f.logs(t))
	stored := f.reload(t)
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.MidtransResponse)
}

func TestReconcileOrder_PaidOrderIsLeftAlone(t *testing.T) {
	f := newReconcileFixture(t)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", f.order.ID).
		Updates(map[string]interface{}{"payment_status": model.PaymentStatusPaid, "status": model.OrderStatusPaid}).Error)
	paid := f.reload(t)

	f.gateway.setStatus(paid.GatewayOrderID(), &midtrans.StatusResponse{
		StatusCode:        "201",
		OrderID:           paid.GatewayOrderID(),
		TransactionID:     "trx-late",
		TransactionStatus: midtrans.StatusPending,
		GrossAmount:       "29000.00",
	})

	require.NoError(t, f.reconcile.ReconcileOrder(context.Background(), paid))
	assert.Empty(t, f.logs(t))
	assert.Equal(t, model.PaymentStatusPaid, f.reload(t).PaymentStatus)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 29000.0, parseAmount("29000.00", 1))
	assert.Equal(t, 1.0, parseAmount("", 1))
}
