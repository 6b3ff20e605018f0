package midtrans

import "encoding/json"

// TransactionStatus is the gateway's transaction_status vocabulary.
type TransactionStatus string

const (
	StatusCapture    TransactionStatus = "capture"
	StatusSettlement TransactionStatus = "settlement"
	StatusPending    TransactionStatus = "pending"
	StatusDeny       TransactionStatus = "deny"
	StatusCancel     TransactionStatus = "cancel"
	StatusExpire     TransactionStatus = "expire"
	StatusRefund     TransactionStatus = "refund"
	StatusChallenge  TransactionStatus = "challenge"
)

type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// Notification is the body pushed to the webhook.
type Notification struct {
	OrderID           string            `json:"order_id"`
	StatusCode        string            `json:"status_code"`
	GrossAmount       string            `json:"gross_amount"`
	SignatureKey      string            `json:"signature_key"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	TransactionID     string            `json:"transaction_id"`
	TransactionTime   string            `json:"transaction_time"`
	SettlementTime    string            `json:"settlement_time,omitempty"`
	PaymentType       string            `json:"payment_type"`
	FraudStatus       string            `json:"fraud_status,omitempty"`
	VANumbers         []VANumber        `json:"va_numbers,omitempty"`
}

// StatusResponse is the canonical transaction state from the Core status API.
type StatusResponse struct {
	StatusCode        string            `json:"status_code"`
	StatusMessage     string            `json:"status_message"`
	OrderID           string            `json:"order_id"`
	TransactionID     string            `json:"transaction_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	TransactionTime   string            `json:"transaction_time"`
	SettlementTime    string            `json:"settlement_time,omitempty"`
	GrossAmount       string            `json:"gross_amount"`
	Currency          string            `json:"currency,omitempty"`
	PaymentType       string            `json:"payment_type"`
	FraudStatus       string            `json:"fraud_status,omitempty"`
	VANumbers         []VANumber        `json:"va_numbers,omitempty"`

	// Raw is the undecoded response body, kept for audit.
	Raw json.RawMessage `json:"-"`
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// SnapRequest creates a hosted payment page. The sum of item price*quantity
// must equal GrossAmount or the gateway rejects the request.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
}

type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type errorResponse struct {
	StatusCode    string   `json:"status_code"`
	StatusMessage string   `json:"status_message"`
	ErrorMessages []string `json:"error_messages"`
}
