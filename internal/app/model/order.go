package model

import (
	"time"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
	OrderStatusChallenge OrderStatus = "CHALLENGE"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"

	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusChallenge PaymentStatus = "CHALLENGE"

	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodPaypal       PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCOD          PaymentMethod = "COD"
)

// CanTransitionTo reports whether a payment may move from s to next.
// PAID only moves on to REFUNDED; REFUNDED is terminal; nothing returns to PENDING.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case "", PaymentStatusPending:
		return true
	case PaymentStatusChallenge:
		return next != PaymentStatusPending
	case PaymentStatusFailed:
		return next == PaymentStatusPaid || next == PaymentStatusRefunded
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// OrderStatus projects a payment status onto the order lifecycle.
func (s PaymentStatus) OrderStatus() OrderStatus {
	switch s {
	case PaymentStatusPaid:
		return OrderStatusPaid
	case PaymentStatusFailed:
		return OrderStatusFailed
	case PaymentStatusRefunded:
		return OrderStatusRefunded
	case PaymentStatusChallenge:
		return OrderStatusChallenge
	default:
		return OrderStatusPending
	}
}

// IsFulfillmentStage reports whether the order has left the payment phase;
// payment notifications no longer change its status.
func (s OrderStatus) IsFulfillmentStage() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPaypal, PaymentMethodBankTransfer, PaymentMethodCOD:
		return true
	}
	return false
}

// Order totals and items are written once at checkout. Later updates touch
// only status and payment columns.
type Order struct {
	ID                uint          `gorm:"primarykey" json:"id"`
	UserID            uint          `gorm:"not null;index" json:"user_id"`
	SubTotal          float64       `gorm:"not null" json:"sub_total"`
	ShippingCost      float64       `gorm:"not null" json:"shipping_cost"`
	TotalAmount       float64       `gorm:"not null" json:"total_amount"`
	Status            OrderStatus   `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	ShippingAddress   string        `gorm:"type:text" json:"shipping_address"`
	DestinationID     string        `gorm:"type:varchar(20)" json:"destination_id"`
	Courier           string        `gorm:"type:varchar(100)" json:"courier"`
	ShippingService   string        `gorm:"type:varchar(100)" json:"shipping_service"`
	EstimatedDelivery string        `gorm:"type:varchar(50)" json:"estimated_delivery"`
	Notes             string        `gorm:"type:text" json:"notes,omitempty"`
	PaymentMethod     string        `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);default:'PENDING'" json:"payment_status"`
	PaymentVaNumber   string        `gorm:"type:varchar(50)" json:"payment_va_number,omitempty"`
	PaymentBank       string        `gorm:"type:varchar(20)" json:"payment_bank,omitempty"`
	PaymentToken      string        `gorm:"type:varchar(100)" json:"payment_token,omitempty"`
	PaymentURL        string        `gorm:"type:text" json:"payment_url,omitempty"`
	MidtransOrderID   *string       `gorm:"type:varchar(64);uniqueIndex" json:"midtrans_order_id,omitempty"`
	MidtransResponse  string        `gorm:"type:text" json:"-"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	Items       []OrderItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	PaymentLogs []PaymentLog `gorm:"foreignKey:OrderID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// GatewayOrderID returns the payment gateway correlation id, or "" before it is assigned.
func (o *Order) GatewayOrderID() string {
	if o.MidtransOrderID == nil {
		return ""
	}
	return *o.MidtransOrderID
}

// OrderItem holds the price captured at checkout, independent of later catalog changes.
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
