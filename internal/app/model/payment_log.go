package model

import (
	"time"
)

// PaymentLog is an append-only record of one processed gateway notification.
type PaymentLog struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	OrderID       uint          `gorm:"not null;index" json:"order_id"`
	PaymentMethod string        `gorm:"type:varchar(50)" json:"payment_method"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	TransactionID string        `gorm:"type:varchar(64);index" json:"transaction_id"`
	PaymentTime   time.Time     `json:"payment_time"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	Payload       string        `gorm:"type:text" json:"payload"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (PaymentLog) TableName() string {
	return "payment_logs"
}
