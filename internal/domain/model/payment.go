package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// PayType represents the funding source of a payment
type PayType string

const (
	PayTypeDeposit           PayType = "DEPOSIT"
	PayTypeGateway           PayType = "GATEWAY"
	PayTypeDepositAndGateway PayType = "DEPOSIT_AND_GATEWAY"
)

// Scan implements sql.Scanner interface
func (t *PayType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = PayType(v)
	case []byte:
		*t = PayType(v)
	default:
		return nil
	}
	return nil
}

// Value implements driver.Valuer interface
func (t PayType) Value() (driver.Value, error) {
	return string(t), nil
}

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFail    PaymentStatus = "FAIL"
)

// Payment represents one confirmed payment attempt for an order.
// A row is only created inside a successful confirmation transaction;
// failed attempts leave audit log entries, never Payment rows.
type Payment struct {
	ID                    int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID               string        `gorm:"not null;size:100;index" json:"order_id"`
	UserID                uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentKey            string        `gorm:"not null;unique;size:200" json:"payment_key"`
	GatewayTransactionKey *string       `gorm:"size:200" json:"gateway_transaction_key,omitempty"`
	TotalAmount           int64         `gorm:"not null" json:"total_amount"`
	DepositUsedAmount     int64         `gorm:"not null;default:0" json:"deposit_used_amount"`
	GatewayChargedAmount  int64         `gorm:"not null;default:0" json:"gateway_charged_amount"`
	Currency              string        `gorm:"size:3;default:'KRW'" json:"currency"`
	PayType               PayType       `gorm:"column:pay_type;not null;size:30" json:"pay_type"`
	Status                PaymentStatus `gorm:"not null;size:20;index" json:"status"`
	ApprovedAt            *time.Time    `json:"approved_at,omitempty"`
	CreatedAt             time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time     `gorm:"default:now()" json:"updated_at"`

	// Relations
	Refund *PaymentRefund `gorm:"foreignKey:PaymentID" json:"refund,omitempty"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
