package model

import (
	"time"
)

// RefundStatus represents the lifecycle state of a refund
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "PENDING"
	RefundStatusSuccess RefundStatus = "SUCCESS"
	RefundStatusFail    RefundStatus = "FAIL"
)

// PaymentRefund represents one refund action linked 1:1 to a Payment.
// CancelAmount always equals the sum of the deposit and gateway legs of
// the original payment.
type PaymentRefund struct {
	ID                  int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID           int64        `gorm:"not null;index" json:"payment_id"`
	OrderID             string       `gorm:"not null;size:100;index" json:"order_id"`
	CancelAmount        int64        `gorm:"not null" json:"cancel_amount"`
	DepositRefundAmount int64        `gorm:"not null;default:0" json:"deposit_refund_amount"`
	GatewayRefundAmount int64        `gorm:"not null;default:0" json:"gateway_refund_amount"`
	Reason              string       `gorm:"size:200" json:"reason"`
	Status              RefundStatus `gorm:"not null;size:20" json:"status"`
	ApprovedAt          *time.Time   `json:"approved_at,omitempty"`
	CanceledAt          *time.Time   `json:"canceled_at,omitempty"`
	CreatedAt           time.Time    `gorm:"default:now()" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PaymentRefund) TableName() string {
	return "payment_refunds"
}
