package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
)

// ErrDuplicatePayment is returned when a concurrent confirmation for the
// same order already committed a SUCCESS payment. The partial unique index
// on (order_id) WHERE status = 'SUCCESS' makes the losing insert fail.
var ErrDuplicatePayment = errors.New("duplicate success payment for order")

// PaymentRepository defines persistence for payments and their refunds
type PaymentRepository interface {
	// CreateTx inserts a payment inside the given transaction
	CreateTx(ctx context.Context, tx *gorm.DB, payment *model.Payment) error

	// FindSuccessByOrderID returns the SUCCESS payment for an order, or
	// nil when none exists (the idempotency check)
	FindSuccessByOrderID(ctx context.Context, orderID string) (*model.Payment, error)

	// FindApprovedBetween returns SUCCESS payments approved within
	// [start, end), ordered by approval time, for settlement export
	FindApprovedBetween(ctx context.Context, start, end time.Time) ([]*model.Payment, error)

	// CreateRefund inserts a PENDING refund row, committed immediately
	CreateRefund(ctx context.Context, refund *model.PaymentRefund) error

	// UpdateRefundTx saves refund mutations inside the given transaction
	UpdateRefundTx(ctx context.Context, tx *gorm.DB, refund *model.PaymentRefund) error

	// UpdateRefund saves refund mutations outside any caller transaction
	UpdateRefund(ctx context.Context, refund *model.PaymentRefund) error

	// FindRefundByPaymentID returns the refund linked to a payment, or nil
	FindRefundByPaymentID(ctx context.Context, paymentID int64) (*model.PaymentRefund, error)
}
