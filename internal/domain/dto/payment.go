package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
)

// ReadyInfoResponse is returned by the checkout ready endpoint
type ReadyInfoResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	OrderID        string    `json:"order_id"`
	Amount         int64     `json:"amount"`
	DepositBalance int64     `json:"deposit_balance"`
	OrderName      string    `json:"order_name"`
}

// ConfirmDepositRequest confirms an order funded entirely by deposit
type ConfirmDepositRequest struct {
	OrderID           string `json:"order_id" validate:"required"`
	Amount            int64  `json:"amount" validate:"required,gt=0"`
	UsedDepositAmount int64  `json:"used_deposit_amount" validate:"required,gt=0"`
	PaymentKey        string `json:"payment_key"`
}

// ConfirmGatewayRequest confirms an order charged at the gateway,
// optionally subsidized by deposit
type ConfirmGatewayRequest struct {
	PaymentKey        string `json:"payment_key" validate:"required"`
	OrderID           string `json:"order_id" validate:"required"`
	Amount            int64  `json:"amount" validate:"required,gt=0"`
	UsedDepositAmount int64  `json:"used_deposit_amount" validate:"gte=0"`
}

// RefundRequest reverses the payment of an order
type RefundRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Reason  string `json:"reason"`
}

// PaymentProjection is the caller-facing view of a payment
type PaymentProjection struct {
	OrderID               string     `json:"order_id"`
	UserID                uuid.UUID  `json:"user_id"`
	PaymentKey            string     `json:"payment_key"`
	GatewayTransactionKey *string    `json:"gateway_transaction_key,omitempty"`
	TotalAmount           int64      `json:"total_amount"`
	DepositUsedAmount     int64      `json:"deposit_used_amount"`
	GatewayChargedAmount  int64      `json:"gateway_charged_amount"`
	Currency              string     `json:"currency"`
	PayType               string     `json:"pay_type"`
	Status                string     `json:"status"`
	ApprovedAt            *time.Time `json:"approved_at,omitempty"`
}

// NewPaymentProjection builds the projection from a payment row
func NewPaymentProjection(p *model.Payment) *PaymentProjection {
	return &PaymentProjection{
		OrderID:               p.OrderID,
		UserID:                p.UserID,
		PaymentKey:            p.PaymentKey,
		GatewayTransactionKey: p.GatewayTransactionKey,
		TotalAmount:           p.TotalAmount,
		DepositUsedAmount:     p.DepositUsedAmount,
		GatewayChargedAmount:  p.GatewayChargedAmount,
		Currency:              p.Currency,
		PayType:               string(p.PayType),
		Status:                string(p.Status),
		ApprovedAt:            p.ApprovedAt,
	}
}

// RefundProjection is the caller-facing view of a refund
type RefundProjection struct {
	OrderID             string     `json:"order_id"`
	CancelAmount        int64      `json:"cancel_amount"`
	DepositRefundAmount int64      `json:"deposit_refund_amount"`
	GatewayRefundAmount int64      `json:"gateway_refund_amount"`
	Reason              string     `json:"reason"`
	Status              string     `json:"status"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	CanceledAt          *time.Time `json:"canceled_at,omitempty"`
}

// NewRefundProjection builds the projection from a refund row
func NewRefundProjection(r *model.PaymentRefund) *RefundProjection {
	return &RefundProjection{
		OrderID:             r.OrderID,
		CancelAmount:        r.CancelAmount,
		DepositRefundAmount: r.DepositRefundAmount,
		GatewayRefundAmount: r.GatewayRefundAmount,
		Reason:              r.Reason,
		Status:              string(r.Status),
		ApprovedAt:          r.ApprovedAt,
		CanceledAt:          r.CanceledAt,
	}
}

// SettlementResponse lists payments approved within a window
type SettlementResponse struct {
	StartDate time.Time            `json:"start_date"`
	EndDate   time.Time            `json:"end_date"`
	Count     int                  `json:"count"`
	Payments  []*PaymentProjection `json:"payments"`
}
