package order

import (
	"context"

	"github.com/google/uuid"
)

// Status values reported by the order service
const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusPaid           = "PAID"
	StatusCanceled       = "CANCELED"
)

// Order is the projection the order service exposes to the payment core.
type Order struct {
	OrderID     string    `json:"order_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	TotalAmount int64     `json:"total_amount"`
	OrderName   string    `json:"order_name"`
	Status      string    `json:"status"`
}

// Service is the narrow contract consumed from the order collaborator.
// Implementations must return ORDER_NOT_FOUND / UNAUTHORIZED coded errors
// when the order is missing or the caller is not the buyer.
type Service interface {
	GetOrder(ctx context.Context, orderID string, userID uuid.UUID) (*Order, error)
}
