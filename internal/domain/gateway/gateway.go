package gateway

import (
	"context"
	"errors"
	"net"
	"time"
)

// Client defines the interface for external payment gateways (Toss, Stripe, etc.)
type Client interface {
	// Confirm authorizes and captures a payment previously initialized by
	// the checkout client. Amount is the gateway-charged portion only.
	Confirm(ctx context.Context, req *ConfirmRequest) (*ConfirmResponse, error)

	// Cancel reverses a previously confirmed payment
	Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error)

	// Name returns the gateway name
	Name() string
}

// ConfirmRequest represents a gateway-agnostic payment confirmation request
type ConfirmRequest struct {
	PaymentKey string `json:"payment_key"` // Gateway payment ID
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"` // Amount in smallest currency unit
	Currency   string `json:"currency"`
}

// ConfirmResponse represents the gateway's confirmation result
type ConfirmResponse struct {
	PaymentKey     string     `json:"payment_key"`
	TransactionKey string     `json:"transaction_key,omitempty"`
	OrderID        string     `json:"order_id"`
	Amount         int64      `json:"amount"`
	Currency       string     `json:"currency"`
	Method         string     `json:"method,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RawPayload     map[string]interface{} `json:"raw_payload,omitempty"`
}

// CancelRequest represents a gateway cancellation request
type CancelRequest struct {
	PaymentKey   string `json:"payment_key"`
	CancelAmount int64  `json:"cancel_amount"`
	CancelReason string `json:"cancel_reason"`
}

// CancelResponse represents the gateway's cancellation result
type CancelResponse struct {
	PaymentKey     string     `json:"payment_key"`
	TransactionKey string     `json:"transaction_key,omitempty"`
	CancelAmount   int64      `json:"cancel_amount"`
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
	RawPayload     map[string]interface{} `json:"raw_payload,omitempty"`
}

// Type represents the kind of gateway backing the client
type Type string

const (
	TypeToss   Type = "toss"
	TypeStripe Type = "stripe"
)

// GatewayError carries the gateway's own failure code alongside a message.
// Timeout marks failures where the outcome at the gateway is unknown, as
// opposed to an explicit decline.
type GatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Timeout bool   `json:"timeout,omitempty"`
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsTimeout reports whether err represents a gateway call whose outcome is
// unknown (network timeout or cancelled context) rather than a decline.
func IsTimeout(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) && ge.Timeout {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
