package stripe

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
)

// Client implements the gateway interface on Stripe. The payment key is
// the PaymentIntent id issued during checkout.
type Client struct {
	logger *zap.Logger
}

// NewClient creates a new Stripe gateway client. The package-level
// stripe.Key must be set before use.
func NewClient(secretKey string, logger *zap.Logger) *Client {
	stripe.Key = secretKey
	return &Client{logger: logger}
}

// Name returns the gateway name
func (s *Client) Name() string {
	return string(gateway.TypeStripe)
}

// Confirm confirms the PaymentIntent for the gateway-charged portion
func (s *Client) Confirm(ctx context.Context, req *gateway.ConfirmRequest) (*gateway.ConfirmResponse, error) {
	s.logger.Info("StripeClient: Confirming payment intent",
		zap.String("payment_intent", req.PaymentKey),
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount))

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := paymentintent.Confirm(req.PaymentKey, params)
	if err != nil {
		return nil, translateError(ctx, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &gateway.GatewayError{
			Code:    "PAYMENT_NOT_SUCCEEDED",
			Message: "PaymentIntent did not reach succeeded status",
			Details: string(pi.Status),
		}
	}

	if pi.Amount != req.Amount {
		return nil, &gateway.GatewayError{
			Code:    "AMOUNT_MISMATCH",
			Message: "PaymentIntent amount does not match the requested charge",
		}
	}

	var transactionKey string
	if pi.LatestCharge != nil {
		transactionKey = pi.LatestCharge.ID
	}

	approvedAt := time.Unix(pi.Created, 0)

	return &gateway.ConfirmResponse{
		PaymentKey:     pi.ID,
		TransactionKey: transactionKey,
		OrderID:        req.OrderID,
		Amount:         pi.Amount,
		Currency:       string(pi.Currency),
		ApprovedAt:     &approvedAt,
	}, nil
}

// Cancel refunds the PaymentIntent's charge
func (s *Client) Cancel(ctx context.Context, req *gateway.CancelRequest) (*gateway.CancelResponse, error) {
	s.logger.Info("StripeClient: Refunding payment intent",
		zap.String("payment_intent", req.PaymentKey),
		zap.Int64("cancel_amount", req.CancelAmount))

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentKey),
		Amount:        stripe.Int64(req.CancelAmount),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return nil, translateError(ctx, err)
	}

	canceledAt := time.Unix(r.Created, 0)

	return &gateway.CancelResponse{
		PaymentKey:     req.PaymentKey,
		TransactionKey: r.ID,
		CancelAmount:   r.Amount,
		CanceledAt:     &canceledAt,
	}, nil
}

func translateError(ctx context.Context, err error) *gateway.GatewayError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &gateway.GatewayError{
			Code:    string(stripeErr.Code),
			Message: stripeErr.Msg,
			Details: stripeErr.RequestID,
		}
	}
	return &gateway.GatewayError{
		Code:    "API_ERROR",
		Message: "Stripe API request failed",
		Details: err.Error(),
		Timeout: errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded,
	}
}
