package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
)

const (
	tossAPIBaseURL = "https://api.tosspayments.com"
	tossAPIVersion = "v1"

	defaultTimeout = 10 * time.Second
)

// Client calls the Toss Payments API. It is treated as an unreliable
// remote dependency: every call has a bounded timeout and a timeout is
// reported as an unknown outcome, never as success.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewClient creates a new Toss Payments client
func NewClient(secretKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   tossAPIBaseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Name returns the gateway name
func (t *Client) Name() string {
	return string(gateway.TypeToss)
}

type tossPaymentResponse struct {
	PaymentKey         string `json:"paymentKey"`
	LastTransactionKey string `json:"lastTransactionKey"`
	OrderID            string `json:"orderId"`
	TotalAmount        int64  `json:"totalAmount"`
	Currency           string `json:"currency"`
	Method             string `json:"method"`
	Status             string `json:"status"`
	ApprovedAt         string `json:"approvedAt"`
}

// Confirm captures a payment the checkout client authorized
// POST /v1/payments/confirm
func (t *Client) Confirm(ctx context.Context, req *gateway.ConfirmRequest) (*gateway.ConfirmResponse, error) {
	t.logger.Info("TossClient: Confirming payment",
		zap.String("payment_key", req.PaymentKey),
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount))

	body := map[string]interface{}{
		"paymentKey": req.PaymentKey,
		"orderId":    req.OrderID,
		"amount":     req.Amount,
	}

	url := fmt.Sprintf("%s/%s/payments/confirm", t.baseURL, tossAPIVersion)
	respBody, err := t.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var result tossPaymentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &gateway.GatewayError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse Toss response",
			Details: err.Error(),
		}
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBody, &raw)

	t.logger.Info("TossClient: Payment confirmed",
		zap.String("payment_key", result.PaymentKey),
		zap.String("transaction_key", result.LastTransactionKey),
		zap.Int64("amount", result.TotalAmount))

	return &gateway.ConfirmResponse{
		PaymentKey:     result.PaymentKey,
		TransactionKey: result.LastTransactionKey,
		OrderID:        result.OrderID,
		Amount:         result.TotalAmount,
		Currency:       result.Currency,
		Method:         result.Method,
		ApprovedAt:     parseTossTime(result.ApprovedAt),
		RawPayload:     raw,
	}, nil
}

type tossCancelResponse struct {
	PaymentKey         string `json:"paymentKey"`
	LastTransactionKey string `json:"lastTransactionKey"`
	Cancels            []struct {
		CancelAmount int64  `json:"cancelAmount"`
		CanceledAt   string `json:"canceledAt"`
	} `json:"cancels"`
}

// Cancel reverses a confirmed payment
// POST /v1/payments/{paymentKey}/cancel
func (t *Client) Cancel(ctx context.Context, req *gateway.CancelRequest) (*gateway.CancelResponse, error) {
	t.logger.Info("TossClient: Canceling payment",
		zap.String("payment_key", req.PaymentKey),
		zap.Int64("cancel_amount", req.CancelAmount))

	body := map[string]interface{}{
		"cancelReason": req.CancelReason,
		"cancelAmount": req.CancelAmount,
	}

	url := fmt.Sprintf("%s/%s/payments/%s/cancel", t.baseURL, tossAPIVersion, req.PaymentKey)
	respBody, err := t.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var result tossCancelResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &gateway.GatewayError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse Toss response",
			Details: err.Error(),
		}
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBody, &raw)

	resp := &gateway.CancelResponse{
		PaymentKey:     result.PaymentKey,
		TransactionKey: result.LastTransactionKey,
		CancelAmount:   req.CancelAmount,
		RawPayload:     raw,
	}
	if len(result.Cancels) > 0 {
		last := result.Cancels[len(result.Cancels)-1]
		resp.CancelAmount = last.CancelAmount
		resp.CanceledAt = parseTossTime(last.CanceledAt)
	}

	t.logger.Info("TossClient: Payment canceled",
		zap.String("payment_key", resp.PaymentKey),
		zap.Int64("cancel_amount", resp.CancelAmount))

	return resp, nil
}

func (t *Client) post(ctx context.Context, url string, body map[string]interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(t.secretKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error("TossClient: API request failed", zap.Error(err))
		return nil, &gateway.GatewayError{
			Code:    "API_ERROR",
			Message: "Toss Payments API request failed",
			Details: err.Error(),
			Timeout: isTimeout(ctx, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.Unmarshal(respBody, &errResp)

		code, _ := errResp["code"].(string)
		message, _ := errResp["message"].(string)

		t.logger.Error("TossClient: API call rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", code),
			zap.String("message", message))

		return nil, &gateway.GatewayError{
			Code:    code,
			Message: message,
			Details: string(respBody),
		}
	}

	return respBody, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func parseTossTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}
