package orderclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	payerr "github.com/hanbit-commerce/payment-service/internal/domain/errors"
	"github.com/hanbit-commerce/payment-service/internal/domain/order"
)

const defaultTimeout = 5 * time.Second

// Client consumes the order service's internal lookup endpoint. The
// payment core re-validates amount and ownership through it before every
// confirmation and refund.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new order service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type orderResponse struct {
	OrderID     string `json:"order_id"`
	BuyerID     string `json:"buyer_id"`
	TotalAmount int64  `json:"total_amount"`
	OrderName   string `json:"order_name"`
	Status      string `json:"status"`
}

// GetOrder fetches an order scoped to the requesting user
// GET /internal/v1/orders/{orderId}?user_id={userId}
func (c *Client) GetOrder(ctx context.Context, orderID string, userID uuid.UUID) (*order.Order, error) {
	url := fmt.Sprintf("%s/internal/v1/orders/%s?user_id=%s", c.baseURL, orderID, userID)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Order service request failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, fmt.Errorf("order service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, payerr.OrderNotFound(orderID)
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, payerr.Unauthorized(orderID)
	default:
		c.logger.Error("Order service returned unexpected status",
			zap.String("order_id", orderID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(respBody)))
		return nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var result orderResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	buyerID, err := uuid.Parse(result.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("invalid buyer id in order response: %w", err)
	}

	if buyerID != userID {
		return nil, payerr.Unauthorized(orderID)
	}

	return &order.Order{
		OrderID:     result.OrderID,
		BuyerID:     buyerID,
		TotalAmount: result.TotalAmount,
		OrderName:   result.OrderName,
		Status:      result.Status,
	}, nil
}
