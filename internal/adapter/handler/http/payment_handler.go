package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/domain/dto"
	payerr "github.com/hanbit-commerce/payment-service/internal/domain/errors"
	"github.com/hanbit-commerce/payment-service/internal/middleware/auth"
	"github.com/hanbit-commerce/payment-service/internal/usecase"
)

// PaymentHandler handles payment confirmation and refund HTTP requests
type PaymentHandler struct {
	logger         *zap.Logger
	paymentService *usecase.PaymentService
	refundService  *usecase.RefundService
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(
	logger *zap.Logger,
	paymentService *usecase.PaymentService,
	refundService *usecase.RefundService,
) *PaymentHandler {
	return &PaymentHandler{
		logger:         logger,
		paymentService: paymentService,
		refundService:  refundService,
	}
}

// GetReadyInfo handles GET /api/v1/payments/ready
func (h *PaymentHandler) GetReadyInfo(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized",
			"code":  "UNAUTHORIZED",
		})
	}

	orderID := c.QueryParam("order_id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "order_id query parameter is required",
			"code":  "MISSING_ORDER_ID",
		})
	}

	info, err := h.paymentService.GetReadyInfo(c.Request().Context(), orderID, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, info)
}

// ConfirmDeposit handles POST /api/v1/payments/confirm/deposit
func (h *PaymentHandler) ConfirmDeposit(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized",
			"code":  "UNAUTHORIZED",
		})
	}

	var req dto.ConfirmDepositRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request body",
			"code":  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
	}

	projection, err := h.paymentService.ConfirmDeposit(c.Request().Context(), &req, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, projection)
}

// ConfirmGateway handles POST /api/v1/payments/confirm/gateway
func (h *PaymentHandler) ConfirmGateway(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized",
			"code":  "UNAUTHORIZED",
		})
	}

	var req dto.ConfirmGatewayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request body",
			"code":  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
	}

	projection, err := h.paymentService.ConfirmGateway(c.Request().Context(), &req, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, projection)
}

// Refund handles POST /api/v1/payments/refund
func (h *PaymentHandler) Refund(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized",
			"code":  "UNAUTHORIZED",
		})
	}

	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid request body",
			"code":  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
	}

	projection, err := h.refundService.RefundByOrder(c.Request().Context(), &req, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, projection)
}

// GetPayment handles GET /api/v1/payments/:orderId
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized",
			"code":  "UNAUTHORIZED",
		})
	}

	orderID := c.Param("orderId")
	projection, err := h.paymentService.GetPayment(c.Request().Context(), orderID, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, projection)
}

// GetSettlement handles GET /api/v1/payments/settlement
func (h *PaymentHandler) GetSettlement(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "start_date must be an ISO-8601 timestamp",
			"code":  "INVALID_DATE",
		})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "end_date must be an ISO-8601 timestamp",
			"code":  "INVALID_DATE",
		})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "end_date must be after start_date",
			"code":  "INVALID_DATE",
		})
	}

	settlement, err := h.paymentService.GetSettlement(c.Request().Context(), start, end)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, settlement)
}

func (h *PaymentHandler) userID(c echo.Context) (uuid.UUID, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		h.logger.Error("No authenticated user in request context", zap.Error(err))
		return uuid.Nil, err
	}
	return user.UserID, nil
}

func (h *PaymentHandler) errorResponse(c echo.Context, err error) error {
	code := payerr.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case payerr.CodeOrderNotFound, payerr.CodePaymentNotFound:
		status = http.StatusNotFound
	case payerr.CodeUnauthorized:
		status = http.StatusForbidden
	case payerr.CodeInvalidOrderAmount, payerr.CodeInsufficientBalance:
		status = http.StatusBadRequest
	case payerr.CodeAlreadyRefunded, payerr.CodeInvalidPaymentState:
		status = http.StatusConflict
	case payerr.CodePaymentFailed, payerr.CodeRefundFailed:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Unhandled payment error", zap.Error(err))
		return c.JSON(status, echo.Map{
			"error": "internal server error",
			"code":  payerr.CodeInternal,
		})
	}

	return c.JSON(status, echo.Map{
		"error": err.Error(),
		"code":  code,
	})
}
