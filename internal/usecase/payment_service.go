package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/dto"
	payerr "github.com/hanbit-commerce/payment-service/internal/domain/errors"
	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	"github.com/hanbit-commerce/payment-service/internal/domain/order"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// PaymentService orchestrates payment confirmation: it validates the order
// and amounts, drives the ledger debit and gateway call in the correct
// order, persists exactly one durable Payment per order regardless of
// retries, and leaves an audit trail for every attempt.
type PaymentService struct {
	orders      order.Service
	gateway     gateway.Client
	paymentRepo domainRepo.PaymentRepository
	depositRepo domainRepo.DepositRepository
	audit       *AuditWriter
	tx          domainRepo.Transactor
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(
	orders order.Service,
	gatewayClient gateway.Client,
	paymentRepo domainRepo.PaymentRepository,
	depositRepo domainRepo.DepositRepository,
	audit *AuditWriter,
	tx domainRepo.Transactor,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orders:      orders,
		gateway:     gatewayClient,
		paymentRepo: paymentRepo,
		depositRepo: depositRepo,
		audit:       audit,
		tx:          tx,
		logger:      logger,
	}
}

// GetReadyInfo returns the order total and current deposit balance for the
// checkout page. Read-only, no side effects.
func (s *PaymentService) GetReadyInfo(ctx context.Context, orderID string, userID uuid.UUID) (*dto.ReadyInfoResponse, error) {
	ord, err := s.orders.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	deposit, err := s.depositRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit balance: %w", err)
	}

	return &dto.ReadyInfoResponse{
		UserID:         userID,
		OrderID:        ord.OrderID,
		Amount:         ord.TotalAmount,
		DepositBalance: deposit.Balance.IntPart(),
		OrderName:      ord.OrderName,
	}, nil
}

// ConfirmDeposit confirms an order funded entirely by the prepaid deposit.
// The ledger debit and the Payment insert commit in one transaction; on any
// failure neither is applied.
func (s *PaymentService) ConfirmDeposit(ctx context.Context, req *dto.ConfirmDepositRequest, userID uuid.UUID) (*dto.PaymentProjection, error) {
	payload := model.JSONB{
		"order_id":            req.OrderID,
		"amount":              req.Amount,
		"used_deposit_amount": req.UsedDepositAmount,
		"pay_type":            string(model.PayTypeDeposit),
	}
	s.audit.LogRequest(ctx, req.OrderID, userID, payload)

	ord, err := s.orders.GetOrder(ctx, req.OrderID, userID)
	if err != nil {
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, err.Error(), false)
		return nil, err
	}

	if existing, err := s.findSettled(ctx, req.OrderID, userID, payload); existing != nil || err != nil {
		return existing, err
	}

	// This path requires full coverage by deposit
	if ord.TotalAmount != req.Amount || req.Amount != req.UsedDepositAmount {
		vErr := payerr.InvalidOrderAmount(req.UsedDepositAmount, ord.TotalAmount)
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, vErr.Error(), false)
		return nil, vErr
	}

	paymentKey := req.PaymentKey
	if paymentKey == "" {
		paymentKey = "DEP-" + uuid.NewString()
	}

	now := time.Now()
	payment := &model.Payment{
		OrderID:           req.OrderID,
		UserID:            userID,
		PaymentKey:        paymentKey,
		TotalAmount:       req.Amount,
		DepositUsedAmount: req.UsedDepositAmount,
		Currency:          "KRW",
		PayType:           model.PayTypeDeposit,
		Status:            model.PaymentStatusSuccess,
		ApprovedAt:        &now,
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		debit := decimal.NewFromInt(req.UsedDepositAmount)
		description := fmt.Sprintf("Payment for order %s", req.OrderID)
		if _, _, err := s.depositRepo.DebitTx(ctx, tx, userID, debit, description, req.OrderID); err != nil {
			return err
		}
		return s.paymentRepo.CreateTx(ctx, tx, payment)
	})

	if err != nil {
		if errors.Is(err, domainRepo.ErrDuplicatePayment) {
			return s.settledByRace(ctx, req.OrderID, userID, payload)
		}
		if errors.Is(err, domainRepo.ErrInsufficientBalance) {
			ibErr := payerr.InsufficientBalance(req.UsedDepositAmount, err)
			s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, ibErr.Error(), false)
			return nil, ibErr
		}
		pfErr := payerr.PaymentFailed(err)
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, err.Error(), false)
		return nil, pfErr
	}

	s.logger.Info("Deposit payment confirmed",
		zap.String("order_id", req.OrderID),
		zap.String("user_id", userID.String()),
		zap.Int64("amount", req.Amount))

	projection := dto.NewPaymentProjection(payment)
	s.audit.LogSuccess(ctx, req.OrderID, userID, nil, successPayload(payment))
	return projection, nil
}

// ConfirmGateway confirms an order charged at the external gateway. The
// gateway is charged for the non-deposit portion; only after the gateway
// reports success are the ledger debit and the Payment insert committed,
// together, in one transaction. A gateway failure leaves the ledger
// untouched and produces only an audit FAIL entry.
func (s *PaymentService) ConfirmGateway(ctx context.Context, req *dto.ConfirmGatewayRequest, userID uuid.UUID) (*dto.PaymentProjection, error) {
	payload := model.JSONB{
		"order_id":            req.OrderID,
		"payment_key":         req.PaymentKey,
		"amount":              req.Amount,
		"used_deposit_amount": req.UsedDepositAmount,
	}
	s.audit.LogRequest(ctx, req.OrderID, userID, payload)

	ord, err := s.orders.GetOrder(ctx, req.OrderID, userID)
	if err != nil {
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, err.Error(), false)
		return nil, err
	}

	if existing, err := s.findSettled(ctx, req.OrderID, userID, payload); existing != nil || err != nil {
		return existing, err
	}

	gatewayAmount := req.Amount - req.UsedDepositAmount
	if ord.TotalAmount != req.Amount || req.UsedDepositAmount < 0 || gatewayAmount <= 0 {
		vErr := payerr.InvalidOrderAmount(req.Amount, ord.TotalAmount)
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, vErr.Error(), false)
		return nil, vErr
	}

	confirmResp, err := s.gateway.Confirm(ctx, &gateway.ConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     gatewayAmount,
		Currency:   "KRW",
	})
	if err != nil {
		reason := err.Error()
		if gateway.IsTimeout(err) {
			// Outcome at the gateway unknown; never assume success
			reason = "GATEWAY_TIMEOUT: " + reason
		}
		s.audit.LogFail(ctx, req.OrderID, userID, nil, payload, reason, false)
		return nil, payerr.PaymentFailed(err)
	}

	payType := model.PayTypeGateway
	if req.UsedDepositAmount > 0 {
		payType = model.PayTypeDepositAndGateway
	}

	approvedAt := time.Now()
	if confirmResp.ApprovedAt != nil {
		approvedAt = *confirmResp.ApprovedAt
	}

	var transactionKey *string
	if confirmResp.TransactionKey != "" {
		transactionKey = &confirmResp.TransactionKey
	}

	payment := &model.Payment{
		OrderID:               req.OrderID,
		UserID:                userID,
		PaymentKey:            req.PaymentKey,
		GatewayTransactionKey: transactionKey,
		TotalAmount:           req.Amount,
		DepositUsedAmount:     req.UsedDepositAmount,
		GatewayChargedAmount:  gatewayAmount,
		Currency:              "KRW",
		PayType:               payType,
		Status:                model.PaymentStatusSuccess,
		ApprovedAt:            &approvedAt,
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if req.UsedDepositAmount > 0 {
			debit := decimal.NewFromInt(req.UsedDepositAmount)
			description := fmt.Sprintf("Payment for order %s", req.OrderID)
			if _, _, err := s.depositRepo.DebitTx(ctx, tx, userID, debit, description, req.OrderID); err != nil {
				return err
			}
		}
		return s.paymentRepo.CreateTx(ctx, tx, payment)
	})

	if err != nil {
		if errors.Is(err, domainRepo.ErrDuplicatePayment) {
			// A concurrent retry won after the gateway charge; the gateway
			// settled the same paymentKey once, so the winner's row is the
			// durable outcome.
			return s.settledByRace(ctx, req.OrderID, userID, payload)
		}
		// The gateway has charged but the local debit/persist failed.
		// No automatic compensation here; flag for manual reconciliation.
		reason := "RECONCILIATION_REQUIRED: gateway charged but local commit failed: " + err.Error()
		s.audit.LogFail(ctx, req.OrderID, userID, transactionKey, payload, reason, true)
		if errors.Is(err, domainRepo.ErrInsufficientBalance) {
			return nil, payerr.InsufficientBalance(req.UsedDepositAmount, err)
		}
		return nil, payerr.PaymentFailed(err)
	}

	s.logger.Info("Gateway payment confirmed",
		zap.String("order_id", req.OrderID),
		zap.String("payment_key", req.PaymentKey),
		zap.String("pay_type", string(payType)),
		zap.Int64("gateway_amount", gatewayAmount),
		zap.Int64("deposit_amount", req.UsedDepositAmount))

	projection := dto.NewPaymentProjection(payment)
	s.audit.LogSuccess(ctx, req.OrderID, userID, transactionKey, successPayload(payment))
	return projection, nil
}

// GetPayment returns the settled payment for an order, owner-scoped.
func (s *PaymentService) GetPayment(ctx context.Context, orderID string, userID uuid.UUID) (*dto.PaymentProjection, error) {
	payment, err := s.paymentRepo.FindSuccessByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, payerr.PaymentNotFound(orderID)
	}
	if payment.UserID != userID {
		return nil, payerr.Unauthorized(orderID)
	}
	return dto.NewPaymentProjection(payment), nil
}

// GetSettlement lists SUCCESS payments approved within [start, end) for
// the batch settlement export.
func (s *PaymentService) GetSettlement(ctx context.Context, start, end time.Time) (*dto.SettlementResponse, error) {
	payments, err := s.paymentRepo.FindApprovedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	projections := make([]*dto.PaymentProjection, 0, len(payments))
	for _, p := range payments {
		projections = append(projections, dto.NewPaymentProjection(p))
	}

	return &dto.SettlementResponse{
		StartDate: start,
		EndDate:   end,
		Count:     len(projections),
		Payments:  projections,
	}, nil
}

// findSettled is the idempotency check: when a SUCCESS payment already
// exists for the order, the original projection is returned unchanged and
// nothing is re-charged.
func (s *PaymentService) findSettled(ctx context.Context, orderID string, userID uuid.UUID, payload model.JSONB) (*dto.PaymentProjection, error) {
	existing, err := s.paymentRepo.FindSuccessByOrderID(ctx, orderID)
	if err != nil {
		s.audit.LogFail(ctx, orderID, userID, nil, payload, err.Error(), false)
		return nil, payerr.PaymentFailed(err)
	}
	if existing == nil {
		return nil, nil
	}

	s.logger.Info("Order already settled, returning original payment",
		zap.String("order_id", orderID),
		zap.String("payment_key", existing.PaymentKey))

	response := successPayload(existing)
	response["idempotent_replay"] = true
	s.audit.LogSuccess(ctx, orderID, userID, existing.GatewayTransactionKey, response)
	return dto.NewPaymentProjection(existing), nil
}

// settledByRace resolves the loser of a concurrent duplicate confirmation:
// the unique SUCCESS-per-order index rejected our insert, so the winner's
// committed row is fetched and returned.
func (s *PaymentService) settledByRace(ctx context.Context, orderID string, userID uuid.UUID, payload model.JSONB) (*dto.PaymentProjection, error) {
	winner, err := s.paymentRepo.FindSuccessByOrderID(ctx, orderID)
	if err != nil || winner == nil {
		reason := "duplicate payment detected but winner not found"
		if err != nil {
			reason = err.Error()
		}
		s.audit.LogFail(ctx, orderID, userID, nil, payload, reason, false)
		return nil, payerr.PaymentFailed(err)
	}

	s.logger.Warn("Concurrent confirmation lost the race, returning committed payment",
		zap.String("order_id", orderID))

	response := successPayload(winner)
	response["idempotent_replay"] = true
	s.audit.LogSuccess(ctx, orderID, userID, winner.GatewayTransactionKey, response)
	return dto.NewPaymentProjection(winner), nil
}

func successPayload(p *model.Payment) model.JSONB {
	return model.JSONB{
		"payment_key":            p.PaymentKey,
		"total_amount":           p.TotalAmount,
		"deposit_used_amount":    p.DepositUsedAmount,
		"gateway_charged_amount": p.GatewayChargedAmount,
		"pay_type":               string(p.PayType),
		"status":                 string(p.Status),
	}
}
