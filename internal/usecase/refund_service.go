package usecase

import (
	"context"
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

// RefundService reverses a settled payment exactly once, in the amounts
// originally charged. The gateway cancel always precedes the ledger
// credit: the external leg is the harder one to retry, so doing it first
// bounds any inconsistency to "gateway refunded, ledger not yet credited",
// which is visible in the audit trail and safely reconcilable.
type RefundService struct {
	orders      order.Service
	gateway     gateway.Client
	paymentRepo domainRepo.PaymentRepository
	depositRepo domainRepo.DepositRepository
	audit       *AuditWriter
	tx          domainRepo.Transactor
	logger      *zap.Logger
}

// NewRefundService creates a new refund service instance
func NewRefundService(
	orders order.Service,
	gatewayClient gateway.Client,
	paymentRepo domainRepo.PaymentRepository,
	depositRepo domainRepo.DepositRepository,
	audit *AuditWriter,
	tx domainRepo.Transactor,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		orders:      orders,
		gateway:     gatewayClient,
		paymentRepo: paymentRepo,
		depositRepo: depositRepo,
		audit:       audit,
		tx:          tx,
		logger:      logger,
	}
}

// RefundByOrder looks up the settled payment for an order and reverses it,
// deposit leg included.
func (s *RefundService) RefundByOrder(ctx context.Context, req *dto.RefundRequest, userID uuid.UUID) (*dto.RefundProjection, error) {
	payload := model.JSONB{
		"order_id": req.OrderID,
		"reason":   req.Reason,
	}
	s.audit.LogRefundRequest(ctx, req.OrderID, userID, payload)

	if _, err := s.orders.GetOrder(ctx, req.OrderID, userID); err != nil {
		s.audit.LogRefundFail(ctx, req.OrderID, userID, nil, payload, err.Error(), false)
		return nil, err
	}

	payment, err := s.paymentRepo.FindSuccessByOrderID(ctx, req.OrderID)
	if err != nil {
		s.audit.LogRefundFail(ctx, req.OrderID, userID, nil, payload, err.Error(), false)
		return nil, payerr.RefundFailed(err)
	}
	if payment == nil {
		nfErr := payerr.PaymentNotFound(req.OrderID)
		s.audit.LogRefundFail(ctx, req.OrderID, userID, nil, payload, nfErr.Error(), false)
		return nil, nfErr
	}

	return s.Refund(ctx, payment, req.Reason, true)
}

// Refund reverses the given payment. The reversal path follows the
// payment's recorded pay type: the gateway leg is canceled first when one
// exists, then the ledger is credited back when includeDeposit is set.
func (s *RefundService) Refund(ctx context.Context, payment *model.Payment, reason string, includeDeposit bool) (*dto.RefundProjection, error) {
	payload := model.JSONB{
		"order_id":    payment.OrderID,
		"payment_key": payment.PaymentKey,
		"reason":      reason,
	}

	if payment.Status != model.PaymentStatusSuccess {
		stErr := payerr.InvalidPaymentState(payment.OrderID, string(payment.Status))
		s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, nil, payload, stErr.Error(), false)
		return nil, stErr
	}

	existing, err := s.paymentRepo.FindRefundByPaymentID(ctx, payment.ID)
	if err != nil {
		s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, nil, payload, err.Error(), false)
		return nil, payerr.RefundFailed(err)
	}
	if existing != nil {
		switch existing.Status {
		case model.RefundStatusSuccess:
			arErr := payerr.AlreadyRefunded(payment.OrderID)
			s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, nil, payload, arErr.Error(), false)
			return nil, arErr
		case model.RefundStatusPending:
			ipErr := payerr.RefundFailed(fmt.Errorf("refund already in progress for order %s", payment.OrderID))
			s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, nil, payload, ipErr.Error(), false)
			return nil, ipErr
		}
		// A FAIL refund is terminal for its row; the retry gets a fresh one.
	}

	depositRefund := int64(0)
	if includeDeposit {
		depositRefund = payment.DepositUsedAmount
	}

	refund := &model.PaymentRefund{
		PaymentID:           payment.ID,
		OrderID:             payment.OrderID,
		CancelAmount:        payment.GatewayChargedAmount + depositRefund,
		DepositRefundAmount: depositRefund,
		GatewayRefundAmount: payment.GatewayChargedAmount,
		Reason:              reason,
		Status:              model.RefundStatusPending,
		ApprovedAt:          payment.ApprovedAt,
	}
	if err := s.paymentRepo.CreateRefund(ctx, refund); err != nil {
		s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, nil, payload, err.Error(), false)
		return nil, payerr.RefundFailed(err)
	}

	// Gateway leg first. On failure the ledger stays untouched, so a retry
	// cannot double-credit.
	if payment.GatewayChargedAmount > 0 && payment.GatewayTransactionKey != nil {
		_, err := s.gateway.Cancel(ctx, &gateway.CancelRequest{
			PaymentKey:   payment.PaymentKey,
			CancelAmount: payment.GatewayChargedAmount,
			CancelReason: reason,
		})
		if err != nil {
			failReason := err.Error()
			if gateway.IsTimeout(err) {
				failReason = "GATEWAY_TIMEOUT: " + failReason
			}
			refund.Status = model.RefundStatusFail
			if updErr := s.paymentRepo.UpdateRefund(ctx, refund); updErr != nil {
				s.logger.Error("Failed to mark refund as failed",
					zap.String("order_id", payment.OrderID),
					zap.Error(updErr))
			}
			s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, payment.GatewayTransactionKey, payload, failReason, false)
			return nil, payerr.RefundFailed(err)
		}
	}

	// Ledger credit and the terminal refund state commit together.
	canceledAt := time.Now()
	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if depositRefund > 0 {
			credit := decimal.NewFromInt(depositRefund)
			description := fmt.Sprintf("Refund for order %s", payment.OrderID)
			if _, _, err := s.depositRepo.CreditTx(ctx, tx, payment.UserID, credit, description, payment.OrderID); err != nil {
				return err
			}
		}
		refund.Status = model.RefundStatusSuccess
		refund.CanceledAt = &canceledAt
		return s.paymentRepo.UpdateRefundTx(ctx, tx, refund)
	})

	if err != nil {
		// The gateway already refunded its leg; only the internal credit is
		// missing. Flag for reconciliation rather than compensating.
		refund.Status = model.RefundStatusFail
		refund.CanceledAt = nil
		if updErr := s.paymentRepo.UpdateRefund(ctx, refund); updErr != nil {
			s.logger.Error("Failed to mark refund as failed",
				zap.String("order_id", payment.OrderID),
				zap.Error(updErr))
		}
		reason := "RECONCILIATION_REQUIRED: gateway refunded but ledger credit failed: " + err.Error()
		s.audit.LogRefundFail(ctx, payment.OrderID, payment.UserID, payment.GatewayTransactionKey, payload, reason, true)
		return nil, payerr.RefundFailed(err)
	}

	s.logger.Info("Payment refunded",
		zap.String("order_id", payment.OrderID),
		zap.Int64("cancel_amount", refund.CancelAmount),
		zap.Int64("gateway_refund", refund.GatewayRefundAmount),
		zap.Int64("deposit_refund", refund.DepositRefundAmount))

	s.audit.LogRefundSuccess(ctx, payment.OrderID, payment.UserID, payment.GatewayTransactionKey, model.JSONB{
		"cancel_amount":         refund.CancelAmount,
		"deposit_refund_amount": refund.DepositRefundAmount,
		"gateway_refund_amount": refund.GatewayRefundAmount,
		"status":                string(refund.Status),
	})

	return dto.NewRefundProjection(refund), nil
}
