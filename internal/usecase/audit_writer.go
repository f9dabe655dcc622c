package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// AuditWriter records every payment/refund attempt. Writes go through a
// repository that commits on its own session, and a failed write is logged
// and swallowed: audit problems must never mask the outcome of the payment
// they describe.
type AuditWriter struct {
	auditRepo domainRepo.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditWriter creates a new audit writer instance
func NewAuditWriter(auditRepo domainRepo.AuditLogRepository, logger *zap.Logger) *AuditWriter {
	return &AuditWriter{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogRequest records the start of a payment attempt
func (w *AuditWriter) LogRequest(ctx context.Context, orderID string, userID uuid.UUID, payload model.JSONB) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:        orderID,
		UserID:         userID,
		Phase:          model.AuditPhaseRequest,
		RequestPayload: payload,
	})
}

// LogSuccess records a successful confirmation
func (w *AuditWriter) LogSuccess(ctx context.Context, orderID string, userID uuid.UUID, transactionKey *string, response model.JSONB) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:               orderID,
		UserID:                userID,
		GatewayTransactionKey: transactionKey,
		Phase:                 model.AuditPhaseSuccess,
		ResponsePayload:       response,
	})
}

// LogFail records a failed confirmation. reconciliationRequired marks the
// narrow window where the gateway charged but the local step after it
// failed; operators reconcile these against the gateway's own records.
func (w *AuditWriter) LogFail(ctx context.Context, orderID string, userID uuid.UUID, transactionKey *string, payload model.JSONB, reason string, reconciliationRequired bool) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:                orderID,
		UserID:                 userID,
		GatewayTransactionKey:  transactionKey,
		Phase:                  model.AuditPhaseFail,
		RequestPayload:         payload,
		FailureReason:          &reason,
		ReconciliationRequired: reconciliationRequired,
	})
	if reconciliationRequired {
		w.logger.Error("Payment requires manual reconciliation",
			zap.String("order_id", orderID),
			zap.String("user_id", userID.String()),
			zap.String("reason", reason))
	}
}

// LogRefundRequest records the start of a refund attempt
func (w *AuditWriter) LogRefundRequest(ctx context.Context, orderID string, userID uuid.UUID, payload model.JSONB) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:        orderID,
		UserID:         userID,
		Phase:          model.AuditPhaseRefundRequest,
		RequestPayload: payload,
	})
}

// LogRefundSuccess records a completed refund
func (w *AuditWriter) LogRefundSuccess(ctx context.Context, orderID string, userID uuid.UUID, transactionKey *string, response model.JSONB) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:               orderID,
		UserID:                userID,
		GatewayTransactionKey: transactionKey,
		Phase:                 model.AuditPhaseRefundSuccess,
		ResponsePayload:       response,
	})
}

// LogRefundFail records a failed refund
func (w *AuditWriter) LogRefundFail(ctx context.Context, orderID string, userID uuid.UUID, transactionKey *string, payload model.JSONB, reason string, reconciliationRequired bool) {
	w.write(ctx, &model.PaymentAuditLog{
		OrderID:                orderID,
		UserID:                 userID,
		GatewayTransactionKey:  transactionKey,
		Phase:                  model.AuditPhaseRefundFail,
		RequestPayload:         payload,
		FailureReason:          &reason,
		ReconciliationRequired: reconciliationRequired,
	})
	if reconciliationRequired {
		w.logger.Error("Refund requires manual reconciliation",
			zap.String("order_id", orderID),
			zap.String("user_id", userID.String()),
			zap.String("reason", reason))
	}
}

func (w *AuditWriter) write(ctx context.Context, entry *model.PaymentAuditLog) {
	entry.LoggedAt = time.Now()
	if err := w.auditRepo.Create(ctx, entry); err != nil {
		w.logger.Error("Audit log write failed",
			zap.String("order_id", entry.OrderID),
			zap.String("phase", string(entry.Phase)),
			zap.Error(err))
	}
}
