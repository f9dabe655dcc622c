package repository

import (
	"context"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
)

// AuditLogRepository appends payment audit entries. Implementations commit
// on their own session, independent of any caller transaction, so a rolled
// back payment still leaves its trail.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.PaymentAuditLog) error
}
