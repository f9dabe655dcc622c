package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// auditLogRepository implements the AuditLogRepository interface. It holds
// its own *gorm.DB and never joins a caller's transaction: an audit row
// must commit even when the payment transaction around it rolls back.
type auditLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository instance
func NewAuditLogRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AuditLogRepository {
	return &auditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit entry on an independent session
func (r *auditLogRepository) Create(ctx context.Context, entry *model.PaymentAuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("Failed to write payment audit log",
			zap.String("order_id", entry.OrderID),
			zap.String("phase", string(entry.Phase)),
			zap.Error(err))
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
