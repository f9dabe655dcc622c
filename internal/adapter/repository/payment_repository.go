package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTx inserts a payment inside the caller's transaction. A duplicate
// SUCCESS insert for the same order violates the partial unique index and
// is surfaced as ErrDuplicatePayment so the caller can return the winner.
func (r *paymentRepository) CreateTx(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainRepo.ErrDuplicatePayment
		}
		r.logger.Error("Failed to create payment",
			zap.String("order_id", payment.OrderID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindSuccessByOrderID returns the SUCCESS payment for an order, or nil
func (r *paymentRepository) FindSuccessByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusSuccess).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find payment by order",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return &payment, nil
}

// FindApprovedBetween returns SUCCESS payments approved within [start, end)
func (r *paymentRepository) FindApprovedBetween(ctx context.Context, start, end time.Time) ([]*model.Payment, error) {
	var payments []*model.Payment

	err := r.db.WithContext(ctx).
		Where("status = ? AND approved_at >= ? AND approved_at < ?", model.PaymentStatusSuccess, start, end).
		Order("approved_at ASC").
		Find(&payments).Error

	if err != nil {
		r.logger.Error("Failed to list payments for settlement",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}

// CreateRefund inserts a PENDING refund row, committed immediately
func (r *paymentRepository) CreateRefund(ctx context.Context, refund *model.PaymentRefund) error {
	if err := r.db.WithContext(ctx).Create(refund).Error; err != nil {
		r.logger.Error("Failed to create refund",
			zap.String("order_id", refund.OrderID),
			zap.Error(err))
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}

// UpdateRefundTx saves refund mutations inside the caller's transaction
func (r *paymentRepository) UpdateRefundTx(ctx context.Context, tx *gorm.DB, refund *model.PaymentRefund) error {
	if err := tx.WithContext(ctx).Save(refund).Error; err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	return nil
}

// UpdateRefund saves refund mutations on the repository's own session
func (r *paymentRepository) UpdateRefund(ctx context.Context, refund *model.PaymentRefund) error {
	if err := r.db.WithContext(ctx).Save(refund).Error; err != nil {
		r.logger.Error("Failed to update refund",
			zap.String("order_id", refund.OrderID),
			zap.Int64("refund_id", refund.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update refund: %w", err)
	}
	return nil
}

// FindRefundByPaymentID returns the refund linked to a payment, or nil
func (r *paymentRepository) FindRefundByPaymentID(ctx context.Context, paymentID int64) (*model.PaymentRefund, error) {
	var refund model.PaymentRefund

	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&refund).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find refund by payment",
			zap.Int64("payment_id", paymentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find refund: %w", err)
	}

	return &refund, nil
}
