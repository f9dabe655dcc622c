package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// depositRepository implements the DepositRepository interface
type depositRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDepositRepository creates a new deposit repository instance
func NewDepositRepository(db *gorm.DB, logger *zap.Logger) domainRepo.DepositRepository {
	return &depositRepository{
		db:     db,
		logger: logger,
	}
}

// GetBalance retrieves the current deposit balance for a user
func (r *depositRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*model.Deposit, error) {
	var deposit model.Deposit

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&deposit).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Return zero balance if not found
			return &model.Deposit{
				UserID:  userID,
				Balance: decimal.Zero,
			}, nil
		}
		r.logger.Error("Failed to get deposit balance",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get deposit balance: %w", err)
	}

	return &deposit, nil
}

// DebitTx subtracts amount from the user's balance inside the caller's
// transaction. The balance row is locked FOR UPDATE so concurrent debits
// for the same user cannot race past the balance check.
func (r *depositRepository) DebitTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error) {
	var deposit model.Deposit
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&deposit).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domainRepo.ErrInsufficientBalance
		}
		return nil, nil, fmt.Errorf("failed to lock deposit balance: %w", err)
	}

	if deposit.Balance.LessThan(amount) {
		r.logger.Warn("Deposit debit rejected",
			zap.String("user_id", userID.String()),
			zap.String("requested", amount.String()),
			zap.String("available", deposit.Balance.String()))
		return nil, nil, domainRepo.ErrInsufficientBalance
	}

	newBalance := deposit.Balance.Sub(amount)

	transaction := &model.DepositTransaction{
		UserID:          userID,
		TransactionType: model.DepositTransactionDebit,
		Amount:          amount.Neg(), // Negative for debit
		BalanceAfter:    newBalance,
		Description:     description,
	}
	if referenceID != "" {
		transaction.ReferenceID = &referenceID
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create deposit transaction: %w", err)
	}

	deposit.Balance = newBalance
	deposit.LastTransactionAt = transaction.CreatedAt

	if err := tx.Save(&deposit).Error; err != nil {
		r.logger.Error("Failed to update deposit balance",
			zap.String("user_id", userID.String()),
			zap.String("new_balance", newBalance.String()),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to update deposit balance: %w", err)
	}

	r.logger.Info("Deposit debited",
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("reference_id", referenceID))

	return &deposit, transaction, nil
}

// CreditTx adds amount to the user's balance inside the caller's
// transaction, creating the balance row if it does not exist yet.
func (r *depositRepository) CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error) {
	var deposit model.Deposit
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		FirstOrCreate(&deposit, model.Deposit{
			UserID:  userID,
			Balance: decimal.Zero,
		}).Error

	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock deposit balance: %w", err)
	}

	newBalance := deposit.Balance.Add(amount)

	transaction := &model.DepositTransaction{
		UserID:          userID,
		TransactionType: model.DepositTransactionCredit,
		Amount:          amount,
		BalanceAfter:    newBalance,
		Description:     description,
	}
	if referenceID != "" {
		transaction.ReferenceID = &referenceID
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create deposit transaction: %w", err)
	}

	deposit.Balance = newBalance
	deposit.LastTransactionAt = transaction.CreatedAt

	if err := tx.Save(&deposit).Error; err != nil {
		r.logger.Error("Failed to update deposit balance",
			zap.String("user_id", userID.String()),
			zap.String("new_balance", newBalance.String()),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to update deposit balance: %w", err)
	}

	r.logger.Info("Deposit credited",
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("reference_id", referenceID))

	return &deposit, transaction, nil
}
