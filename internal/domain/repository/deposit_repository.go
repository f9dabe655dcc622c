package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
)

// ErrInsufficientBalance is returned when a debit would take the locked
// balance below zero.
var ErrInsufficientBalance = errors.New("insufficient deposit balance")

// DepositRepository defines the prepaid ledger operations. Debit and
// Credit take a FOR UPDATE lock on the user's balance row, so concurrent
// movements for the same user serialize.
type DepositRepository interface {
	// GetBalance retrieves the current balance, zero when no row exists
	GetBalance(ctx context.Context, userID uuid.UUID) (*model.Deposit, error)

	// DebitTx subtracts amount inside the given transaction and journals
	// the movement. Returns ErrInsufficientBalance when balance < amount.
	DebitTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error)

	// CreditTx adds amount inside the given transaction and journals the
	// movement
	CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error)
}
