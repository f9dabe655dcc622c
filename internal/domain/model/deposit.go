package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposit represents a user's prepaid balance. The balance never goes
// negative; debits are rejected when the locked balance is insufficient.
type Deposit struct {
	UserID            uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Balance           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	LastTransactionAt time.Time       `json:"last_transaction_at"`
	CreatedAt         time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Deposit) TableName() string {
	return "deposits"
}

// DepositTransactionType represents the direction of a deposit transaction
type DepositTransactionType string

const (
	DepositTransactionDebit  DepositTransactionType = "DEBIT"
	DepositTransactionCredit DepositTransactionType = "CREDIT"
)

// Scan implements sql.Scanner interface
func (t *DepositTransactionType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = DepositTransactionType(v)
	case []byte:
		*t = DepositTransactionType(v)
	default:
		return nil
	}
	return nil
}

// Value implements driver.Valuer interface
func (t DepositTransactionType) Value() (driver.Value, error) {
	return string(t), nil
}

// DepositTransaction is the append-only journal of ledger movements.
type DepositTransaction struct {
	ID              int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uuid.UUID              `gorm:"type:uuid;not null;index:idx_deposit_transactions_user_created" json:"user_id"`
	TransactionType DepositTransactionType `gorm:"not null;size:20" json:"transaction_type"`
	Amount          decimal.Decimal        `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceAfter    decimal.Decimal        `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Description     string                 `gorm:"not null" json:"description"`
	ReferenceID     *string                `gorm:"size:200;index:idx_deposit_transactions_reference,where:reference_id IS NOT NULL" json:"reference_id,omitempty"`
	CreatedAt       time.Time              `gorm:"default:now();index:idx_deposit_transactions_user_created" json:"created_at"`
}

// TableName specifies the table name for GORM
func (DepositTransaction) TableName() string {
	return "deposit_transactions"
}
