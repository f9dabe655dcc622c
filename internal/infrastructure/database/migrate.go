package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Payment{},
		&model.PaymentRefund{},
		&model.PaymentAuditLog{},
		&model.Deposit{},
		&model.DepositTransaction{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// At most one SUCCESS payment per order. Concurrent duplicate
	// confirmations resolve here: the losing insert violates this index.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_success_payment_per_order ON payments (order_id) WHERE status = 'SUCCESS'`).Error; err != nil {
		return err
	}

	// At most one live (non-FAIL) refund per payment
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_live_refund_per_payment ON payment_refunds (payment_id) WHERE status != 'FAIL'`).Error; err != nil {
		return err
	}

	// Balance floor on the ledger
	if err := db.Exec(`ALTER TABLE deposits DROP CONSTRAINT IF EXISTS deposits_balance_non_negative`).Error; err != nil {
		return err
	}
	if err := db.Exec(`ALTER TABLE deposits ADD CONSTRAINT deposits_balance_non_negative CHECK (balance >= 0)`).Error; err != nil {
		return err
	}

	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return nil
}
