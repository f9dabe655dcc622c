package database

import (
	"context"

	"gorm.io/gorm"

	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// transactor implements the Transactor interface on gorm
type transactor struct {
	db *gorm.DB
}

// NewTransactor creates a new transactor instance
func NewTransactor(db *gorm.DB) domainRepo.Transactor {
	return &transactor{db: db}
}

// InTx runs fn inside one database transaction; any error rolls the whole
// unit back.
func (t *transactor) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
