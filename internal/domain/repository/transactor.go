package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor delimits an atomic unit of work. Money-moving steps and the
// records they produce must run inside one InTx boundary with the handle
// passed explicitly to every repository call that joins it; atomicity is
// never established by method dispatch.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
