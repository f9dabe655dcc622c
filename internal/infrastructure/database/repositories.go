package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/adapter/repository"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Payment    domainRepo.PaymentRepository
	Deposit    domainRepo.DepositRepository
	AuditLog   domainRepo.AuditLogRepository
	Transactor domainRepo.Transactor
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Payment:    repository.NewPaymentRepository(db, logger),
		Deposit:    repository.NewDepositRepository(db, logger),
		AuditLog:   repository.NewAuditLogRepository(db, logger),
		Transactor: NewTransactor(db),
	}
}
