package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	"github.com/hanbit-commerce/payment-service/internal/domain/order"
)

// MockOrderService is a mock implementation of order.Service
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string, userID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

// MockGatewayClient is a mock implementation of gateway.Client
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) Confirm(ctx context.Context, req *gateway.ConfirmRequest) (*gateway.ConfirmResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ConfirmResponse), args.Error(1)
}

func (m *MockGatewayClient) Cancel(ctx context.Context, req *gateway.CancelRequest) (*gateway.CancelResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CancelResponse), args.Error(1)
}

func (m *MockGatewayClient) Name() string {
	return "mock"
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreateTx(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindSuccessByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindApprovedBetween(ctx context.Context, start, end time.Time) ([]*model.Payment, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CreateRefund(ctx context.Context, refund *model.PaymentRefund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateRefundTx(ctx context.Context, tx *gorm.DB, refund *model.PaymentRefund) error {
	args := m.Called(ctx, tx, refund)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateRefund(ctx context.Context, refund *model.PaymentRefund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindRefundByPaymentID(ctx context.Context, paymentID int64) (*model.PaymentRefund, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRefund), args.Error(1)
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*model.Deposit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deposit), args.Error(1)
}

func (m *MockDepositRepository) DebitTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error) {
	args := m.Called(ctx, tx, userID, amount, description, referenceID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Deposit), args.Get(1).(*model.DepositTransaction), args.Error(2)
}

func (m *MockDepositRepository) CreditTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal, description string, referenceID string) (*model.Deposit, *model.DepositTransaction, error) {
	args := m.Called(ctx, tx, userID, amount, description, referenceID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Deposit), args.Get(1).(*model.DepositTransaction), args.Error(2)
}

// auditRecorder captures audit entries so tests can assert on phases,
// failure reasons and reconciliation flags.
type auditRecorder struct {
	mu      sync.Mutex
	entries []*model.PaymentAuditLog
}

func (r *auditRecorder) Create(ctx context.Context, entry *model.PaymentAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *auditRecorder) byPhase(phase model.AuditPhase) []*model.PaymentAuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*model.PaymentAuditLog
	for _, e := range r.entries {
		if e.Phase == phase {
			matched = append(matched, e)
		}
	}
	return matched
}

func (r *auditRecorder) last() *model.PaymentAuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

// stubTransactor runs the unit of work without a real database transaction
type stubTransactor struct{}

func (stubTransactor) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
