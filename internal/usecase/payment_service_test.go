package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/domain/dto"
	payerr "github.com/hanbit-commerce/payment-service/internal/domain/errors"
	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
	"github.com/hanbit-commerce/payment-service/internal/domain/model"
	"github.com/hanbit-commerce/payment-service/internal/domain/order"
	domainRepo "github.com/hanbit-commerce/payment-service/internal/domain/repository"
	"github.com/hanbit-commerce/payment-service/internal/usecase"
)

type paymentServiceFixture struct {
	orders      *MockOrderService
	gateway     *MockGatewayClient
	paymentRepo *MockPaymentRepository
	depositRepo *MockDepositRepository
	audit       *auditRecorder
	service     *usecase.PaymentService
}

func newPaymentServiceFixture() *paymentServiceFixture {
	logger := zap.NewNop()
	f := &paymentServiceFixture{
		orders:      new(MockOrderService),
		gateway:     new(MockGatewayClient),
		paymentRepo: new(MockPaymentRepository),
		depositRepo: new(MockDepositRepository),
		audit:       &auditRecorder{},
	}
	f.service = usecase.NewPaymentService(
		f.orders, f.gateway, f.paymentRepo, f.depositRepo,
		usecase.NewAuditWriter(f.audit, logger), stubTransactor{}, logger,
	)
	return f
}

func TestPaymentService_GetReadyInfo(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	f := newPaymentServiceFixture()
	f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(&order.Order{
		OrderID:     "ORD-1",
		BuyerID:     userID,
		TotalAmount: 100000,
		OrderName:   "Wireless keyboard",
		Status:      order.StatusPendingPayment,
	}, nil)
	f.depositRepo.On("GetBalance", ctx, userID).Return(&model.Deposit{
		UserID:  userID,
		Balance: decimal.NewFromInt(30000),
	}, nil)

	info, err := f.service.GetReadyInfo(ctx, "ORD-1", userID)

	require.NoError(t, err)
	assert.Equal(t, "ORD-1", info.OrderID)
	assert.Equal(t, int64(100000), info.Amount)
	assert.Equal(t, int64(30000), info.DepositBalance)
	assert.Equal(t, "Wireless keyboard", info.OrderName)
}

func TestPaymentService_ConfirmDeposit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	testOrder := func() *order.Order {
		return &order.Order{
			OrderID:     "ORD-1",
			BuyerID:     userID,
			TotalAmount: 50000,
			Status:      order.StatusPendingPayment,
		}
	}

	t.Run("full deposit payment succeeds", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(nil, nil)
		f.depositRepo.On("DebitTx", ctx, mock.Anything, userID, decimal.NewFromInt(50000), mock.Anything, "ORD-1").
			Return(&model.Deposit{UserID: userID, Balance: decimal.Zero}, &model.DepositTransaction{}, nil)
		f.paymentRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-1",
			Amount:            50000,
			UsedDepositAmount: 50000,
		}, userID)

		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", result.Status)
		assert.Equal(t, "DEPOSIT", result.PayType)
		assert.Equal(t, int64(50000), result.DepositUsedAmount)
		assert.Equal(t, int64(0), result.GatewayChargedAmount)
		assert.True(t, strings.HasPrefix(result.PaymentKey, "DEP-"))
		assert.NotNil(t, result.ApprovedAt)

		assert.Len(t, f.audit.byPhase(model.AuditPhaseRequest), 1)
		assert.Len(t, f.audit.byPhase(model.AuditPhaseSuccess), 1)
		f.paymentRepo.AssertExpectations(t)
		f.depositRepo.AssertExpectations(t)
	})

	t.Run("insufficient balance leaves no payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(nil, nil)
		f.depositRepo.On("DebitTx", ctx, mock.Anything, userID, mock.Anything, mock.Anything, "ORD-1").
			Return(nil, nil, domainRepo.ErrInsufficientBalance)

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-1",
			Amount:            50000,
			UsedDepositAmount: 50000,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodeInsufficientBalance, payerr.CodeOf(err))
		f.paymentRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)

		entry := f.audit.last()
		require.NotNil(t, entry)
		assert.Equal(t, model.AuditPhaseFail, entry.Phase)
		assert.False(t, entry.ReconciliationRequired)
	})

	t.Run("amount mismatch is rejected before any money moves", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(nil, nil)

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-1",
			Amount:            50000,
			UsedDepositAmount: 30000,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodeInvalidOrderAmount, payerr.CodeOf(err))
		f.depositRepo.AssertNotCalled(t, "DebitTx",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retry of a settled order replays the original payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		approvedAt := time.Now().Add(-time.Minute)
		f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(&model.Payment{
			ID:                1,
			OrderID:           "ORD-1",
			UserID:            userID,
			PaymentKey:        "DEP-original",
			TotalAmount:       50000,
			DepositUsedAmount: 50000,
			Currency:          "KRW",
			PayType:           model.PayTypeDeposit,
			Status:            model.PaymentStatusSuccess,
			ApprovedAt:        &approvedAt,
		}, nil)

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-1",
			Amount:            50000,
			UsedDepositAmount: 50000,
		}, userID)

		require.NoError(t, err)
		assert.Equal(t, "DEP-original", result.PaymentKey)
		f.depositRepo.AssertNotCalled(t, "DebitTx",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		successes := f.audit.byPhase(model.AuditPhaseSuccess)
		require.Len(t, successes, 1)
		assert.Equal(t, true, successes[0].ResponsePayload["idempotent_replay"])
	})

	t.Run("losing a concurrent race returns the winner's payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		approvedAt := time.Now()
		winner := &model.Payment{
			ID:                7,
			OrderID:           "ORD-1",
			UserID:            userID,
			PaymentKey:        "DEP-winner",
			TotalAmount:       50000,
			DepositUsedAmount: 50000,
			Currency:          "KRW",
			PayType:           model.PayTypeDeposit,
			Status:            model.PaymentStatusSuccess,
			ApprovedAt:        &approvedAt,
		}
		f.orders.On("GetOrder", ctx, "ORD-1", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(nil, nil).Once()
		f.depositRepo.On("DebitTx", ctx, mock.Anything, userID, mock.Anything, mock.Anything, "ORD-1").
			Return(&model.Deposit{UserID: userID, Balance: decimal.Zero}, &model.DepositTransaction{}, nil)
		f.paymentRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(domainRepo.ErrDuplicatePayment)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-1").Return(winner, nil).Once()

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-1",
			Amount:            50000,
			UsedDepositAmount: 50000,
		}, userID)

		require.NoError(t, err)
		assert.Equal(t, "DEP-winner", result.PaymentKey)
		f.paymentRepo.AssertExpectations(t)
	})

	t.Run("order lookup failure is audited", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-missing", userID).Return(nil, payerr.OrderNotFound("ORD-missing"))

		result, err := f.service.ConfirmDeposit(ctx, &dto.ConfirmDepositRequest{
			OrderID:           "ORD-missing",
			Amount:            50000,
			UsedDepositAmount: 50000,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodeOrderNotFound, payerr.CodeOf(err))
		assert.Len(t, f.audit.byPhase(model.AuditPhaseFail), 1)
	})
}

func TestPaymentService_ConfirmGateway(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	testOrder := func() *order.Order {
		return &order.Order{
			OrderID:     "ORD-2",
			BuyerID:     userID,
			TotalAmount: 100000,
			Status:      order.StatusPendingPayment,
		}
	}

	t.Run("full gateway payment succeeds", func(t *testing.T) {
		f := newPaymentServiceFixture()
		approvedAt := time.Now()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)
		f.gateway.On("Confirm", ctx, &gateway.ConfirmRequest{
			PaymentKey: "pay_abc",
			OrderID:    "ORD-2",
			Amount:     100000,
			Currency:   "KRW",
		}).Return(&gateway.ConfirmResponse{
			PaymentKey:     "pay_abc",
			TransactionKey: "txn_123",
			OrderID:        "ORD-2",
			Amount:         100000,
			ApprovedAt:     &approvedAt,
		}, nil)
		f.paymentRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 0,
		}, userID)

		require.NoError(t, err)
		assert.Equal(t, "GATEWAY", result.PayType)
		assert.Equal(t, int64(100000), result.GatewayChargedAmount)
		assert.Equal(t, int64(0), result.DepositUsedAmount)
		require.NotNil(t, result.GatewayTransactionKey)
		assert.Equal(t, "txn_123", *result.GatewayTransactionKey)
		f.depositRepo.AssertNotCalled(t, "DebitTx",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("split payment debits the deposit and charges the remainder", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)
		f.gateway.On("Confirm", ctx, &gateway.ConfirmRequest{
			PaymentKey: "pay_abc",
			OrderID:    "ORD-2",
			Amount:     80000,
			Currency:   "KRW",
		}).Return(&gateway.ConfirmResponse{
			PaymentKey:     "pay_abc",
			TransactionKey: "txn_456",
			OrderID:        "ORD-2",
			Amount:         80000,
		}, nil)
		f.depositRepo.On("DebitTx", ctx, mock.Anything, userID, decimal.NewFromInt(20000), mock.Anything, "ORD-2").
			Return(&model.Deposit{UserID: userID, Balance: decimal.Zero}, &model.DepositTransaction{}, nil)
		f.paymentRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 20000,
		}, userID)

		require.NoError(t, err)
		assert.Equal(t, "DEPOSIT_AND_GATEWAY", result.PayType)
		assert.Equal(t, int64(20000), result.DepositUsedAmount)
		assert.Equal(t, int64(80000), result.GatewayChargedAmount)
		f.depositRepo.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
	})

	t.Run("gateway decline leaves ledger and payments untouched", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)
		f.gateway.On("Confirm", ctx, mock.Anything).Return(nil, &gateway.GatewayError{
			Code:    "REJECT_CARD_COMPANY",
			Message: "card declined",
		})

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 20000,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodePaymentFailed, payerr.CodeOf(err))
		f.depositRepo.AssertNotCalled(t, "DebitTx",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.paymentRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)

		entry := f.audit.last()
		require.NotNil(t, entry)
		assert.Equal(t, model.AuditPhaseFail, entry.Phase)
		assert.False(t, entry.ReconciliationRequired)
		assert.NotContains(t, *entry.FailureReason, "GATEWAY_TIMEOUT")
	})

	t.Run("gateway timeout is recorded as unknown outcome, not a decline", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)
		f.gateway.On("Confirm", ctx, mock.Anything).Return(nil, &gateway.GatewayError{
			Code:    "REQUEST_ERROR",
			Message: "request timed out",
			Timeout: true,
		})

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 0,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)

		entry := f.audit.last()
		require.NotNil(t, entry)
		assert.True(t, strings.HasPrefix(*entry.FailureReason, "GATEWAY_TIMEOUT: "))
	})

	t.Run("local failure after gateway charge flags reconciliation", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)
		f.gateway.On("Confirm", ctx, mock.Anything).Return(&gateway.ConfirmResponse{
			PaymentKey:     "pay_abc",
			TransactionKey: "txn_789",
			OrderID:        "ORD-2",
			Amount:         100000,
		}, nil)
		f.paymentRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 0,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodePaymentFailed, payerr.CodeOf(err))

		entry := f.audit.last()
		require.NotNil(t, entry)
		assert.Equal(t, model.AuditPhaseFail, entry.Phase)
		assert.True(t, entry.ReconciliationRequired)
		assert.True(t, strings.HasPrefix(*entry.FailureReason, "RECONCILIATION_REQUIRED: "))
		require.NotNil(t, entry.GatewayTransactionKey)
		assert.Equal(t, "txn_789", *entry.GatewayTransactionKey)
	})

	t.Run("deposit covering the full amount is rejected on this path", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.orders.On("GetOrder", ctx, "ORD-2", userID).Return(testOrder(), nil)
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-2").Return(nil, nil)

		result, err := f.service.ConfirmGateway(ctx, &dto.ConfirmGatewayRequest{
			PaymentKey:        "pay_abc",
			OrderID:           "ORD-2",
			Amount:            100000,
			UsedDepositAmount: 100000,
		}, userID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, payerr.CodeInvalidOrderAmount, payerr.CodeOf(err))
		f.gateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_GetPayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("returns the settled payment for its owner", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-3").Return(&model.Payment{
			OrderID:     "ORD-3",
			UserID:      userID,
			PaymentKey:  "pay_abc",
			TotalAmount: 100000,
			Status:      model.PaymentStatusSuccess,
		}, nil)

		result, err := f.service.GetPayment(ctx, "ORD-3", userID)

		require.NoError(t, err)
		assert.Equal(t, "pay_abc", result.PaymentKey)
	})

	t.Run("not found", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-3").Return(nil, nil)

		_, err := f.service.GetPayment(ctx, "ORD-3", userID)

		require.Error(t, err)
		assert.Equal(t, payerr.CodePaymentNotFound, payerr.CodeOf(err))
	})

	t.Run("hides other users' payments", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.paymentRepo.On("FindSuccessByOrderID", ctx, "ORD-3").Return(&model.Payment{
			OrderID: "ORD-3",
			UserID:  uuid.New(),
			Status:  model.PaymentStatusSuccess,
		}, nil)

		_, err := f.service.GetPayment(ctx, "ORD-3", userID)

		require.Error(t, err)
		assert.Equal(t, payerr.CodeUnauthorized, payerr.CodeOf(err))
	})
}

func TestPaymentService_GetSettlement(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	f := newPaymentServiceFixture()
	f.paymentRepo.On("FindApprovedBetween", ctx, start, end).Return([]*model.Payment{
		{OrderID: "ORD-1", TotalAmount: 50000, Status: model.PaymentStatusSuccess},
		{OrderID: "ORD-2", TotalAmount: 100000, Status: model.PaymentStatusSuccess},
	}, nil)

	result, err := f.service.GetSettlement(ctx, start, end)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Payments, 2)
	assert.Equal(t, "ORD-1", result.Payments[0].OrderID)
}
