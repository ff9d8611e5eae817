// Package saga содержит моки для тестирования движка саги.
package saga

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/order/internal/domain"
)

// =============================================================================
// MockRepository — мок Repository (атомарные шаги саги)
// =============================================================================

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderWithPaymentOutbox(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	args := m.Called(ctx, order, payment)
	return args.Error(0)
}

func (m *MockRepository) CompletePaymentStep(ctx context.Context, order *domain.Order, payment, approval *outbox.Message) error {
	args := m.Called(ctx, order, payment, approval)
	return args.Error(0)
}

func (m *MockRepository) FailPaymentStep(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	args := m.Called(ctx, order, payment)
	return args.Error(0)
}

func (m *MockRepository) CompleteApprovalStep(ctx context.Context, order *domain.Order, approval *outbox.Message) error {
	args := m.Called(ctx, order, approval)
	return args.Error(0)
}

func (m *MockRepository) BeginCompensation(ctx context.Context, order *domain.Order, approval, cancelPayment *outbox.Message) error {
	args := m.Called(ctx, order, approval, cancelPayment)
	return args.Error(0)
}

func (m *MockRepository) CompleteCompensation(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	args := m.Called(ctx, order, payment)
	return args.Error(0)
}

// =============================================================================
// MockOrderRepository — мок repository.OrderRepository
// =============================================================================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateTx(tx *gorm.DB, order *domain.Order) error {
	args := m.Called(tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Order, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateTx(tx *gorm.DB, order *domain.Order) error {
	args := m.Called(tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) ListStale(ctx context.Context, status domain.OrderStatus, olderThan time.Time, limit int) ([]*domain.Order, error) {
	args := m.Called(ctx, status, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// =============================================================================
// MockOutboxRepository — мок outbox.Repository
// =============================================================================

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) SaveTx(tx *gorm.DB, msg *outbox.Message) error {
	args := m.Called(tx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) UpdateStatusTx(tx *gorm.DB, msg *outbox.Message) error {
	args := m.Called(tx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) GetBySagaAndStatus(ctx context.Context, sagaID string, sagaStatus outbox.SagaStatus) (*outbox.Message, error) {
	args := m.Called(ctx, sagaID, sagaStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, version int) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id string, version int, pubErr error) error {
	args := m.Called(ctx, id, version, pubErr)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkDeadLetter(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// MockEngine — мок Engine (для тестов Timeout Worker)
// =============================================================================

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Start(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockEngine) HandlePaymentResponse(ctx context.Context, resp *messaging.PaymentResponse) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}

func (m *MockEngine) HandleApprovalResponse(ctx context.Context, resp *messaging.RestaurantApprovalResponse) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}

func (m *MockEngine) TimeoutPayment(ctx context.Context, orderID, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}
