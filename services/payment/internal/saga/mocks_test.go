// Package saga содержит моки для тестирования обработки платёжных запросов.
package saga

import (
	"context"

	"github.com/stretchr/testify/mock"

	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/payment/internal/domain"
	"example.com/food-ordering/services/payment/internal/service"
)

// =============================================================================
// MockPaymentService — мок service.PaymentService
// =============================================================================

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, req *messaging.PaymentRequest) (*service.ProcessResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, req *messaging.PaymentRequest) (*service.ProcessResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

// =============================================================================
// MockRepository — мок Repository (атомарные шаги саги)
// =============================================================================

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CompletePayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error {
	args := m.Called(ctx, payment, entry, history, response)
	return args.Error(0)
}

func (m *MockRepository) FailPayment(ctx context.Context, payment *domain.Payment, response *outbox.Message) error {
	args := m.Called(ctx, payment, response)
	return args.Error(0)
}

func (m *MockRepository) RefundPayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error {
	args := m.Called(ctx, payment, entry, history, response)
	return args.Error(0)
}

// =============================================================================
// MockEngine — мок Engine (для тестов consumer handler)
// =============================================================================

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) HandlePaymentRequest(ctx context.Context, req *messaging.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
