// Package saga содержит моки для тестирования подтверждения заказов.
package saga

import (
	"context"

	"github.com/stretchr/testify/mock"

	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/restaurant/internal/domain"
)

// =============================================================================
// MockRestaurantRepository — мок repository.RestaurantRepository
// =============================================================================

type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

// =============================================================================
// MockRepository — мок Repository (атомарная фиксация решения)
// =============================================================================

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveApproval(ctx context.Context, approval *domain.OrderApproval, response *outbox.Message) error {
	args := m.Called(ctx, approval, response)
	return args.Error(0)
}

// =============================================================================
// MockEngine — мок Engine (для тестов consumer handler)
// =============================================================================

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) HandleApprovalRequest(ctx context.Context, req *messaging.RestaurantApprovalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
