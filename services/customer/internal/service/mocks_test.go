// Package service содержит моки для тестирования реестра клиентов.
package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/customer/internal/domain"
)

// MockStore — мок Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateCustomer(ctx context.Context, customer *domain.Customer, event *outbox.Message) error {
	args := m.Called(ctx, customer, event)
	return args.Error(0)
}

func (m *MockStore) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
