// Package service содержит моки для тестирования бизнес-логики платежей.
package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"example.com/food-ordering/services/payment/internal/domain"
)

// MockCreditRepository — мок repository.CreditRepository.
type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) GetEntryByCustomerID(ctx context.Context, customerID string) (*domain.CreditEntry, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditEntry), args.Error(1)
}

func (m *MockCreditRepository) UpdateEntryTx(tx *gorm.DB, entry *domain.CreditEntry) error {
	args := m.Called(tx, entry)
	return args.Error(0)
}

func (m *MockCreditRepository) AddHistoryTx(tx *gorm.DB, entry *domain.CreditHistoryEntry) error {
	args := m.Called(tx, entry)
	return args.Error(0)
}

func (m *MockCreditRepository) ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domain.CreditHistoryEntry, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CreditHistoryEntry), args.Error(1)
}
