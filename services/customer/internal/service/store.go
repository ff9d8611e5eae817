package service

import (
	"context"

	"gorm.io/gorm"

	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/customer/internal/domain"
	"example.com/food-ordering/services/customer/internal/repository"
)

// Store — атомарное хранение клиента: запись в реестр и событие
// в outbox пишутся в одной транзакции.
type Store interface {
	// CreateCustomer сохраняет клиента и ставит событие в outbox.
	CreateCustomer(ctx context.Context, customer *domain.Customer, event *outbox.Message) error

	// GetCustomerByID возвращает клиента из реестра.
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
}

// customerStore — GORM реализация Store.
type customerStore struct {
	db          *gorm.DB
	customers   repository.CustomerRepository
	eventOutbox outbox.Repository
}

// NewStore создаёт хранилище реестра клиентов.
func NewStore(db *gorm.DB, customers repository.CustomerRepository, eventOutbox outbox.Repository) Store {
	return &customerStore{
		db:          db,
		customers:   customers,
		eventOutbox: eventOutbox,
	}
}

func (s *customerStore) CreateCustomer(ctx context.Context, customer *domain.Customer, event *outbox.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.customers.CreateTx(tx, customer); err != nil {
			return err
		}
		return s.eventOutbox.SaveTx(tx, event)
	})
}

func (s *customerStore) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.GetByID(ctx, id)
}
