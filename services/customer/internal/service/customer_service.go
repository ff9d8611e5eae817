// Package service содержит бизнес-логику Customer Service: регистрацию
// клиентов с атомарной постановкой события customer в outbox.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/customer/internal/domain"
)

// TableEventOutbox — исходящие события Customer Service.
const TableEventOutbox = "customer_outbox"

// EventCustomerCreated — тип события outbox.
const EventCustomerCreated = "customer-created"

// CustomerService — бизнес-логика реестра клиентов.
type CustomerService interface {
	// CreateCustomer регистрирует клиента и ставит событие customer
	// в outbox атомарно с записью в реестр.
	CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)

	// GetCustomer возвращает клиента по ID.
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// customerService — реализация CustomerService.
type customerService struct {
	store Store
}

// NewCustomerService создаёт сервис реестра клиентов.
func NewCustomerService(store Store) CustomerService {
	return &customerService{store: store}
}

// CreateCustomer регистрирует нового клиента.
func (s *customerService) CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	log := logger.FromContext(ctx)

	if err := customer.ValidateAndInitialize(); err != nil {
		return nil, err
	}

	event, err := newCustomerCreatedMessage(customer)
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки события customer: %w", err)
	}

	if err := s.store.CreateCustomer(ctx, customer, event); err != nil {
		return nil, err
	}

	log.Info().
		Str("customer_id", customer.ID).
		Str("username", customer.Username).
		Msg("Клиент зарегистрирован, событие поставлено в outbox")

	return customer, nil
}

// GetCustomer возвращает клиента по ID.
func (s *customerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.store.GetCustomerByID(ctx, id)
}

// newCustomerCreatedMessage строит запись outbox с событием customer.
// SagaID — это ID клиента: Kafka ключ события, по нему Order Service
// ведёт свою реплику.
func newCustomerCreatedMessage(customer *domain.Customer) (*outbox.Message, error) {
	event := &messaging.CustomerCreated{
		ID:        customer.ID,
		Username:  customer.Username,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		CreatedAt: time.Now(),
	}

	payload, err := event.ToJSON()
	if err != nil {
		return nil, err
	}

	return &outbox.Message{
		ID:         uuid.NewString(),
		SagaID:     customer.ID,
		Type:       EventCustomerCreated,
		Topic:      kafka.TopicCustomer,
		Payload:    payload,
		SagaStatus: outbox.SagaStarted,
		Status:     outbox.StatusStarted,
	}, nil
}
