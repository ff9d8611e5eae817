package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/customer/internal/domain"
)

func newCustomer() *domain.Customer {
	return &domain.Customer{
		Username:  "ivan",
		FirstName: "Иван",
		LastName:  "Петров",
	}
}

func TestCreateCustomer_Success(t *testing.T) {
	store := new(MockStore)
	svc := NewCustomerService(store)

	store.On("CreateCustomer", mock.Anything,
		mock.MatchedBy(func(c *domain.Customer) bool {
			return c.ID != "" && c.Username == "ivan"
		}),
		mock.MatchedBy(func(event *outbox.Message) bool {
			if event.Topic != kafka.TopicCustomer || event.Type != EventCustomerCreated {
				return false
			}
			created, err := messaging.CustomerCreatedFromJSON(event.Payload)
			// SagaID события — ID клиента, он же ключ Kafka сообщения
			return err == nil && created.Username == "ivan" && event.SagaID == created.ID
		})).Return(nil)

	result, err := svc.CreateCustomer(context.Background(), newCustomer())

	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	store.AssertExpectations(t)
}

func TestCreateCustomer_InvalidUsername(t *testing.T) {
	store := new(MockStore)
	svc := NewCustomerService(store)

	customer := newCustomer()
	customer.Username = ""

	_, err := svc.CreateCustomer(context.Background(), customer)

	assert.ErrorIs(t, err, domain.ErrInvalidUsername)
	store.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCustomer_UsernameTaken(t *testing.T) {
	store := new(MockStore)
	svc := NewCustomerService(store)

	store.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrUsernameTaken)

	_, err := svc.CreateCustomer(context.Background(), newCustomer())

	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestGetCustomer_NotFound(t *testing.T) {
	store := new(MockStore)
	svc := NewCustomerService(store)

	store.On("GetCustomerByID", mock.Anything, "missing").Return(nil, domain.ErrCustomerNotFound)

	_, err := svc.GetCustomer(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
