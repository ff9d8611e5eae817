package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/food-ordering/services/order/internal/domain"
)

func staleOrder(id string) *domain.Order {
	return &domain.Order{
		ID:        id,
		Status:    domain.OrderStatusPending,
		UpdatedAt: time.Now().Add(-10 * time.Minute),
	}
}

func TestTimeoutWorker_CancelsStuckOrders(t *testing.T) {
	orders := new(MockOrderRepository)
	engine := new(MockEngine)
	worker := NewTimeoutWorker(orders, engine, DefaultTimeoutWorkerConfig())

	orders.On("ListStale", mock.Anything, domain.OrderStatusPending, mock.Anything, 50).
		Return([]*domain.Order{staleOrder("order-1"), staleOrder("order-2")}, nil)
	engine.On("TimeoutPayment", mock.Anything, "order-1", timeoutReason).Return(nil)
	engine.On("TimeoutPayment", mock.Anything, "order-2", timeoutReason).Return(nil)

	worker.processStuckOrders(context.Background())

	orders.AssertExpectations(t)
	engine.AssertExpectations(t)
}

func TestTimeoutWorker_NoStuckOrders(t *testing.T) {
	orders := new(MockOrderRepository)
	engine := new(MockEngine)
	worker := NewTimeoutWorker(orders, engine, DefaultTimeoutWorkerConfig())

	orders.On("ListStale", mock.Anything, domain.OrderStatusPending, mock.Anything, 50).
		Return([]*domain.Order{}, nil)

	worker.processStuckOrders(context.Background())

	engine.AssertNotCalled(t, "TimeoutPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimeoutWorker_ContinuesAfterEngineError(t *testing.T) {
	orders := new(MockOrderRepository)
	engine := new(MockEngine)
	worker := NewTimeoutWorker(orders, engine, DefaultTimeoutWorkerConfig())

	orders.On("ListStale", mock.Anything, domain.OrderStatusPending, mock.Anything, 50).
		Return([]*domain.Order{staleOrder("order-1"), staleOrder("order-2")}, nil)

	// Ошибка первого заказа не прерывает обработку остальных
	engine.On("TimeoutPayment", mock.Anything, "order-1", timeoutReason).
		Return(errors.New("конкурентное обновление"))
	engine.On("TimeoutPayment", mock.Anything, "order-2", timeoutReason).Return(nil)

	worker.processStuckOrders(context.Background())

	engine.AssertExpectations(t)
}

func TestTimeoutWorker_ListError(t *testing.T) {
	orders := new(MockOrderRepository)
	engine := new(MockEngine)
	worker := NewTimeoutWorker(orders, engine, DefaultTimeoutWorkerConfig())

	orders.On("ListStale", mock.Anything, domain.OrderStatusPending, mock.Anything, 50).
		Return(nil, errors.New("mysql недоступен"))

	worker.processStuckOrders(context.Background())

	engine.AssertNotCalled(t, "TimeoutPayment", mock.Anything, mock.Anything, mock.Anything)
}
