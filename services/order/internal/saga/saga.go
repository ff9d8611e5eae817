// Package saga реализует хореографическую сагу оформления заказа на стороне
// Order Service: запуск саги при создании заказа, обработку ответов Payment
// и Restaurant Service, компенсацию и таймауты.
//
// Схема саги:
//
//	CreateOrder -> [payment_outbox] -> payment-request
//	payment-response COMPLETED -> PAID -> [restaurant_approval_outbox] -> restaurant-approval-request
//	payment-response FAILED    -> CANCELLED
//	restaurant-approval-response APPROVED -> APPROVED (успех)
//	restaurant-approval-response REJECTED -> CANCELLING -> [payment_outbox CANCEL] -> payment-request
//	payment-response CANCELLED -> CANCELLED (компенсация завершена)
package saga

import (
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/order/internal/domain"
)

// Таблицы outbox Order Service.
const (
	// TablePaymentOutbox — исходящие запросы к Payment Service.
	TablePaymentOutbox = "payment_outbox"

	// TableApprovalOutbox — исходящие запросы к Restaurant Service.
	TableApprovalOutbox = "restaurant_approval_outbox"
)

// Типы событий outbox.
const (
	EventPaymentRequest  = "payment-request"
	EventApprovalRequest = "restaurant-approval-request"
)

// newPaymentRequestMessage строит запись outbox с запросом на оплату.
// paymentStatus PENDING — списание, CANCELLED — возврат (компенсация).
func newPaymentRequestMessage(order *domain.Order, paymentStatus messaging.PaymentOrderStatus, sagaStatus outbox.SagaStatus) (*outbox.Message, error) {
	request := &messaging.PaymentRequest{
		SagaID:             order.ID,
		CustomerID:         order.CustomerID,
		OrderID:            order.ID,
		Price:              order.Price.Amount,
		CreatedAt:          time.Now(),
		PaymentOrderStatus: paymentStatus,
	}

	payload, err := request.ToJSON()
	if err != nil {
		return nil, err
	}

	return &outbox.Message{
		ID:          uuid.NewString(),
		SagaID:      order.ID,
		Type:        EventPaymentRequest,
		Topic:       kafka.TopicPaymentRequest,
		Payload:     payload,
		OrderStatus: string(order.Status),
		SagaStatus:  sagaStatus,
		Status:      outbox.StatusStarted,
	}, nil
}

// newApprovalRequestMessage строит запись outbox с запросом подтверждения ресторана.
func newApprovalRequestMessage(order *domain.Order) (*outbox.Message, error) {
	products := make([]messaging.Product, len(order.Items))
	for i, item := range order.Items {
		products[i] = messaging.Product{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		}
	}

	request := &messaging.RestaurantApprovalRequest{
		SagaID:                order.ID,
		RestaurantID:          order.RestaurantID,
		OrderID:               order.ID,
		RestaurantOrderStatus: messaging.RestaurantOrderPaid,
		Products:              products,
		Price:                 order.Price.Amount,
		CreatedAt:             time.Now(),
	}

	payload, err := request.ToJSON()
	if err != nil {
		return nil, err
	}

	return &outbox.Message{
		ID:          uuid.NewString(),
		SagaID:      order.ID,
		Type:        EventApprovalRequest,
		Topic:       kafka.TopicRestaurantApprovalRequest,
		Payload:     payload,
		OrderStatus: string(order.Status),
		SagaStatus:  outbox.SagaProcessing,
		Status:      outbox.StatusStarted,
	}, nil
}
