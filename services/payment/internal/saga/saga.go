// Package saga реализует шаги саги на стороне Payment Service:
// обработку payment-request (списание и возврат средств) и постановку
// payment-response в outbox атомарно с изменением счёта.
//
// Идемпотентность обеспечивается тремя уровнями:
//
//	Redis SETNX    — быстрый отсев повторных доставок из Kafka
//	unique (saga_id, saga_status) в outbox — жёсткая гарантия в БД
//	optimistic locking счёта — защита от конкурентных списаний
package saga

import (
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/payment/internal/domain"
)

// TableResponseOutbox — исходящие ответы Payment Service.
const TableResponseOutbox = "payment_response_outbox"

// EventPaymentResponse — тип события outbox.
const EventPaymentResponse = "payment-response"

// sagaStatusFor отображает итоговый статус платежа в статус шага саги.
func sagaStatusFor(status domain.PaymentStatus) outbox.SagaStatus {
	switch status {
	case domain.PaymentCompleted:
		return outbox.SagaProcessing
	case domain.PaymentCancelled:
		return outbox.SagaCompensated
	default:
		return outbox.SagaFailed
	}
}

// newPaymentResponseMessage строит запись outbox с ответом об оплате.
// Статус шага саги выводится из статуса платежа, поэтому повторная
// обработка того же запроса упирается в unique (saga_id, saga_status).
func newPaymentResponseMessage(payment *domain.Payment) (*outbox.Message, error) {
	response := &messaging.PaymentResponse{
		SagaID:          payment.SagaID,
		OrderID:         payment.OrderID,
		PaymentID:       payment.ID,
		CustomerID:      payment.CustomerID,
		Price:           payment.Price.Amount,
		CreatedAt:       time.Now(),
		PaymentStatus:   messaging.PaymentStatus(payment.Status),
		FailureMessages: payment.FailureMessages,
	}

	payload, err := response.ToJSON()
	if err != nil {
		return nil, err
	}

	return &outbox.Message{
		ID:          uuid.NewString(),
		SagaID:      payment.SagaID,
		Type:        EventPaymentResponse,
		Topic:       kafka.TopicPaymentResponse,
		Payload:     payload,
		OrderStatus: string(payment.Status),
		SagaStatus:  sagaStatusFor(payment.Status),
		Status:      outbox.StatusStarted,
	}, nil
}
