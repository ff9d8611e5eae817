package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/money"
)

// setupDedupe поднимает miniredis и возвращает Dedupe поверх него.
func setupDedupe(t *testing.T) *Dedupe {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewDedupe(rdb)
}

// requestMessage сериализует payment-request в сообщение Kafka.
func requestMessage(t *testing.T, req *messaging.PaymentRequest) *kafka.Message {
	t.Helper()

	payload, err := req.ToJSON()
	require.NoError(t, err)

	return &kafka.Message{
		Topic: kafka.TopicPaymentRequest,
		Key:   []byte(req.SagaID),
		Value: payload,
	}
}

func testRequest() *messaging.PaymentRequest {
	return &messaging.PaymentRequest{
		SagaID:             "saga-1",
		CustomerID:         "customer-1",
		OrderID:            "saga-1",
		Price:              money.MustFromString("200.00").Amount,
		CreatedAt:          time.Now(),
		PaymentOrderStatus: messaging.PaymentOrderPending,
	}
}

func TestPaymentRequestHandler_ProcessesRequest(t *testing.T) {
	engine := new(MockEngine)
	engine.On("HandlePaymentRequest", mock.Anything, mock.MatchedBy(func(req *messaging.PaymentRequest) bool {
		return req.SagaID == "saga-1" && req.PaymentOrderStatus == messaging.PaymentOrderPending
	})).Return(nil)

	handler := NewPaymentRequestHandler(engine, setupDedupe(t))

	err := handler(context.Background(), requestMessage(t, testRequest()))

	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestPaymentRequestHandler_SkipsDuplicateDelivery(t *testing.T) {
	engine := new(MockEngine)
	engine.On("HandlePaymentRequest", mock.Anything, mock.Anything).Return(nil)

	handler := NewPaymentRequestHandler(engine, setupDedupe(t))
	msg := requestMessage(t, testRequest())

	require.NoError(t, handler(context.Background(), msg))
	require.NoError(t, handler(context.Background(), msg))

	// Повторная доставка отсеяна по ключу в Redis
	engine.AssertNumberOfCalls(t, "HandlePaymentRequest", 1)
}

func TestPaymentRequestHandler_DistinguishesDebitAndRefund(t *testing.T) {
	engine := new(MockEngine)
	engine.On("HandlePaymentRequest", mock.Anything, mock.Anything).Return(nil)

	handler := NewPaymentRequestHandler(engine, setupDedupe(t))

	debit := testRequest()
	refund := testRequest()
	refund.PaymentOrderStatus = messaging.PaymentOrderCancelled

	// Списание и возврат той же саги — разные операции, обе проходят
	require.NoError(t, handler(context.Background(), requestMessage(t, debit)))
	require.NoError(t, handler(context.Background(), requestMessage(t, refund)))

	engine.AssertNumberOfCalls(t, "HandlePaymentRequest", 2)
}

func TestPaymentRequestHandler_ReleasesKeyOnError(t *testing.T) {
	engine := new(MockEngine)
	engine.On("HandlePaymentRequest", mock.Anything, mock.Anything).
		Return(errors.New("mysql недоступен")).Once()
	engine.On("HandlePaymentRequest", mock.Anything, mock.Anything).
		Return(nil).Once()

	handler := NewPaymentRequestHandler(engine, setupDedupe(t))
	msg := requestMessage(t, testRequest())

	// Первая доставка падает, пометка снимается
	require.Error(t, handler(context.Background(), msg))

	// Redelivery проходит заново
	require.NoError(t, handler(context.Background(), msg))
	engine.AssertNumberOfCalls(t, "HandlePaymentRequest", 2)
}

func TestPaymentRequestHandler_InvalidPayload(t *testing.T) {
	engine := new(MockEngine)
	handler := NewPaymentRequestHandler(engine, setupDedupe(t))

	err := handler(context.Background(), &kafka.Message{
		Topic: kafka.TopicPaymentRequest,
		Value: []byte("не json"),
	})

	assert.Error(t, err)
	engine.AssertNotCalled(t, "HandlePaymentRequest", mock.Anything, mock.Anything)
}

func TestPaymentRequestHandler_NilDedupe(t *testing.T) {
	engine := new(MockEngine)
	engine.On("HandlePaymentRequest", mock.Anything, mock.Anything).Return(nil)

	// Без Redis обработка идёт напрямую, идемпотентность держит БД
	handler := NewPaymentRequestHandler(engine, nil)

	require.NoError(t, handler(context.Background(), requestMessage(t, testRequest())))
	engine.AssertExpectations(t)
}
