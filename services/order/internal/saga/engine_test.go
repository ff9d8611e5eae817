package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/order/internal/domain"
)

// Моки определены в mocks_test.go

// newEngineWithMocks возвращает движок и моки его зависимостей.
func newEngineWithMocks() (Engine, *MockRepository, *MockOrderRepository, *MockOutboxRepository, *MockOutboxRepository) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	paymentOutbox := new(MockOutboxRepository)
	approvalOutbox := new(MockOutboxRepository)
	return NewEngine(repo, orders, paymentOutbox, approvalOutbox), repo, orders, paymentOutbox, approvalOutbox
}

// pendingOrder возвращает инициализированный заказ в статусе PENDING.
func pendingOrder() *domain.Order {
	order := &domain.Order{
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Items: []domain.OrderItem{
			{
				ProductID: "product-1",
				Quantity:  1,
				Price:     money.MustFromString("50.00"),
				SubTotal:  money.MustFromString("50.00"),
			},
			{
				ProductID: "product-2",
				Quantity:  3,
				Price:     money.MustFromString("50.00"),
				SubTotal:  money.MustFromString("150.00"),
			},
		},
		Price: money.MustFromString("200.00"),
	}
	if err := order.ValidateAndInitialize(); err != nil {
		panic(err)
	}
	return order
}

// paymentOutboxMessage возвращает запись payment_outbox в указанном шаге саги.
func paymentOutboxMessage(sagaID string, sagaStatus outbox.SagaStatus) *outbox.Message {
	return &outbox.Message{
		ID:         "outbox-payment-1",
		SagaID:     sagaID,
		Type:       EventPaymentRequest,
		SagaStatus: sagaStatus,
		Status:     outbox.StatusCompleted,
		Version:    1,
	}
}

// =============================================================================
// Тесты Start
// =============================================================================

func TestEngine_Start(t *testing.T) {
	ctx := context.Background()
	engine, repo, _, _, _ := newEngineWithMocks()
	order := pendingOrder()

	repo.On("CreateOrderWithPaymentOutbox", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			msg := args.Get(2).(*outbox.Message)
			assert.Equal(t, order.ID, msg.SagaID)
			assert.Equal(t, EventPaymentRequest, msg.Type)
			assert.Equal(t, outbox.SagaStarted, msg.SagaStatus)
			assert.Equal(t, outbox.StatusStarted, msg.Status)
			assert.Equal(t, string(domain.OrderStatusPending), msg.OrderStatus)

			req, err := messaging.PaymentRequestFromJSON(msg.Payload)
			require.NoError(t, err)
			assert.Equal(t, messaging.PaymentOrderPending, req.PaymentOrderStatus)
			assert.True(t, req.Price.Equal(money.MustFromString("200.00").Amount))
		}).
		Return(nil)

	require.NoError(t, engine.Start(ctx, order))
	repo.AssertExpectations(t)
}

// =============================================================================
// Тесты HandlePaymentResponse
// =============================================================================

func TestEngine_PaymentCompleted(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentID:     "payment-1",
		PaymentStatus: messaging.PaymentCompleted,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(paymentOutboxMessage(order.ID, outbox.SagaStarted), nil)

	repo.On("CompletePaymentStep", ctx, order, mock.AnythingOfType("*outbox.Message"), mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusPaid, order.Status)

			payment := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaProcessing, payment.SagaStatus)

			approval := args.Get(3).(*outbox.Message)
			assert.Equal(t, EventApprovalRequest, approval.Type)
			assert.Equal(t, outbox.SagaProcessing, approval.SagaStatus)
			assert.Equal(t, outbox.StatusStarted, approval.Status)

			req, err := messaging.RestaurantApprovalRequestFromJSON(approval.Payload)
			require.NoError(t, err)
			assert.Equal(t, messaging.RestaurantOrderPaid, req.RestaurantOrderStatus)
			assert.Len(t, req.Products, 2)
		}).
		Return(nil)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertExpectations(t)
}

func TestEngine_PaymentFailed(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	resp := &messaging.PaymentResponse{
		SagaID:          order.ID,
		OrderID:         order.ID,
		PaymentStatus:   messaging.PaymentFailed,
		FailureMessages: []string{"Customer has no enough credit"},
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(paymentOutboxMessage(order.ID, outbox.SagaStarted), nil)

	repo.On("FailPaymentStep", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusCancelled, order.Status)
			assert.Equal(t, []string{"Customer has no enough credit"}, order.FailureMessages)

			payment := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaFailed, payment.SagaStatus)
		}).
		Return(nil)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertExpectations(t)
}

func TestEngine_PaymentFailed_AfterCompensationStarted(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()

	// Ресторан отклонил заказ, запрос возврата уже в outbox (COMPENSATING),
	// но Payment Service ответил отказом: клиент неизвестен
	order := pendingOrder()
	require.NoError(t, order.Pay())
	require.NoError(t, order.InitCancel([]string{"Product with id product-1 is not available"}))

	resp := &messaging.PaymentResponse{
		SagaID:          order.ID,
		OrderID:         order.ID,
		PaymentStatus:   messaging.PaymentFailed,
		FailureMessages: []string{"Customer has no enough credit"},
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	// Запись STARTED уже переведена в PROCESSING при оплате —
	// маркер шага находится по COMPENSATING
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(nil, outbox.ErrNotFound)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaCompensating).
		Return(paymentOutboxMessage(order.ID, outbox.SagaCompensating), nil)

	repo.On("FailPaymentStep", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusCancelled, order.Status)

			payment := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaFailed, payment.SagaStatus)
		}).
		Return(nil)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertExpectations(t)
}

func TestEngine_PaymentFailed_Duplicate(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentStatus: messaging.PaymentFailed,
	}

	// Маркера нет ни в STARTED, ни в COMPENSATING — шаг уже обработан
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(nil, outbox.ErrNotFound)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaCompensating).
		Return(nil, outbox.ErrNotFound)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertNotCalled(t, "FailPaymentStep", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PaymentResponse_Duplicate(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentStatus: messaging.PaymentCompleted,
	}

	// Записи в STARTED нет — шаг уже обработан, тихий no-op
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(nil, outbox.ErrNotFound)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertNotCalled(t, "CompletePaymentStep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PaymentResponse_StaleOrder(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()

	// Заказ уже APPROVED — переход PAID невозможен, сообщение устарело
	order := pendingOrder()
	require.NoError(t, order.Pay())
	require.NoError(t, order.Approve())

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentStatus: messaging.PaymentCompleted,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(paymentOutboxMessage(order.ID, outbox.SagaStarted), nil)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertNotCalled(t, "CompletePaymentStep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PaymentResponse_ConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentStatus: messaging.PaymentCompleted,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(paymentOutboxMessage(order.ID, outbox.SagaStarted), nil)

	// Другой обработчик успел первым: CAS не прошёл, ошибка гасится
	repo.On("CompletePaymentStep", ctx, order, mock.Anything, mock.Anything).
		Return(outbox.ErrConcurrentUpdate)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
}

func TestEngine_PaymentCancelled_CompletesCompensation(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()

	// Заказ в CANCELLING ожидает подтверждения возврата
	order := pendingOrder()
	require.NoError(t, order.Pay())
	require.NoError(t, order.InitCancel([]string{"Restaurant is closed"}))

	resp := &messaging.PaymentResponse{
		SagaID:        order.ID,
		OrderID:       order.ID,
		PaymentStatus: messaging.PaymentCancelled,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaCompensating).
		Return(paymentOutboxMessage(order.ID, outbox.SagaCompensating), nil)

	repo.On("CompleteCompensation", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusCancelled, order.Status)

			payment := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaCompensated, payment.SagaStatus)
		}).
		Return(nil)

	require.NoError(t, engine.HandlePaymentResponse(ctx, resp))
	repo.AssertExpectations(t)
}

// =============================================================================
// Тесты HandleApprovalResponse
// =============================================================================

func TestEngine_ApprovalApproved(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, _, approvalOutbox := newEngineWithMocks()

	order := pendingOrder()
	require.NoError(t, order.Pay())

	resp := &messaging.RestaurantApprovalResponse{
		SagaID:              order.ID,
		OrderID:             order.ID,
		RestaurantID:        order.RestaurantID,
		OrderApprovalStatus: messaging.OrderApproved,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	approvalOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaProcessing).
		Return(&outbox.Message{ID: "outbox-approval-1", SagaID: order.ID, SagaStatus: outbox.SagaProcessing}, nil)

	repo.On("CompleteApprovalStep", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusApproved, order.Status)

			approval := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaSucceeded, approval.SagaStatus)
		}).
		Return(nil)

	require.NoError(t, engine.HandleApprovalResponse(ctx, resp))
	repo.AssertExpectations(t)
}

func TestEngine_ApprovalRejected_BeginsCompensation(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, _, approvalOutbox := newEngineWithMocks()

	order := pendingOrder()
	require.NoError(t, order.Pay())

	resp := &messaging.RestaurantApprovalResponse{
		SagaID:              order.ID,
		OrderID:             order.ID,
		RestaurantID:        order.RestaurantID,
		OrderApprovalStatus: messaging.OrderRejected,
		FailureMessages:     []string{"Restaurant is closed"},
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	approvalOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaProcessing).
		Return(&outbox.Message{ID: "outbox-approval-1", SagaID: order.ID, SagaStatus: outbox.SagaProcessing}, nil)

	repo.On("BeginCompensation", ctx, order, mock.AnythingOfType("*outbox.Message"), mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusCancelling, order.Status)
			assert.Equal(t, []string{"Restaurant is closed"}, order.FailureMessages)

			approval := args.Get(2).(*outbox.Message)
			assert.Equal(t, outbox.SagaCompensating, approval.SagaStatus)

			// Запрос возврата платежа
			cancelPayment := args.Get(3).(*outbox.Message)
			assert.Equal(t, outbox.SagaCompensating, cancelPayment.SagaStatus)
			assert.Equal(t, outbox.StatusStarted, cancelPayment.Status)

			req, err := messaging.PaymentRequestFromJSON(cancelPayment.Payload)
			require.NoError(t, err)
			assert.Equal(t, messaging.PaymentOrderCancelled, req.PaymentOrderStatus)
		}).
		Return(nil)

	require.NoError(t, engine.HandleApprovalResponse(ctx, resp))
	repo.AssertExpectations(t)
}

func TestEngine_ApprovalResponse_Duplicate(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, _, approvalOutbox := newEngineWithMocks()

	order := pendingOrder()
	require.NoError(t, order.Pay())

	resp := &messaging.RestaurantApprovalResponse{
		SagaID:              order.ID,
		OrderID:             order.ID,
		OrderApprovalStatus: messaging.OrderApproved,
	}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	approvalOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaProcessing).
		Return(nil, outbox.ErrNotFound)

	require.NoError(t, engine.HandleApprovalResponse(ctx, resp))
	repo.AssertNotCalled(t, "CompleteApprovalStep", mock.Anything, mock.Anything, mock.Anything)
}

// =============================================================================
// Тесты TimeoutPayment
// =============================================================================

func TestEngine_TimeoutPayment(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, paymentOutbox, _ := newEngineWithMocks()
	order := pendingOrder()

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	paymentOutbox.On("GetBySagaAndStatus", ctx, order.ID, outbox.SagaStarted).
		Return(paymentOutboxMessage(order.ID, outbox.SagaStarted), nil)

	repo.On("FailPaymentStep", ctx, order, mock.AnythingOfType("*outbox.Message")).
		Run(func(args mock.Arguments) {
			assert.Equal(t, domain.OrderStatusCancelled, order.Status)
			assert.Equal(t, []string{"Payment response timeout"}, order.FailureMessages)
		}).
		Return(nil)

	require.NoError(t, engine.TimeoutPayment(ctx, order.ID, "Payment response timeout"))
	repo.AssertExpectations(t)
}

func TestEngine_TimeoutPayment_OrderAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	engine, repo, orders, _, _ := newEngineWithMocks()

	order := pendingOrder()
	require.NoError(t, order.Pay())

	// Заказ уже оплачен — таймаут не применяется
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	require.NoError(t, engine.TimeoutPayment(ctx, order.ID, "Payment response timeout"))
	repo.AssertNotCalled(t, "FailPaymentStep", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PaymentResponse_OrderNotFound(t *testing.T) {
	ctx := context.Background()
	engine, _, orders, _, _ := newEngineWithMocks()

	resp := &messaging.PaymentResponse{
		SagaID:        "saga-unknown",
		OrderID:       "order-unknown",
		PaymentStatus: messaging.PaymentCompleted,
	}

	// Заказа нет — ошибка уходит наверх, consumer отправит сообщение в DLQ
	orders.On("GetByID", ctx, "order-unknown").Return(nil, domain.ErrOrderNotFound)

	err := engine.HandlePaymentResponse(ctx, resp)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestEngine_UnknownPaymentStatus(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _, _ := newEngineWithMocks()

	resp := &messaging.PaymentResponse{
		SagaID:        "saga-1",
		OrderID:       "order-1",
		PaymentStatus: messaging.PaymentStatus("UNKNOWN"),
	}

	err := engine.HandlePaymentResponse(ctx, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неизвестный статус оплаты")
}
