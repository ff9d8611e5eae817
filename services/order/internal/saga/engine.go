package saga

import (
	"context"
	"errors"
	"fmt"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/metrics"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/repository"
)

// Engine — шаги саги на стороне Order Service.
// Каждый обработчик идемпотентен: дубликаты и устаревшие сообщения
// распознаются по записям outbox и версии заказа и молча игнорируются.
type Engine interface {
	// Start запускает сагу: атомарно создаёт заказ и запрос на оплату.
	Start(ctx context.Context, order *domain.Order) error

	// HandlePaymentResponse обрабатывает результат оплаты.
	HandlePaymentResponse(ctx context.Context, resp *messaging.PaymentResponse) error

	// HandleApprovalResponse обрабатывает решение ресторана.
	HandleApprovalResponse(ctx context.Context, resp *messaging.RestaurantApprovalResponse) error

	// TimeoutPayment компенсирует заказ, зависший в ожидании оплаты.
	TimeoutPayment(ctx context.Context, orderID, reason string) error
}

// engine — реализация Engine.
type engine struct {
	repo           Repository
	orders         repository.OrderRepository
	paymentOutbox  outbox.Repository
	approvalOutbox outbox.Repository
}

// NewEngine создаёт движок саги.
func NewEngine(repo Repository, orders repository.OrderRepository, paymentOutbox, approvalOutbox outbox.Repository) Engine {
	return &engine{
		repo:           repo,
		orders:         orders,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
	}
}

// Start запускает сагу: заказ PENDING + запись payment_outbox (STARTED)
// создаются в одной транзакции. Заказ должен быть уже инициализирован.
func (e *engine) Start(ctx context.Context, order *domain.Order) error {
	log := logger.FromContext(ctx)

	payment, err := newPaymentRequestMessage(order, messaging.PaymentOrderPending, outbox.SagaStarted)
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса на оплату: %w", err)
	}

	if err := e.repo.CreateOrderWithPaymentOutbox(ctx, order, payment); err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Str("tracking_id", order.TrackingID).
		Str("price", order.Price.String()).
		Msg("Сага запущена: заказ создан, запрос на оплату поставлен в outbox")

	metrics.RecordSagaStep("order", "start", "success")
	return nil
}

// HandlePaymentResponse обрабатывает результат оплаты от Payment Service.
func (e *engine) HandlePaymentResponse(ctx context.Context, resp *messaging.PaymentResponse) error {
	switch resp.PaymentStatus {
	case messaging.PaymentCompleted:
		return e.completePayment(ctx, resp)
	case messaging.PaymentFailed:
		return e.failPayment(ctx, resp)
	case messaging.PaymentCancelled:
		return e.completeCompensation(ctx, resp)
	default:
		return fmt.Errorf("неизвестный статус оплаты: %s", resp.PaymentStatus)
	}
}

// completePayment: PENDING -> PAID, запрос подтверждения ресторана в outbox.
func (e *engine) completePayment(ctx context.Context, resp *messaging.PaymentResponse) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", resp.OrderID, err)
	}

	// Запись payment_outbox в STARTED — маркер необработанного шага.
	// Её отсутствие означает, что ответ уже обработан.
	payment, err := e.paymentOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaStarted)
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Повторный payment-response, шаг уже обработан")
			return nil
		}
		return err
	}

	if err := order.Pay(); err != nil {
		log.Warn().
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("Устаревший payment-response: заказ уже сменил статус")
		return nil
	}

	approval, err := newApprovalRequestMessage(order)
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса подтверждения: %w", err)
	}

	payment.SagaStatus = outbox.SagaProcessing
	payment.OrderStatus = string(order.Status)

	if err := e.repo.CompletePaymentStep(ctx, order, payment, approval); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Шаг оплаты уже применён другим обработчиком")
			return nil
		}
		return fmt.Errorf("ошибка фиксации оплаты: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Str("payment_id", resp.PaymentID).
		Msg("Оплата подтверждена, запрос подтверждения ресторана поставлен в outbox")

	metrics.RecordSagaStep("order", "payment", "success")
	return nil
}

// failPayment: PENDING -> CANCELLED при отказе оплаты,
// CANCELLING -> CANCELLED при отказе возврата (клиент неизвестен).
func (e *engine) failPayment(ctx context.Context, resp *messaging.PaymentResponse) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", resp.OrderID, err)
	}

	// Отказ может прийти и на запрос возврата: маркер шага ищем сначала
	// в STARTED (исходная оплата), затем в COMPENSATING (компенсация).
	payment, err := e.paymentOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaStarted)
	if errors.Is(err, outbox.ErrNotFound) {
		payment, err = e.paymentOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaCompensating)
	}
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Повторный payment-response, шаг уже обработан")
			return nil
		}
		return err
	}

	if err := order.Cancel(resp.FailureMessages); err != nil {
		log.Warn().
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("Устаревший payment-response: заказ уже сменил статус")
		return nil
	}

	payment.SagaStatus = outbox.SagaFailed
	payment.OrderStatus = string(order.Status)

	if err := e.repo.FailPaymentStep(ctx, order, payment); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Отказ оплаты уже применён другим обработчиком")
			return nil
		}
		return fmt.Errorf("ошибка фиксации отказа оплаты: %w", err)
	}

	log.Warn().
		Str("order_id", order.ID).
		Strs("failure_messages", resp.FailureMessages).
		Msg("Оплата отклонена, заказ отменён")

	metrics.RecordSagaStep("order", "payment", "failed")
	return nil
}

// completeCompensation: CANCELLING -> CANCELLED после возврата платежа.
func (e *engine) completeCompensation(ctx context.Context, resp *messaging.PaymentResponse) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", resp.OrderID, err)
	}

	payment, err := e.paymentOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaCompensating)
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Повторное подтверждение возврата, шаг уже обработан")
			return nil
		}
		return err
	}

	if err := order.Cancel(resp.FailureMessages); err != nil {
		log.Warn().
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("Устаревшее подтверждение возврата: заказ уже сменил статус")
		return nil
	}

	payment.SagaStatus = outbox.SagaCompensated
	payment.OrderStatus = string(order.Status)

	if err := e.repo.CompleteCompensation(ctx, order, payment); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Компенсация уже применена другим обработчиком")
			return nil
		}
		return fmt.Errorf("ошибка завершения компенсации: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Msg("Компенсация завершена: платёж возвращён, заказ отменён")

	metrics.RecordSagaStep("order", "compensation", "compensated")
	return nil
}

// HandleApprovalResponse обрабатывает решение ресторана.
func (e *engine) HandleApprovalResponse(ctx context.Context, resp *messaging.RestaurantApprovalResponse) error {
	if resp.IsApproved() {
		return e.approveOrder(ctx, resp)
	}
	return e.beginCompensation(ctx, resp)
}

// approveOrder: PAID -> APPROVED, сага завершена успешно.
func (e *engine) approveOrder(ctx context.Context, resp *messaging.RestaurantApprovalResponse) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", resp.OrderID, err)
	}

	approval, err := e.approvalOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaProcessing)
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Повторный approval-response, шаг уже обработан")
			return nil
		}
		return err
	}

	if err := order.Approve(); err != nil {
		log.Warn().
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("Устаревший approval-response: заказ уже сменил статус")
		return nil
	}

	approval.SagaStatus = outbox.SagaSucceeded
	approval.OrderStatus = string(order.Status)

	if err := e.repo.CompleteApprovalStep(ctx, order, approval); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Подтверждение уже применено другим обработчиком")
			return nil
		}
		return fmt.Errorf("ошибка фиксации подтверждения: %w", err)
	}

	log.Info().
		Str("order_id", order.ID).
		Msg("Ресторан принял заказ, сага завершена успешно")

	metrics.RecordSagaStep("order", "approval", "success")
	return nil
}

// beginCompensation: PAID -> CANCELLING, запрос возврата платежа в outbox.
func (e *engine) beginCompensation(ctx context.Context, resp *messaging.RestaurantApprovalResponse) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, resp.OrderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", resp.OrderID, err)
	}

	approval, err := e.approvalOutbox.GetBySagaAndStatus(ctx, resp.SagaID, outbox.SagaProcessing)
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Повторный approval-response, шаг уже обработан")
			return nil
		}
		return err
	}

	if err := order.InitCancel(resp.FailureMessages); err != nil {
		log.Warn().
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("Устаревший approval-response: заказ уже сменил статус")
		return nil
	}

	// Возврат платежа: та же таблица payment_outbox, saga_status COMPENSATING —
	// unique constraint не даст поставить возврат дважды.
	cancelPayment, err := newPaymentRequestMessage(order, messaging.PaymentOrderCancelled, outbox.SagaCompensating)
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса возврата: %w", err)
	}

	approval.SagaStatus = outbox.SagaCompensating
	approval.OrderStatus = string(order.Status)

	if err := e.repo.BeginCompensation(ctx, order, approval, cancelPayment); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", resp.SagaID).Msg("Компенсация уже запущена другим обработчиком")
			return nil
		}
		return fmt.Errorf("ошибка запуска компенсации: %w", err)
	}

	log.Warn().
		Str("order_id", order.ID).
		Strs("failure_messages", resp.FailureMessages).
		Msg("Ресторан отклонил заказ, запущена компенсация: возврат платежа")

	metrics.RecordSagaStep("order", "approval", "failed")
	return nil
}

// TimeoutPayment компенсирует заказ, зависший в PENDING дольше таймаута.
// Гонка с настоящим payment-response разрешается через optimistic locking:
// проигравшая сторона получает ErrConcurrentUpdate и отступает.
func (e *engine) TimeoutPayment(ctx context.Context, orderID, reason string) error {
	log := logger.FromContext(ctx)

	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("ошибка чтения заказа %s: %w", orderID, err)
	}

	if order.Status != domain.OrderStatusPending {
		return nil
	}

	payment, err := e.paymentOutbox.GetBySagaAndStatus(ctx, order.ID, outbox.SagaStarted)
	if err != nil {
		if errors.Is(err, outbox.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := order.Cancel([]string{reason}); err != nil {
		return nil
	}

	payment.SagaStatus = outbox.SagaFailed
	payment.OrderStatus = string(order.Status)

	if err := e.repo.FailPaymentStep(ctx, order, payment); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("order_id", orderID).Msg("Заказ обновлён одновременно с таймаутом, пропускаем")
			return nil
		}
		return fmt.Errorf("ошибка отмены заказа по таймауту: %w", err)
	}

	log.Warn().
		Str("order_id", orderID).
		Str("reason", reason).
		Msg("Заказ отменён по таймауту ожидания оплаты")

	metrics.RecordSagaStep("order", "payment", "timeout")
	return nil
}

// isConcurrencyErr распознаёт ошибки, означающие, что шаг уже применён
// другим обработчиком: конкурентное обновление или дубликат записи outbox.
func isConcurrencyErr(err error) bool {
	return errors.Is(err, repository.ErrConcurrentUpdate) ||
		errors.Is(err, outbox.ErrConcurrentUpdate) ||
		errors.Is(err, outbox.ErrDuplicate)
}
