package saga

import (
	"context"
	"errors"
	"fmt"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/metrics"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/payment/internal/domain"
	"example.com/food-ordering/services/payment/internal/repository"
	"example.com/food-ordering/services/payment/internal/service"
)

// Engine — обработка payment-request на стороне Payment Service.
// Идемпотентна: повторные запросы упираются в unique constraint outbox
// или optimistic locking счёта и молча игнорируются.
type Engine interface {
	// HandlePaymentRequest обрабатывает запрос саги:
	// PENDING — списание средств, CANCELLED — возврат (компенсация).
	HandlePaymentRequest(ctx context.Context, req *messaging.PaymentRequest) error
}

// engine — реализация Engine.
type engine struct {
	svc  service.PaymentService
	repo Repository
}

// NewEngine создаёт движок обработки платёжных запросов.
func NewEngine(svc service.PaymentService, repo Repository) Engine {
	return &engine{
		svc:  svc,
		repo: repo,
	}
}

// HandlePaymentRequest обрабатывает запрос на оплату или возврат.
func (e *engine) HandlePaymentRequest(ctx context.Context, req *messaging.PaymentRequest) error {
	switch req.PaymentOrderStatus {
	case messaging.PaymentOrderPending:
		return e.completePayment(ctx, req)
	case messaging.PaymentOrderCancelled:
		return e.refundPayment(ctx, req)
	default:
		return fmt.Errorf("неизвестный статус платёжного запроса: %s", req.PaymentOrderStatus)
	}
}

// completePayment: списание средств и ответ COMPLETED либо FAILED.
func (e *engine) completePayment(ctx context.Context, req *messaging.PaymentRequest) error {
	log := logger.FromContext(ctx)

	result, err := e.svc.ProcessPayment(ctx, req)
	if err != nil {
		return fmt.Errorf("ошибка обработки платежа %s: %w", req.OrderID, err)
	}

	response, err := newPaymentResponseMessage(result.Payment)
	if err != nil {
		return fmt.Errorf("ошибка сборки payment-response: %w", err)
	}

	if result.Payment.Status == domain.PaymentFailed {
		if err := e.repo.FailPayment(ctx, result.Payment, response); err != nil {
			if isConcurrencyErr(err) {
				log.Info().Str("saga_id", req.SagaID).Msg("Повторный payment-request, отказ уже зафиксирован")
				return nil
			}
			return fmt.Errorf("ошибка фиксации отказа оплаты: %w", err)
		}

		metrics.RecordSagaStep("payment", "debit", "failed")
		return nil
	}

	if err := e.repo.CompletePayment(ctx, result.Payment, result.Entry, result.History, response); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", req.SagaID).Msg("Повторный payment-request, списание уже зафиксировано")
			return nil
		}
		return fmt.Errorf("ошибка фиксации списания: %w", err)
	}

	log.Info().
		Str("saga_id", req.SagaID).
		Str("payment_id", result.Payment.ID).
		Msg("Оплата обработана, ответ поставлен в outbox")

	metrics.RecordSagaStep("payment", "debit", "success")
	return nil
}

// refundPayment: возврат средств и ответ CANCELLED (компенсация).
func (e *engine) refundPayment(ctx context.Context, req *messaging.PaymentRequest) error {
	log := logger.FromContext(ctx)

	result, err := e.svc.RefundPayment(ctx, req)
	if err != nil {
		return fmt.Errorf("ошибка возврата платежа %s: %w", req.OrderID, err)
	}

	response, err := newPaymentResponseMessage(result.Payment)
	if err != nil {
		return fmt.Errorf("ошибка сборки payment-response: %w", err)
	}

	// Возврат без счёта отклоняется: фиксируем отказ, баланс не трогаем
	if result.Payment.Status == domain.PaymentFailed {
		if err := e.repo.FailPayment(ctx, result.Payment, response); err != nil {
			if isConcurrencyErr(err) {
				log.Info().Str("saga_id", req.SagaID).Msg("Повторный запрос возврата, отказ уже зафиксирован")
				return nil
			}
			return fmt.Errorf("ошибка фиксации отказа возврата: %w", err)
		}

		metrics.RecordSagaStep("payment", "refund", "failed")
		return nil
	}

	if err := e.repo.RefundPayment(ctx, result.Payment, result.Entry, result.History, response); err != nil {
		if isConcurrencyErr(err) {
			log.Info().Str("saga_id", req.SagaID).Msg("Повторный запрос возврата, компенсация уже зафиксирована")
			return nil
		}
		return fmt.Errorf("ошибка фиксации возврата: %w", err)
	}

	log.Info().
		Str("saga_id", req.SagaID).
		Str("payment_id", result.Payment.ID).
		Msg("Платёж возвращён, ответ поставлен в outbox")

	metrics.RecordSagaStep("payment", "refund", "success")
	return nil
}

// isConcurrencyErr распознаёт повторную обработку того же запроса:
// дубликат записи outbox или конкурентное обновление счёта.
func isConcurrencyErr(err error) bool {
	return errors.Is(err, outbox.ErrDuplicate) ||
		errors.Is(err, outbox.ErrConcurrentUpdate) ||
		errors.Is(err, repository.ErrConcurrentUpdate)
}
