package saga

import (
	"context"
	"fmt"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
)

// NewPaymentRequestHandler возвращает обработчик сообщений топика
// payment-request. Ошибки парсинга и обработки возвращаются наверх —
// Consumer отправит сообщение в DLQ.
func NewPaymentRequestHandler(engine Engine, dedupe *Dedupe) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log := logger.FromContext(ctx)

		req, err := messaging.PaymentRequestFromJSON(msg.Value)
		if err != nil {
			return fmt.Errorf("ошибка парсинга payment-request: %w", err)
		}

		log.Debug().
			Str("saga_id", req.SagaID).
			Str("payment_order_status", string(req.PaymentOrderStatus)).
			Msg("Получен payment-request")

		// Быстрый отсев повторных доставок; жёсткая гарантия — в БД
		if dedupe != nil && !dedupe.Acquire(ctx, req) {
			log.Info().
				Str("saga_id", req.SagaID).
				Msg("Повторный payment-request, пропускаем")
			return nil
		}

		if err := engine.HandlePaymentRequest(ctx, req); err != nil {
			// Снимаем пометку — redelivery должна пройти заново
			if dedupe != nil {
				dedupe.Release(ctx, req)
			}
			return err
		}

		return nil
	}
}
