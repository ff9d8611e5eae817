package saga

import (
	"context"
	"fmt"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
)

// NewApprovalRequestHandler возвращает обработчик сообщений топика
// restaurant-approval-request. Ошибки парсинга и обработки возвращаются
// наверх — Consumer отправит сообщение в DLQ.
func NewApprovalRequestHandler(engine Engine) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log := logger.FromContext(ctx)

		req, err := messaging.RestaurantApprovalRequestFromJSON(msg.Value)
		if err != nil {
			return fmt.Errorf("ошибка парсинга restaurant-approval-request: %w", err)
		}

		log.Debug().
			Str("saga_id", req.SagaID).
			Str("restaurant_id", req.RestaurantID).
			Msg("Получен restaurant-approval-request")

		return engine.HandleApprovalRequest(ctx, req)
	}
}
