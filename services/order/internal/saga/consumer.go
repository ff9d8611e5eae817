package saga

import (
	"context"
	"fmt"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/repository"
)

// NewPaymentResponseHandler возвращает обработчик сообщений топика payment-response.
// Ошибки парсинга и обработки возвращаются наверх — Consumer отправит сообщение в DLQ.
func NewPaymentResponseHandler(engine Engine) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log := logger.FromContext(ctx)

		resp, err := messaging.PaymentResponseFromJSON(msg.Value)
		if err != nil {
			return fmt.Errorf("ошибка парсинга payment-response: %w", err)
		}

		log.Debug().
			Str("saga_id", resp.SagaID).
			Str("payment_status", string(resp.PaymentStatus)).
			Msg("Получен payment-response")

		return engine.HandlePaymentResponse(ctx, resp)
	}
}

// NewApprovalResponseHandler возвращает обработчик сообщений топика
// restaurant-approval-response.
func NewApprovalResponseHandler(engine Engine) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log := logger.FromContext(ctx)

		resp, err := messaging.RestaurantApprovalResponseFromJSON(msg.Value)
		if err != nil {
			return fmt.Errorf("ошибка парсинга approval-response: %w", err)
		}

		log.Debug().
			Str("saga_id", resp.SagaID).
			Str("approval_status", string(resp.OrderApprovalStatus)).
			Msg("Получен restaurant-approval-response")

		return engine.HandleApprovalResponse(ctx, resp)
	}
}

// NewCustomerEventHandler возвращает обработчик событий топика customer.
// Ведёт локальную реплику клиентов для проверки при создании заказа.
func NewCustomerEventHandler(customers repository.CustomerRepository) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		log := logger.FromContext(ctx)

		event, err := messaging.CustomerCreatedFromJSON(msg.Value)
		if err != nil {
			return fmt.Errorf("ошибка парсинга события customer: %w", err)
		}

		customer := &domain.Customer{
			ID:        event.ID,
			Username:  event.Username,
			FirstName: event.FirstName,
			LastName:  event.LastName,
		}

		if err := customers.Upsert(ctx, customer); err != nil {
			return fmt.Errorf("ошибка сохранения клиента в реплику: %w", err)
		}

		log.Info().
			Str("customer_id", event.ID).
			Str("username", event.Username).
			Msg("Клиент добавлен в локальную реплику")

		return nil
	}
}
