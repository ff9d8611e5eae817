package saga

import (
	"context"
	"errors"
	"fmt"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/metrics"
	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/restaurant/internal/domain"
	"example.com/food-ordering/services/restaurant/internal/repository"
)

// Engine — обработка restaurant-approval-request. Идемпотентна:
// повторные запросы упираются в unique index saga_id таблицы
// order_approvals и молча игнорируются.
type Engine interface {
	// HandleApprovalRequest принимает решение по оплаченному заказу
	// и атомарно фиксирует его вместе с ответом в outbox.
	HandleApprovalRequest(ctx context.Context, req *messaging.RestaurantApprovalRequest) error
}

// engine — реализация Engine.
type engine struct {
	restaurants repository.RestaurantRepository
	repo        Repository
}

// NewEngine создаёт движок подтверждения заказов.
func NewEngine(restaurants repository.RestaurantRepository, repo Repository) Engine {
	return &engine{
		restaurants: restaurants,
		repo:        repo,
	}
}

// HandleApprovalRequest обрабатывает запрос на подтверждение заказа.
func (e *engine) HandleApprovalRequest(ctx context.Context, req *messaging.RestaurantApprovalRequest) error {
	log := logger.FromContext(ctx)

	approval, err := e.evaluate(ctx, req)
	if err != nil {
		return err
	}

	response, err := newApprovalResponseMessage(approval)
	if err != nil {
		return fmt.Errorf("ошибка сборки restaurant-approval-response: %w", err)
	}

	if err := e.repo.SaveApproval(ctx, approval, response); err != nil {
		if errors.Is(err, domain.ErrDuplicateApproval) || errors.Is(err, outbox.ErrDuplicate) {
			log.Info().Str("saga_id", req.SagaID).Msg("Повторный approval-request, решение уже зафиксировано")
			return nil
		}
		return fmt.Errorf("ошибка фиксации решения по заказу %s: %w", req.OrderID, err)
	}

	log.Info().
		Str("saga_id", req.SagaID).
		Str("order_id", req.OrderID).
		Str("status", string(approval.Status)).
		Msg("Решение по заказу поставлено в outbox")

	if approval.IsApproved() {
		metrics.RecordSagaStep("restaurant", "approval", "success")
	} else {
		metrics.RecordSagaStep("restaurant", "approval", "rejected")
	}

	return nil
}

// evaluate принимает бизнес-решение по запросу. Неизвестный ресторан —
// это отклонение, а не ошибка обработки: заказ уже в статусе PAID, и без
// ответа сага зависнет вместо компенсации.
func (e *engine) evaluate(ctx context.Context, req *messaging.RestaurantApprovalRequest) (*domain.OrderApproval, error) {
	restaurant, err := e.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrRestaurantNotFound) {
			return domain.NewRejectedApproval(req.SagaID, req.OrderID, req.RestaurantID,
				fmt.Sprintf("Restaurant with id %s could not be found", req.RestaurantID)), nil
		}
		return nil, fmt.Errorf("ошибка загрузки ресторана %s: %w", req.RestaurantID, err)
	}

	products := make([]domain.OrderProduct, len(req.Products))
	for i, p := range req.Products {
		products[i] = domain.OrderProduct{ID: p.ID, Quantity: p.Quantity}
	}

	return restaurant.EvaluateOrder(req.SagaID, req.OrderID, products, money.New(req.Price)), nil
}
