// Package saga реализует шаг подтверждения заказа на стороне
// Restaurant Service: обработку restaurant-approval-request и постановку
// решения в outbox атомарно с его сохранением.
//
// Идемпотентность держится на unique saga_id в order_approvals:
// по саге фиксируется ровно одно решение, повторная доставка запроса
// откатывается на вставке решения независимо от того, как повторная
// оценка соотносится с первой. Unique (saga_id, saga_status) в outbox
// остаётся второй линией защиты.
package saga

import (
	"github.com/google/uuid"

	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/restaurant/internal/domain"
)

// TableResponseOutbox — исходящие решения Restaurant Service.
const TableResponseOutbox = "approval_response_outbox"

// EventApprovalResponse — тип события outbox.
const EventApprovalResponse = "restaurant-approval-response"

// sagaStatusFor отображает решение ресторана в статус шага саги.
func sagaStatusFor(status domain.ApprovalStatus) outbox.SagaStatus {
	if status == domain.ApprovalApproved {
		return outbox.SagaSucceeded
	}
	return outbox.SagaFailed
}

// newApprovalResponseMessage строит запись outbox с решением ресторана.
func newApprovalResponseMessage(approval *domain.OrderApproval) (*outbox.Message, error) {
	response := &messaging.RestaurantApprovalResponse{
		SagaID:              approval.SagaID,
		RestaurantID:        approval.RestaurantID,
		OrderID:             approval.OrderID,
		CreatedAt:           approval.CreatedAt,
		OrderApprovalStatus: messaging.OrderApprovalStatus(approval.Status),
		FailureMessages:     approval.FailureMessages,
	}

	payload, err := response.ToJSON()
	if err != nil {
		return nil, err
	}

	return &outbox.Message{
		ID:          uuid.NewString(),
		SagaID:      approval.SagaID,
		Type:        EventApprovalResponse,
		Topic:       kafka.TopicRestaurantApprovalResponse,
		Payload:     payload,
		OrderStatus: string(approval.Status),
		SagaStatus:  sagaStatusFor(approval.Status),
		Status:      outbox.StatusStarted,
	}, nil
}
