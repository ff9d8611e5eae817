// Package messaging содержит общие типы сообщений хореографической саги заказа.
// Используется всеми четырьмя сервисами (Order, Payment, Restaurant, Customer).
// Единый источник правды для wire-форматов — исключает рассинхронизацию типов между сервисами.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Запрос на оплату (Order Service → Payment Service)
// =============================================================================

// PaymentOrderStatus — намерение запроса на оплату.
type PaymentOrderStatus string

const (
	// PaymentOrderPending — списать средства за заказ.
	PaymentOrderPending PaymentOrderStatus = "PENDING"

	// PaymentOrderCancelled — вернуть средства (компенсация саги).
	PaymentOrderCancelled PaymentOrderStatus = "CANCELLED"
)

// PaymentRequest — запрос на оплату, отправляемый через топик payment-request.
// Ключ сообщения — SagaID.
type PaymentRequest struct {
	SagaID             string             `json:"saga_id"`              // ID саги (совпадает с order_id)
	CustomerID         string             `json:"customer_id"`          // ID клиента
	OrderID            string             `json:"order_id"`             // ID заказа
	Price              decimal.Decimal    `json:"price"`                // Сумма заказа
	CreatedAt          time.Time          `json:"created_at"`           // Время создания запроса
	PaymentOrderStatus PaymentOrderStatus `json:"payment_order_status"` // PENDING или CANCELLED
}

// ToJSON сериализует запрос в JSON.
func (r *PaymentRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// PaymentRequestFromJSON десериализует запрос из JSON.
func PaymentRequestFromJSON(data []byte) (*PaymentRequest, error) {
	var req PaymentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// =============================================================================
// Результат оплаты (Payment Service → Order Service)
// =============================================================================

// PaymentStatus — исход обработки запроса на оплату.
type PaymentStatus string

const (
	// PaymentCompleted — средства успешно списаны.
	PaymentCompleted PaymentStatus = "COMPLETED"

	// PaymentCancelled — средства возвращены (подтверждение компенсации).
	PaymentCancelled PaymentStatus = "CANCELLED"

	// PaymentFailed — списание не удалось (например, недостаточно средств).
	PaymentFailed PaymentStatus = "FAILED"
)

// PaymentResponse — результат оплаты из топика payment-response.
type PaymentResponse struct {
	SagaID          string          `json:"saga_id"`                    // ID саги для корреляции
	OrderID         string          `json:"order_id"`                   // ID заказа
	PaymentID       string          `json:"payment_id,omitempty"`       // ID платежа
	CustomerID      string          `json:"customer_id"`                // ID клиента
	Price           decimal.Decimal `json:"price"`                      // Сумма платежа
	CreatedAt       time.Time       `json:"created_at"`                 // Время ответа
	PaymentStatus   PaymentStatus   `json:"payment_status"`             // Результат операции
	FailureMessages []string        `json:"failure_messages,omitempty"` // Причины отказа
}

// ToJSON сериализует ответ в JSON.
func (r *PaymentResponse) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// PaymentResponseFromJSON десериализует ответ из JSON.
func PaymentResponseFromJSON(data []byte) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsCompleted возвращает true при успешном списании.
func (r *PaymentResponse) IsCompleted() bool {
	return r.PaymentStatus == PaymentCompleted
}

// =============================================================================
// Запрос подтверждения ресторана (Order Service → Restaurant Service)
// =============================================================================

// RestaurantOrderStatus — статус заказа на момент запроса подтверждения.
// Ресторан подтверждает только оплаченные заказы.
type RestaurantOrderStatus string

const (
	// RestaurantOrderPaid — заказ оплачен, можно подтверждать.
	RestaurantOrderPaid RestaurantOrderStatus = "PAID"
)

// Product — позиция заказа в запросе подтверждения.
type Product struct {
	ID       string `json:"id"`       // ID продукта
	Quantity int32  `json:"quantity"` // Количество
}

// RestaurantApprovalRequest — запрос из топика restaurant-approval-request.
type RestaurantApprovalRequest struct {
	SagaID                string                `json:"saga_id"`                 // ID саги
	RestaurantID          string                `json:"restaurant_id"`           // ID ресторана
	OrderID               string                `json:"order_id"`                // ID заказа
	RestaurantOrderStatus RestaurantOrderStatus `json:"restaurant_order_status"` // Всегда PAID
	Products              []Product             `json:"products"`                // Позиции заказа
	Price                 decimal.Decimal       `json:"price"`                   // Сумма заказа
	CreatedAt             time.Time             `json:"created_at"`              // Время создания запроса
}

// ToJSON сериализует запрос в JSON.
func (r *RestaurantApprovalRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// RestaurantApprovalRequestFromJSON десериализует запрос из JSON.
func RestaurantApprovalRequestFromJSON(data []byte) (*RestaurantApprovalRequest, error) {
	var req RestaurantApprovalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// =============================================================================
// Решение ресторана (Restaurant Service → Order Service)
// =============================================================================

// OrderApprovalStatus — решение ресторана по заказу.
type OrderApprovalStatus string

const (
	// OrderApproved — ресторан принял заказ в работу.
	OrderApproved OrderApprovalStatus = "APPROVED"

	// OrderRejected — ресторан отклонил заказ.
	OrderRejected OrderApprovalStatus = "REJECTED"
)

// RestaurantApprovalResponse — решение из топика restaurant-approval-response.
type RestaurantApprovalResponse struct {
	SagaID              string              `json:"saga_id"`                    // ID саги для корреляции
	RestaurantID        string              `json:"restaurant_id"`              // ID ресторана
	OrderID             string              `json:"order_id"`                   // ID заказа
	CreatedAt           time.Time           `json:"created_at"`                 // Время решения
	OrderApprovalStatus OrderApprovalStatus `json:"order_approval_status"`      // APPROVED или REJECTED
	FailureMessages     []string            `json:"failure_messages,omitempty"` // Причины отклонения
}

// ToJSON сериализует ответ в JSON.
func (r *RestaurantApprovalResponse) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// RestaurantApprovalResponseFromJSON десериализует ответ из JSON.
func RestaurantApprovalResponseFromJSON(data []byte) (*RestaurantApprovalResponse, error) {
	var resp RestaurantApprovalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsApproved возвращает true, если ресторан принял заказ.
func (r *RestaurantApprovalResponse) IsApproved() bool {
	return r.OrderApprovalStatus == OrderApproved
}

// =============================================================================
// Событие создания клиента (Customer Service → Order Service)
// =============================================================================

// CustomerCreated — событие из топика customer.
// Order Service ведёт по нему локальную реплику клиентов.
type CustomerCreated struct {
	ID        string    `json:"id"`         // ID клиента
	Username  string    `json:"username"`   // Логин
	FirstName string    `json:"first_name"` // Имя
	LastName  string    `json:"last_name"`  // Фамилия
	CreatedAt time.Time `json:"created_at"` // Время создания
}

// ToJSON сериализует событие в JSON.
func (e *CustomerCreated) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CustomerCreatedFromJSON десериализует событие из JSON.
func CustomerCreatedFromJSON(data []byte) (*CustomerCreated, error) {
	var event CustomerCreated
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
