// Package domain содержит бизнес-сущности Restaurant Service:
// рестораны с меню и решения по заказам.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/money"
)

// ApprovalStatus — решение ресторана по заказу.
type ApprovalStatus string

const (
	// ApprovalApproved — заказ принят в работу.
	ApprovalApproved ApprovalStatus = "APPROVED"

	// ApprovalRejected — заказ отклонён.
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Restaurant — ресторан с меню.
type Restaurant struct {
	ID       string    // ID ресторана
	Name     string    // Название
	Active   bool      // Принимает ли ресторан заказы
	Products []Product // Меню
}

// Product — продукт из меню ресторана.
type Product struct {
	ID        string      // ID продукта
	Name      string      // Название
	Price     money.Money // Актуальная цена
	Available bool        // Доступен ли для заказа
}

// OrderProduct — позиция заказа в запросе на подтверждение.
type OrderProduct struct {
	ID       string // ID продукта
	Quantity int32  // Количество
}

// OrderApproval — решение ресторана по заказу. Каждая обработка
// restaurant-approval-request порождает одну запись.
type OrderApproval struct {
	ID              string         // Уникальный идентификатор решения (UUID)
	SagaID          string         // ID саги (= ID заказа)
	OrderID         string         // ID заказа
	RestaurantID    string         // ID ресторана
	Status          ApprovalStatus // APPROVED или REJECTED
	FailureMessages []string       // Причины отклонения
	CreatedAt       time.Time      // Время решения
}

// ProductByID находит продукт в меню по ID.
func (r *Restaurant) ProductByID(id string) (*Product, bool) {
	for i := range r.Products {
		if r.Products[i].ID == id {
			return &r.Products[i], true
		}
	}
	return nil, false
}

// EvaluateOrder принимает решение по оплаченному заказу: ресторан активен,
// все продукты доступны, сумма заказа сходится с ценами меню.
// Причины отклонения уходят клиенту, поэтому текст на английском.
func (r *Restaurant) EvaluateOrder(sagaID, orderID string, products []OrderProduct, price money.Money) *OrderApproval {
	approval := &OrderApproval{
		ID:           uuid.NewString(),
		SagaID:       sagaID,
		OrderID:      orderID,
		RestaurantID: r.ID,
		Status:       ApprovalApproved,
		CreatedAt:    time.Now(),
	}

	if !r.Active {
		approval.reject(fmt.Sprintf("Restaurant with id %s is not active", r.ID))
		return approval
	}

	total := money.Zero
	for _, p := range products {
		product, ok := r.ProductByID(p.ID)
		if !ok || !product.Available {
			approval.reject(fmt.Sprintf("Product with id %s is not available", p.ID))
			continue
		}
		total = total.Add(product.Price.Multiply(p.Quantity))
	}

	// Сумму сверяем только если все продукты нашлись в меню
	if approval.Status == ApprovalApproved && !price.Equals(total) {
		approval.reject(fmt.Sprintf("Price %s is not correct for order %s", price.String(), orderID))
	}

	return approval
}

// NewRejectedApproval строит отклонение без загрузки ресторана,
// например когда ресторан из запроса не найден в БД.
func NewRejectedApproval(sagaID, orderID, restaurantID string, messages ...string) *OrderApproval {
	return &OrderApproval{
		ID:              uuid.NewString(),
		SagaID:          sagaID,
		OrderID:         orderID,
		RestaurantID:    restaurantID,
		Status:          ApprovalRejected,
		FailureMessages: messages,
		CreatedAt:       time.Now(),
	}
}

// reject помечает решение отклонённым и накапливает причину.
func (a *OrderApproval) reject(message string) {
	a.Status = ApprovalRejected
	a.FailureMessages = append(a.FailureMessages, message)
}

// IsApproved возвращает true, если заказ принят.
func (a *OrderApproval) IsApproved() bool {
	return a.Status == ApprovalApproved
}
