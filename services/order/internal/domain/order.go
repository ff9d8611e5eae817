// Package domain содержит бизнес-сущности и доменные ошибки Order Service.
// Заказ — агрегат с конечным автоматом статусов; все переходы
// выполняются только через методы агрегата.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/money"
)

// OrderStatus — статус заказа в системе.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, ожидает результата оплаты.
	OrderStatusPending OrderStatus = "PENDING"

	// OrderStatusPaid — оплата прошла, ожидает подтверждения ресторана.
	OrderStatusPaid OrderStatus = "PAID"

	// OrderStatusApproved — ресторан принял заказ, сага завершена успешно.
	OrderStatusApproved OrderStatus = "APPROVED"

	// OrderStatusCancelling — ресторан отклонил заказ, идёт возврат платежа.
	OrderStatusCancelling OrderStatus = "CANCELLING"

	// OrderStatusCancelled — заказ отменён (отказ оплаты или завершённая компенсация).
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// allowedTransitions — конечный автомат статусов заказа.
// APPROVED и CANCELLED — терминальные состояния.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusApproved, OrderStatusCancelling},
	OrderStatusCancelling: {OrderStatusCancelled},
	OrderStatusApproved:   {},
	OrderStatusCancelled:  {},
}

// CanTransition проверяет допустимость перехода между статусами.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal возвращает true для терминальных статусов.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Order — заказ в системе.
// Доменная сущность без зависимостей от инфраструктуры (GORM, HTTP).
type Order struct {
	ID              string      // Уникальный идентификатор заказа (UUID, = sagaId)
	CustomerID      string      // ID клиента
	RestaurantID    string      // ID ресторана
	TrackingID      string      // Публичный идентификатор для отслеживания заказа
	DeliveryAddress Address     // Адрес доставки
	Items           []OrderItem // Позиции заказа
	Price           money.Money // Общая сумма заказа
	Status          OrderStatus // Текущий статус заказа
	FailureMessages []string    // Накопленные причины отказов
	Version         int         // Версия для optimistic locking
	CreatedAt       time.Time   // Дата создания заказа
	UpdatedAt       time.Time   // Дата последнего обновления
}

// Address — адрес доставки заказа.
type Address struct {
	Street     string // Улица и дом
	PostalCode string // Почтовый индекс
	City       string // Город
}

// OrderItem — позиция заказа.
type OrderItem struct {
	ID        string      // Уникальный идентификатор позиции (UUID)
	OrderID   string      // ID заказа, к которому относится позиция
	ProductID string      // ID продукта
	Quantity  int32       // Количество единиц
	Price     money.Money // Цена за единицу
	SubTotal  money.Money // Стоимость позиции (цена * количество)
}

// Validate проверяет корректность полей позиции заказа.
// Стоимость позиции обязана сходиться с ценой и количеством.
func (oi *OrderItem) Validate() error {
	if oi.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !oi.Price.IsGreaterThanZero() {
		return ErrInvalidPrice
	}
	if !oi.Price.Multiply(oi.Quantity).Equals(oi.SubTotal) {
		return ErrItemPriceMismatch
	}
	return nil
}

// ValidateAndInitialize проверяет инварианты заказа и инициализирует его:
// присваивает ID, TrackingID, идентификаторы позициям и статус PENDING.
// Вызывается ровно один раз при создании заказа.
func (o *Order) ValidateAndInitialize() error {
	if o.ID != "" || o.Status != "" {
		return ErrOrderAlreadyInitialized
	}

	if err := o.validate(); err != nil {
		return err
	}

	o.ID = uuid.NewString()
	o.TrackingID = uuid.NewString()
	o.Status = OrderStatusPending
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
		o.Items[i].OrderID = o.ID
	}

	return nil
}

// validate проверяет поля и ценовые инварианты заказа.
func (o *Order) validate() error {
	if strings.TrimSpace(o.CustomerID) == "" {
		return ErrInvalidCustomerID
	}
	if strings.TrimSpace(o.RestaurantID) == "" {
		return ErrInvalidRestaurantID
	}
	if len(o.Items) == 0 {
		return ErrEmptyOrderItems
	}
	if !o.Price.IsGreaterThanZero() {
		return ErrInvalidPrice
	}

	itemsTotal := money.Zero
	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return err
		}
		itemsTotal = itemsTotal.Add(o.Items[i].SubTotal)
	}

	// Заявленная сумма заказа обязана сходиться с суммой позиций
	if !o.Price.Equals(itemsTotal) {
		return ErrPriceMismatch
	}

	return nil
}

// Pay переводит заказ PENDING -> PAID после успешной оплаты.
func (o *Order) Pay() error {
	return o.transition(OrderStatusPaid)
}

// Approve переводит заказ PAID -> APPROVED после подтверждения ресторана.
func (o *Order) Approve() error {
	return o.transition(OrderStatusApproved)
}

// InitCancel переводит заказ PAID -> CANCELLING при отказе ресторана.
// Запускает компенсацию: возврат платежа.
func (o *Order) InitCancel(failureMessages []string) error {
	if err := o.transition(OrderStatusCancelling); err != nil {
		return err
	}
	o.addFailureMessages(failureMessages)
	return nil
}

// Cancel переводит заказ в CANCELLED: из PENDING при отказе оплаты,
// из CANCELLING при завершённой компенсации.
func (o *Order) Cancel(failureMessages []string) error {
	if err := o.transition(OrderStatusCancelled); err != nil {
		return err
	}
	o.addFailureMessages(failureMessages)
	return nil
}

// transition выполняет переход статуса с проверкой конечного автомата.
func (o *Order) transition(to OrderStatus) error {
	if !o.Status.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

// addFailureMessages добавляет непустые причины отказа к накопленным.
// Повторные доставки приносят те же причины, поэтому дубликаты отбрасываются.
func (o *Order) addFailureMessages(messages []string) {
	for _, msg := range messages {
		if strings.TrimSpace(msg) == "" || o.hasFailureMessage(msg) {
			continue
		}
		o.FailureMessages = append(o.FailureMessages, msg)
	}
}

func (o *Order) hasFailureMessage(msg string) bool {
	for _, existing := range o.FailureMessages {
		if existing == msg {
			return true
		}
	}
	return false
}
