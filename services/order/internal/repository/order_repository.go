// Package repository содержит реализацию доступа к данным для Order Service.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/order/internal/domain"
)

// ErrConcurrentUpdate — версия заказа изменилась между чтением и записью.
// Другой обработчик уже применил этот шаг саги.
var ErrConcurrentUpdate = errors.New("конкурентное обновление заказа")

// OrderRepository определяет интерфейс для работы с заказами в БД.
// Методы с суффиксом Tx выполняются в транзакции вызывающего кода:
// заказ и запись outbox меняются атомарно.
type OrderRepository interface {
	// CreateTx создаёт заказ с позициями внутри транзакции.
	CreateTx(tx *gorm.DB, order *domain.Order) error

	// GetByID возвращает заказ по ID с загруженными позициями.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// GetByTrackingID возвращает заказ по публичному tracking ID.
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Order, error)

	// UpdateTx сохраняет статус, причины отказов и версию заказа
	// внутри транзакции с проверкой версии (optimistic locking).
	UpdateTx(tx *gorm.DB, order *domain.Order) error

	// ListStale возвращает заказы, зависшие в указанном статусе
	// дольше порога. Используется таймаут-воркером саги.
	ListStale(ctx context.Context, status domain.OrderStatus, olderThan time.Time, limit int) ([]*domain.Order, error)
}

// OrderModel — GORM модель для таблицы orders.
// Отделена от доменной сущности для гибкости.
type OrderModel struct {
	ID              string           `gorm:"column:id;type:varchar(36);primaryKey"`
	CustomerID      string           `gorm:"column:customer_id;type:varchar(36);not null;index"`
	RestaurantID    string           `gorm:"column:restaurant_id;type:varchar(36);not null;index"`
	TrackingID      string           `gorm:"column:tracking_id;type:varchar(36);not null;uniqueIndex"`
	Street          string           `gorm:"column:street;type:varchar(255)"`
	PostalCode      string           `gorm:"column:postal_code;type:varchar(20)"`
	City            string           `gorm:"column:city;type:varchar(100)"`
	Price           decimal.Decimal  `gorm:"column:price;type:decimal(10,2);not null"`
	Status          string           `gorm:"column:status;type:varchar(20);not null;index"`
	FailureMessages []byte           `gorm:"column:failure_messages;type:json"`
	Version         int              `gorm:"column:version;not null;default:0"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel — GORM модель для таблицы order_items.
type OrderItemModel struct {
	ID        string          `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID   string          `gorm:"column:order_id;type:varchar(36);not null;index"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null"`
	Quantity  int32           `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	SubTotal  decimal.Decimal `gorm:"column:sub_total;type:decimal(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// toDomain конвертирует GORM модель заказа в доменную сущность.
func (m *OrderModel) toDomain() *domain.Order {
	order := &domain.Order{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		RestaurantID: m.RestaurantID,
		TrackingID:   m.TrackingID,
		DeliveryAddress: domain.Address{
			Street:     m.Street,
			PostalCode: m.PostalCode,
			City:       m.City,
		},
		Price:     money.New(m.Price),
		Status:    domain.OrderStatus(m.Status),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Items:     make([]domain.OrderItem, len(m.Items)),
	}

	// Причины отказов хранятся JSON-массивом
	if len(m.FailureMessages) > 0 {
		_ = json.Unmarshal(m.FailureMessages, &order.FailureMessages)
	}

	for i, item := range m.Items {
		order.Items[i] = domain.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     money.New(item.Price),
			SubTotal:  money.New(item.SubTotal),
		}
	}

	return order
}

// orderModelFromDomain конвертирует доменную сущность заказа в GORM модель.
func orderModelFromDomain(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		TrackingID:   o.TrackingID,
		Street:       o.DeliveryAddress.Street,
		PostalCode:   o.DeliveryAddress.PostalCode,
		City:         o.DeliveryAddress.City,
		Price:        o.Price.Amount,
		Status:       string(o.Status),
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        make([]OrderItemModel, len(o.Items)),
	}

	if len(o.FailureMessages) > 0 {
		if data, err := json.Marshal(o.FailureMessages); err == nil {
			model.FailureMessages = data
		}
	}

	for i, item := range o.Items {
		model.Items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.Amount,
			SubTotal:  item.SubTotal.Amount,
		}
	}

	return model
}

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateTx создаёт заказ с позициями внутри транзакции вызывающего кода.
// GORM создаёт позиции автоматически через ассоциацию.
func (r *orderRepository) CreateTx(tx *gorm.DB, order *domain.Order) error {
	model := orderModelFromDomain(order)

	if err := tx.Create(model).Error; err != nil {
		return err
	}

	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает заказ по ID с загруженными позициями.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// GetByTrackingID возвращает заказ по публичному tracking ID.
func (r *orderRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tracking_id = ?", trackingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// UpdateTx сохраняет статус заказа с проверкой версии.
// При несовпадении версии возвращает ErrConcurrentUpdate —
// другой обработчик уже применил этот шаг саги.
func (r *orderRepository) UpdateTx(tx *gorm.DB, order *domain.Order) error {
	updates := map[string]any{
		"status":     string(order.Status),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}

	if len(order.FailureMessages) > 0 {
		data, err := json.Marshal(order.FailureMessages)
		if err != nil {
			return err
		}
		updates["failure_messages"] = data
	}

	result := tx.Model(&OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	order.Version++
	return nil
}

// ListStale возвращает заказы, зависшие в статусе дольше порога.
func (r *orderRepository) ListStale(ctx context.Context, status domain.OrderStatus, olderThan time.Time, limit int) ([]*domain.Order, error) {
	var models []OrderModel

	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(status), olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}
	return orders, nil
}
