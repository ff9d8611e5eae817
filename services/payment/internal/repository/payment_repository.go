// Package repository содержит реализацию доступа к данным для Payment Service.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/payment/internal/domain"
)

// PaymentRepository определяет интерфейс для работы с платежами в БД.
type PaymentRepository interface {
	// CreateTx создаёт платёж внутри транзакции вызывающего кода.
	CreateTx(tx *gorm.DB, payment *domain.Payment) error

	// GetByOrderID возвращает последний платёж по заказу.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
}

// PaymentModel — GORM модель для таблицы payments.
type PaymentModel struct {
	ID              string          `gorm:"column:id;type:varchar(36);primaryKey"`
	SagaID          string          `gorm:"column:saga_id;type:varchar(36);not null;index"`
	OrderID         string          `gorm:"column:order_id;type:varchar(36);not null;index"`
	CustomerID      string          `gorm:"column:customer_id;type:varchar(36);not null;index"`
	Price           decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Status          string          `gorm:"column:status;type:varchar(20);not null"`
	FailureMessages []byte          `gorm:"column:failure_messages;type:json"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (PaymentModel) TableName() string {
	return "payments"
}

// toDomain конвертирует GORM модель платежа в доменную сущность.
func (m *PaymentModel) toDomain() *domain.Payment {
	payment := &domain.Payment{
		ID:         m.ID,
		SagaID:     m.SagaID,
		OrderID:    m.OrderID,
		CustomerID: m.CustomerID,
		Price:      money.New(m.Price),
		Status:     domain.PaymentStatus(m.Status),
		CreatedAt:  m.CreatedAt,
	}

	if len(m.FailureMessages) > 0 {
		_ = json.Unmarshal(m.FailureMessages, &payment.FailureMessages)
	}

	return payment
}

// paymentModelFromDomain конвертирует доменную сущность в GORM модель.
func paymentModelFromDomain(p *domain.Payment) *PaymentModel {
	model := &PaymentModel{
		ID:         p.ID,
		SagaID:     p.SagaID,
		OrderID:    p.OrderID,
		CustomerID: p.CustomerID,
		Price:      p.Price.Amount,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
	}

	if len(p.FailureMessages) > 0 {
		if data, err := json.Marshal(p.FailureMessages); err == nil {
			model.FailureMessages = data
		}
	}

	return model
}

// paymentRepository — GORM реализация PaymentRepository.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository создаёт новый репозиторий платежей.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateTx создаёт платёж внутри транзакции вызывающего кода.
func (r *paymentRepository) CreateTx(tx *gorm.DB, payment *domain.Payment) error {
	model := paymentModelFromDomain(payment)

	if err := tx.Create(model).Error; err != nil {
		return err
	}

	payment.CreatedAt = model.CreatedAt
	return nil
}

// GetByOrderID возвращает последний платёж по заказу.
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var model PaymentModel

	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}
