package saga

import (
	"context"

	"gorm.io/gorm"

	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/order/internal/domain"
	"example.com/food-ordering/services/order/internal/repository"
)

// Repository — атомарные шаги саги: каждый метод меняет заказ и записи
// outbox в одной локальной транзакции. Это ядро Outbox Pattern —
// состояние заказа и исходящее сообщение никогда не расходятся.
type Repository interface {
	// CreateOrderWithPaymentOutbox создаёт заказ и запрос на оплату.
	CreateOrderWithPaymentOutbox(ctx context.Context, order *domain.Order, payment *outbox.Message) error

	// CompletePaymentStep фиксирует успешную оплату: заказ PAID,
	// запись payment_outbox переходит в PROCESSING, создаётся запрос
	// подтверждения ресторана.
	CompletePaymentStep(ctx context.Context, order *domain.Order, payment, approval *outbox.Message) error

	// FailPaymentStep фиксирует отказ оплаты: заказ CANCELLED,
	// запись payment_outbox переходит в FAILED.
	FailPaymentStep(ctx context.Context, order *domain.Order, payment *outbox.Message) error

	// CompleteApprovalStep фиксирует подтверждение ресторана: заказ APPROVED,
	// запись restaurant_approval_outbox переходит в SUCCEEDED.
	CompleteApprovalStep(ctx context.Context, order *domain.Order, approval *outbox.Message) error

	// BeginCompensation запускает компенсацию после отказа ресторана:
	// заказ CANCELLING, запись approval переходит в COMPENSATING,
	// создаётся запрос на возврат платежа.
	BeginCompensation(ctx context.Context, order *domain.Order, approval, cancelPayment *outbox.Message) error

	// CompleteCompensation завершает компенсацию: заказ CANCELLED,
	// запись payment_outbox переходит в COMPENSATED.
	CompleteCompensation(ctx context.Context, order *domain.Order, payment *outbox.Message) error
}

// sagaRepository — GORM реализация Repository.
// Композиция из репозиториев заказа и двух таблиц outbox;
// транзакционные границы задаются здесь.
type sagaRepository struct {
	db             *gorm.DB
	orders         repository.OrderRepository
	paymentOutbox  outbox.Repository
	approvalOutbox outbox.Repository
}

// NewRepository создаёт репозиторий шагов саги.
func NewRepository(db *gorm.DB, orders repository.OrderRepository, paymentOutbox, approvalOutbox outbox.Repository) Repository {
	return &sagaRepository{
		db:             db,
		orders:         orders,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
	}
}

func (r *sagaRepository) CreateOrderWithPaymentOutbox(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.CreateTx(tx, order); err != nil {
			return err
		}
		return r.paymentOutbox.SaveTx(tx, payment)
	})
}

func (r *sagaRepository) CompletePaymentStep(ctx context.Context, order *domain.Order, payment, approval *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		if err := r.paymentOutbox.UpdateStatusTx(tx, payment); err != nil {
			return err
		}
		return r.approvalOutbox.SaveTx(tx, approval)
	})
}

func (r *sagaRepository) FailPaymentStep(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		return r.paymentOutbox.UpdateStatusTx(tx, payment)
	})
}

func (r *sagaRepository) CompleteApprovalStep(ctx context.Context, order *domain.Order, approval *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		return r.approvalOutbox.UpdateStatusTx(tx, approval)
	})
}

func (r *sagaRepository) BeginCompensation(ctx context.Context, order *domain.Order, approval, cancelPayment *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		if err := r.approvalOutbox.UpdateStatusTx(tx, approval); err != nil {
			return err
		}
		return r.paymentOutbox.SaveTx(tx, cancelPayment)
	})
}

func (r *sagaRepository) CompleteCompensation(ctx context.Context, order *domain.Order, payment *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		return r.paymentOutbox.UpdateStatusTx(tx, payment)
	})
}
