package saga

import (
	"context"

	"gorm.io/gorm"

	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/payment/internal/domain"
	"example.com/food-ordering/services/payment/internal/repository"
)

// Repository — атомарные шаги саги на стороне платежей: платёж, баланс
// счёта, история операций и запись outbox меняются в одной транзакции.
type Repository interface {
	// CompletePayment фиксирует списание: платёж COMPLETED, новый баланс
	// счёта, операция DEBIT в истории и ответ в outbox.
	CompletePayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error

	// FailPayment фиксирует отказ: платёж FAILED и ответ в outbox.
	// Баланс счёта не меняется.
	FailPayment(ctx context.Context, payment *domain.Payment, response *outbox.Message) error

	// RefundPayment фиксирует возврат: платёж CANCELLED, пополненный
	// баланс, операция CREDIT в истории и ответ в outbox.
	RefundPayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error
}

// sagaRepository — GORM реализация Repository.
type sagaRepository struct {
	db             *gorm.DB
	payments       repository.PaymentRepository
	credits        repository.CreditRepository
	responseOutbox outbox.Repository
}

// NewRepository создаёт репозиторий шагов саги.
func NewRepository(db *gorm.DB, payments repository.PaymentRepository, credits repository.CreditRepository, responseOutbox outbox.Repository) Repository {
	return &sagaRepository{
		db:             db,
		payments:       payments,
		credits:        credits,
		responseOutbox: responseOutbox,
	}
}

func (r *sagaRepository) CompletePayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.payments.CreateTx(tx, payment); err != nil {
			return err
		}
		if err := r.credits.UpdateEntryTx(tx, entry); err != nil {
			return err
		}
		if err := r.credits.AddHistoryTx(tx, history); err != nil {
			return err
		}
		return r.responseOutbox.SaveTx(tx, response)
	})
}

func (r *sagaRepository) FailPayment(ctx context.Context, payment *domain.Payment, response *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.payments.CreateTx(tx, payment); err != nil {
			return err
		}
		return r.responseOutbox.SaveTx(tx, response)
	})
}

func (r *sagaRepository) RefundPayment(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry, history *domain.CreditHistoryEntry, response *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.payments.CreateTx(tx, payment); err != nil {
			return err
		}
		if err := r.credits.UpdateEntryTx(tx, entry); err != nil {
			return err
		}
		if err := r.credits.AddHistoryTx(tx, history); err != nil {
			return err
		}
		return r.responseOutbox.SaveTx(tx, response)
	})
}
