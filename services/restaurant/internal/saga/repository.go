package saga

import (
	"context"

	"gorm.io/gorm"

	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/services/restaurant/internal/domain"
	"example.com/food-ordering/services/restaurant/internal/repository"
)

// Repository — атомарная фиксация решения: запись в order_approvals и
// ответ в outbox меняются в одной транзакции.
type Repository interface {
	// SaveApproval сохраняет решение и ставит ответ в outbox.
	SaveApproval(ctx context.Context, approval *domain.OrderApproval, response *outbox.Message) error
}

// sagaRepository — GORM реализация Repository.
type sagaRepository struct {
	db             *gorm.DB
	approvals      repository.ApprovalRepository
	responseOutbox outbox.Repository
}

// NewRepository создаёт репозиторий шага подтверждения.
func NewRepository(db *gorm.DB, approvals repository.ApprovalRepository, responseOutbox outbox.Repository) Repository {
	return &sagaRepository{
		db:             db,
		approvals:      approvals,
		responseOutbox: responseOutbox,
	}
}

func (r *sagaRepository) SaveApproval(ctx context.Context, approval *domain.OrderApproval, response *outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.approvals.CreateTx(tx, approval); err != nil {
			return err
		}
		return r.responseOutbox.SaveTx(tx, response)
	})
}
