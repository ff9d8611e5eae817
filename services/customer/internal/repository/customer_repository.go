// Package repository содержит реализацию доступа к данным для Customer Service.
package repository

import (
	"context"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"example.com/food-ordering/services/customer/internal/domain"
)

// mysqlDuplicateEntry — код ошибки MySQL при нарушении unique constraint.
const mysqlDuplicateEntry = 1062

// CustomerRepository определяет интерфейс реестра клиентов.
type CustomerRepository interface {
	// CreateTx создаёт клиента внутри транзакции вызывающего кода.
	// Занятый логин возвращается как domain.ErrUsernameTaken.
	CreateTx(tx *gorm.DB, customer *domain.Customer) error

	// GetByID возвращает клиента по ID.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// CustomerModel — GORM модель для таблицы customers.
type CustomerModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Username  string    `gorm:"column:username;type:varchar(100);not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName  string    `gorm:"column:last_name;type:varchar(100);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CustomerModel) TableName() string {
	return "customers"
}

// customerRepository — GORM реализация CustomerRepository.
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository создаёт репозиторий клиентов.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// CreateTx создаёт клиента внутри транзакции вызывающего кода.
func (r *customerRepository) CreateTx(tx *gorm.DB, customer *domain.Customer) error {
	model := &CustomerModel{
		ID:        customer.ID,
		Username:  customer.Username,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		CreatedAt: customer.CreatedAt,
	}

	if err := tx.Create(model).Error; err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrUsernameTaken
		}
		return err
	}

	return nil
}

// GetByID возвращает клиента по ID.
func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var model CustomerModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	return &domain.Customer{
		ID:        model.ID,
		Username:  model.Username,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		CreatedAt: model.CreatedAt,
	}, nil
}
