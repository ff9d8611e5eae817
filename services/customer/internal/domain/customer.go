// Package domain содержит бизнес-сущности Customer Service.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer — клиент сервиса доставки. Customer Service владеет реестром
// клиентов, остальные сервисы ведут локальные реплики по событиям
// из топика customer.
type Customer struct {
	ID        string    // Уникальный идентификатор (UUID)
	Username  string    // Логин, уникален в реестре
	FirstName string    // Имя
	LastName  string    // Фамилия
	CreatedAt time.Time // Время регистрации
}

// ValidateAndInitialize валидирует данные клиента и присваивает ID.
func (c *Customer) ValidateAndInitialize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID != "" {
		return ErrCustomerAlreadyInitialized
	}

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	return nil
}

// Validate проверяет обязательные поля клиента.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrInvalidUsername
	}
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return ErrInvalidName
	}
	return nil
}
