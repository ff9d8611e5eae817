package domain

import "errors"

// Доменные ошибки Customer Service.
var (
	// ErrCustomerNotFound — клиент не найден.
	ErrCustomerNotFound = errors.New("клиент не найден")

	// ErrInvalidUsername — не указан логин.
	ErrInvalidUsername = errors.New("не указан логин клиента")

	// ErrInvalidName — не указаны имя или фамилия.
	ErrInvalidName = errors.New("не указаны имя или фамилия клиента")

	// ErrUsernameTaken — логин уже занят.
	ErrUsernameTaken = errors.New("логин уже занят")

	// ErrCustomerAlreadyInitialized — повторная инициализация клиента.
	ErrCustomerAlreadyInitialized = errors.New("клиент уже инициализирован")
)
