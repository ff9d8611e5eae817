package domain

import "errors"

// Доменные ошибки Order Service.
var (
	// ErrOrderNotFound — заказ не найден.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrInvalidCustomerID — не указан ID клиента.
	ErrInvalidCustomerID = errors.New("не указан ID клиента")

	// ErrInvalidRestaurantID — не указан ID ресторана.
	ErrInvalidRestaurantID = errors.New("не указан ID ресторана")

	// ErrEmptyOrderItems — заказ не содержит позиций.
	ErrEmptyOrderItems = errors.New("заказ не содержит позиций")

	// ErrInvalidQuantity — количество должно быть положительным.
	ErrInvalidQuantity = errors.New("некорректное количество в позиции заказа")

	// ErrInvalidPrice — сумма заказа должна быть больше нуля.
	ErrInvalidPrice = errors.New("сумма заказа должна быть больше нуля")

	// ErrPriceMismatch — сумма заказа не сходится с суммой позиций.
	ErrPriceMismatch = errors.New("сумма заказа не совпадает с суммой позиций")

	// ErrItemPriceMismatch — стоимость позиции не равна цене, умноженной на количество.
	ErrItemPriceMismatch = errors.New("стоимость позиции не совпадает с ценой и количеством")

	// ErrOrderAlreadyInitialized — повторная инициализация заказа.
	ErrOrderAlreadyInitialized = errors.New("заказ уже инициализирован")

	// ErrInvalidStateTransition — недопустимый переход статуса заказа.
	ErrInvalidStateTransition = errors.New("недопустимый переход статуса заказа")

	// ErrCustomerNotFound — клиент не найден в локальной реплике.
	ErrCustomerNotFound = errors.New("клиент не найден")

	// ErrRestaurantNotFound — ресторан не найден.
	ErrRestaurantNotFound = errors.New("ресторан не найден")

	// ErrRestaurantInactive — ресторан не принимает заказы.
	ErrRestaurantInactive = errors.New("ресторан временно не принимает заказы")

	// ErrProductNotInMenu — продукт отсутствует в меню ресторана.
	ErrProductNotInMenu = errors.New("продукт отсутствует в меню ресторана")
)
