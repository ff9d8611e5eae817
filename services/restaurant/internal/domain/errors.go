package domain

import "errors"

// Доменные ошибки Restaurant Service.
var (
	// ErrRestaurantNotFound — ресторан не найден.
	ErrRestaurantNotFound = errors.New("ресторан не найден")

	// ErrApprovalNotFound — решение по заказу не найдено.
	ErrApprovalNotFound = errors.New("решение по заказу не найдено")

	// ErrDuplicateApproval — решение по этой саге уже зафиксировано.
	// Повторная доставка запроса игнорируется: опубликовано будет
	// первое принятое решение, даже если повторная оценка разошлась с ним.
	ErrDuplicateApproval = errors.New("решение по саге уже зафиксировано")
)
