package domain

import "errors"

// Доменные ошибки Payment Service.
var (
	// ErrPaymentNotFound — платёж не найден.
	ErrPaymentNotFound = errors.New("платёж не найден")

	// ErrCreditEntryNotFound — у клиента нет кредитного счёта.
	ErrCreditEntryNotFound = errors.New("кредитный счёт клиента не найден")

	// ErrInsufficientCredit — на счёте клиента недостаточно средств.
	ErrInsufficientCredit = errors.New("недостаточно средств на счёте клиента")

	// ErrInvalidPaymentPrice — сумма платежа должна быть больше нуля.
	ErrInvalidPaymentPrice = errors.New("сумма платежа должна быть больше нуля")

	// ErrCreditHistoryMismatch — история операций не сходится с балансом счёта.
	ErrCreditHistoryMismatch = errors.New("история операций не сходится с балансом счёта")
)
