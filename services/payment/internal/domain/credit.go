package domain

import (
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/money"
)

// TransactionType — тип операции в истории счёта.
type TransactionType string

const (
	// TransactionCredit — пополнение счёта (в том числе возврат платежа).
	TransactionCredit TransactionType = "CREDIT"

	// TransactionDebit — списание со счёта при оплате заказа.
	TransactionDebit TransactionType = "DEBIT"
)

// CreditEntry — кредитный счёт клиента с текущим балансом.
// Баланс меняется только через Debit и Credit; Version защищает
// от конкурентных списаний (optimistic locking).
type CreditEntry struct {
	ID                string      // Уникальный идентификатор счёта
	CustomerID        string      // ID клиента
	TotalCreditAmount money.Money // Текущий баланс
	Version           int         // Версия для optimistic locking
}

// CanDebit проверяет, хватает ли средств для списания.
func (e *CreditEntry) CanDebit(amount money.Money) bool {
	return !amount.IsGreaterThan(e.TotalCreditAmount)
}

// Debit списывает сумму со счёта.
func (e *CreditEntry) Debit(amount money.Money) error {
	if !e.CanDebit(amount) {
		return ErrInsufficientCredit
	}
	e.TotalCreditAmount = e.TotalCreditAmount.Subtract(amount)
	return nil
}

// Credit пополняет счёт (возврат при компенсации).
func (e *CreditEntry) Credit(amount money.Money) {
	e.TotalCreditAmount = e.TotalCreditAmount.Add(amount)
}

// CreditHistoryEntry — операция по счёту клиента.
type CreditHistoryEntry struct {
	ID         string          // Уникальный идентификатор операции
	CustomerID string          // ID клиента
	Amount     money.Money     // Сумма операции
	Type       TransactionType // CREDIT или DEBIT
	CreatedAt  time.Time       // Время операции
}

// NewHistoryEntry создаёт запись истории операций.
func NewHistoryEntry(customerID string, amount money.Money, txType TransactionType) *CreditHistoryEntry {
	return &CreditHistoryEntry{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
		Type:       txType,
		CreatedAt:  time.Now(),
	}
}

// ValidateHistory сверяет баланс счёта с историей операций:
// сумма пополнений минус сумма списаний обязана равняться балансу.
// Расхождение означает повреждение данных, оплата блокируется.
func (e *CreditEntry) ValidateHistory(history []CreditHistoryEntry) error {
	totalCredit := money.Zero
	totalDebit := money.Zero

	for i := range history {
		switch history[i].Type {
		case TransactionCredit:
			totalCredit = totalCredit.Add(history[i].Amount)
		case TransactionDebit:
			totalDebit = totalDebit.Add(history[i].Amount)
		}
	}

	if totalDebit.IsGreaterThan(totalCredit) {
		return ErrCreditHistoryMismatch
	}

	if !e.TotalCreditAmount.Equals(totalCredit.Subtract(totalDebit)) {
		return ErrCreditHistoryMismatch
	}

	return nil
}
