// Package domain содержит бизнес-сущности Payment Service:
// платежи, кредитные счета клиентов и историю операций.
package domain

import (
	"time"

	"github.com/google/uuid"

	"example.com/food-ordering/pkg/money"
)

// PaymentStatus — итоговый статус платежа.
type PaymentStatus string

const (
	// PaymentCompleted — средства списаны, оплата прошла.
	PaymentCompleted PaymentStatus = "COMPLETED"

	// PaymentCancelled — платёж возвращён при компенсации саги.
	PaymentCancelled PaymentStatus = "CANCELLED"

	// PaymentFailed — оплата отклонена (недостаточно средств).
	PaymentFailed PaymentStatus = "FAILED"
)

// Сообщения об отказе оплаты. Уходят в payment-response и показываются
// клиенту при отслеживании заказа, поэтому текст фиксированный.
const (
	// MsgInsufficientCredit — у клиента недостаточно средств.
	MsgInsufficientCredit = "Customer has no enough credit"

	// MsgCreditHistoryMismatch — баланс счёта не сходится с историей операций.
	MsgCreditHistoryMismatch = "Credit history total is not equal to current credit"
)

// Payment — платёж по заказу. Каждая обработка payment-request
// порождает новую запись: списание, отказ или возврат.
type Payment struct {
	ID              string        // Уникальный идентификатор платежа (UUID)
	SagaID          string        // ID саги (= ID заказа)
	OrderID         string        // ID заказа
	CustomerID      string        // ID клиента
	Price           money.Money   // Сумма платежа
	Status          PaymentStatus // Итоговый статус
	FailureMessages []string      // Причины отказа (для FAILED)
	CreatedAt       time.Time     // Время обработки
}

// NewPayment создаёт платёж в ожидании решения по списанию.
func NewPayment(sagaID, orderID, customerID string, price money.Money) *Payment {
	return &Payment{
		ID:         uuid.NewString(),
		SagaID:     sagaID,
		OrderID:    orderID,
		CustomerID: customerID,
		Price:      price,
		CreatedAt:  time.Now(),
	}
}

// Validate проверяет корректность суммы платежа.
func (p *Payment) Validate() error {
	if !p.Price.IsGreaterThanZero() {
		return ErrInvalidPaymentPrice
	}
	return nil
}

// Complete помечает платёж успешным.
func (p *Payment) Complete() {
	p.Status = PaymentCompleted
}

// Fail помечает платёж отклонённым с причинами отказа.
func (p *Payment) Fail(messages []string) {
	p.Status = PaymentFailed
	p.FailureMessages = append(p.FailureMessages, messages...)
}

// Cancel помечает платёж возвращённым (компенсация саги).
func (p *Payment) Cancel() {
	p.Status = PaymentCancelled
}
