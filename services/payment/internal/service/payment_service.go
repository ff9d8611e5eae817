// Package service содержит бизнес-логику Payment Service: проверку
// кредитного счёта, списание и возврат средств.
package service

import (
	"context"
	"errors"
	"fmt"

	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/messaging"
	"example.com/food-ordering/pkg/money"
	"example.com/food-ordering/services/payment/internal/domain"
	"example.com/food-ordering/services/payment/internal/repository"
)

// ProcessResult — результат обработки платёжного запроса.
// Entry и History заполнены только когда баланс счёта изменился;
// при отказе оплаты платёж содержит причины в FailureMessages.
type ProcessResult struct {
	Payment *domain.Payment
	Entry   *domain.CreditEntry
	History *domain.CreditHistoryEntry
}

// PaymentService определяет бизнес-логику обработки платежей.
// Методы только принимают решение и мутируют агрегаты в памяти,
// персистентность — забота вызывающего кода (атомарно с outbox).
type PaymentService interface {
	// ProcessPayment списывает средства за заказ. Недостаток средств —
	// не ошибка: возвращается платёж FAILED с причинами отказа.
	ProcessPayment(ctx context.Context, req *messaging.PaymentRequest) (*ProcessResult, error)

	// RefundPayment возвращает средства при компенсации саги.
	// Отсутствие счёта — не ошибка: возвращается платёж FAILED,
	// чтобы сага на стороне заказа смогла завершить компенсацию.
	RefundPayment(ctx context.Context, req *messaging.PaymentRequest) (*ProcessResult, error)
}

// paymentService — реализация PaymentService.
type paymentService struct {
	credits repository.CreditRepository
}

// NewPaymentService создаёт новый сервис платежей.
func NewPaymentService(credits repository.CreditRepository) PaymentService {
	return &paymentService{credits: credits}
}

// ProcessPayment списывает средства со счёта клиента.
func (s *paymentService) ProcessPayment(ctx context.Context, req *messaging.PaymentRequest) (*ProcessResult, error) {
	log := logger.FromContext(ctx)

	payment := domain.NewPayment(req.SagaID, req.OrderID, req.CustomerID, money.New(req.Price))
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.credits.GetEntryByCustomerID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrCreditEntryNotFound) {
			// Нет счёта — оплата невозможна, сага получит отказ
			log.Warn().
				Str("customer_id", req.CustomerID).
				Str("order_id", req.OrderID).
				Msg("Кредитный счёт клиента не найден, оплата отклонена")
			payment.Fail([]string{domain.MsgInsufficientCredit})
			return &ProcessResult{Payment: payment}, nil
		}
		return nil, fmt.Errorf("ошибка чтения кредитного счёта: %w", err)
	}

	history, err := s.credits.ListHistoryByCustomerID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории операций: %w", err)
	}

	var failures []string

	if !entry.CanDebit(payment.Price) {
		log.Warn().
			Str("customer_id", req.CustomerID).
			Str("order_id", req.OrderID).
			Str("price", payment.Price.String()).
			Str("balance", entry.TotalCreditAmount.String()).
			Msg("Недостаточно средств для оплаты заказа")
		failures = append(failures, domain.MsgInsufficientCredit)
	}

	if err := entry.ValidateHistory(history); err != nil {
		log.Error().
			Str("customer_id", req.CustomerID).
			Str("balance", entry.TotalCreditAmount.String()).
			Msg("Баланс счёта не сходится с историей операций")
		failures = append(failures, domain.MsgCreditHistoryMismatch)
	}

	if len(failures) > 0 {
		payment.Fail(failures)
		return &ProcessResult{Payment: payment}, nil
	}

	if err := entry.Debit(payment.Price); err != nil {
		// CanDebit уже проверен, сюда попадать не должны
		payment.Fail([]string{domain.MsgInsufficientCredit})
		return &ProcessResult{Payment: payment}, nil
	}

	payment.Complete()

	log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", req.OrderID).
		Str("price", payment.Price.String()).
		Str("balance", entry.TotalCreditAmount.String()).
		Msg("Средства списаны, оплата подтверждена")

	return &ProcessResult{
		Payment: payment,
		Entry:   entry,
		History: domain.NewHistoryEntry(req.CustomerID, payment.Price, domain.TransactionDebit),
	}, nil
}

// RefundPayment возвращает средства на счёт клиента (компенсация саги).
func (s *paymentService) RefundPayment(ctx context.Context, req *messaging.PaymentRequest) (*ProcessResult, error) {
	log := logger.FromContext(ctx)

	payment := domain.NewPayment(req.SagaID, req.OrderID, req.CustomerID, money.New(req.Price))
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.credits.GetEntryByCustomerID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrCreditEntryNotFound) {
			// Нет счёта — возвращать некуда, сага получит отказ
			// и завершит компенсацию без изменения баланса
			log.Warn().
				Str("customer_id", req.CustomerID).
				Str("order_id", req.OrderID).
				Msg("Кредитный счёт клиента не найден, возврат отклонён")
			payment.Fail([]string{domain.MsgInsufficientCredit})
			return &ProcessResult{Payment: payment}, nil
		}
		return nil, fmt.Errorf("ошибка чтения кредитного счёта для возврата: %w", err)
	}

	entry.Credit(payment.Price)
	payment.Cancel()

	log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", req.OrderID).
		Str("price", payment.Price.String()).
		Str("balance", entry.TotalCreditAmount.String()).
		Msg("Платёж возвращён на счёт клиента")

	return &ProcessResult{
		Payment: payment,
		Entry:   entry,
		History: domain.NewHistoryEntry(req.CustomerID, payment.Price, domain.TransactionCredit),
	}, nil
}
