// Package money предоставляет денежный тип с точной десятичной арифметикой.
// Суммы заказов и кредитов считаются через decimal — никакой плавающей точки.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount — строка не является корректной десятичной суммой.
var ErrInvalidAmount = errors.New("некорректная денежная сумма")

// Money — денежная сумма с фиксированной точностью 2 знака.
// Сравнивается по значению, складывается и умножается без потери точности.
type Money struct {
	Amount decimal.Decimal
}

// Zero — нулевая сумма.
var Zero = Money{Amount: decimal.Zero}

// New создаёт Money из decimal.
func New(amount decimal.Decimal) Money {
	return Money{Amount: amount}
}

// NewFromString создаёт Money из строкового представления ("200.00").
func NewFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

// MustFromString — NewFromString с паникой. Только для тестов и констант.
func MustFromString(s string) Money {
	m, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add возвращает сумму двух Money.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount).Round(2)}
}

// Subtract возвращает разность двух Money.
func (m Money) Subtract(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount).Round(2)}
}

// Multiply умножает сумму на количество.
// Используется для расчёта стоимости позиции (цена × количество).
func (m Money) Multiply(quantity int32) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt32(quantity)).Round(2)}
}

// IsGreaterThanZero возвращает true для строго положительной суммы.
func (m Money) IsGreaterThanZero() bool {
	return m.Amount.IsPositive()
}

// IsNegative возвращает true для отрицательной суммы.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsGreaterThan возвращает true, если m строго больше other.
func (m Money) IsGreaterThan(other Money) bool {
	return m.Amount.GreaterThan(other.Amount)
}

// Equals сравнивает суммы по значению (10.5 == 10.50).
func (m Money) Equals(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// String возвращает сумму с двумя знаками после запятой.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}
