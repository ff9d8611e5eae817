package domain

import "time"

// Customer — локальная реплика клиента в схеме Order Service.
// Пополняется консьюмером топика customer, используется для проверки
// существования клиента при создании заказа без синхронного вызова
// Customer Service.
type Customer struct {
	ID        string    // ID клиента (общий с Customer Service)
	Username  string    // Логин
	FirstName string    // Имя
	LastName  string    // Фамилия
	CreatedAt time.Time // Время появления в реплике
}
