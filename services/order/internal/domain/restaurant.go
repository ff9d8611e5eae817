package domain

import "example.com/food-ordering/pkg/money"

// Restaurant — снапшот данных ресторана в схеме Order Service.
// Используется при создании заказа: проверка активности ресторана
// и сверка цен позиций с меню.
type Restaurant struct {
	ID       string    // ID ресторана
	Name     string    // Название
	Active   bool      // Принимает ли ресторан заказы
	Products []Product // Меню ресторана
}

// Product — продукт из меню ресторана.
type Product struct {
	ID        string      // ID продукта
	Name      string      // Название
	Price     money.Money // Актуальная цена
	Available bool        // Доступен ли для заказа
}

// ProductByID находит продукт в меню по ID.
func (r *Restaurant) ProductByID(id string) (*Product, bool) {
	for i := range r.Products {
		if r.Products[i].ID == id {
			return &r.Products[i], true
		}
	}
	return nil, false
}

// ValidateOrderItems проверяет позиции заказа против меню:
// ресторан активен, каждый продукт есть в меню и доступен,
// цена позиции совпадает с ценой меню.
func (r *Restaurant) ValidateOrderItems(items []OrderItem) error {
	if !r.Active {
		return ErrRestaurantInactive
	}

	for i := range items {
		product, ok := r.ProductByID(items[i].ProductID)
		if !ok || !product.Available {
			return ErrProductNotInMenu
		}
		if !items[i].Price.Equals(product.Price) {
			return ErrItemPriceMismatch
		}
	}

	return nil
}
