package models

import "time"

// Order представляет заказ пользователя
type Order struct {
	ID      string    `json:"_id"`
	UserID  string    `json:"userId"`
	Items   []Item    `json:"items"`
	Amount  float64   `json:"amount"` // сумма, присланная клиентом; для списания не используется
	Address Address   `json:"address"`
	Status  string    `json:"status"` // произвольная строка, выставляется администратором
	Date    time.Time `json:"date"`
	Payment bool      `json:"payment"`
}

// Item — позиция заказа (блюдо из меню)
type Item struct {
	FoodID      string  `json:"_id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
}

// Address — адрес доставки
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
