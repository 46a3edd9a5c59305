package store

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	UserName    string      `json:"user_name"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// SpendingRow is one line of the per-user spending report behind
// /database-ops?operation=select.
type SpendingRow struct {
	UserID     int64   `json:"user_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	OrderCount int     `json:"orders"`
	TotalSpent float64 `json:"total"`
}

type Counts struct {
	Users    int `json:"users_count"`
	Orders   int `json:"orders_count"`
	Products int `json:"products_count"`
}

const (
	OrderStatusPending       = "pending"
	OrderStatusPaid          = "paid"
	OrderStatusPaymentFailed = "payment_failed"

	UserStatusActive = "active"
)
