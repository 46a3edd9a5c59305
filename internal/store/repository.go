package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository is the single owned boundary around the demo entities. All
// mutation goes through it so concurrent handlers and background workers
// cannot race on shared state.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	RenameUser(ctx context.Context, id int64, name string) error

	CreateOrder(ctx context.Context, o *Order) error
	SetOrderStatus(ctx context.Context, orderID int64, status string) error
	ListOrders(ctx context.Context) ([]Order, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int) error

	SpendingReport(ctx context.Context) ([]SpendingRow, error)
	Counts(ctx context.Context) (Counts, error)

	// FaultyQuery deliberately touches a relation that does not exist. It
	// backs the db_error mode of the error-simulation endpoint.
	FaultyQuery(ctx context.Context) error
}

// SeedProducts is the static catalog inserted at startup.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Price: 999.99, Stock: 10},
		{ID: 2, Name: "Phone", Price: 699.99, Stock: 25},
		{ID: 3, Name: "Tablet", Price: 399.99, Stock: 15},
		{ID: 4, Name: "Headphones", Price: 199.99, Stock: 50},
	}
}
