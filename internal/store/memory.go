package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps everything in process memory behind one mutex. It is
// the default backend and the reference for the Postgres implementation.
type MemoryRepository struct {
	mu sync.Mutex

	users    []User
	orders   []Order
	products []Product

	nextUserID  int64
	nextOrderID int64

	faultyErr error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:    SeedProducts(),
		nextUserID:  1,
		nextOrderID: 1,
		faultyErr:   errors.New(`relation "non_existent_table" does not exist`),
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) CreateUser(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}

	u.ID = r.nextUserID
	r.nextUserID++
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users = append(r.users, *u)
	return nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *MemoryRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) RenameUser(ctx context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Name = name
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = r.nextOrderID
	r.nextOrderID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	cp := *o
	cp.Items = make([]OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	r.orders = append(r.orders, cp)
	return nil
}

func (r *MemoryRepository) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == orderID {
			r.orders[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) ListOrders(ctx context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Order, len(r.orders))
	for i, o := range r.orders {
		cp := o
		cp.Items = make([]OrderItem, len(o.Items))
		copy(cp.Items, o.Items)
		out[i] = cp
	}
	return out, nil
}

func (r *MemoryRepository) ListProducts(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) DecrementStock(ctx context.Context, productID int64, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.products {
		if r.products[i].ID == productID {
			if r.products[i].Stock < qty {
				return ErrInsufficientStock
			}
			r.products[i].Stock -= qty
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) SpendingReport(ctx context.Context) ([]SpendingRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]SpendingRow, 0, len(r.users))
	for _, u := range r.users {
		row := SpendingRow{UserID: u.ID, Name: u.Name, Email: u.Email}
		for _, o := range r.orders {
			if o.UserID == u.ID {
				row.OrderCount++
				row.TotalSpent += o.TotalAmount
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *MemoryRepository) Counts(ctx context.Context) (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Counts{
		Users:    len(r.users),
		Orders:   len(r.orders),
		Products: len(r.products),
	}, nil
}

func (r *MemoryRepository) FaultyQuery(ctx context.Context) error {
	return r.faultyErr
}
