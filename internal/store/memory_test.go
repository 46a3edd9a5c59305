package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := &User{Name: "John Doe", Email: "john@example.com"}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected sequential id 1, got %d", u.ID)
	}
	if u.Status != UserStatusActive {
		t.Fatalf("expected active status, got %q", u.Status)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
}

func TestMemoryCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.CreateUser(ctx, &User{Name: "a", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := repo.CreateUser(ctx, &User{Name: "b", Email: "DUP@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	users, _ := repo.ListUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("duplicate was stored: %d users", len(users))
	}
}

func TestMemoryConcurrentUserCreation(t *testing.T) {
	// 100 parallel callers must end up with 100 distinct sequential ids and
	// no lost writes.
	ctx := context.Background()
	repo := NewMemoryRepository()

	const n = 100
	ids := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &User{Name: fmt.Sprintf("user-%d", i), Email: fmt.Sprintf("user-%d@example.com", i)}
			if err := repo.CreateUser(ctx, u); err != nil {
				t.Errorf("create user %d: %v", i, err)
				return
			}
			ids <- u.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct ids, got %d", n, len(seen))
	}

	users, _ := repo.ListUsers(ctx)
	if len(users) != n {
		t.Fatalf("lost writes: %d users stored", len(users))
	}
}

func TestMemoryDecrementStock(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		productID int64
		qty       int
		wantErr   error
		wantStock int
	}{
		"decrements available stock": {productID: 1, qty: 3, wantStock: 7},
		"rejects oversell":           {productID: 1, qty: 11, wantErr: ErrInsufficientStock, wantStock: 10},
		"unknown product":            {productID: 99, qty: 1, wantErr: ErrNotFound},
		"drains to zero":             {productID: 3, qty: 15, wantStock: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewMemoryRepository()

			err := repo.DecrementStock(ctx, tt.productID, tt.qty)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantErr == ErrNotFound {
				return
			}
			p, err := repo.GetProduct(ctx, tt.productID)
			if err != nil {
				t.Fatalf("get product: %v", err)
			}
			if p.Stock != tt.wantStock {
				t.Fatalf("stock = %d, want %d", p.Stock, tt.wantStock)
			}
		})
	}
}

func TestMemoryStockNeverNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	// Product 1 seeds with stock 10; 50 buyers race for it.
	var wg sync.WaitGroup
	var succeeded int64
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DecrementStock(ctx, 1, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, err := repo.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Stock < 0 {
		t.Fatalf("stock went negative: %d", p.Stock)
	}
	if succeeded != 10 || p.Stock != 0 {
		t.Fatalf("expected exactly 10 successful decrements, got %d (stock %d)", succeeded, p.Stock)
	}
}

func TestMemoryOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := &User{Name: "Jane", Email: "jane@example.com"}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	o := &Order{
		UserID:   u.ID,
		UserName: u.Name,
		Items: []OrderItem{
			{ProductID: 1, Name: "Laptop", Price: 999.99},
			{ProductID: 2, Name: "Phone", Price: 699.99},
		},
		TotalAmount: 1699.98,
		Status:      OrderStatusPending,
	}
	if err := repo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.ID != 1 {
		t.Fatalf("expected order id 1, got %d", o.ID)
	}

	if err := repo.SetOrderStatus(ctx, o.ID, OrderStatusPaid); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := repo.SetOrderStatus(ctx, 42, OrderStatusPaid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}

	orders, err := repo.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != OrderStatusPaid {
		t.Fatalf("unexpected orders: %+v", orders)
	}
	if len(orders[0].Items) != 2 {
		t.Fatalf("items not persisted: %+v", orders[0].Items)
	}

	// Mutating the returned slice must not leak into the store.
	orders[0].Items[0].Price = 0
	again, _ := repo.ListOrders(ctx)
	if again[0].Items[0].Price != 999.99 {
		t.Fatalf("returned orders share backing storage with the repository")
	}
}

func TestMemorySpendingReport(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a := &User{Name: "a", Email: "a@example.com"}
	b := &User{Name: "b", Email: "b@example.com"}
	if err := repo.CreateUser(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := repo.CreateUser(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	for _, amount := range []float64{10, 20} {
		if err := repo.CreateOrder(ctx, &Order{UserID: a.ID, UserName: a.Name, TotalAmount: amount, Status: OrderStatusPaid}); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	report, err := repo.SpendingReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report))
	}
	if report[0].OrderCount != 2 || report[0].TotalSpent != 30 {
		t.Fatalf("unexpected row for a: %+v", report[0])
	}
	if report[1].OrderCount != 0 || report[1].TotalSpent != 0 {
		t.Fatalf("unexpected row for b: %+v", report[1])
	}
}

func TestMemoryCountsAndFaultyQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	c, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if c.Users != 0 || c.Orders != 0 || c.Products != 4 {
		t.Fatalf("unexpected counts: %+v", c)
	}

	if err := repo.FaultyQuery(ctx); err == nil {
		t.Fatalf("faulty query must always fail")
	}
}
