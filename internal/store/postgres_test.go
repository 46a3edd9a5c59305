package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPostgresCreateUserDuplicateEmail(t *testing.T) {
	pool := &mockPool{
		queryRowFn: func(sql string, args []any) pgx.Row {
			return mockRow{err: &pgconn.PgError{Code: "23505"}}
		},
	}
	repo := NewPostgresRepository(pool)

	err := repo.CreateUser(context.Background(), &User{Name: "a", Email: "a@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgresCreateUserAssignsID(t *testing.T) {
	now := time.Now().UTC()
	pool := &mockPool{
		queryRowFn: func(sql string, args []any) pgx.Row {
			if !strings.Contains(sql, "INSERT INTO users") {
				t.Fatalf("unexpected sql: %s", sql)
			}
			return mockRow{values: []any{int64(7), now}}
		},
	}
	repo := NewPostgresRepository(pool)

	u := &User{Name: "a", Email: "a@example.com"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID != 7 || !u.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Status != UserStatusActive {
		t.Fatalf("status not defaulted: %q", u.Status)
	}
}

func TestPostgresGetUserNotFound(t *testing.T) {
	pool := &mockPool{
		queryRowFn: func(sql string, args []any) pgx.Row {
			return mockRow{err: pgx.ErrNoRows}
		},
	}
	repo := NewPostgresRepository(pool)

	_, err := repo.GetUser(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRenameUserNotFound(t *testing.T) {
	pool := &mockPool{
		execFn: func(sql string, args []any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := NewPostgresRepository(pool)

	if err := repo.RenameUser(context.Background(), 5, "renamed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDecrementStock(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		pool := &mockPool{
			execFn: func(sql string, args []any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 1"), nil
			},
		}
		repo := NewPostgresRepository(pool)

		if err := repo.DecrementStock(context.Background(), 1, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("insufficient stock", func(t *testing.T) {
		pool := &mockPool{
			execFn: func(sql string, args []any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			},
			queryRowFn: func(sql string, args []any) pgx.Row {
				// Follow-up lookup finds the product, so the failure is a
				// stock shortage rather than a missing row.
				return mockRow{values: []any{int64(1), "Laptop", 999.99, 1}}
			},
		}
		repo := NewPostgresRepository(pool)

		if err := repo.DecrementStock(context.Background(), 1, 5); !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		pool := &mockPool{
			execFn: func(sql string, args []any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			},
			queryRowFn: func(sql string, args []any) pgx.Row {
				return mockRow{err: pgx.ErrNoRows}
			},
		}
		repo := NewPostgresRepository(pool)

		if err := repo.DecrementStock(context.Background(), 42, 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPostgresCreateOrderCommitsItems(t *testing.T) {
	now := time.Now().UTC()
	tx := &mockTx{
		queryRowFn: func(sql string, args []any) pgx.Row {
			return mockRow{values: []any{int64(3), now}}
		},
	}
	pool := &mockPool{tx: tx}
	repo := NewPostgresRepository(pool)

	o := &Order{
		UserID:   1,
		UserName: "Jane",
		Items: []OrderItem{
			{ProductID: 1, Name: "Laptop", Price: 999.99},
			{ProductID: 2, Name: "Phone", Price: 699.99},
		},
		TotalAmount: 1699.98,
		Status:      OrderStatusPending,
	}
	if err := repo.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if o.ID != 3 {
		t.Fatalf("order id not assigned: %d", o.ID)
	}
	if len(tx.execs) != 2 {
		t.Fatalf("expected 2 item inserts, got %d", len(tx.execs))
	}
	if !tx.committed || tx.rolledBackBeforeCommit {
		t.Fatalf("transaction state incorrect: %+v", tx)
	}
}

func TestPostgresCreateOrderRollsBackOnItemFailure(t *testing.T) {
	tx := &mockTx{
		queryRowFn: func(sql string, args []any) pgx.Row {
			return mockRow{values: []any{int64(3), time.Now()}}
		},
		execErr: errors.New("disk full"),
	}
	pool := &mockPool{tx: tx}
	repo := NewPostgresRepository(pool)

	o := &Order{UserID: 1, Items: []OrderItem{{ProductID: 1, Name: "Laptop", Price: 1}}}
	if err := repo.CreateOrder(context.Background(), o); err == nil {
		t.Fatalf("expected error")
	}
	if tx.committed {
		t.Fatalf("transaction committed despite failure")
	}
	if !tx.rolledBack {
		t.Fatalf("transaction not rolled back")
	}
}

func TestPostgresListUsers(t *testing.T) {
	now := time.Now().UTC()
	pool := &mockPool{
		queryFn: func(sql string, args []any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{
				{int64(1), "John", "john@example.com", "active", now},
				{int64(2), "Jane", "jane@example.com", "active", now},
			}}, nil
		},
	}
	repo := NewPostgresRepository(pool)

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].Name != "John" || users[1].ID != 2 {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestPostgresFaultyQueryFails(t *testing.T) {
	pool := &mockPool{
		queryRowFn: func(sql string, args []any) pgx.Row {
			return mockRow{err: &pgconn.PgError{Code: "42P01", Message: `relation "non_existent_table" does not exist`}}
		},
	}
	repo := NewPostgresRepository(pool)

	if err := repo.FaultyQuery(context.Background()); err == nil {
		t.Fatalf("expected error from faulty query")
	}
}

// --- mocks ---

type mockPool struct {
	queryRowFn func(sql string, args []any) pgx.Row
	queryFn    func(sql string, args []any) (pgx.Rows, error)
	execFn     func(sql string, args []any) (pgconn.CommandTag, error)

	tx       *mockTx
	beginErr error
}

func (p *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if p.queryRowFn == nil {
		return mockRow{err: errors.New("unexpected QueryRow")}
	}
	return p.queryRowFn(sql, args)
}

func (p *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if p.queryFn == nil {
		return nil, errors.New("unexpected Query")
	}
	return p.queryFn(sql, args)
}

func (p *mockPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if p.execFn == nil {
		return pgconn.CommandTag{}, errors.New("unexpected Exec")
	}
	return p.execFn(sql, args)
}

func (p *mockPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	if p.tx == nil {
		p.tx = &mockTx{}
	}
	return p.tx, nil
}

type mockTx struct {
	queryRowFn func(sql string, args []any) pgx.Row
	execErr    error

	execs []string

	committed              bool
	rolledBack             bool
	rolledBackBeforeCommit bool
}

func (tx *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx.queryRowFn == nil {
		return mockRow{err: errors.New("unexpected tx QueryRow")}
	}
	return tx.queryRowFn(sql, args)
}

func (tx *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx.execErr != nil {
		return pgconn.CommandTag{}, tx.execErr
	}
	tx.execs = append(tx.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *mockTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *mockTx) Rollback(ctx context.Context) error {
	tx.rolledBack = true
	if !tx.committed {
		tx.rolledBackBeforeCommit = true
	}
	return nil
}

func (tx *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return tx, nil }
func (tx *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (tx *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (tx *mockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (tx *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (tx *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (tx *mockTx) Conn() *pgx.Conn { return nil }

type mockRow struct {
	values []any
	err    error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type mockRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx-1])
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d dest, %d values", len(dest), len(values))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan dest %T", d)
		}
	}
	return nil
}
