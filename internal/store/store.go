package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bizpulse/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so the entity and order
// writes can run inside the upload transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the database handle with the persistence operations of the
// ingestion pipeline and the analytics read queries.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a store. A nil logger falls back to slog.Default().
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With(slog.String("component", "store"))}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// BeginTx starts the upload transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// CustomerIDsByEmail returns the ids of already stored customers for the
// given derived emails.
func (s *Store) CustomerIDsByEmail(ctx context.Context, q Querier, emails []string) (map[string]int64, error) {
	return s.idsByKey(ctx, q, `SELECT email, id FROM customers WHERE email = ANY($1)`, emails)
}

// ProductIDsByName returns the ids of already stored products for the given
// normalized names.
func (s *Store) ProductIDsByName(ctx context.Context, q Querier, names []string) (map[string]int64, error) {
	return s.idsByKey(ctx, q, `SELECT name, id FROM products WHERE name = ANY($1)`, names)
}

func (s *Store) idsByKey(ctx context.Context, q Querier, query string, keys []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return ids, nil
	}

	rows, err := q.QueryContext(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("query existing entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var id int64
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		ids[key] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ids, nil
}

// InsertCustomers bulk-inserts customers and returns email to id for the rows
// actually created. ON CONFLICT DO NOTHING closes the concurrent-upload
// read-then-create race on the unique email constraint; losers of the race
// re-read the winner's id afterwards.
func (s *Store) InsertCustomers(ctx context.Context, q Querier, customers []model.Customer) (map[string]int64, error) {
	ids := make(map[string]int64, len(customers))
	if len(customers) == 0 {
		return ids, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO customers (name, email, region) VALUES `)
	args := make([]any, 0, len(customers)*3)
	for i, c := range customers {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, c.Name, c.Email, c.Region)
	}
	sb.WriteString(` ON CONFLICT (email) DO NOTHING RETURNING email, id`)

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("insert customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		var id int64
		if err := rows.Scan(&email, &id); err != nil {
			return nil, fmt.Errorf("scan customer id: %w", err)
		}
		ids[email] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ids, nil
}

// InsertProducts bulk-inserts products and returns name to id for the rows
// actually created, with the same conflict semantics as InsertCustomers.
func (s *Store) InsertProducts(ctx context.Context, q Querier, products []model.Product) (map[string]int64, error) {
	ids := make(map[string]int64, len(products))
	if len(products) == 0 {
		return ids, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO products (name, category, price, cost) VALUES `)
	args := make([]any, 0, len(products)*4)
	for i, p := range products {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, p.Name, p.Category, p.Price, p.Cost)
	}
	sb.WriteString(` ON CONFLICT (name) DO NOTHING RETURNING name, id`)

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("insert products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return ids, nil
}

// InsertOrders bulk-inserts one batch of orders and returns the generated ids
// in insertion order, so the caller can attach items to their orders.
func (s *Store) InsertOrders(ctx context.Context, q Querier, orders []model.Order) ([]int64, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO orders (customer_id, total_amount, status, marketing_channel_id, created_at) VALUES `)
	args := make([]any, 0, len(orders)*5)
	for i, o := range orders {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", i*5+1, i*5+2, i*5+3, i*5+4, i*5+5)
		args = append(args, o.CustomerID, o.TotalAmount, o.Status, o.MarketingChannelID, o.CreatedAt)
	}
	sb.WriteString(` RETURNING id`)

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("insert orders: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, len(orders))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	if len(ids) != len(orders) {
		return nil, fmt.Errorf("expected %d order ids, got %d", len(orders), len(ids))
	}

	return ids, nil
}

// InsertOrderItems bulk-inserts one batch of order items.
func (s *Store) InsertOrderItems(ctx context.Context, q Querier, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES `)
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, it.OrderID, it.ProductID, it.Quantity, it.PriceAtPurchase)
	}

	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// TruncateAll removes every persisted entity. Order matters due to foreign
// keys; RESTART IDENTITY resets the id sequences.
func (s *Store) TruncateAll(ctx context.Context) error {
	statements := []string{
		`TRUNCATE TABLE order_items RESTART IDENTITY CASCADE`,
		`TRUNCATE TABLE orders RESTART IDENTITY CASCADE`,
		`TRUNCATE TABLE products RESTART IDENTITY CASCADE`,
		`TRUNCATE TABLE customers RESTART IDENTITY CASCADE`,
		`TRUNCATE TABLE marketing_channels RESTART IDENTITY CASCADE`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// nullTime converts an optional bound for interval queries.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
