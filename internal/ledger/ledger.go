// Package ledger records completed data purchases in Postgres. Orders are
// append-only; corrections happen upstream in the billing system.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is one completed purchase for an organization.
type Order struct {
	ID             string
	OrganizationID string
	Purchaser      string
	TotalPrice     float64
	FileCount      int
	CreatedAt      time.Time
	Products       []OrderProduct
}

// OrderProduct is one dataset line item inside an order.
type OrderProduct struct {
	OrderID   string
	Dataset   string
	Vendor    string
	FileCount int
	Price     float64
}

// DB is the subset of *sql.DB the store uses.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const (
	insertOrderQuery = `INSERT INTO orders (id, organization_id, purchaser, total_price, file_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	insertOrderProductQuery = `INSERT INTO order_products (order_id, dataset, vendor, file_count, price)
VALUES ($1, $2, $3, $4, $5)`

	listOrdersQuery = `SELECT id, organization_id, purchaser, total_price, file_count, created_at
FROM orders
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2`
)

type Store struct {
	db  DB
	now func() time.Time
}

func NewStore(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record writes the order and its product lines in one transaction and
// returns the order with its generated id and timestamp filled in.
func (s *Store) Record(ctx context.Context, order Order) (Order, error) {
	order.ID = uuid.NewString()
	order.CreatedAt = s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, insertOrderQuery,
		order.ID, order.OrganizationID, order.Purchaser,
		order.TotalPrice, order.FileCount, order.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Products {
		order.Products[i].OrderID = order.ID
		p := order.Products[i]
		_, err = tx.ExecContext(ctx, insertOrderProductQuery,
			p.OrderID, p.Dataset, p.Vendor, p.FileCount, p.Price)
		if err != nil {
			return Order{}, fmt.Errorf("insert order product %q: %w", p.Dataset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

// RecentOrders returns up to limit orders for the organization, newest first.
// Product lines are not loaded.
func (s *Store) RecentOrders(ctx context.Context, organizationID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listOrdersQuery, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrganizationID, &o.Purchaser, &o.TotalPrice, &o.FileCount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	return orders, nil
}
