package repository

import (
	"context"
	"database/sql"
	"time"

	"campusDelivery/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Page is a keyset page request over (created_at DESC, id DESC).
// A zero AfterCreatedAt starts from the newest order.
type Page struct {
	Size           int
	AfterCreatedAt time.Time
	AfterID        string
}

// Limit returns the effective page size.
func (p Page) Limit() int {
	switch {
	case p.Size <= 0:
		return DefaultPageSize
	case p.Size > MaxPageSize:
		return MaxPageSize
	}
	return p.Size
}

// ListByCustomer returns a page of the customer's orders, newest first,
// optionally restricted to one status.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, status *models.OrderStatus, page Page) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = ?`
	args := []any{customerID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	if !page.AfterCreatedAt.IsZero() && page.AfterID != "" {
		after := page.AfterCreatedAt.UTC()
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, after, after, page.AfterID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, page.Limit())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListAvailable returns pending orders not placed by excludeCustomerID, oldest first.
func (r *OrderRepository) ListAvailable(ctx context.Context, excludeCustomerID string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
WHERE status = ? AND customer_id <> ?
ORDER BY created_at ASC, id ASC`, string(models.OrderStatusPending), excludeCustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListDelivering returns the deliverer's in-flight orders, earliest accepted first.
func (r *OrderRepository) ListDelivering(ctx context.Context, delivererID string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
WHERE deliverer_id = ? AND status IN (?, ?)
ORDER BY accepted_at ASC, id ASC`,
		delivererID, string(models.OrderStatusAccepted), string(models.OrderStatusPickedUp))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

func scanOrderRows(rows *sql.Rows) ([]models.Order, error) {
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
