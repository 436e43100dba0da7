package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campusDelivery/internal/db"
	"campusDelivery/models"

	"github.com/google/uuid"
)

const orderColumns = `id, customer_id, deliverer_id, establishment_id, items, delivery_latitude, delivery_longitude,
delivery_address, special_instructions, delivery_points, status, created_at, accepted_at, completed_at,
cancelled_at, completion_image_url`

// OrderRepository is the core repository for Order entities.
// Status changes are conditional writes so concurrent callers cannot both win.
type OrderRepository struct {
	db     *db.DB
	ledger PointsLedger
}

// NewOrderRepository creates a new OrderRepository. Point holds and transfers
// go through ledger inside the same transaction as the order write.
func NewOrderRepository(d *db.DB, ledger PointsLedger) *OrderRepository {
	return &OrderRepository{db: d, ledger: ledger}
}

// CreateWithHold reserves the order's delivery points on the customer and
// inserts the order as pending, atomically.
// Returns ErrInsufficientPoints when the available balance is too low.
func (r *OrderRepository) CreateWithHold(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.CreatedAt = o.CreatedAt.UTC().Truncate(time.Microsecond)
	o.Status = models.OrderStatusPending
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err = r.db.WithTx(ctx, func(tx *db.Tx) error {
		if err := r.ledger.HoldPoints(ctx, tx, o.CustomerID, o.DeliveryPoints); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO orders (id, customer_id, establishment_id, items, delivery_latitude,
delivery_longitude, delivery_address, special_instructions, delivery_points, status, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			o.ID, o.CustomerID, o.EstablishmentID, string(items), o.DeliveryLocation.Latitude,
			o.DeliveryLocation.Longitude, o.DeliveryLocation.Address, o.SpecialInstructions,
			o.DeliveryPoints, string(o.Status), o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, o.ID)
}

// GetByID fetches an order by its ID. Returns nil, nil when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// Accept assigns delivererID to a pending order the deliverer did not place.
func (r *OrderRepository) Accept(ctx context.Context, id, delivererID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, deliverer_id = ?, accepted_at = ?
WHERE id = ? AND status = ? AND customer_id <> ?`,
		string(models.OrderStatusAccepted), delivererID, at.UTC().Truncate(time.Microsecond),
		id, string(models.OrderStatusPending), delivererID)
	if err != nil {
		return fmt.Errorf("accept order: %w", err)
	}
	if affected(res) != 1 {
		return ErrNotApplied
	}
	return nil
}

// Advance moves an order owned by delivererID from one of the given states to
// the target state. imageURL is stored only when non-nil.
func (r *OrderRepository) Advance(ctx context.Context, id, delivererID string, from []models.OrderStatus, to models.OrderStatus, imageURL *string) error {
	if len(from) == 0 {
		return errors.New("advance: no source states")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `UPDATE orders SET status = ?, completion_image_url = COALESCE(?, completion_image_url)
WHERE id = ? AND deliverer_id = ? AND status IN (` + placeholders(len(from)) + `)`
	args := []any{string(to), imageURL, id, delivererID}
	for _, s := range from {
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("advance order: %w", err)
	}
	if affected(res) != 1 {
		return ErrNotApplied
	}
	return nil
}

// Settle completes a delivered order for its customer and moves the held
// delivery points to the deliverer. The status change and both balance
// updates commit together or not at all.
func (r *OrderRepository) Settle(ctx context.Context, id, customerID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.db.WithTx(ctx, func(tx *db.Tx) error {
		var deliverer sql.NullString
		var points int64
		err := tx.QueryRowContext(ctx, `UPDATE orders SET status = ?, completed_at = ?
WHERE id = ? AND customer_id = ? AND status = ?
RETURNING deliverer_id, delivery_points`,
			string(models.OrderStatusCompleted), at.UTC().Truncate(time.Microsecond),
			id, customerID, string(models.OrderStatusDelivered)).Scan(&deliverer, &points)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotApplied
			}
			return fmt.Errorf("complete order: %w", err)
		}
		if !deliverer.Valid || deliverer.String == "" {
			return fmt.Errorf("order %s delivered without a deliverer", id)
		}
		if err := r.ledger.DebitHeld(ctx, tx, customerID, points); err != nil {
			return err
		}
		return r.ledger.CreditPoints(ctx, tx, deliverer.String, points)
	})
}

// CancelWithRelease cancels a pending order for its customer and releases the
// points held at creation.
func (r *OrderRepository) CancelWithRelease(ctx context.Context, id, customerID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.db.WithTx(ctx, func(tx *db.Tx) error {
		var points int64
		err := tx.QueryRowContext(ctx, `UPDATE orders SET status = ?, cancelled_at = ?
WHERE id = ? AND customer_id = ? AND status = ?
RETURNING delivery_points`,
			string(models.OrderStatusCancelled), at.UTC().Truncate(time.Microsecond),
			id, customerID, string(models.OrderStatusPending)).Scan(&points)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotApplied
			}
			return fmt.Errorf("cancel order: %w", err)
		}
		return r.ledger.ReleasePoints(ctx, tx, customerID, points)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status, items string
	var deliverer, instructions, image sql.NullString
	var acceptedAt, completedAt, cancelledAt sql.NullTime
	err := row.Scan(&o.ID, &o.CustomerID, &deliverer, &o.EstablishmentID, &items,
		&o.DeliveryLocation.Latitude, &o.DeliveryLocation.Longitude, &o.DeliveryLocation.Address,
		&instructions, &o.DeliveryPoints, &status, &o.CreatedAt, &acceptedAt, &completedAt,
		&cancelledAt, &image)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.DelivererID = nullString(deliverer)
	o.SpecialInstructions = nullString(instructions)
	o.CompletionImageURL = nullString(image)
	o.AcceptedAt = nullTime(acceptedAt)
	o.CompletedAt = nullTime(completedAt)
	o.CancelledAt = nullTime(cancelledAt)
	if o.Items, err = decodeItems(items); err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	return &o, nil
}

// decodeItems rejects stored item lists whose shape no longer matches OrderItem.
func decodeItems(raw string) ([]models.OrderItem, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var items []models.OrderItem
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}

func placeholders(n int) string {
	b := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
