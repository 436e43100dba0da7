package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusDelivery/internal/db"
	"campusDelivery/models"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, points, reserved_points, created_at`

type UserRepository struct {
	db *db.DB
}

func NewUserRepository(d *db.DB) *UserRepository {
	return &UserRepository{db: d}
}

// Create inserts a new user. ID and CreatedAt are assigned when empty.
// Returns ErrDuplicate when the email or username is already taken.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Points, u.ReservedPoints, u.CreatedAt.UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return r.GetByID(ctx, u.ID)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// getBy returns nil, nil when no user matches.
func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Points, &u.ReservedPoints, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// HoldPoints reserves n points if the available balance covers them.
func (r *UserRepository) HoldPoints(ctx context.Context, q db.Querier, userID string, n int64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET reserved_points = reserved_points + ? WHERE id = ? AND points - reserved_points >= ?`,
		n, userID, n)
	if err != nil {
		return fmt.Errorf("hold points: %w", err)
	}
	if affected(res) == 1 {
		return nil
	}
	if err := r.exists(ctx, q, userID); err != nil {
		return err
	}
	return ErrInsufficientPoints
}

// ReleasePoints returns n held points to the available balance.
func (r *UserRepository) ReleasePoints(ctx context.Context, q db.Querier, userID string, n int64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET reserved_points = reserved_points - ? WHERE id = ? AND reserved_points >= ?`,
		n, userID, n)
	if err != nil {
		return fmt.Errorf("release points: %w", err)
	}
	if affected(res) != 1 {
		return fmt.Errorf("release %d points for %s: %w", n, userID, ErrNotApplied)
	}
	return nil
}

// DebitHeld consumes n held points: both the balance and the hold shrink by n.
func (r *UserRepository) DebitHeld(ctx context.Context, q db.Querier, userID string, n int64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET points = points - ?, reserved_points = reserved_points - ? WHERE id = ? AND reserved_points >= ?`,
		n, n, userID, n)
	if err != nil {
		return fmt.Errorf("debit points: %w", err)
	}
	if affected(res) != 1 {
		return fmt.Errorf("debit %d points from %s: %w", n, userID, ErrNotApplied)
	}
	return nil
}

// CreditPoints adds n points to the user's balance.
func (r *UserRepository) CreditPoints(ctx context.Context, q db.Querier, userID string, n int64) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET points = points + ? WHERE id = ?`, n, userID)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	if affected(res) != 1 {
		return fmt.Errorf("credit %d points to %s: %w", n, userID, ErrUserNotFound)
	}
	return nil
}

func (r *UserRepository) exists(ctx context.Context, q db.Querier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

// affected returns the number of rows changed, or -1 when the driver cannot tell.
func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}
