package repository

import (
	"context"
	"errors"
	"time"

	"campusDelivery/internal/db"
	"campusDelivery/models"
)

var (
	// ErrNotApplied is returned when a conditional write matched no row.
	ErrNotApplied = errors.New("conditional update not applied")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientPoints is returned when a hold exceeds the available balance.
	ErrInsufficientPoints = errors.New("insufficient available points")
	// ErrUserNotFound is returned by point operations on a missing user.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// PointsLedger holds the balance primitives. They run on the caller's
// transaction and are used only by the order repository.
type PointsLedger interface {
	HoldPoints(ctx context.Context, q db.Querier, userID string, n int64) error
	ReleasePoints(ctx context.Context, q db.Querier, userID string, n int64) error
	DebitHeld(ctx context.Context, q db.Querier, userID string, n int64) error
	CreditPoints(ctx context.Context, q db.Querier, userID string, n int64) error
}

// EstablishmentRepositoryI defines operations on Establishment entities.
type EstablishmentRepositoryI interface {
	Seed(ctx context.Context, list []models.Establishment) (int, error)
	GetByID(ctx context.Context, id string) (*models.Establishment, error)
	ListActive(ctx context.Context) ([]models.Establishment, error)
	SearchActive(ctx context.Context, query string) ([]models.Establishment, error)
}

// OrderRepositoryI defines operations on Order entities.
// Every state change is a conditional write; ErrNotApplied means the guard
// did not match and the caller must re-read to find out why.
type OrderRepositoryI interface {
	CreateWithHold(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Accept(ctx context.Context, id, delivererID string, at time.Time) error
	Advance(ctx context.Context, id, delivererID string, from []models.OrderStatus, to models.OrderStatus, imageURL *string) error
	Settle(ctx context.Context, id, customerID string, at time.Time) error
	CancelWithRelease(ctx context.Context, id, customerID string, at time.Time) error
	ListByCustomer(ctx context.Context, customerID string, status *models.OrderStatus, page Page) ([]models.Order, error)
	ListAvailable(ctx context.Context, excludeCustomerID string) ([]models.Order, error)
	ListDelivering(ctx context.Context, delivererID string) ([]models.Order, error)
}
