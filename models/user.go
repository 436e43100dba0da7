package models

import "time"

// User represents a student account in the system.
// It maps to the `users` table. Points are only changed by the order engine.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Points         int64     `db:"points" json:"points"`
	ReservedPoints int64     `db:"reserved_points" json:"reserved_points"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AvailablePoints is the balance not held by open orders.
func (u *User) AvailablePoints() int64 {
	return u.Points - u.ReservedPoints
}
