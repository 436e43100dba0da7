package models

import "time"

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusPickedUp,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    *string `json:"notes,omitempty"`
}

// Order is a delivery request placed by a customer and fulfilled by a deliverer.
// DelivererID stays nil until the order is accepted; DeliveryPoints never changes
// after creation.
type Order struct {
	ID                  string      `db:"id" json:"id"`
	CustomerID          string      `db:"customer_id" json:"customer_id"`
	DelivererID         *string     `db:"deliverer_id" json:"deliverer_id"`
	EstablishmentID     string      `db:"establishment_id" json:"establishment_id"`
	Items               []OrderItem `db:"items" json:"items"`
	DeliveryLocation    Location    `json:"delivery_location"`
	SpecialInstructions *string     `db:"special_instructions" json:"special_instructions"`
	DeliveryPoints      int64       `db:"delivery_points" json:"delivery_points"`
	Status              OrderStatus `db:"status" json:"status"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	AcceptedAt          *time.Time  `db:"accepted_at" json:"accepted_at"`
	CompletedAt         *time.Time  `db:"completed_at" json:"completed_at"`
	CancelledAt         *time.Time  `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CompletionImageURL  *string     `db:"completion_image_url" json:"completion_image_url"`
}

// IsParticipant reports whether userID is the customer or the deliverer.
func (o *Order) IsParticipant(userID string) bool {
	return o.CustomerID == userID || (o.DelivererID != nil && *o.DelivererID == userID)
}
