package models

// Location is a geographic point with a human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// MenuItem is a static menu entry of an establishment.
type MenuItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// Establishment is read-only reference data for orders.
// Distance is only populated when the caller supplied coordinates.
type Establishment struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Category  string     `db:"category" json:"category"`
	Location  Location   `json:"location"`
	ImageURL  *string    `db:"image_url" json:"image_url,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	MenuItems []MenuItem `db:"menu_items" json:"-"`
	Distance  *float64   `json:"distance,omitempty"`
}
