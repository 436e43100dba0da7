package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusDelivery/internal/db"
	"campusDelivery/models"
)

const establishmentColumns = `id, name, category, latitude, longitude, address, image_url, is_active, menu_items`

type EstablishmentRepository struct {
	db *db.DB
}

func NewEstablishmentRepository(d *db.DB) *EstablishmentRepository {
	return &EstablishmentRepository{db: d}
}

// Seed inserts establishments whose ID is not yet present and returns how many
// rows were added. Existing rows are left untouched.
func (r *EstablishmentRepository) Seed(ctx context.Context, list []models.Establishment) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *db.Tx) error {
		for _, e := range list {
			menu, err := json.Marshal(e.MenuItems)
			if err != nil {
				return fmt.Errorf("encode menu for %s: %w", e.Name, err)
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO establishments (`+establishmentColumns+`)
VALUES (?,?,?,?,?,?,?,?,?) ON CONFLICT (id) DO NOTHING`,
				e.ID, e.Name, e.Category, e.Location.Latitude, e.Location.Longitude,
				e.Location.Address, e.ImageURL, e.IsActive, string(menu))
			if err != nil {
				return fmt.Errorf("seed %s: %w", e.Name, err)
			}
			if affected(res) > 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetByID returns nil, nil when the establishment does not exist.
func (r *EstablishmentRepository) GetByID(ctx context.Context, id string) (*models.Establishment, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	e, err := scanEstablishment(r.db.QueryRowContext(ctx, `SELECT `+establishmentColumns+` FROM establishments WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// ListActive returns active establishments ordered by name.
func (r *EstablishmentRepository) ListActive(ctx context.Context) ([]models.Establishment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+establishmentColumns+` FROM establishments
WHERE is_active = TRUE ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEstablishmentRows(rows)
}

// SearchActive returns active establishments whose name or category contains
// query, ignoring case. LIKE wildcards in query match literally.
func (r *EstablishmentRepository) SearchActive(ctx context.Context, query string) ([]models.Establishment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := r.db.QueryContext(ctx, `SELECT `+establishmentColumns+` FROM establishments
WHERE is_active = TRUE
  AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')
ORDER BY name ASC, id ASC`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEstablishmentRows(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanEstablishment(row rowScanner) (*models.Establishment, error) {
	var e models.Establishment
	var image sql.NullString
	var menu string
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Location.Latitude, &e.Location.Longitude,
		&e.Location.Address, &image, &e.IsActive, &menu); err != nil {
		return nil, err
	}
	e.ImageURL = nullString(image)
	dec := json.NewDecoder(bytes.NewReader([]byte(menu)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e.MenuItems); err != nil {
		return nil, fmt.Errorf("establishment %s: decode menu: %w", e.ID, err)
	}
	return &e, nil
}

func scanEstablishmentRows(rows *sql.Rows) ([]models.Establishment, error) {
	var out []models.Establishment
	for rows.Next() {
		e, err := scanEstablishment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
