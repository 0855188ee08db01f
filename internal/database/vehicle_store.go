package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/johnrirwin/autolot/internal/models"
)

// VehicleStore reads and seeds the catalog table
type VehicleStore struct {
	db *DB
}

// NewVehicleStore creates a new vehicle store
func NewVehicleStore(db *DB) *VehicleStore {
	return &VehicleStore{db: db}
}

// LoadAll returns every vehicle in catalog order
func (s *VehicleStore) LoadAll(ctx context.Context) ([]models.Vehicle, error) {
	query := `
		SELECT id, name, brand, price, year, fuel_type, transmission, engine, horsepower,
			   mileage, exterior_color, interior_color, body_type, description, features,
			   in_stock, image, gallery
		FROM vehicles
		ORDER BY position, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		var features, gallery pq.StringArray

		if err := rows.Scan(
			&v.ID, &v.Name, &v.Brand, &v.Price, &v.Year, &v.FuelType, &v.Transmission,
			&v.Engine, &v.Horsepower, &v.Mileage, &v.ExteriorColor, &v.InteriorColor,
			&v.BodyType, &v.Description, &features, &v.InStock, &v.Image, &gallery,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}

		v.Features = []string(features)
		v.Gallery = []string(gallery)
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// Count returns the number of stored vehicles
func (s *VehicleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return n, nil
}

// Seed upserts vehicles in one transaction, keeping their slice order as catalog order
func (s *VehicleStore) Seed(ctx context.Context, vehicles []models.Vehicle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO vehicles (
			id, position, name, brand, price, year, fuel_type, transmission, engine,
			horsepower, mileage, exterior_color, interior_color, body_type, description,
			features, in_stock, image, gallery
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			price = EXCLUDED.price,
			year = EXCLUDED.year,
			fuel_type = EXCLUDED.fuel_type,
			transmission = EXCLUDED.transmission,
			engine = EXCLUDED.engine,
			horsepower = EXCLUDED.horsepower,
			mileage = EXCLUDED.mileage,
			exterior_color = EXCLUDED.exterior_color,
			interior_color = EXCLUDED.interior_color,
			body_type = EXCLUDED.body_type,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			in_stock = EXCLUDED.in_stock,
			image = EXCLUDED.image,
			gallery = EXCLUDED.gallery,
			updated_at = NOW()
	`

	for i, v := range vehicles {
		_, err := tx.ExecContext(ctx, query,
			v.ID, i, v.Name, v.Brand, v.Price, v.Year, string(v.FuelType), v.Transmission, v.Engine,
			v.Horsepower, v.Mileage, v.ExteriorColor, v.InteriorColor, v.BodyType, v.Description,
			pq.Array(nonNil(v.Features)), v.InStock, v.Image, pq.Array(nonNil(v.Gallery)),
		)
		if err != nil {
			return fmt.Errorf("failed to seed vehicle %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

// SetInStock records an admin stock change. Returns false when the id is unknown.
func (s *VehicleStore) SetInStock(ctx context.Context, id string, inStock bool) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE vehicles SET in_stock = $2, updated_at = NOW() WHERE id = $1`,
		id, inStock,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}
	return n > 0, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
