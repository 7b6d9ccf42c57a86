// Copyright 2026 The HostFlow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/property"
)

// PropertyRepository implements property.Repository
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create stores a new property
func (r *PropertyRepository) Create(ctx context.Context, p *property.Property) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO properties (id, owner_id, name, address, city, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.OwnerID, p.Name, p.Address, p.City, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// GetForOwner retrieves a property scoped to its owner
func (r *PropertyRepository) GetForOwner(ctx context.Context, id, ownerID string) (*property.Property, error) {
	var p property.Property

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, address, city, created_at
		FROM properties
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.City, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, property.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return &p, nil
}

// Update updates a property's descriptive fields
func (r *PropertyRepository) Update(ctx context.Context, p *property.Property) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE properties SET name = $3, address = $4, city = $5
		WHERE id = $1 AND owner_id = $2
	`, p.ID, p.OwnerID, p.Name, p.Address, p.City)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return property.ErrPropertyNotFound
	}
	return nil
}

// Delete removes a property and, via cascades, everything under it
func (r *PropertyRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM properties WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return property.ErrPropertyNotFound
	}
	return nil
}

// ListForOwner lists properties owned by a landlord
func (r *PropertyRepository) ListForOwner(ctx context.Context, ownerID string) ([]*property.Property, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, owner_id, name, address, city, created_at
		FROM properties
		WHERE owner_id = $1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var props []*property.Property
	for rows.Next() {
		var p property.Property
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.City, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, &p)
	}

	return props, rows.Err()
}

// UnitRepository implements property.UnitRepository
type UnitRepository struct {
	db *DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// Create stores a new unit
func (r *UnitRepository) Create(ctx context.Context, u *property.Unit) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO units (id, property_id, number, rent_type, rent_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.PropertyID, u.Number, u.RentType, u.RentAmount.String(), u.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return property.ErrDuplicateUnitNumber
		}
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// GetForOwner retrieves a unit scoped to the owning landlord
func (r *UnitRepository) GetForOwner(ctx context.Context, id, ownerID string) (*property.Unit, error) {
	u, err := scanUnit(r.db.pool.QueryRow(ctx, `
		SELECT u.id, u.property_id, u.number, u.rent_type, u.rent_amount::text, u.status
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE u.id = $1 AND p.owner_id = $2
	`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, property.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return u, nil
}

// Update updates a unit's number and rent terms
func (r *UnitRepository) Update(ctx context.Context, u *property.Unit) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE units SET number = $2, rent_type = $3, rent_amount = $4
		WHERE id = $1
	`, u.ID, u.Number, u.RentType, u.RentAmount.String())
	if err != nil {
		if isUniqueViolation(err) {
			return property.ErrDuplicateUnitNumber
		}
		return fmt.Errorf("failed to update unit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return property.ErrUnitNotFound
	}
	return nil
}

// SetStatus flips a unit between vacant and occupied
func (r *UnitRepository) SetStatus(ctx context.Context, id, status string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE units SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set unit status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return property.ErrUnitNotFound
	}
	return nil
}

// ListForProperty lists the units of a property
func (r *UnitRepository) ListForProperty(ctx context.Context, propertyID string) ([]*property.Unit, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, property_id, number, rent_type, rent_amount::text, status
		FROM units
		WHERE property_id = $1
		ORDER BY number
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*property.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}

	return units, rows.Err()
}

// OccupancyForOwner summarizes unit occupancy across the owner's
// properties
func (r *UnitRepository) OccupancyForOwner(ctx context.Context, ownerID string) (property.Occupancy, error) {
	var o property.Occupancy

	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE u.status = 'occupied'),
			COUNT(*) FILTER (WHERE u.status = 'vacant')
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE p.owner_id = $1
	`, ownerID).Scan(&o.Total, &o.Occupied, &o.Vacant)
	if err != nil {
		return property.Occupancy{}, fmt.Errorf("failed to count occupancy: %w", err)
	}

	return o, nil
}

func scanUnit(row pgx.Row) (*property.Unit, error) {
	var u property.Unit
	var rent string
	if err := row.Scan(&u.ID, &u.PropertyID, &u.Number, &u.RentType, &rent, &u.Status); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(rent)
	if err != nil {
		return nil, fmt.Errorf("invalid rent amount %q: %w", rent, err)
	}
	u.RentAmount = amount
	return &u, nil
}
