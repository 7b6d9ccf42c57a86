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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hidinck/hostflow/internal/lease"
)

// LeaseRepository implements lease.Repository
type LeaseRepository struct {
	db *DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// Create stores a new lease. The partial unique index on active leases
// enforces at most one per unit and tenant.
func (r *LeaseRepository) Create(ctx context.Context, l *lease.Lease) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO leases (id, unit_id, tenant_id, start_date, end_date, status, document_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, l.ID, l.UnitID, l.TenantID, l.StartDate, l.EndDate, l.Status, l.DocumentRef, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return lease.ErrActiveLeaseExists
		}
		return fmt.Errorf("failed to insert lease: %w", err)
	}
	return nil
}

// GetForLandlord retrieves a lease scoped to the landlord owning its unit
func (r *LeaseRepository) GetForLandlord(ctx context.Context, id, landlordID string) (*lease.Lease, error) {
	var l lease.Lease

	err := r.db.pool.QueryRow(ctx, `
		SELECT l.id, l.unit_id, l.tenant_id, l.start_date, l.end_date, l.status, l.document_ref, l.created_at
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		JOIN properties p ON p.id = u.property_id
		WHERE l.id = $1 AND p.owner_id = $2
	`, id, landlordID).Scan(
		&l.ID, &l.UnitID, &l.TenantID, &l.StartDate, &l.EndDate, &l.Status, &l.DocumentRef, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lease.ErrLeaseNotFound
		}
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}

	return &l, nil
}

// Update persists lease status changes
func (r *LeaseRepository) Update(ctx context.Context, l *lease.Lease) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE leases SET start_date = $2, end_date = $3, status = $4, document_ref = $5
		WHERE id = $1
	`, l.ID, l.StartDate, l.EndDate, l.Status, l.DocumentRef)
	if err != nil {
		return fmt.Errorf("failed to update lease: %w", err)
	}
	if result.RowsAffected() == 0 {
		return lease.ErrLeaseNotFound
	}
	return nil
}

// DeleteTerminated removes terminated leases for a unit and tenant pair
func (r *LeaseRepository) DeleteTerminated(ctx context.Context, unitID, tenantID string) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM leases
		WHERE unit_id = $1 AND tenant_id = $2 AND status = 'terminated'
	`, unitID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete terminated leases: %w", err)
	}
	return nil
}

// ExpireActiveBefore flips active leases with an end date before the
// cutoff to expired. One statement, so concurrent runs never double
// count.
func (r *LeaseRepository) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE leases SET status = 'expired'
		WHERE status = 'active' AND end_date < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire leases: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListForLandlord lists leases under the landlord's units
func (r *LeaseRepository) ListForLandlord(ctx context.Context, landlordID string) ([]*lease.Lease, error) {
	return r.list(ctx, `
		SELECT l.id, l.unit_id, l.tenant_id, l.start_date, l.end_date, l.status, l.document_ref, l.created_at
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		JOIN properties p ON p.id = u.property_id
		WHERE p.owner_id = $1
		ORDER BY l.created_at DESC
	`, landlordID)
}

// ListActiveForTenant lists a tenant's active leases
func (r *LeaseRepository) ListActiveForTenant(ctx context.Context, tenantID string) ([]*lease.Lease, error) {
	return r.list(ctx, `
		SELECT id, unit_id, tenant_id, start_date, end_date, status, document_ref, created_at
		FROM leases
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY created_at DESC
	`, tenantID)
}

// CountActiveForLandlord counts active leases under the landlord's units
func (r *LeaseRepository) CountActiveForLandlord(ctx context.Context, landlordID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		JOIN properties p ON p.id = u.property_id
		WHERE p.owner_id = $1 AND l.status = 'active'
	`, landlordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active leases: %w", err)
	}
	return count, nil
}

// ListEndingForLandlord lists leases ending within [from, to]
func (r *LeaseRepository) ListEndingForLandlord(ctx context.Context, landlordID string, from, to time.Time) ([]*lease.Lease, error) {
	return r.list(ctx, `
		SELECT l.id, l.unit_id, l.tenant_id, l.start_date, l.end_date, l.status, l.document_ref, l.created_at
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		JOIN properties p ON p.id = u.property_id
		WHERE p.owner_id = $1 AND l.end_date >= $2 AND l.end_date <= $3
		ORDER BY l.end_date
	`, landlordID, from, to)
}

// ListEndedForLandlord lists leases whose end date passed before the
// cutoff
func (r *LeaseRepository) ListEndedForLandlord(ctx context.Context, landlordID string, cutoff time.Time) ([]*lease.Lease, error) {
	return r.list(ctx, `
		SELECT l.id, l.unit_id, l.tenant_id, l.start_date, l.end_date, l.status, l.document_ref, l.created_at
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		JOIN properties p ON p.id = u.property_id
		WHERE p.owner_id = $1 AND l.end_date < $2
		ORDER BY l.end_date DESC
	`, landlordID, cutoff)
}

// ListEndingOn lists active leases ending exactly on the given day
func (r *LeaseRepository) ListEndingOn(ctx context.Context, day time.Time) ([]*lease.Lease, error) {
	return r.list(ctx, `
		SELECT id, unit_id, tenant_id, start_date, end_date, status, document_ref, created_at
		FROM leases
		WHERE status = 'active' AND end_date = $1
		ORDER BY created_at
	`, day)
}

func (r *LeaseRepository) list(ctx context.Context, query string, args ...any) ([]*lease.Lease, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	defer rows.Close()

	var leases []*lease.Lease
	for rows.Next() {
		var l lease.Lease
		if err := rows.Scan(
			&l.ID, &l.UnitID, &l.TenantID, &l.StartDate, &l.EndDate, &l.Status, &l.DocumentRef, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		leases = append(leases, &l)
	}

	return leases, rows.Err()
}
