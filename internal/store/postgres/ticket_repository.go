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

	"github.com/hidinck/hostflow/internal/maintenance"
)

// TicketRepository implements maintenance.Repository
type TicketRepository struct {
	db *DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `
	t.id, t.lease_id, t.title, t.description, t.priority, t.status, t.created_at, t.updated_at,
	l.tenant_id, tn.full_name, p.owner_id, u.number, p.name`

const ticketJoins = `
	FROM tickets t
	JOIN leases l ON l.id = t.lease_id
	JOIN users tn ON tn.id = l.tenant_id
	JOIN units u ON u.id = l.unit_id
	JOIN properties p ON p.id = u.property_id`

// Create stores a new ticket
func (r *TicketRepository) Create(ctx context.Context, t *maintenance.Ticket) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tickets (id, lease_id, title, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.LeaseID, t.Title, t.Description, t.Priority, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetForLandlord retrieves a ticket scoped to the landlord
func (r *TicketRepository) GetForLandlord(ctx context.Context, id, landlordID string) (*maintenance.Record, error) {
	return r.get(ctx, `WHERE t.id = $1 AND p.owner_id = $2`, id, landlordID)
}

// GetForTenant retrieves a ticket scoped to the filing tenant
func (r *TicketRepository) GetForTenant(ctx context.Context, id, tenantID string) (*maintenance.Record, error) {
	return r.get(ctx, `WHERE t.id = $1 AND l.tenant_id = $2`, id, tenantID)
}

func (r *TicketRepository) get(ctx context.Context, where string, args ...any) (*maintenance.Record, error) {
	rec, err := scanTicket(r.db.pool.QueryRow(ctx, `SELECT`+ticketColumns+ticketJoins+`
	`+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, maintenance.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return rec, nil
}

// UpdateStatus moves a ticket to a new status
func (r *TicketRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tickets SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return maintenance.ErrTicketNotFound
	}
	return nil
}

// CountOpenForLandlord counts the landlord's unresolved tickets
func (r *TicketRepository) CountOpenForLandlord(ctx context.Context, landlordID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*)`+ticketJoins+`
		WHERE p.owner_id = $1 AND t.status <> 'resolved'
	`, landlordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tickets: %w", err)
	}
	return count, nil
}

// ListForLandlord lists tickets across the landlord's properties
func (r *TicketRepository) ListForLandlord(ctx context.Context, landlordID string) ([]*maintenance.Record, error) {
	return r.list(ctx, `WHERE p.owner_id = $1`, landlordID)
}

// ListForTenant lists the tenant's own tickets
func (r *TicketRepository) ListForTenant(ctx context.Context, tenantID string) ([]*maintenance.Record, error) {
	return r.list(ctx, `WHERE l.tenant_id = $1`, tenantID)
}

func (r *TicketRepository) list(ctx context.Context, where string, args ...any) ([]*maintenance.Record, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT`+ticketColumns+ticketJoins+`
	`+where+`
	ORDER BY t.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var records []*maintenance.Record
	for rows.Next() {
		rec, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// AddComment stores a ticket comment
func (r *TicketRepository) AddComment(ctx context.Context, c *maintenance.Comment) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO ticket_comments (id, ticket_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.TicketID, c.AuthorID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments lists a ticket's comments oldest first
func (r *TicketRepository) ListComments(ctx context.Context, ticketID string) ([]*maintenance.Comment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, ticket_id, author_id, body, created_at
		FROM ticket_comments
		WHERE ticket_id = $1
		ORDER BY created_at
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*maintenance.Comment
	for rows.Next() {
		var c maintenance.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

func scanTicket(row pgx.Row) (*maintenance.Record, error) {
	var rec maintenance.Record
	if err := row.Scan(
		&rec.ID, &rec.LeaseID, &rec.Title, &rec.Description, &rec.Priority, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.TenantID, &rec.TenantName, &rec.LandlordID, &rec.UnitNumber, &rec.PropertyName,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
