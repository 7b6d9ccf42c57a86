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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hidinck/hostflow/internal/authz"
	"github.com/hidinck/hostflow/internal/identity"
)

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UserRepository implements identity.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	var provisionedBy sql.NullString
	if user.ProvisionedBy != "" {
		provisionedBy = sql.NullString{String: user.ProvisionedBy, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, phone, role, verified, provisioned_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID, user.Email, user.FullName, user.Phone, string(user.Role),
		user.Verified, provisionedBy, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// AddCredentials adds credentials for a user
func (r *UserRepository) AddCredentials(ctx context.Context, credentials *identity.Credentials) error {
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO credentials (user_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET password_hash = $2, updated_at = $3
	`, credentials.UserID, credentials.PasswordHash, now)
	if err != nil {
		return fmt.Errorf("failed to insert credentials: %w", err)
	}

	credentials.UpdatedAt = now

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*identity.User, error) {
	var user identity.User
	var role string
	var provisionedBy sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, email, full_name, phone, role, verified, provisioned_by, created_at, updated_at
		FROM users `+where,
		arg,
	).Scan(
		&user.ID, &user.Email, &user.FullName, &user.Phone, &role,
		&user.Verified, &provisionedBy, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = authz.Role(role)
	user.ProvisionedBy = provisionedBy.String

	return &user, nil
}

// GetCredentials retrieves user credentials
func (r *UserRepository) GetCredentials(ctx context.Context, userID string) (*identity.Credentials, error) {
	var creds identity.Credentials

	err := r.db.pool.QueryRow(ctx, `
		SELECT user_id, password_hash, updated_at
		FROM credentials
		WHERE user_id = $1
	`, userID).Scan(&creds.UserID, &creds.PasswordHash, &creds.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	return &creds, nil
}

// ListTenantsForLandlord lists tenants the landlord provisioned or that
// hold a lease in one of the landlord's units.
func (r *UserRepository) ListTenantsForLandlord(ctx context.Context, landlordID string) ([]*identity.User, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT u.id, u.email, u.full_name, u.phone, u.role, u.verified, u.provisioned_by, u.created_at, u.updated_at
		FROM users u
		LEFT JOIN leases l ON l.tenant_id = u.id
		LEFT JOIN units un ON un.id = l.unit_id
		LEFT JOIN properties p ON p.id = un.property_id
		WHERE u.role = 'tenant' AND (u.provisioned_by = $1 OR p.owner_id = $1)
		ORDER BY u.full_name
	`, landlordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		var user identity.User
		var role string
		var provisionedBy sql.NullString
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &user.Phone, &role,
			&user.Verified, &provisionedBy, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		user.Role = authz.Role(role)
		user.ProvisionedBy = provisionedBy.String
		users = append(users, &user)
	}

	return users, rows.Err()
}
