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

	"github.com/hidinck/hostflow/internal/identity"
)

// CodeRepository implements identity.CodeRepository
type CodeRepository struct {
	db *DB
}

// NewCodeRepository creates a new verification code repository
func NewCodeRepository(db *DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// Upsert stores a verification code, replacing any previous one for the
// email
func (r *CodeRepository) Upsert(ctx context.Context, code *identity.VerificationCode) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO verification_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = $2, expires_at = $3
	`, code.Email, code.Code, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert verification code: %w", err)
	}
	return nil
}

// Get retrieves the verification code for an email
func (r *CodeRepository) Get(ctx context.Context, email string) (*identity.VerificationCode, error) {
	var code identity.VerificationCode

	err := r.db.pool.QueryRow(ctx, `
		SELECT email, code, expires_at
		FROM verification_codes
		WHERE email = $1
	`, email).Scan(&code.Email, &code.Code, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return &code, nil
}

// Delete removes the verification code for an email
func (r *CodeRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM verification_codes WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}
