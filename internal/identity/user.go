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

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/hidinck/hostflow/internal/authz"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrNotVerified        = errors.New("account email is not verified")
	ErrInvalidCode        = errors.New("verification code is invalid or expired")
	ErrInvalidToken       = errors.New("verification token is invalid or expired")
)

// User represents an account in the system. Role decides which side of
// the application the account sees: landlords manage properties, tenants
// pay rent and file tickets.
type User struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Phone    string     `json:"phone"`
	Role     authz.Role `json:"role"`
	Verified bool       `json:"verified"`
	// ProvisionedBy holds the landlord who created this tenant account.
	// Empty for self-registered landlords.
	ProvisionedBy string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Credentials represents stored password material for a user
type Credentials struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// VerificationCode is a short-lived email ownership proof sent during
// landlord registration.
type VerificationCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	AddCredentials(ctx context.Context, credentials *Credentials) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)
	ListTenantsForLandlord(ctx context.Context, landlordID string) ([]*User, error)
}

// CodeRepository defines the interface for verification code persistence
type CodeRepository interface {
	// Upsert replaces any previous code for the email.
	Upsert(ctx context.Context, code *VerificationCode) error
	Get(ctx context.Context, email string) (*VerificationCode, error)
	Delete(ctx context.Context, email string) error
}
