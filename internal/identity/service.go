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
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/authz"
)

const verificationPurpose = "email_verification"

// Sender delivers a single email. Implementations are expected to be
// best-effort; the service treats delivery failure of the verification
// code as a user-visible error, everything else as advisory.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service provides authentication and account provisioning
type Service struct {
	repo        UserRepository
	codes       CodeRepository
	hasher      *PasswordHasher
	sender      Sender
	auditLogger audit.Logger
	signingKey  []byte
	codeTTL     time.Duration
	tokenTTL    time.Duration
}

// NewService creates a new identity service
func NewService(
	repo UserRepository,
	codes CodeRepository,
	hasher *PasswordHasher,
	sender Sender,
	auditLogger audit.Logger,
	signingKey []byte,
	codeTTL, tokenTTL time.Duration,
) *Service {
	return &Service{
		repo:        repo,
		codes:       codes,
		hasher:      hasher,
		sender:      sender,
		auditLogger: auditLogger,
		signingKey:  signingKey,
		codeTTL:     codeTTL,
		tokenTTL:    tokenTTL,
	}
}

// Authenticate verifies credentials and returns the matching user.
// Every failure collapses to ErrInvalidCredentials so callers cannot
// distinguish unknown accounts from wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	creds, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, creds.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrNotVerified
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTenantsForLandlord lists tenant accounts the landlord provisioned
// or that hold a lease in any of the landlord's units.
func (s *Service) ListTenantsForLandlord(ctx context.Context, landlordID string) ([]*User, error) {
	return s.repo.ListTenantsForLandlord(ctx, landlordID)
}

// SendVerificationCode generates a 6-digit code, stores it with a TTL and
// emails it to the address being claimed.
func (s *Service) SendVerificationCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}

	code, err := randomCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.codes.Upsert(ctx, &VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL),
	}); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	body := fmt.Sprintf("Your HostFlow verification code is %s. It expires in %d minutes.",
		code, int(s.codeTTL.Minutes()))
	if err := s.sender.Send(ctx, email, "HostFlow verification code", body); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	return nil
}

// verificationClaims proves an email address was verified recently.
type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// VerifyCode checks a submitted code and, on success, issues a short-lived
// signed token the registration endpoint accepts as proof.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)

	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		return "", ErrInvalidCode
	}
	if stored.Code != code || time.Now().After(stored.ExpiresAt) {
		return "", ErrInvalidCode
	}

	// Single use
	_ = s.codes.Delete(ctx, email)

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, verificationClaims{
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}

	return signed, nil
}

// parseVerificationToken validates a token issued by VerifyCode and
// returns the verified email.
func (s *Service) parseVerificationToken(tokenString string) (string, error) {
	var claims verificationClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid || claims.Purpose != verificationPurpose {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RegisterLandlord creates a landlord account. The caller must present a
// verification token for the same email address.
func (s *Service) RegisterLandlord(ctx context.Context, verificationToken, email, password, fullName, phone string) (*User, error) {
	email = normalizeEmail(email)

	verifiedEmail, err := s.parseVerificationToken(verificationToken)
	if err != nil {
		return nil, err
	}
	if verifiedEmail != email {
		return nil, ErrInvalidToken
	}

	return s.createUser(ctx, email, password, fullName, phone, authz.RoleLandlord, email, "")
}

// ProvisionTenant creates a verified tenant account on behalf of a
// landlord, who hands the credentials to the renter.
func (s *Service) ProvisionTenant(ctx context.Context, landlordID, email, password, fullName, phone string) (*User, error) {
	user, err := s.createUser(ctx, normalizeEmail(email), password, fullName, phone, authz.RoleTenant, landlordID, landlordID)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantProvisioned,
		ActorID:  landlordID,
		Resource: "user",
		Metadata: map[string]any{"email": user.Email, "user_id": user.ID},
	})

	return user, nil
}

func (s *Service) createUser(ctx context.Context, email, password, fullName, phone string, role authz.Role, actorID, provisionedBy string) (*User, error) {
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now()
	user := &User{
		ID:            newID(),
		Email:         email,
		FullName:      fullName,
		Phone:         phone,
		Role:          role,
		Verified:      true,
		ProvisionedBy: provisionedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.AddCredentials(ctx, &Credentials{UserID: user.ID, PasswordHash: hash}); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  actorID,
		Resource: "user",
		Metadata: map[string]any{"email": user.Email, "role": string(role)},
	})

	return user, nil
}

// newID returns a UUIDv7 so IDs sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// randomCode returns a uniformly random 6-digit code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
