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

package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/property"
)

// Service provides lease lifecycle management
type Service struct {
	repo        Repository
	units       property.UnitRepository
	auditLogger audit.Logger
}

// NewService creates a new lease service
func NewService(repo Repository, units property.UnitRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		units:       units,
		auditLogger: auditLogger,
	}
}

// Create signs a lease for a unit and tenant and occupies the unit. At
// most one active lease may exist per (unit, tenant); a leftover
// terminated lease for the pair is cleared first so the pair can be
// re-let later.
func (s *Service) Create(ctx context.Context, landlordID, unitID, tenantID string, startDate, endDate time.Time, documentRef string) (*Lease, error) {
	startDate = clock.Date(startDate)
	endDate = clock.Date(endDate)
	if !endDate.After(startDate) {
		return nil, ErrInvalidPeriod
	}

	unit, err := s.units.GetForOwner(ctx, unitID, landlordID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteTerminated(ctx, unitID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to clear terminated leases: %w", err)
	}

	l := &Lease{
		ID:          newID(),
		UnitID:      unitID,
		TenantID:    tenantID,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      StatusActive,
		DocumentRef: documentRef,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	if err := s.units.SetStatus(ctx, unit.ID, property.UnitOccupied); err != nil {
		return nil, fmt.Errorf("failed to occupy unit: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLeaseCreated,
		ActorID:  landlordID,
		Resource: "lease",
		Metadata: map[string]any{"lease_id": l.ID, "unit_id": unitID, "tenant_id": tenantID},
	})

	return l, nil
}

// Terminate ends an active lease early and vacates the unit. Expiry, by
// contrast, never vacates: the landlord decides when billing history for
// the unit is closed out.
func (s *Service) Terminate(ctx context.Context, landlordID, leaseID string) error {
	l, err := s.repo.GetForLandlord(ctx, leaseID, landlordID)
	if err != nil {
		return err
	}
	if l.Status != StatusActive {
		return ErrLeaseNotActive
	}

	l.Status = StatusTerminated
	if err := s.repo.Update(ctx, l); err != nil {
		return fmt.Errorf("failed to terminate lease: %w", err)
	}

	if err := s.units.SetStatus(ctx, l.UnitID, property.UnitVacant); err != nil {
		return fmt.Errorf("failed to vacate unit: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLeaseTerminated,
		ActorID:  landlordID,
		Resource: "lease",
		Metadata: map[string]any{"lease_id": l.ID, "unit_id": l.UnitID},
	})

	return nil
}

// AdvanceStatuses expires every active lease whose end date is before
// today. Idempotent: a second run with the same date changes nothing.
// Unit status is untouched.
func (s *Service) AdvanceStatuses(ctx context.Context, today time.Time) (int64, error) {
	n, err := s.repo.ExpireActiveBefore(ctx, clock.Date(today))
	if err != nil {
		return 0, fmt.Errorf("failed to expire leases: %w", err)
	}

	if n > 0 {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLeasesExpired,
			Resource: "lease",
			Metadata: map[string]any{"count": n},
		})
	}

	return n, nil
}

// Get retrieves a lease scoped to the landlord
func (s *Service) Get(ctx context.Context, leaseID, landlordID string) (*Lease, error) {
	return s.repo.GetForLandlord(ctx, leaseID, landlordID)
}

// ListForLandlord lists all leases under a landlord's units
func (s *Service) ListForLandlord(ctx context.Context, landlordID string) ([]*Lease, error) {
	return s.repo.ListForLandlord(ctx, landlordID)
}

// ListActiveForTenant lists a tenant's active leases
func (s *Service) ListActiveForTenant(ctx context.Context, tenantID string) ([]*Lease, error) {
	return s.repo.ListActiveForTenant(ctx, tenantID)
}

// CountActive counts active leases under a landlord
func (s *Service) CountActive(ctx context.Context, landlordID string) (int, error) {
	return s.repo.CountActiveForLandlord(ctx, landlordID)
}

// ExpiringSoon lists leases ending within the window starting today
func (s *Service) ExpiringSoon(ctx context.Context, landlordID string, today time.Time, window time.Duration) ([]*Lease, error) {
	today = clock.Date(today)
	return s.repo.ListEndingForLandlord(ctx, landlordID, today, today.Add(window))
}

// EndingOn lists active leases ending exactly on the given day
func (s *Service) EndingOn(ctx context.Context, day time.Time) ([]*Lease, error) {
	return s.repo.ListEndingOn(ctx, clock.Date(day))
}

// PastEnd lists leases whose end date is already behind today
func (s *Service) PastEnd(ctx context.Context, landlordID string, today time.Time) ([]*Lease, error) {
	return s.repo.ListEndedForLandlord(ctx, landlordID, clock.Date(today))
}

// newID returns a UUIDv7 so IDs sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
