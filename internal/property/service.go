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

package property

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/audit"
)

// Service provides property and unit management
type Service struct {
	repo        Repository
	units       UnitRepository
	auditLogger audit.Logger
}

// NewService creates a new property service
func NewService(repo Repository, units UnitRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		units:       units,
		auditLogger: auditLogger,
	}
}

// CreateProperty registers a new property for a landlord
func (s *Service) CreateProperty(ctx context.Context, ownerID, name, address, city string) (*Property, error) {
	if name == "" {
		return nil, fmt.Errorf("property name is required")
	}

	p := &Property{
		ID:        newID(),
		OwnerID:   ownerID,
		Name:      name,
		Address:   address,
		City:      city,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePropertyCreated,
		ActorID:  ownerID,
		Resource: "property",
		Metadata: map[string]any{"property_id": p.ID, "name": p.Name},
	})

	return p, nil
}

// GetProperty retrieves a property scoped to its owner
func (s *Service) GetProperty(ctx context.Context, id, ownerID string) (*Property, error) {
	return s.repo.GetForOwner(ctx, id, ownerID)
}

// UpdateProperty updates a property's descriptive fields
func (s *Service) UpdateProperty(ctx context.Context, id, ownerID, name, address, city string) (*Property, error) {
	p, err := s.repo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.Address = address
	p.City = city

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	return p, nil
}

// DeleteProperty removes a property and everything under it
func (s *Service) DeleteProperty(ctx context.Context, id, ownerID string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePropertyDeleted,
		ActorID:  ownerID,
		Resource: "property",
		Metadata: map[string]any{"property_id": id},
	})

	return nil
}

// ListProperties lists all properties owned by a landlord
func (s *Service) ListProperties(ctx context.Context, ownerID string) ([]*Property, error) {
	return s.repo.ListForOwner(ctx, ownerID)
}

// AddUnit adds a rentable unit to a property. The unit number must be
// unique within the property; the same number in a different property is
// fine.
func (s *Service) AddUnit(ctx context.Context, ownerID, propertyID, number, rentType string, rentAmount decimal.Decimal) (*Unit, error) {
	if rentAmount.IsNegative() {
		return nil, ErrInvalidRent
	}
	if rentType != RentMonthly && rentType != RentDaily {
		return nil, ErrInvalidRentType
	}
	if number == "" {
		return nil, fmt.Errorf("unit number is required")
	}

	// Ownership check before touching the unit table
	if _, err := s.repo.GetForOwner(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}

	u := &Unit{
		ID:         newID(),
		PropertyID: propertyID,
		Number:     number,
		RentType:   rentType,
		RentAmount: rentAmount,
		Status:     UnitVacant,
	}

	if err := s.units.Create(ctx, u); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUnitCreated,
		ActorID:  ownerID,
		Resource: "unit",
		Metadata: map[string]any{"unit_id": u.ID, "property_id": propertyID, "number": number},
	})

	return u, nil
}

// GetUnit retrieves a unit scoped to the owning landlord
func (s *Service) GetUnit(ctx context.Context, id, ownerID string) (*Unit, error) {
	return s.units.GetForOwner(ctx, id, ownerID)
}

// UpdateUnit updates a unit's rent terms. Status is excluded: it belongs
// to the lease lifecycle.
func (s *Service) UpdateUnit(ctx context.Context, id, ownerID, number, rentType string, rentAmount decimal.Decimal) (*Unit, error) {
	if rentAmount.IsNegative() {
		return nil, ErrInvalidRent
	}
	if rentType != RentMonthly && rentType != RentDaily {
		return nil, ErrInvalidRentType
	}

	u, err := s.units.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	u.Number = number
	u.RentType = rentType
	u.RentAmount = rentAmount

	if err := s.units.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// ListUnits lists the units of a property, scoped to the owner
func (s *Service) ListUnits(ctx context.Context, propertyID, ownerID string) ([]*Unit, error) {
	if _, err := s.repo.GetForOwner(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}
	return s.units.ListForProperty(ctx, propertyID)
}

// Occupancy returns the owner-wide unit occupancy summary
func (s *Service) Occupancy(ctx context.Context, ownerID string) (Occupancy, error) {
	return s.units.OccupancyForOwner(ctx, ownerID)
}

// newID returns a UUIDv7 so IDs sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
