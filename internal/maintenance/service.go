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

package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/lease"
)

// Notifier pushes a message to a user. Satisfied by the notification
// service.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string)
}

// Service provides maintenance ticket management
type Service struct {
	repo        Repository
	leases      lease.Repository
	notifier    Notifier
	auditLogger audit.Logger
}

// NewService creates a new maintenance service
func NewService(repo Repository, leases lease.Repository, notifier Notifier, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		leases:      leases,
		notifier:    notifier,
		auditLogger: auditLogger,
	}
}

// Submit files a ticket against one of the tenant's active leases and
// notifies the landlord.
func (s *Service) Submit(ctx context.Context, tenantID, leaseID, title, description, priority string) (*Record, error) {
	if title == "" {
		return nil, fmt.Errorf("ticket title is required")
	}
	if !validPriority(priority) {
		return nil, ErrInvalidPriority
	}

	active, err := s.leases.ListActiveForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var match *lease.Lease
	for _, l := range active {
		if l.ID == leaseID {
			match = l
			break
		}
	}
	if match == nil {
		return nil, ErrNoActiveLease
	}

	t := &Ticket{
		ID:          newID(),
		LeaseID:     leaseID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      StatusOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	rec, err := s.repo.GetForTenant(ctx, t.ID, tenantID)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTicketSubmitted,
		ActorID:  tenantID,
		Resource: "ticket",
		Metadata: map[string]any{"ticket_id": t.ID, "priority": priority},
	})
	s.notifier.Notify(ctx, rec.LandlordID,
		fmt.Sprintf("New maintenance request: %s", title),
		fmt.Sprintf("A %s priority request was filed for unit %s at %s.", priority, rec.UnitNumber, rec.PropertyName))

	return rec, nil
}

// UpdateStatus moves a ticket through its workflow and notifies the
// tenant of the change.
func (s *Service) UpdateStatus(ctx context.Context, landlordID, ticketID, status string) (*Record, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	rec, err := s.repo.GetForLandlord(ctx, ticketID, landlordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		return rec, nil
	}

	if err := s.repo.UpdateStatus(ctx, ticketID, status); err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}
	rec.Status = status

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTicketUpdated,
		ActorID:  landlordID,
		Resource: "ticket",
		Metadata: map[string]any{"ticket_id": ticketID, "status": status},
	})
	s.notifier.Notify(ctx, rec.TenantID,
		fmt.Sprintf("Maintenance request update: %s", rec.Title),
		fmt.Sprintf("Your request for unit %s is now %s.", rec.UnitNumber, status))

	return rec, nil
}

// CommentAsTenant adds a tenant comment and pings the landlord.
func (s *Service) CommentAsTenant(ctx context.Context, tenantID, ticketID, body string) (*Comment, error) {
	rec, err := s.repo.GetForTenant(ctx, ticketID, tenantID)
	if err != nil {
		return nil, err
	}
	return s.addComment(ctx, rec, tenantID, rec.LandlordID, body)
}

// CommentAsLandlord adds a landlord comment and pings the tenant.
func (s *Service) CommentAsLandlord(ctx context.Context, landlordID, ticketID, body string) (*Comment, error) {
	rec, err := s.repo.GetForLandlord(ctx, ticketID, landlordID)
	if err != nil {
		return nil, err
	}
	return s.addComment(ctx, rec, landlordID, rec.TenantID, body)
}

func (s *Service) addComment(ctx context.Context, rec *Record, authorID, recipientID, body string) (*Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("comment body is required")
	}

	c := &Comment{
		ID:        newID(),
		TicketID:  rec.ID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.notifier.Notify(ctx, recipientID,
		fmt.Sprintf("New comment on: %s", rec.Title),
		body)

	return c, nil
}

// GetForLandlord retrieves a ticket scoped to the landlord.
func (s *Service) GetForLandlord(ctx context.Context, ticketID, landlordID string) (*Record, error) {
	return s.repo.GetForLandlord(ctx, ticketID, landlordID)
}

// GetForTenant retrieves a ticket scoped to the tenant.
func (s *Service) GetForTenant(ctx context.Context, ticketID, tenantID string) (*Record, error) {
	return s.repo.GetForTenant(ctx, ticketID, tenantID)
}

// ListForLandlord lists tickets across the landlord's properties.
func (s *Service) ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error) {
	return s.repo.ListForLandlord(ctx, landlordID)
}

// ListForTenant lists the tenant's own tickets.
func (s *Service) ListForTenant(ctx context.Context, tenantID string) ([]*Record, error) {
	return s.repo.ListForTenant(ctx, tenantID)
}

// Comments lists a ticket's comments for either party.
func (s *Service) Comments(ctx context.Context, ticketID, actorID string, isLandlord bool) ([]*Comment, error) {
	var err error
	if isLandlord {
		_, err = s.repo.GetForLandlord(ctx, ticketID, actorID)
	} else {
		_, err = s.repo.GetForTenant(ctx, ticketID, actorID)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, ticketID)
}

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func validStatus(s string) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
