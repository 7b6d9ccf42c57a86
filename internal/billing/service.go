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

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/lease"
)

// Notifier pushes a message to a user. Satisfied by the notification
// service.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string)
}

// Service provides the rent obligation lifecycle: generation, settlement
// and manual charges.
type Service struct {
	payments    Repository
	leases      lease.Repository
	clk         clock.Clock
	feePerDay   decimal.Decimal
	dueDay      int
	auditLogger audit.Logger
	notifier    Notifier
}

// NewService creates a new billing service
func NewService(payments Repository, leases lease.Repository, clk clock.Clock, feePerDay decimal.Decimal, dueDay int, auditLogger audit.Logger, notifier Notifier) *Service {
	return &Service{
		payments:    payments,
		leases:      leases,
		clk:         clk,
		feePerDay:   feePerDay,
		dueDay:      dueDay,
		auditLogger: auditLogger,
		notifier:    notifier,
	}
}

// GenerateMonthlyRent raises one rent obligation per active lease for the
// current month, due on the configured day of that month regardless of
// when the cycle runs. A lease with any payment due in the month, manual
// charges included, is skipped; the storage unique index closes the
// window between concurrent runs. Returns how many obligations were
// created.
func (s *Service) GenerateMonthlyRent(ctx context.Context) (int, error) {
	today := s.clk.Today()
	due := time.Date(today.Year(), today.Month(), s.dueDay, 0, 0, 0, 0, time.UTC)

	charges, err := s.payments.ListActiveLeaseCharges(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active leases: %w", err)
	}

	billed, err := s.payments.LeaseIDsBilledInMonth(ctx, today.Year(), today.Month())
	if err != nil {
		return 0, fmt.Errorf("failed to list billed leases: %w", err)
	}

	created := 0
	for _, charge := range charges {
		if billed[charge.LeaseID] {
			continue
		}
		id := newID()
		p := &Payment{
			ID:            id,
			LeaseID:       charge.LeaseID,
			AmountDue:     charge.RentAmount,
			AmountPaid:    decimal.Zero,
			LateFee:       decimal.Zero,
			Status:        StatusPending,
			DueDate:       due,
			ReceiptNumber: receiptNumber(id),
			Source:        SourceGenerated,
			CreatedAt:     time.Now(),
		}
		// A cycle run after the due day accrues the fee immediately.
		p.apply(Derive(p, today, s.feePerDay))

		ok, err := s.payments.CreateGenerated(ctx, p)
		if err != nil {
			return created, fmt.Errorf("failed to create rent payment for lease %s: %w", charge.LeaseID, err)
		}
		if ok {
			created++
			s.notifier.Notify(ctx, charge.TenantID,
				fmt.Sprintf("Rent due %s", due.Format("2006-01-02")),
				fmt.Sprintf("Your rent of %s is due on %s. Please pay on time to avoid late fees.",
					p.AmountDue.StringFixed(2), due.Format("2006-01-02")))
		}
	}

	if created > 0 {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeRentGenerated,
			Resource: "payment",
			Metadata: map[string]any{"count": created, "due_date": due.Format("2006-01-02")},
		})
	}

	return created, nil
}

// PayRent settles a payment in full on behalf of the tenant: base amount
// plus whatever late fee has accrued as of today. Partial self-service
// payments are not offered.
func (s *Service) PayRent(ctx context.Context, tenantID, paymentID string) (*Record, error) {
	rec, err := s.payments.GetForTenant(ctx, paymentID, tenantID)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}

	// Settlement covers base plus the fee accrued as of today.
	today := s.clk.Today()
	rec.Payment.AmountPaid = rec.Payment.AmountDue.Add(accruedFee(&rec.Payment, today, s.feePerDay))
	rec.Payment.apply(Derive(&rec.Payment, today, s.feePerDay))

	if err := s.payments.Update(ctx, &rec.Payment); err != nil {
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRentPaid,
		ActorID:  tenantID,
		Resource: "payment",
		Metadata: map[string]any{"payment_id": rec.ID, "amount": rec.AmountPaid.String()},
	})
	s.notifier.Notify(ctx, rec.TenantID,
		"Payment received",
		fmt.Sprintf("Your payment of %s was received. Receipt %s.",
			rec.AmountPaid.StringFixed(2), rec.ReceiptNumber))

	return rec, nil
}

// RecordPayment adds a collected amount to a payment on the landlord
// side. Amounts accumulate, so partial collections can be recorded over
// several visits until the obligation settles.
func (s *Service) RecordPayment(ctx context.Context, landlordID, paymentID string, amount decimal.Decimal, notes string) (*Record, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	rec, err := s.payments.GetForLandlord(ctx, paymentID, landlordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}

	rec.Payment.AmountPaid = rec.Payment.AmountPaid.Add(amount)
	if notes != "" {
		rec.Payment.Notes = notes
	}
	rec.Payment.apply(Derive(&rec.Payment, s.clk.Today(), s.feePerDay))

	if err := s.payments.Update(ctx, &rec.Payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePaymentRecorded,
		ActorID:  landlordID,
		Resource: "payment",
		Metadata: map[string]any{"payment_id": rec.ID, "amount": amount.String(), "status": rec.Status},
	})
	if rec.Status == StatusPaid {
		s.notifier.Notify(ctx, rec.TenantID,
			"Payment received",
			fmt.Sprintf("Your payment of %s was received. Receipt %s.",
				rec.AmountPaid.StringFixed(2), rec.ReceiptNumber))
	}

	return rec, nil
}

// CreateCharge raises an ad-hoc obligation on one of the landlord's
// leases, outside the monthly cycle.
func (s *Service) CreateCharge(ctx context.Context, landlordID, leaseID string, amount decimal.Decimal, dueDate time.Time, notes string) (*Payment, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	if _, err := s.leases.GetForLandlord(ctx, leaseID, landlordID); err != nil {
		return nil, err
	}

	id := newID()
	p := &Payment{
		ID:            id,
		LeaseID:       leaseID,
		AmountDue:     amount,
		AmountPaid:    decimal.Zero,
		LateFee:       decimal.Zero,
		Status:        StatusPending,
		DueDate:       clock.Date(dueDate),
		Notes:         notes,
		ReceiptNumber: receiptNumber(id),
		Source:        SourceManual,
		CreatedAt:     time.Now(),
	}
	p.apply(Derive(p, s.clk.Today(), s.feePerDay))

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}

	return p, nil
}

// GetForLandlord retrieves a payment scoped to the landlord, with its
// state derived as of today.
func (s *Service) GetForLandlord(ctx context.Context, paymentID, landlordID string) (*Record, error) {
	rec, err := s.payments.GetForLandlord(ctx, paymentID, landlordID)
	if err != nil {
		return nil, err
	}
	rec.Payment.apply(Derive(&rec.Payment, s.clk.Today(), s.feePerDay))
	return rec, nil
}

// GetForTenant retrieves a payment scoped to the tenant, with its state
// derived as of today.
func (s *Service) GetForTenant(ctx context.Context, paymentID, tenantID string) (*Record, error) {
	rec, err := s.payments.GetForTenant(ctx, paymentID, tenantID)
	if err != nil {
		return nil, err
	}
	rec.Payment.apply(Derive(&rec.Payment, s.clk.Today(), s.feePerDay))
	return rec, nil
}

// ListForLandlord lists the landlord's payments newest first, each row
// derived as of today so stale stored statuses never reach a reader.
func (s *Service) ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error) {
	recs, err := s.payments.ListForLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	s.deriveAll(recs)
	return recs, nil
}

// ListForTenant lists the tenant's payments newest first, derived as of
// today.
func (s *Service) ListForTenant(ctx context.Context, tenantID string) ([]*Record, error) {
	recs, err := s.payments.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.deriveAll(recs)
	return recs, nil
}

// MonthIncome returns the total collected this month under the landlord.
func (s *Service) MonthIncome(ctx context.Context, landlordID string) (decimal.Decimal, error) {
	today := s.clk.Today()
	return s.payments.MonthIncome(ctx, landlordID, today.Year(), today.Month())
}

// MonthlyIncomeSince returns collected totals per settlement month from
// the cutoff onward.
func (s *Service) MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]MonthIncome, error) {
	return s.payments.MonthlyIncomeSince(ctx, landlordID, from)
}

// IncomeByProperty returns collected totals per property.
func (s *Service) IncomeByProperty(ctx context.Context, landlordID string) ([]PropertyIncome, error) {
	return s.payments.IncomeByProperty(ctx, landlordID)
}

// StatusCounts tallies the landlord's payments by derived status.
func (s *Service) StatusCounts(ctx context.Context, landlordID string) (map[string]int, error) {
	recs, err := s.ListForLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, 4)
	for _, rec := range recs {
		counts[rec.Status]++
	}
	return counts, nil
}

// FeePerDay exposes the configured late fee rate for read-side rendering.
func (s *Service) FeePerDay() decimal.Decimal {
	return s.feePerDay
}

func (s *Service) deriveAll(recs []*Record) {
	today := s.clk.Today()
	for _, rec := range recs {
		rec.Payment.apply(Derive(&rec.Payment, today, s.feePerDay))
	}
}

// newID returns a UUIDv7 so IDs sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
