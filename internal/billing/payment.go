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
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/clock"
)

// Domain errors
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyPaid     = errors.New("payment is already settled")
	ErrInvalidAmount   = errors.New("payment amount must be positive")
)

// Payment statuses. Only paid is terminal; the other three are re-derived
// from the amounts and the calendar on every write.
const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusOverdue = "overdue"
	StatusPaid    = "paid"
)

// Payment sources. Generated payments come out of the monthly rent cycle
// and are unique per lease and month; manual ones are ad-hoc charges a
// landlord records directly.
const (
	SourceGenerated = "generated"
	SourceManual    = "manual"
)

// Payment is a rent obligation on a lease
type Payment struct {
	ID            string          `json:"id"`
	LeaseID       string          `json:"lease_id"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	LateFee       decimal.Decimal `json:"late_fee"`
	Status        string          `json:"status"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ReceiptNumber string          `json:"receipt_number"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TotalDue is the base amount plus the accrued late fee.
func (p *Payment) TotalDue() decimal.Decimal {
	return p.AmountDue.Add(p.LateFee)
}

// Outstanding is what remains to settle the payment in full.
func (p *Payment) Outstanding() decimal.Decimal {
	out := p.TotalDue().Sub(p.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Derivation is the calendar-dependent state of a payment: the late fee,
// the status, and the settlement date, all computed by Derive.
type Derivation struct {
	LateFee  decimal.Decimal
	Status   string
	PaidDate *time.Time
}

// Derive computes a payment's current state for a given date. It is the
// single source of truth for late fees and statuses: write paths apply
// its result before persisting, read paths use it to render rows without
// touching storage.
//
// Order matters. The fee is settled first, then the total, then the
// status against that total:
//
//  1. While the payment is not yet paid and the due date has passed, the
//     fee is days-late times the per-day rate. Once paid, the fee is
//     frozen at whatever it was, even if the stored value reflects an
//     earlier, smaller day count.
//  2. Status compares the amount paid against base plus fee: covered in
//     full is paid (stamping the settlement date once), anything above
//     zero is partial, past due with nothing paid is overdue, otherwise
//     pending.
func Derive(p *Payment, today time.Time, feePerDay decimal.Decimal) Derivation {
	today = clock.Date(today)
	due := clock.Date(p.DueDate)

	fee := accruedFee(p, today, feePerDay)
	total := p.AmountDue.Add(fee)

	d := Derivation{LateFee: fee, PaidDate: p.PaidDate}
	switch {
	case p.AmountPaid.GreaterThanOrEqual(total):
		d.Status = StatusPaid
		if d.PaidDate == nil {
			settled := today
			d.PaidDate = &settled
		}
	case p.AmountPaid.GreaterThan(decimal.Zero):
		d.Status = StatusPartial
	case today.After(due):
		d.Status = StatusOverdue
	default:
		d.Status = StatusPending
	}
	return d
}

// accruedFee is the late fee as of today: it grows daily while an
// unpaid payment is past due and freezes at the stored value once paid.
func accruedFee(p *Payment, today time.Time, feePerDay decimal.Decimal) decimal.Decimal {
	today = clock.Date(today)
	due := clock.Date(p.DueDate)
	if due.Before(today) && p.Status != StatusPaid {
		return feePerDay.Mul(decimal.NewFromInt(int64(clock.DaysBetween(due, today))))
	}
	return p.LateFee
}

// apply writes a derivation back onto the payment.
func (p *Payment) apply(d Derivation) {
	p.LateFee = d.LateFee
	p.Status = d.Status
	p.PaidDate = d.PaidDate
}

// receiptNumber builds the stable receipt reference for a payment ID.
func receiptNumber(id string) string {
	compact := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return "HF-" + compact
}

// Record is a payment joined with the names a landlord-facing listing
// needs.
type Record struct {
	Payment
	TenantID     string `json:"tenant_id"`
	TenantName   string `json:"tenant_name"`
	TenantEmail  string `json:"tenant_email"`
	UnitNumber   string `json:"unit_number"`
	PropertyName string `json:"property_name"`
}

// LeaseCharge is the billing view of an active lease: just enough to
// raise its monthly obligation.
type LeaseCharge struct {
	LeaseID    string
	TenantID   string
	RentAmount decimal.Decimal
}

// Repository defines the interface for payment storage
type Repository interface {
	// CreateGenerated inserts a cycle-generated payment. At most one
	// generated payment exists per lease and due month; a duplicate is
	// silently skipped and reported as created=false.
	CreateGenerated(ctx context.Context, p *Payment) (created bool, err error)
	Create(ctx context.Context, p *Payment) error
	GetForLandlord(ctx context.Context, id, landlordID string) (*Record, error)
	GetForTenant(ctx context.Context, id, tenantID string) (*Record, error)
	// Update persists amounts, fee, status, paid date and notes as one
	// atomic write.
	Update(ctx context.Context, p *Payment) error
	// ListForLandlord returns the landlord's payments newest due date
	// first.
	ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error)
	ListForTenant(ctx context.Context, tenantID string) ([]*Record, error)
	// ListActiveLeaseCharges returns one charge per active lease,
	// system-wide, for the generation cycle.
	ListActiveLeaseCharges(ctx context.Context) ([]LeaseCharge, error)
	// LeaseIDsBilledInMonth returns the lease IDs carrying any payment,
	// generated or manual, with a due date in the given month.
	LeaseIDsBilledInMonth(ctx context.Context, year int, month time.Month) (map[string]bool, error)
	// MonthIncome sums amounts collected on payments settled within the
	// given month under the landlord's units.
	MonthIncome(ctx context.Context, landlordID string, year int, month time.Month) (decimal.Decimal, error)
	// MonthlyIncomeSince returns collected totals per settlement month
	// from the cutoff onward, oldest month first.
	MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]MonthIncome, error)
	// IncomeByProperty sums collected amounts per property for the
	// landlord.
	IncomeByProperty(ctx context.Context, landlordID string) ([]PropertyIncome, error)
}

// MonthIncome is a settlement month and the total collected in it.
type MonthIncome struct {
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Collected decimal.Decimal `json:"collected"`
}

// PropertyIncome is a property and its all-time collected total.
type PropertyIncome struct {
	PropertyID   string          `json:"property_id"`
	PropertyName string          `json:"property_name"`
	Collected    decimal.Decimal `json:"collected"`
}
