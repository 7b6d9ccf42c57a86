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

// Package report renders landlord-facing exports: the payment CSV,
// payment receipts and the revenue summary. Everything here is read-only
// over already-derived billing records.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hidinck/hostflow/internal/billing"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/property"
)

// BillingSource is the slice of the billing service reports read from.
type BillingSource interface {
	ListForLandlord(ctx context.Context, landlordID string) ([]*billing.Record, error)
	GetForLandlord(ctx context.Context, paymentID, landlordID string) (*billing.Record, error)
	GetForTenant(ctx context.Context, paymentID, tenantID string) (*billing.Record, error)
	MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]billing.MonthIncome, error)
	IncomeByProperty(ctx context.Context, landlordID string) ([]billing.PropertyIncome, error)
}

// OccupancySource supplies the owner-wide occupancy summary.
type OccupancySource interface {
	Occupancy(ctx context.Context, ownerID string) (property.Occupancy, error)
}

// Service renders reports
type Service struct {
	billing   BillingSource
	occupancy OccupancySource
	clk       clock.Clock
}

// NewService creates a new report service
func NewService(billing BillingSource, occupancy OccupancySource, clk clock.Clock) *Service {
	return &Service{
		billing:   billing,
		occupancy: occupancy,
		clk:       clk,
	}
}

// ExportPaymentsCSV writes the landlord's payment history as CSV, newest
// due date first.
func (s *Service) ExportPaymentsCSV(ctx context.Context, w io.Writer, landlordID string) error {
	records, err := s.billing.ListForLandlord(ctx, landlordID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Tenant", "Unit", "Amount Due", "Paid", "Status"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.TenantName,
			rec.UnitNumber,
			rec.AmountDue.StringFixed(2),
			rec.AmountPaid.StringFixed(2),
			rec.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReceiptForLandlord renders a payment's receipt for the landlord.
func (s *Service) ReceiptForLandlord(ctx context.Context, paymentID, landlordID string) (string, error) {
	rec, err := s.billing.GetForLandlord(ctx, paymentID, landlordID)
	if err != nil {
		return "", err
	}
	return renderReceipt(rec), nil
}

// ReceiptForTenant renders a payment's receipt for the tenant.
func (s *Service) ReceiptForTenant(ctx context.Context, paymentID, tenantID string) (string, error) {
	rec, err := s.billing.GetForTenant(ctx, paymentID, tenantID)
	if err != nil {
		return "", err
	}
	return renderReceipt(rec), nil
}

// renderReceipt projects a payment, settled or not, into plain text. An
// open payment shows its current status and no paid date.
func renderReceipt(rec *billing.Record) string {
	paidDate := "N/A"
	if rec.PaidDate != nil {
		paidDate = rec.PaidDate.Format("2006-01-02")
	}

	var b strings.Builder
	fmt.Fprintln(&b, "RENT PAYMENT RECEIPT")
	fmt.Fprintln(&b, "====================")
	fmt.Fprintf(&b, "Receipt No:  %s\n", rec.ReceiptNumber)
	fmt.Fprintf(&b, "Tenant:      %s\n", rec.TenantName)
	fmt.Fprintf(&b, "Property:    %s, Unit %s\n", rec.PropertyName, rec.UnitNumber)
	fmt.Fprintf(&b, "Due Date:    %s\n", rec.DueDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Amount Due:  %s\n", rec.AmountDue.StringFixed(2))
	fmt.Fprintf(&b, "Late Fee:    %s\n", rec.LateFee.StringFixed(2))
	fmt.Fprintf(&b, "Total Due:   %s\n", rec.TotalDue().StringFixed(2))
	fmt.Fprintf(&b, "Amount Paid: %s\n", rec.AmountPaid.StringFixed(2))
	fmt.Fprintf(&b, "Paid Date:   %s\n", paidDate)
	fmt.Fprintf(&b, "Status:      %s\n", strings.ToUpper(rec.Status))
	return b.String()
}

// Revenue is the landlord's revenue summary.
type Revenue struct {
	Months     []billing.MonthIncome    `json:"months"`
	ByProperty []billing.PropertyIncome `json:"by_property"`
	Occupancy  property.Occupancy       `json:"occupancy"`
}

// Revenue assembles the revenue report: collected totals for the last
// six months including the current one, the per-property split, and the
// occupancy summary.
func (s *Service) Revenue(ctx context.Context, landlordID string) (*Revenue, error) {
	today := s.clk.Today()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	months, err := s.billing.MonthlyIncomeSince(ctx, landlordID, from)
	if err != nil {
		return nil, err
	}

	byProperty, err := s.billing.IncomeByProperty(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	occupancy, err := s.occupancy.Occupancy(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	return &Revenue{
		Months:     months,
		ByProperty: byProperty,
		Occupancy:  occupancy,
	}, nil
}
