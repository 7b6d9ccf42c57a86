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
	"github.com/shopspring/decimal"

	"github.com/hidinck/hostflow/internal/billing"
)

// PaymentRepository implements billing.Repository
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const recordColumns = `
	pay.id, pay.lease_id, pay.amount_due::text, pay.amount_paid::text, pay.late_fee::text,
	pay.status, pay.due_date, pay.paid_date, pay.notes, pay.receipt_number, pay.source, pay.created_at,
	t.id, t.full_name, t.email, u.number, p.name`

const recordJoins = `
	FROM payments pay
	JOIN leases l ON l.id = pay.lease_id
	JOIN users t ON t.id = l.tenant_id
	JOIN units u ON u.id = l.unit_id
	JOIN properties p ON p.id = u.property_id`

// CreateGenerated inserts a cycle-generated payment. The partial unique
// index on (lease, due month) makes concurrent cycle runs collapse into
// one row; the loser's insert affects nothing and reports created=false.
func (r *PaymentRepository) CreateGenerated(ctx context.Context, p *billing.Payment) (bool, error) {
	result, err := r.db.pool.Exec(ctx, `
		INSERT INTO payments (id, lease_id, amount_due, amount_paid, late_fee, status, due_date, paid_date, notes, receipt_number, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'generated', $11)
		ON CONFLICT (lease_id, date_trunc('month', due_date)) WHERE source = 'generated' DO NOTHING
	`,
		p.ID, p.LeaseID, p.AmountDue.String(), p.AmountPaid.String(), p.LateFee.String(),
		p.Status, p.DueDate, p.PaidDate, p.Notes, p.ReceiptNumber, p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert generated payment: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Create inserts a manual payment
func (r *PaymentRepository) Create(ctx context.Context, p *billing.Payment) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO payments (id, lease_id, amount_due, amount_paid, late_fee, status, due_date, paid_date, notes, receipt_number, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		p.ID, p.LeaseID, p.AmountDue.String(), p.AmountPaid.String(), p.LateFee.String(),
		p.Status, p.DueDate, p.PaidDate, p.Notes, p.ReceiptNumber, p.Source, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetForLandlord retrieves a payment scoped to the landlord
func (r *PaymentRepository) GetForLandlord(ctx context.Context, id, landlordID string) (*billing.Record, error) {
	return r.get(ctx, `WHERE pay.id = $1 AND p.owner_id = $2`, id, landlordID)
}

// GetForTenant retrieves a payment scoped to the tenant
func (r *PaymentRepository) GetForTenant(ctx context.Context, id, tenantID string) (*billing.Record, error) {
	return r.get(ctx, `WHERE pay.id = $1 AND l.tenant_id = $2`, id, tenantID)
}

func (r *PaymentRepository) get(ctx context.Context, where string, args ...any) (*billing.Record, error) {
	rec, err := scanRecord(r.db.pool.QueryRow(ctx, `SELECT`+recordColumns+recordJoins+`
	`+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return rec, nil
}

// Update persists a payment's mutable state in one statement
func (r *PaymentRepository) Update(ctx context.Context, p *billing.Payment) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE payments
		SET amount_paid = $2, late_fee = $3, status = $4, paid_date = $5, notes = $6
		WHERE id = $1
	`, p.ID, p.AmountPaid.String(), p.LateFee.String(), p.Status, p.PaidDate, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return billing.ErrPaymentNotFound
	}
	return nil
}

// ListForLandlord lists the landlord's payments newest due date first
func (r *PaymentRepository) ListForLandlord(ctx context.Context, landlordID string) ([]*billing.Record, error) {
	return r.list(ctx, `WHERE p.owner_id = $1`, landlordID)
}

// ListForTenant lists the tenant's payments newest due date first
func (r *PaymentRepository) ListForTenant(ctx context.Context, tenantID string) ([]*billing.Record, error) {
	return r.list(ctx, `WHERE l.tenant_id = $1`, tenantID)
}

func (r *PaymentRepository) list(ctx context.Context, where string, args ...any) ([]*billing.Record, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT`+recordColumns+recordJoins+`
	`+where+`
	ORDER BY pay.due_date DESC, pay.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var records []*billing.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListActiveLeaseCharges returns one charge per active lease
func (r *PaymentRepository) ListActiveLeaseCharges(ctx context.Context) ([]billing.LeaseCharge, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT l.id, l.tenant_id, u.rent_amount::text
		FROM leases l
		JOIN units u ON u.id = l.unit_id
		WHERE l.status = 'active'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lease charges: %w", err)
	}
	defer rows.Close()

	var charges []billing.LeaseCharge
	for rows.Next() {
		var c billing.LeaseCharge
		var rent string
		if err := rows.Scan(&c.LeaseID, &c.TenantID, &rent); err != nil {
			return nil, fmt.Errorf("failed to scan lease charge: %w", err)
		}
		amount, err := decimal.NewFromString(rent)
		if err != nil {
			return nil, fmt.Errorf("invalid rent amount %q: %w", rent, err)
		}
		c.RentAmount = amount
		charges = append(charges, c)
	}

	return charges, rows.Err()
}

// LeaseIDsBilledInMonth returns the lease IDs that already carry any
// payment, whatever its source, with a due date in the given month
func (r *PaymentRepository) LeaseIDsBilledInMonth(ctx context.Context, year int, month time.Month) (map[string]bool, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT lease_id
		FROM payments
		WHERE EXTRACT(YEAR FROM due_date) = $1 AND EXTRACT(MONTH FROM due_date) = $2
	`, year, int(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list billed leases: %w", err)
	}
	defer rows.Close()

	billed := make(map[string]bool)
	for rows.Next() {
		var leaseID string
		if err := rows.Scan(&leaseID); err != nil {
			return nil, fmt.Errorf("failed to scan billed lease: %w", err)
		}
		billed[leaseID] = true
	}

	return billed, rows.Err()
}

// MonthIncome sums amounts collected on payments settled in the month
func (r *PaymentRepository) MonthIncome(ctx context.Context, landlordID string, year int, month time.Month) (decimal.Decimal, error) {
	var total string
	err := r.db.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(pay.amount_paid), 0)::text`+recordJoins+`
		WHERE p.owner_id = $1
			AND pay.paid_date IS NOT NULL
			AND EXTRACT(YEAR FROM pay.paid_date) = $2
			AND EXTRACT(MONTH FROM pay.paid_date) = $3
	`, landlordID, year, int(month)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum month income: %w", err)
	}
	return decimal.NewFromString(total)
}

// MonthlyIncomeSince returns collected totals per settlement month
func (r *PaymentRepository) MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]billing.MonthIncome, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM pay.paid_date)::int,
			EXTRACT(MONTH FROM pay.paid_date)::int,
			SUM(pay.amount_paid)::text`+recordJoins+`
		WHERE p.owner_id = $1 AND pay.paid_date >= $2
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, landlordID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly income: %w", err)
	}
	defer rows.Close()

	var months []billing.MonthIncome
	for rows.Next() {
		var m billing.MonthIncome
		var monthNum int
		var total string
		if err := rows.Scan(&m.Year, &monthNum, &total); err != nil {
			return nil, fmt.Errorf("failed to scan month income: %w", err)
		}
		collected, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid income total %q: %w", total, err)
		}
		m.Month = time.Month(monthNum)
		m.Collected = collected
		months = append(months, m)
	}

	return months, rows.Err()
}

// IncomeByProperty sums collected amounts per property
func (r *PaymentRepository) IncomeByProperty(ctx context.Context, landlordID string) ([]billing.PropertyIncome, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(pay.amount_paid), 0)::text
		FROM properties p
		LEFT JOIN units u ON u.property_id = p.id
		LEFT JOIN leases l ON l.unit_id = u.id
		LEFT JOIN payments pay ON pay.lease_id = l.id AND pay.paid_date IS NOT NULL
		WHERE p.owner_id = $1
		GROUP BY p.id, p.name
		ORDER BY p.name
	`, landlordID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum income by property: %w", err)
	}
	defer rows.Close()

	var incomes []billing.PropertyIncome
	for rows.Next() {
		var pi billing.PropertyIncome
		var total string
		if err := rows.Scan(&pi.PropertyID, &pi.PropertyName, &total); err != nil {
			return nil, fmt.Errorf("failed to scan property income: %w", err)
		}
		collected, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid income total %q: %w", total, err)
		}
		pi.Collected = collected
		incomes = append(incomes, pi)
	}

	return incomes, rows.Err()
}

func scanRecord(row pgx.Row) (*billing.Record, error) {
	var rec billing.Record
	var amountDue, amountPaid, lateFee string
	var paidDate sql.NullTime

	if err := row.Scan(
		&rec.ID, &rec.LeaseID, &amountDue, &amountPaid, &lateFee,
		&rec.Status, &rec.DueDate, &paidDate, &rec.Notes, &rec.ReceiptNumber, &rec.Source, &rec.CreatedAt,
		&rec.TenantID, &rec.TenantName, &rec.TenantEmail, &rec.UnitNumber, &rec.PropertyName,
	); err != nil {
		return nil, err
	}

	var err error
	if rec.AmountDue, err = decimal.NewFromString(amountDue); err != nil {
		return nil, fmt.Errorf("invalid amount due %q: %w", amountDue, err)
	}
	if rec.AmountPaid, err = decimal.NewFromString(amountPaid); err != nil {
		return nil, fmt.Errorf("invalid amount paid %q: %w", amountPaid, err)
	}
	if rec.LateFee, err = decimal.NewFromString(lateFee); err != nil {
		return nil, fmt.Errorf("invalid late fee %q: %w", lateFee, err)
	}
	if paidDate.Valid {
		d := paidDate.Time
		rec.PaidDate = &d
	}

	return &rec, nil
}
