package billing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fee50 = decimal.NewFromInt(50)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestPurpose: Validates status derivation across the settlement states.
// Scope: Unit Test
// Expected: Full coverage is paid with the settlement date stamped,
// anything above zero is partial, past due with nothing paid is overdue,
// otherwise pending.
// Test Case ID: BIL-01
func TestDerive_Statuses(t *testing.T) {
	today := date(2026, 4, 5)

	paid := &Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(5000), DueDate: today, Status: StatusPending}
	d := Derive(paid, today, fee50)
	assert.Equal(t, StatusPaid, d.Status)
	require.NotNil(t, d.PaidDate)
	assert.Equal(t, today, *d.PaidDate)
	assert.True(t, d.LateFee.IsZero())

	partial := &Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(2000), DueDate: today, Status: StatusPending}
	d = Derive(partial, today, fee50)
	assert.Equal(t, StatusPartial, d.Status)
	assert.Nil(t, d.PaidDate)

	overdue := &Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.Zero, DueDate: today.AddDate(0, 0, -35), Status: StatusPending}
	d = Derive(overdue, today, fee50)
	assert.Equal(t, StatusOverdue, d.Status)
	assert.True(t, d.LateFee.Equal(decimal.NewFromInt(1750)), "35 days late at 50/day, got %s", d.LateFee)

	pending := &Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.Zero, DueDate: today.AddDate(0, 0, 3), Status: StatusPending}
	d = Derive(pending, today, fee50)
	assert.Equal(t, StatusPending, d.Status)
	assert.True(t, d.LateFee.IsZero())
}

// TestPurpose: Validates that the late fee freezes once a payment is paid
// and that paid status never regresses when more days pass.
// Scope: Unit Test
// Test Case ID: BIL-02
func TestDerive_FeeFrozenAfterSettlement(t *testing.T) {
	settled := date(2026, 3, 7)
	p := &Payment{
		AmountDue:  decimal.NewFromInt(5000),
		AmountPaid: decimal.NewFromInt(5100),
		LateFee:    decimal.NewFromInt(100),
		Status:     StatusPaid,
		DueDate:    date(2026, 3, 5),
		PaidDate:   &settled,
	}

	// Ten more days pass; the fee would be 600 if it still accrued.
	d := Derive(p, date(2026, 3, 17), fee50)
	assert.Equal(t, StatusPaid, d.Status)
	assert.True(t, d.LateFee.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, d.PaidDate)
	assert.Equal(t, settled, *d.PaidDate)
}

// TestPurpose: Validates that the status compares against base plus fee,
// not base alone.
// Scope: Unit Test
// Expected: Covering only the base amount of a late payment leaves it
// partial; covering base plus accrued fee settles it.
// Test Case ID: BIL-03
func TestDerive_FeeCountsTowardTotal(t *testing.T) {
	today := date(2026, 4, 7) // two days past due

	p := &Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(5000), DueDate: date(2026, 4, 5), Status: StatusOverdue}
	d := Derive(p, today, fee50)
	assert.Equal(t, StatusPartial, d.Status)
	assert.True(t, d.LateFee.Equal(decimal.NewFromInt(100)))

	p.AmountPaid = decimal.NewFromInt(5100)
	d = Derive(p, today, fee50)
	assert.Equal(t, StatusPaid, d.Status)
}

// TestPurpose: Validates that the fee grows monotonically day over day
// while the payment stays open.
// Scope: Unit Test
// Test Case ID: BIL-04
func TestDerive_FeeMonotonic(t *testing.T) {
	due := date(2026, 2, 5)
	p := &Payment{AmountDue: decimal.NewFromInt(3000), AmountPaid: decimal.Zero, DueDate: due, Status: StatusPending}

	prev := decimal.Zero
	for days := 0; days <= 60; days++ {
		d := Derive(p, due.AddDate(0, 0, days), fee50)
		assert.False(t, d.LateFee.LessThan(prev), "fee shrank at day %d", days)
		prev = d.LateFee
	}
	assert.True(t, prev.Equal(decimal.NewFromInt(3000)))
}

// TestPurpose: Exercises derivation over random amounts and day offsets
// and checks its invariants hold everywhere.
// Scope: Unit Test
// Expected: Fee equals days-late times the rate for open payments, status
// is paid exactly when the paid amount covers base plus fee, and the
// settlement date is present exactly on paid outcomes.
// Test Case ID: BIL-05
func TestDerive_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	due := date(2026, 5, 5)

	for i := 0; i < 500; i++ {
		amountDue := decimal.NewFromInt(rng.Int63n(10000))
		amountPaid := decimal.NewFromInt(rng.Int63n(13000))
		daysLate := rng.Intn(90) - 10 // includes not-yet-due days

		p := &Payment{
			AmountDue:  amountDue,
			AmountPaid: amountPaid,
			DueDate:    due,
			Status:     StatusPending,
		}
		today := due.AddDate(0, 0, daysLate)
		d := Derive(p, today, fee50)

		wantFee := decimal.Zero
		if daysLate > 0 {
			wantFee = fee50.Mul(decimal.NewFromInt(int64(daysLate)))
		}
		require.True(t, d.LateFee.Equal(wantFee), "fee mismatch: days=%d got=%s", daysLate, d.LateFee)

		covered := amountPaid.GreaterThanOrEqual(amountDue.Add(wantFee))
		if covered {
			require.Equal(t, StatusPaid, d.Status)
			require.NotNil(t, d.PaidDate)
		} else {
			require.NotEqual(t, StatusPaid, d.Status)
			require.Nil(t, d.PaidDate)
		}
	}
}

// TestPurpose: Validates the outstanding balance helper, including the
// overpaid floor at zero.
// Scope: Unit Test
// Test Case ID: BIL-06
func TestPayment_Outstanding(t *testing.T) {
	p := &Payment{AmountDue: decimal.NewFromInt(5000), LateFee: decimal.NewFromInt(150), AmountPaid: decimal.NewFromInt(2000)}
	assert.True(t, p.Outstanding().Equal(decimal.NewFromInt(3150)))

	p.AmountPaid = decimal.NewFromInt(6000)
	assert.True(t, p.Outstanding().IsZero())
}
