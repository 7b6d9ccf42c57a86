package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hidinck/hostflow/internal/billing"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/property"
)

type mockBilling struct {
	mock.Mock
}

func (m *mockBilling) ListForLandlord(ctx context.Context, landlordID string) ([]*billing.Record, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Record), args.Error(1)
}

func (m *mockBilling) GetForLandlord(ctx context.Context, paymentID, landlordID string) (*billing.Record, error) {
	args := m.Called(ctx, paymentID, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Record), args.Error(1)
}

func (m *mockBilling) GetForTenant(ctx context.Context, paymentID, tenantID string) (*billing.Record, error) {
	args := m.Called(ctx, paymentID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Record), args.Error(1)
}

func (m *mockBilling) MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]billing.MonthIncome, error) {
	args := m.Called(ctx, landlordID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.MonthIncome), args.Error(1)
}

func (m *mockBilling) IncomeByProperty(ctx context.Context, landlordID string) ([]billing.PropertyIncome, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PropertyIncome), args.Error(1)
}

type mockOccupancy struct {
	mock.Mock
}

func (m *mockOccupancy) Occupancy(ctx context.Context, ownerID string) (property.Occupancy, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(property.Occupancy), args.Error(1)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestPurpose: Validates the CSV export layout and row order.
// Scope: Unit Test
// Expected: Header plus one row per record, amounts with two decimals,
// in the order the billing layer returns them.
// Test Case ID: RPT-01
func TestReport_ExportPaymentsCSV(t *testing.T) {
	b := new(mockBilling)
	occ := new(mockOccupancy)
	service := NewService(b, occ, clock.Fixed{Day: date(2026, 4, 15)})

	b.On("ListForLandlord", mock.Anything, "landlord-1").Return([]*billing.Record{
		{
			Payment:    billing.Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(5000), Status: billing.StatusPaid},
			TenantName: "Amina Yusuf", UnitNumber: "A1",
		},
		{
			Payment:    billing.Payment{AmountDue: decimal.NewFromInt(3500), AmountPaid: decimal.NewFromInt(1000), Status: billing.StatusPartial},
			TenantName: "Brian Odhiambo", UnitNumber: "B2",
		},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, service.ExportPaymentsCSV(context.Background(), &buf, "landlord-1"))

	want := "Tenant,Unit,Amount Due,Paid,Status\n" +
		"Amina Yusuf,A1,5000.00,5000.00,paid\n" +
		"Brian Odhiambo,B2,3500.00,1000.00,partial\n"
	assert.Equal(t, want, buf.String())
}

// TestPurpose: Validates receipt rendering as a pure projection: settled
// payments show their paid date, open ones render too with the current
// status, and total due always includes the fee.
// Scope: Unit Test
// Test Case ID: RPT-02
func TestReport_Receipt(t *testing.T) {
	b := new(mockBilling)
	occ := new(mockOccupancy)
	service := NewService(b, occ, clock.Fixed{Day: date(2026, 4, 15)})

	settled := date(2026, 4, 10)
	b.On("GetForTenant", mock.Anything, "pay-1", "tenant-1").Return(&billing.Record{
		Payment: billing.Payment{
			AmountDue:     decimal.NewFromInt(5000),
			AmountPaid:    decimal.NewFromInt(5250),
			LateFee:       decimal.NewFromInt(250),
			Status:        billing.StatusPaid,
			DueDate:       date(2026, 4, 5),
			PaidDate:      &settled,
			ReceiptNumber: "HF-0195A1B2C3D4",
		},
		TenantName:   "Amina Yusuf",
		UnitNumber:   "A1",
		PropertyName: "Hilltop",
	}, nil)

	text, err := service.ReceiptForTenant(context.Background(), "pay-1", "tenant-1")
	require.NoError(t, err)
	assert.Contains(t, text, "Receipt No:  HF-0195A1B2C3D4")
	assert.Contains(t, text, "Total Due:   5250.00")
	assert.Contains(t, text, "Amount Paid: 5250.00")
	assert.Contains(t, text, "Late Fee:    250.00")
	assert.Contains(t, text, "Paid Date:   2026-04-10")
	assert.Contains(t, text, "Status:      PAID")

	b.On("GetForTenant", mock.Anything, "pay-2", "tenant-1").Return(&billing.Record{
		Payment: billing.Payment{
			AmountDue:     decimal.NewFromInt(5000),
			AmountPaid:    decimal.NewFromInt(2000),
			LateFee:       decimal.NewFromInt(500),
			Status:        billing.StatusPartial,
			DueDate:       date(2026, 4, 5),
			ReceiptNumber: "HF-0195E5F6A7B8",
		},
		TenantName:   "Amina Yusuf",
		UnitNumber:   "A1",
		PropertyName: "Hilltop",
	}, nil)

	text, err = service.ReceiptForTenant(context.Background(), "pay-2", "tenant-1")
	require.NoError(t, err)
	assert.Contains(t, text, "Total Due:   5500.00")
	assert.Contains(t, text, "Amount Paid: 2000.00")
	assert.Contains(t, text, "Paid Date:   N/A")
	assert.Contains(t, text, "Status:      PARTIAL")
}

// TestPurpose: Validates revenue report assembly and its six-month
// window anchored to the first of the current month.
// Scope: Unit Test
// Test Case ID: RPT-03
func TestReport_Revenue(t *testing.T) {
	b := new(mockBilling)
	occ := new(mockOccupancy)
	service := NewService(b, occ, clock.Fixed{Day: date(2026, 4, 15)})

	wantFrom := date(2025, 11, 1)
	b.On("MonthlyIncomeSince", mock.Anything, "landlord-1", wantFrom).Return([]billing.MonthIncome{
		{Year: 2026, Month: time.March, Collected: decimal.NewFromInt(9000)},
		{Year: 2026, Month: time.April, Collected: decimal.NewFromInt(12000)},
	}, nil)
	b.On("IncomeByProperty", mock.Anything, "landlord-1").Return([]billing.PropertyIncome{
		{PropertyID: "p1", PropertyName: "Hilltop", Collected: decimal.NewFromInt(21000)},
	}, nil)
	occ.On("Occupancy", mock.Anything, "landlord-1").Return(property.Occupancy{Total: 4, Occupied: 3, Vacant: 1}, nil)

	rev, err := service.Revenue(context.Background(), "landlord-1")
	require.NoError(t, err)
	require.Len(t, rev.Months, 2)
	assert.Equal(t, 75.0, rev.Occupancy.Rate())
	require.Len(t, rev.ByProperty, 1)
}
