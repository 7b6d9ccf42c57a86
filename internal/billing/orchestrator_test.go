package billing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/lease"
	"github.com/hidinck/hostflow/internal/observability/metrics"
	"github.com/hidinck/hostflow/internal/property"
)

type mockPropertyRepo struct {
	mock.Mock
}

func (m *mockPropertyRepo) Create(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPropertyRepo) GetForOwner(ctx context.Context, id, ownerID string) (*property.Property, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *mockPropertyRepo) Update(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPropertyRepo) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockPropertyRepo) ListForOwner(ctx context.Context, ownerID string) ([]*property.Property, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Property), args.Error(1)
}

type mockUnitRepo struct {
	mock.Mock
}

func (m *mockUnitRepo) Create(ctx context.Context, u *property.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUnitRepo) GetForOwner(ctx context.Context, id, ownerID string) (*property.Unit, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Unit), args.Error(1)
}

func (m *mockUnitRepo) Update(ctx context.Context, u *property.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUnitRepo) SetStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockUnitRepo) ListForProperty(ctx context.Context, propertyID string) ([]*property.Unit, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Unit), args.Error(1)
}

func (m *mockUnitRepo) OccupancyForOwner(ctx context.Context, ownerID string) (property.Occupancy, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(property.Occupancy), args.Error(1)
}

type mockTicketCounter struct {
	mock.Mock
}

func (m *mockTicketCounter) CountOpenForLandlord(ctx context.Context, landlordID string) (int, error) {
	args := m.Called(ctx, landlordID)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, today time.Time, payments *mockPaymentRepo, leaseRepo *mockLeaseRepo, props *mockPropertyRepo, units *mockUnitRepo, tickets *mockTicketCounter, notifier *mockNotifier) *Orchestrator {
	t.Helper()

	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return().Maybe()

	clk := clock.Fixed{Day: today}
	leaseService := lease.NewService(leaseRepo, units, auditLogger)
	billingService := NewService(payments, leaseRepo, clk, fee50, 5, auditLogger, notifier)
	propertyService := property.NewService(props, units, auditLogger)

	meter, err := metrics.New(context.Background(), metrics.Config{Enabled: false}, "test")
	require.NoError(t, err)

	o, err := NewOrchestrator(leaseService, billingService, propertyService, tickets, notifier, clk, 30*24*time.Hour, meter, discardLogger())
	require.NoError(t, err)
	return o
}

// TestPurpose: Validates the cycle ordering: lease expiry runs before
// rent generation, so a lease expired this run is never billed.
// Scope: Unit Test
// Expected: ExpireActiveBefore is observed before the charge listing, and
// the result carries both counts.
// Test Case ID: BIL-20
func TestOrchestrator_RunCycle_Ordering(t *testing.T) {
	payments := new(mockPaymentRepo)
	leaseRepo := new(mockLeaseRepo)
	props := new(mockPropertyRepo)
	units := new(mockUnitRepo)
	today := date(2026, 4, 1)

	var calls []string
	leaseRepo.On("ExpireActiveBefore", mock.Anything, today).Run(func(mock.Arguments) {
		calls = append(calls, "expire")
	}).Return(int64(2), nil)
	payments.On("ListActiveLeaseCharges", mock.Anything).Run(func(mock.Arguments) {
		calls = append(calls, "generate")
	}).Return([]LeaseCharge{{LeaseID: "lease-1", RentAmount: decimal.NewFromInt(5000)}}, nil)
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{}, nil)
	payments.On("CreateGenerated", mock.Anything, mock.Anything).Return(true, nil)

	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	o := newTestOrchestrator(t, today, payments, leaseRepo, props, units, new(mockTicketCounter), notifier)

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.LeasesExpired)
	assert.Equal(t, 1, result.RentGenerated)
	require.Equal(t, []string{"expire", "generate"}, calls)
}

// TestPurpose: Validates that a repeated cycle run on the same day is a
// no-op all the way through.
// Scope: Unit Test
// Test Case ID: BIL-21
func TestOrchestrator_RunCycle_Idempotent(t *testing.T) {
	payments := new(mockPaymentRepo)
	leaseRepo := new(mockLeaseRepo)
	props := new(mockPropertyRepo)
	units := new(mockUnitRepo)
	today := date(2026, 4, 1)

	leaseRepo.On("ExpireActiveBefore", mock.Anything, today).Return(int64(0), nil)
	payments.On("ListActiveLeaseCharges", mock.Anything).Return([]LeaseCharge{
		{LeaseID: "lease-1", RentAmount: decimal.NewFromInt(5000)},
	}, nil)
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{}, nil)
	payments.On("CreateGenerated", mock.Anything, mock.Anything).Return(false, nil)

	o := newTestOrchestrator(t, today, payments, leaseRepo, props, units, new(mockTicketCounter), new(mockNotifier))

	result, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{}, result)
}

// TestPurpose: Validates dashboard assembly: counts, month income and
// derived overdue tally from one pass over the landlord's records.
// Scope: Unit Test
// Test Case ID: BIL-22
func TestOrchestrator_BuildDashboard(t *testing.T) {
	payments := new(mockPaymentRepo)
	leaseRepo := new(mockLeaseRepo)
	props := new(mockPropertyRepo)
	units := new(mockUnitRepo)
	today := date(2026, 4, 15)
	landlord := "landlord-1"

	props.On("ListForOwner", mock.Anything, landlord).Return([]*property.Property{{ID: "p1"}, {ID: "p2"}}, nil)
	units.On("OccupancyForOwner", mock.Anything, landlord).Return(property.Occupancy{Total: 4, Occupied: 3, Vacant: 1}, nil)
	leaseRepo.On("CountActiveForLandlord", mock.Anything, landlord).Return(3, nil)
	payments.On("MonthIncome", mock.Anything, landlord, 2026, time.April).Return(decimal.NewFromInt(12000), nil)
	leaseRepo.On("ListEndingForLandlord", mock.Anything, landlord, today, today.Add(30*24*time.Hour)).Return([]*lease.Lease{{ID: "lease-9"}}, nil)
	leaseRepo.On("ListEndedForLandlord", mock.Anything, landlord, today).Return([]*lease.Lease{{ID: "lease-3"}}, nil)
	tickets := new(mockTicketCounter)
	tickets.On("CountOpenForLandlord", mock.Anything, landlord).Return(2, nil)
	payments.On("ListForLandlord", mock.Anything, landlord).Return([]*Record{
		{Payment: Payment{AmountDue: decimal.NewFromInt(5000), Status: StatusPending, DueDate: date(2026, 4, 5)}},  // derives overdue
		{Payment: Payment{AmountDue: decimal.NewFromInt(5000), Status: StatusPending, DueDate: date(2026, 4, 25)}}, // still pending
		// partially paid and past due: arrears too
		{Payment: Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(2000), Status: StatusPartial, DueDate: date(2026, 4, 5)}},
		{Payment: Payment{AmountDue: decimal.NewFromInt(5000), AmountPaid: decimal.NewFromInt(5000), Status: StatusPaid, DueDate: date(2026, 4, 5), PaidDate: &today}},
	}, nil)

	o := newTestOrchestrator(t, today, payments, leaseRepo, props, units, tickets, new(mockNotifier))

	d, err := o.BuildDashboard(context.Background(), landlord)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Properties)
	assert.Equal(t, 75.0, d.Occupancy.Rate())
	assert.Equal(t, 3, d.ActiveLeases)
	assert.True(t, d.MonthIncome.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, 2, d.OverdueCount)
	assert.Equal(t, 1, d.PendingCount)
	assert.Equal(t, 2, d.OpenTickets)
	require.Len(t, d.ExpiringSoon, 1)
	require.Len(t, d.PastEnd, 1)
}

// TestPurpose: Validates lease expiry notices: tenants whose active
// lease ends exactly one warning window out are messaged once, nobody
// else.
// Scope: Unit Test
// Test Case ID: BIL-23
func TestOrchestrator_NotifyExpiringLeases(t *testing.T) {
	payments := new(mockPaymentRepo)
	leaseRepo := new(mockLeaseRepo)
	props := new(mockPropertyRepo)
	units := new(mockUnitRepo)
	today := date(2026, 4, 15)

	endDay := date(2026, 5, 15)
	leaseRepo.On("ListEndingOn", mock.Anything, endDay).Return([]*lease.Lease{
		{ID: "lease-9", TenantID: "tenant-9", EndDate: endDay},
	}, nil)

	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, "tenant-9", "Lease expiring soon", mock.Anything).Return().Once()

	o := newTestOrchestrator(t, today, payments, leaseRepo, props, units, new(mockTicketCounter), notifier)

	n, err := o.NotifyExpiringLeases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	notifier.AssertExpectations(t)
}
