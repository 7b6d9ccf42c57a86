package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/clock"
	"github.com/hidinck/hostflow/internal/lease"
)

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) CreateGenerated(ctx context.Context, p *Payment) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPaymentRepo) GetForLandlord(ctx context.Context, id, landlordID string) (*Record, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockPaymentRepo) GetForTenant(ctx context.Context, id, tenantID string) (*Record, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPaymentRepo) ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *mockPaymentRepo) ListForTenant(ctx context.Context, tenantID string) ([]*Record, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *mockPaymentRepo) ListActiveLeaseCharges(ctx context.Context) ([]LeaseCharge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LeaseCharge), args.Error(1)
}

func (m *mockPaymentRepo) LeaseIDsBilledInMonth(ctx context.Context, year int, month time.Month) (map[string]bool, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockPaymentRepo) MonthIncome(ctx context.Context, landlordID string, year int, month time.Month) (decimal.Decimal, error) {
	args := m.Called(ctx, landlordID, year, month)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentRepo) MonthlyIncomeSince(ctx context.Context, landlordID string, from time.Time) ([]MonthIncome, error) {
	args := m.Called(ctx, landlordID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MonthIncome), args.Error(1)
}

func (m *mockPaymentRepo) IncomeByProperty(ctx context.Context, landlordID string) ([]PropertyIncome, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PropertyIncome), args.Error(1)
}

type mockLeaseRepo struct {
	mock.Mock
}

func (m *mockLeaseRepo) Create(ctx context.Context, l *lease.Lease) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockLeaseRepo) GetForLandlord(ctx context.Context, id, landlordID string) (*lease.Lease, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lease.Lease), args.Error(1)
}

func (m *mockLeaseRepo) Update(ctx context.Context, l *lease.Lease) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockLeaseRepo) DeleteTerminated(ctx context.Context, unitID, tenantID string) error {
	args := m.Called(ctx, unitID, tenantID)
	return args.Error(0)
}

func (m *mockLeaseRepo) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeaseRepo) ListForLandlord(ctx context.Context, landlordID string) ([]*lease.Lease, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lease.Lease), args.Error(1)
}

func (m *mockLeaseRepo) ListActiveForTenant(ctx context.Context, tenantID string) ([]*lease.Lease, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lease.Lease), args.Error(1)
}

func (m *mockLeaseRepo) CountActiveForLandlord(ctx context.Context, landlordID string) (int, error) {
	args := m.Called(ctx, landlordID)
	return args.Int(0), args.Error(1)
}

func (m *mockLeaseRepo) ListEndingForLandlord(ctx context.Context, landlordID string, from, to time.Time) ([]*lease.Lease, error) {
	args := m.Called(ctx, landlordID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lease.Lease), args.Error(1)
}

func (m *mockLeaseRepo) ListEndedForLandlord(ctx context.Context, landlordID string, cutoff time.Time) ([]*lease.Lease, error) {
	args := m.Called(ctx, landlordID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lease.Lease), args.Error(1)
}

func (m *mockLeaseRepo) ListEndingOn(ctx context.Context, day time.Time) ([]*lease.Lease, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lease.Lease), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID, subject, body string) {
	m.Called(ctx, userID, subject, body)
}

func newTestService(today time.Time, payments *mockPaymentRepo, leases *mockLeaseRepo) *Service {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return().Maybe()
	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	return NewService(payments, leases, clock.Fixed{Day: today}, fee50, 5, auditLogger, notifier)
}

func newNotifyingTestService(today time.Time, payments *mockPaymentRepo, leases *mockLeaseRepo, notifier *mockNotifier) *Service {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return().Maybe()
	return NewService(payments, leases, clock.Fixed{Day: today}, fee50, 5, auditLogger, notifier)
}

// TestPurpose: Validates the monthly generation run: one obligation per
// active lease, due on the configured day of the current month, skipping
// leases already billed.
// Scope: Unit Test
// Expected: The duplicate lease is skipped without error and the created
// count reflects only new rows.
// Test Case ID: BIL-10
func TestBilling_GenerateMonthlyRent(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	service := newTestService(date(2026, 4, 1), payments, leases)

	rent := decimal.NewFromInt(5000)
	payments.On("ListActiveLeaseCharges", mock.Anything).Return([]LeaseCharge{
		{LeaseID: "lease-1", RentAmount: rent},
		{LeaseID: "lease-2", RentAmount: rent},
	}, nil)
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{}, nil)

	wantDue := date(2026, 4, 5)
	payments.On("CreateGenerated", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.LeaseID == "lease-1" && p.DueDate.Equal(wantDue) && p.Source == SourceGenerated &&
			p.Status == StatusPending && p.AmountDue.Equal(rent) && strings.HasPrefix(p.ReceiptNumber, "HF-")
	})).Return(true, nil).Once()
	// lease-2 lost the insert race to a concurrent run
	payments.On("CreateGenerated", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.LeaseID == "lease-2"
	})).Return(false, nil).Once()

	created, err := service.GenerateMonthlyRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

// TestPurpose: Validates that a cycle running after the due day creates
// the obligation already overdue with the fee accrued.
// Scope: Unit Test
// Expected: Generating on the 20th against a due day of 5 yields a fee of
// 15 days at 50 per day.
// Test Case ID: BIL-11
func TestBilling_GenerateMonthlyRent_LateRun(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	service := newTestService(date(2026, 4, 20), payments, leases)

	payments.On("ListActiveLeaseCharges", mock.Anything).Return([]LeaseCharge{
		{LeaseID: "lease-1", RentAmount: decimal.NewFromInt(5000)},
	}, nil)
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{}, nil)
	payments.On("CreateGenerated", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.Status == StatusOverdue && p.LateFee.Equal(decimal.NewFromInt(750)) && p.DueDate.Equal(date(2026, 4, 5))
	})).Return(true, nil).Once()

	created, err := service.GenerateMonthlyRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

// TestPurpose: Validates that a lease with any payment already due this
// month, a manual charge included, receives no generated obligation.
// Scope: Unit Test
// Expected: The billed lease never reaches the insert; only the other
// lease is charged.
// Test Case ID: BIL-16
func TestBilling_GenerateMonthlyRent_ManualChargeBlocks(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	service := newTestService(date(2026, 4, 1), payments, leases)

	rent := decimal.NewFromInt(5000)
	payments.On("ListActiveLeaseCharges", mock.Anything).Return([]LeaseCharge{
		{LeaseID: "lease-1", RentAmount: rent},
		{LeaseID: "lease-2", RentAmount: rent},
	}, nil)
	// lease-2 carries a manual charge due in April
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{"lease-2": true}, nil)
	payments.On("CreateGenerated", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.LeaseID == "lease-1"
	})).Return(true, nil).Once()

	created, err := service.GenerateMonthlyRent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	payments.AssertNumberOfCalls(t, "CreateGenerated", 1)
}

// TestPurpose: Validates the billing notifications: a rent-due message
// per generated obligation and a payment-received message on settlement,
// with no message for a partial collection.
// Scope: Unit Test
// Test Case ID: BIL-17
func TestBilling_Notifications(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	notifier := new(mockNotifier)
	today := date(2026, 4, 1)
	service := newNotifyingTestService(today, payments, leases, notifier)

	payments.On("ListActiveLeaseCharges", mock.Anything).Return([]LeaseCharge{
		{LeaseID: "lease-1", TenantID: "tenant-1", RentAmount: decimal.NewFromInt(5000)},
	}, nil)
	payments.On("LeaseIDsBilledInMonth", mock.Anything, 2026, time.April).Return(map[string]bool{}, nil)
	payments.On("CreateGenerated", mock.Anything, mock.Anything).Return(true, nil)
	notifier.On("Notify", mock.Anything, "tenant-1", "Rent due 2026-04-05", mock.Anything).Return().Once()

	_, err := service.GenerateMonthlyRent(context.Background())
	require.NoError(t, err)

	open := &Record{
		Payment: Payment{
			ID:            "pay-1",
			AmountDue:     decimal.NewFromInt(5000),
			Status:        StatusPending,
			DueDate:       date(2026, 4, 5),
			ReceiptNumber: "HF-0195A1B2C3D4",
		},
		TenantID: "tenant-1",
	}
	payments.On("GetForLandlord", mock.Anything, "pay-1", "landlord-1").Return(open, nil)
	payments.On("Update", mock.Anything, mock.Anything).Return(nil)

	// partial collection stays quiet
	_, err = service.RecordPayment(context.Background(), "landlord-1", "pay-1", decimal.NewFromInt(2000), "")
	require.NoError(t, err)

	notifier.On("Notify", mock.Anything, "tenant-1", "Payment received", mock.Anything).Return().Once()
	_, err = service.RecordPayment(context.Background(), "landlord-1", "pay-1", decimal.NewFromInt(3000), "")
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}

// TestPurpose: Validates tenant self-service settlement: full base plus
// accrued fee, settlement date stamped, and a second attempt rejected.
// Scope: Unit Test
// Test Case ID: BIL-12
func TestBilling_PayRent(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	today := date(2026, 4, 15)
	service := newTestService(today, payments, leases)

	open := &Record{Payment: Payment{
		ID:         "pay-1",
		LeaseID:    "lease-1",
		AmountDue:  decimal.NewFromInt(5000),
		AmountPaid: decimal.Zero,
		Status:     StatusOverdue,
		DueDate:    date(2026, 4, 5),
	}}
	payments.On("GetForTenant", mock.Anything, "pay-1", "tenant-1").Return(open, nil).Once()
	payments.On("Update", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.AmountPaid.Equal(decimal.NewFromInt(5500)) && p.Status == StatusPaid &&
			p.PaidDate != nil && p.PaidDate.Equal(today)
	})).Return(nil).Once()

	rec, err := service.PayRent(context.Background(), "tenant-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, rec.Status)
	assert.True(t, rec.LateFee.Equal(decimal.NewFromInt(500)))

	settled := &Record{Payment: Payment{ID: "pay-1", Status: StatusPaid}}
	payments.On("GetForTenant", mock.Anything, "pay-1", "tenant-1").Return(settled, nil).Once()

	_, err = service.PayRent(context.Background(), "tenant-1", "pay-1")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

// TestPurpose: Validates landlord-side collection accumulates across
// visits until the obligation settles.
// Scope: Unit Test
// Expected: A first partial amount leaves the payment partial; the
// remainder settles it. Zero and negative amounts are rejected up front.
// Test Case ID: BIL-13
func TestBilling_RecordPayment(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	today := date(2026, 4, 3)
	service := newTestService(today, payments, leases)

	rec := &Record{Payment: Payment{
		ID:        "pay-1",
		AmountDue: decimal.NewFromInt(5000),
		Status:    StatusPending,
		DueDate:   date(2026, 4, 5),
	}}
	payments.On("GetForLandlord", mock.Anything, "pay-1", "landlord-1").Return(rec, nil)
	payments.On("Update", mock.Anything, mock.Anything).Return(nil)

	got, err := service.RecordPayment(context.Background(), "landlord-1", "pay-1", decimal.NewFromInt(2000), "cash")
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, got.Status)

	got, err = service.RecordPayment(context.Background(), "landlord-1", "pay-1", decimal.NewFromInt(3000), "")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, today, *got.PaidDate)

	_, err = service.RecordPayment(context.Background(), "landlord-1", "pay-1", decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// TestPurpose: Validates ad-hoc charge creation is scoped to the
// landlord's own leases.
// Scope: Unit Test
// Test Case ID: BIL-14
func TestBilling_CreateCharge(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	service := newTestService(date(2026, 4, 1), payments, leases)

	leases.On("GetForLandlord", mock.Anything, "lease-1", "landlord-1").Return(&lease.Lease{ID: "lease-1"}, nil)
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
		return p.Source == SourceManual && p.AmountDue.Equal(decimal.NewFromInt(250))
	})).Return(nil).Once()

	p, err := service.CreateCharge(context.Background(), "landlord-1", "lease-1", decimal.NewFromInt(250), date(2026, 4, 10), "water damage repair")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)

	leases.On("GetForLandlord", mock.Anything, "lease-1", "intruder").Return(nil, lease.ErrLeaseNotFound)
	_, err = service.CreateCharge(context.Background(), "intruder", "lease-1", decimal.NewFromInt(250), date(2026, 4, 10), "")
	assert.ErrorIs(t, err, lease.ErrLeaseNotFound)
}

// TestPurpose: Validates that read paths re-derive stored rows so a stale
// pending status renders as overdue with today's fee.
// Scope: Unit Test
// Test Case ID: BIL-15
func TestBilling_ListDerivesRows(t *testing.T) {
	payments := new(mockPaymentRepo)
	leases := new(mockLeaseRepo)
	service := newTestService(date(2026, 4, 15), payments, leases)

	stale := &Record{Payment: Payment{
		ID:        "pay-1",
		AmountDue: decimal.NewFromInt(5000),
		Status:    StatusPending, // stored before the due date passed
		DueDate:   date(2026, 4, 5),
	}}
	payments.On("ListForLandlord", mock.Anything, "landlord-1").Return([]*Record{stale}, nil)

	recs, err := service.ListForLandlord(context.Background(), "landlord-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusOverdue, recs[0].Status)
	assert.True(t, recs[0].LateFee.Equal(decimal.NewFromInt(500)))
}
