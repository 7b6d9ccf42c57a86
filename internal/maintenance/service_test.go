package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hidinck/hostflow/internal/audit"
	"github.com/hidinck/hostflow/internal/lease"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetForLandlord(ctx context.Context, id, landlordID string) (*Record, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockRepo) GetForTenant(ctx context.Context, id, tenantID string) (*Record, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockRepo) CountOpenForLandlord(ctx context.Context, landlordID string) (int, error) {
	args := m.Called(ctx, landlordID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *mockRepo) ListForTenant(ctx context.Context, tenantID string) ([]*Record, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *mockRepo) AddComment(ctx context.Context, c *Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockRepo) ListComments(ctx context.Context, ticketID string) ([]*Comment, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Comment), args.Error(1)
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

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID, subject, body string) {
	m.Called(ctx, userID, subject, body)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates ticket submission: requires an active lease held
// by the tenant, opens the ticket, and notifies the landlord.
// Scope: Unit Test
// Test Case ID: MNT-01
func TestMaintenance_Submit(t *testing.T) {
	repo := new(mockRepo)
	leases := new(mockLeaseRepo)
	notifier := new(mockNotifier)
	auditLogger := new(mockAudit)
	service := NewService(repo, leases, notifier, auditLogger)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	leases.On("ListActiveForTenant", mock.Anything, "tenant-1").Return([]*lease.Lease{
		{ID: "lease-1", Status: lease.StatusActive},
	}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(tk *Ticket) bool {
		return tk.Status == StatusOpen && tk.LeaseID == "lease-1" && tk.Priority == PriorityHigh
	})).Return(nil)
	repo.On("GetForTenant", mock.Anything, mock.Anything, "tenant-1").Return(&Record{
		Ticket:       Ticket{Title: "Broken heater", Status: StatusOpen},
		TenantID:     "tenant-1",
		LandlordID:   "landlord-1",
		UnitNumber:   "A1",
		PropertyName: "Hilltop",
	}, nil)
	notifier.On("Notify", mock.Anything, "landlord-1", mock.Anything, mock.Anything).Return()

	rec, err := service.Submit(context.Background(), "tenant-1", "lease-1", "Broken heater", "No heat since Monday", PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, rec.Status)
	notifier.AssertCalled(t, "Notify", mock.Anything, "landlord-1", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that submission fails without a matching active
// lease and on an unknown priority.
// Scope: Unit Test
// Test Case ID: MNT-02
func TestMaintenance_Submit_Validation(t *testing.T) {
	repo := new(mockRepo)
	leases := new(mockLeaseRepo)
	notifier := new(mockNotifier)
	auditLogger := new(mockAudit)
	service := NewService(repo, leases, notifier, auditLogger)

	_, err := service.Submit(context.Background(), "tenant-1", "lease-1", "Broken heater", "", "urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	leases.On("ListActiveForTenant", mock.Anything, "tenant-1").Return([]*lease.Lease{
		{ID: "lease-other", Status: lease.StatusActive},
	}, nil)

	_, err = service.Submit(context.Background(), "tenant-1", "lease-1", "Broken heater", "", PriorityLow)
	assert.ErrorIs(t, err, ErrNoActiveLease)
	repo.AssertNotCalled(t, "Create")
}

// TestPurpose: Validates the status workflow: landlord-scoped lookup,
// persisted transition, tenant notification, and a same-status no-op.
// Scope: Unit Test
// Test Case ID: MNT-03
func TestMaintenance_UpdateStatus(t *testing.T) {
	repo := new(mockRepo)
	leases := new(mockLeaseRepo)
	notifier := new(mockNotifier)
	auditLogger := new(mockAudit)
	service := NewService(repo, leases, notifier, auditLogger)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	repo.On("GetForLandlord", mock.Anything, "ticket-1", "landlord-1").Return(&Record{
		Ticket:     Ticket{ID: "ticket-1", Title: "Broken heater", Status: StatusOpen},
		TenantID:   "tenant-1",
		UnitNumber: "A1",
	}, nil)
	repo.On("UpdateStatus", mock.Anything, "ticket-1", StatusInProgress).Return(nil).Once()
	notifier.On("Notify", mock.Anything, "tenant-1", mock.Anything, mock.Anything).Return()

	rec, err := service.UpdateStatus(context.Background(), "landlord-1", "ticket-1", StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec.Status)
	notifier.AssertCalled(t, "Notify", mock.Anything, "tenant-1", mock.Anything, mock.Anything)

	_, err = service.UpdateStatus(context.Background(), "landlord-1", "ticket-1", "closed")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Same status again: no second persistence call
	repo.On("GetForLandlord", mock.Anything, "ticket-1", "landlord-1").Return(&Record{
		Ticket: Ticket{ID: "ticket-1", Status: StatusInProgress},
	}, nil)
	_, err = service.UpdateStatus(context.Background(), "landlord-1", "ticket-1", StatusInProgress)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

// TestPurpose: Validates comment routing: each side's comment notifies
// the other party.
// Scope: Unit Test
// Test Case ID: MNT-04
func TestMaintenance_Comments(t *testing.T) {
	repo := new(mockRepo)
	leases := new(mockLeaseRepo)
	notifier := new(mockNotifier)
	auditLogger := new(mockAudit)
	service := NewService(repo, leases, notifier, auditLogger)

	rec := &Record{
		Ticket:     Ticket{ID: "ticket-1", Title: "Broken heater"},
		TenantID:   "tenant-1",
		LandlordID: "landlord-1",
	}
	repo.On("GetForTenant", mock.Anything, "ticket-1", "tenant-1").Return(rec, nil)
	repo.On("GetForLandlord", mock.Anything, "ticket-1", "landlord-1").Return(rec, nil)
	repo.On("AddComment", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	_, err := service.CommentAsTenant(context.Background(), "tenant-1", "ticket-1", "Still cold in here")
	require.NoError(t, err)
	notifier.AssertCalled(t, "Notify", mock.Anything, "landlord-1", mock.Anything, "Still cold in here")

	_, err = service.CommentAsLandlord(context.Background(), "landlord-1", "ticket-1", "Plumber booked for Friday")
	require.NoError(t, err)
	notifier.AssertCalled(t, "Notify", mock.Anything, "tenant-1", mock.Anything, "Plumber booked for Friday")
}
