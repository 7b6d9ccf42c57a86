package lease

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrLeaseNotFound     = errors.New("lease not found")
	ErrActiveLeaseExists = errors.New("an active lease already exists for this unit and tenant")
	ErrLeaseNotActive    = errors.New("lease is not active")
	ErrInvalidPeriod     = errors.New("lease end date must be after its start date")
)

// Lease statuses. Active leases expire automatically once their end date
// passes; termination is an explicit landlord action. Both end states are
// terminal.
const (
	StatusActive     = "active"
	StatusExpired    = "expired"
	StatusTerminated = "terminated"
)

// Lease binds a unit to a tenant for a period
type Lease struct {
	ID          string    `json:"id"`
	UnitID      string    `json:"unit_id"`
	TenantID    string    `json:"tenant_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      string    `json:"status"`
	DocumentRef string    `json:"document_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpiringSoon reports whether the lease ends within the window.
func (l *Lease) IsExpiringSoon(today time.Time, window time.Duration) bool {
	return !l.EndDate.Before(today) && !l.EndDate.After(today.Add(window))
}

// Repository defines the interface for lease storage
type Repository interface {
	// Create inserts a lease. The storage layer enforces at most one
	// active lease per (unit, tenant) and reports a conflict as
	// ErrActiveLeaseExists.
	Create(ctx context.Context, l *Lease) error
	GetForLandlord(ctx context.Context, id, landlordID string) (*Lease, error)
	Update(ctx context.Context, l *Lease) error
	// DeleteTerminated removes terminated leases for the pair so the
	// unique-active constraint can be satisfied again after re-letting.
	DeleteTerminated(ctx context.Context, unitID, tenantID string) error
	// ExpireActiveBefore flips every active lease whose end date is
	// before the cutoff to expired and returns how many changed.
	ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListForLandlord(ctx context.Context, landlordID string) ([]*Lease, error)
	ListActiveForTenant(ctx context.Context, tenantID string) ([]*Lease, error)
	CountActiveForLandlord(ctx context.Context, landlordID string) (int, error)
	// ListEndingForLandlord returns leases with end date in [from, to],
	// any status, for expiry dashboards.
	ListEndingForLandlord(ctx context.Context, landlordID string, from, to time.Time) ([]*Lease, error)
	// ListEndedForLandlord returns leases whose end date passed before
	// the cutoff.
	ListEndedForLandlord(ctx context.Context, landlordID string, cutoff time.Time) ([]*Lease, error)
	// ListEndingOn returns active leases ending exactly on the given
	// day, across all landlords.
	ListEndingOn(ctx context.Context, day time.Time) ([]*Lease, error)
}
