package property

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrUnitNotFound        = errors.New("unit not found")
	ErrDuplicateUnitNumber = errors.New("unit number already exists in this property")
	ErrInvalidRent         = errors.New("rent amount must not be negative")
	ErrInvalidRentType     = errors.New("rent type must be monthly or daily")
)

// Rent types
const (
	RentMonthly = "monthly"
	RentDaily   = "daily"
)

// Unit statuses. Status is derived from lease activity: creating a lease
// occupies the unit, terminating it vacates the unit. It is not settable
// directly.
const (
	UnitVacant   = "vacant"
	UnitOccupied = "occupied"
)

// Property represents a building or site owned by a landlord
type Property struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// Unit represents a rentable space within a property
type Unit struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"property_id"`
	Number     string          `json:"number"`
	RentType   string          `json:"rent_type"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     string          `json:"status"`
}

// Occupancy summarizes unit occupancy for an owner
type Occupancy struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Vacant   int `json:"vacant"`
}

// Rate returns the occupancy percentage rounded to one decimal place.
func (o Occupancy) Rate() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(int(float64(o.Occupied)/float64(o.Total)*1000+0.5)) / 10
}

// Repository defines the interface for property storage. All lookups are
// scoped to the owning landlord so out-of-scope access reads as not-found.
type Repository interface {
	Create(ctx context.Context, p *Property) error
	GetForOwner(ctx context.Context, id, ownerID string) (*Property, error)
	Update(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id, ownerID string) error
	ListForOwner(ctx context.Context, ownerID string) ([]*Property, error)
}

// UnitRepository defines the interface for unit storage
type UnitRepository interface {
	Create(ctx context.Context, u *Unit) error
	GetForOwner(ctx context.Context, id, ownerID string) (*Unit, error)
	Update(ctx context.Context, u *Unit) error
	SetStatus(ctx context.Context, id, status string) error
	ListForProperty(ctx context.Context, propertyID string) ([]*Unit, error)
	OccupancyForOwner(ctx context.Context, ownerID string) (Occupancy, error)
}
