package maintenance

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrInvalidStatus   = errors.New("status must be open, in_progress or resolved")
	ErrNoActiveLease   = errors.New("no active lease for this tenant")
)

// Ticket priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Ticket statuses
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Ticket is a maintenance request a tenant files against their leased
// unit.
type Ticket struct {
	ID          string    `json:"id"`
	LeaseID     string    `json:"lease_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is a message on a ticket from either side.
type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a ticket joined with the parties and location a listing
// needs.
type Record struct {
	Ticket
	TenantID     string `json:"tenant_id"`
	TenantName   string `json:"tenant_name"`
	LandlordID   string `json:"-"`
	UnitNumber   string `json:"unit_number"`
	PropertyName string `json:"property_name"`
}

// Repository defines the interface for ticket storage
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetForLandlord(ctx context.Context, id, landlordID string) (*Record, error)
	GetForTenant(ctx context.Context, id, tenantID string) (*Record, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CountOpenForLandlord(ctx context.Context, landlordID string) (int, error)
	ListForLandlord(ctx context.Context, landlordID string) ([]*Record, error)
	ListForTenant(ctx context.Context, tenantID string) ([]*Record, error)
	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, ticketID string) ([]*Comment, error)
}
