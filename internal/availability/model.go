package availability

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

var (
	ErrClosureNotFound = apperror.New(http.StatusNotFound, "closure not found")
	ErrBlockNotFound   = apperror.New(http.StatusNotFound, "event block not found")
	ErrEmptyTitle      = apperror.Validation("title is required")
	ErrEmptyReason     = apperror.Validation("reason is required")
	ErrResourceMissing = apperror.Validation("resource_id is required")
)

// Closure is a hard exclusion. A nil ResourceID closes the whole facility.
type Closure struct {
	ID         string        `json:"id"`
	ResourceID *string       `json:"resource_id,omitempty"`
	Date       time.Time     `json:"date"`
	Interval   slot.Interval `json:"interval"`
	Title      string        `json:"title"`
	CreatedAt  time.Time     `json:"created_at"`
}

// FacilityWide reports whether the closure applies to every resource.
func (c Closure) FacilityWide() bool {
	return c.ResourceID == nil
}

func (c Closure) appliesTo(resourceID string) bool {
	return c.ResourceID == nil || *c.ResourceID == resourceID
}

// Block reserves a resource for an internal event.
type Block struct {
	ID         string        `json:"id"`
	ResourceID string        `json:"resource_id"`
	Date       time.Time     `json:"date"`
	Interval   slot.Interval `json:"interval"`
	Reason     string        `json:"reason"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Reservation is the resolver's view of a booking record.
// Placed is false for requests still awaiting staff approval.
type Reservation struct {
	ID         string        `json:"id"`
	ResourceID string        `json:"resource_id"`
	Interval   slot.Interval `json:"interval"`
	Placed     bool          `json:"placed"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Day is a snapshot of everything that occupies the facility on one date.
type Day struct {
	Date         time.Time     `json:"date"`
	Closures     []Closure     `json:"closures"`
	Blocks       []Block       `json:"blocks"`
	Reservations []Reservation `json:"reservations"`
}

// State is the verdict for one cell of the grid.
type State string

const (
	StateClosed  State = "closed"
	StateBlocked State = "blocked"
	StateBooked  State = "booked"
	StatePending State = "pending"
	StateFree    State = "free"
)

// Cell is the resolved state of one resource over one slot.
// Title is set for Closed, Reason for Blocked, ReservationID for Booked and Pending.
type Cell struct {
	Slot          slot.Interval `json:"slot"`
	State         State         `json:"state"`
	Title         string        `json:"title,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	SourceID      string        `json:"source_id,omitempty"`
	ReservationID string        `json:"reservation_id,omitempty"`
}

// Row is one resource's cells across the operating window.
type Row struct {
	ResourceID string `json:"resource_id"`
	Cells      []Cell `json:"cells"`
}
