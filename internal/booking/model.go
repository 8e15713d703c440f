package booking

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// MaxPlayers caps the declared player count of a single booking.
const MaxPlayers = 6

// MinExternalIDLength is the sanity floor for an external booking id.
const MinExternalIDLength = 6

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "booking not found")
	ErrPermissionDenied     = apperror.New(http.StatusForbidden, "permission denied")
	ErrStartTimePast        = apperror.Validation("cannot create booking in the past")
	ErrInvalidPlayerCount   = apperror.Validation("declared player count must be between 1 and 6")
	ErrDeclineReason        = apperror.Validation("a decline reason is required")
	ErrCheckInNotToday      = apperror.Validation("check-in is only allowed on the booking date")
	ErrNoShowTooEarly       = apperror.Validation("no-show can only be recorded on or after the booking date")
	ErrExternalIDTaken      = apperror.Validation("external booking id is already linked to another booking")
	ErrExternalIDMismatch   = apperror.Validation("booking is already linked to a different external booking id")
	ErrOwnerRequired        = apperror.Validation("owner email is required")
	ErrDuplicateCorrelation = apperror.New(http.StatusConflict, "correlation id already used")
)

// Status is a Reservation State Machine state.
type Status string

const (
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
	StatusConfirmed           Status = "confirmed"
	StatusAttended            Status = "attended"
	StatusNoShow              Status = "no_show"
	StatusCancellationPending Status = "cancellation_pending"
	StatusCancelled           Status = "cancelled"
	StatusDeclined            Status = "declined"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusApproved,
	StatusConfirmed,
	StatusAttended,
	StatusNoShow,
	StatusCancellationPending,
	StatusCancelled,
	StatusDeclined,
}

// Placed reports whether the status holds a placement on the schedule.
func (s Status) Placed() bool {
	switch s {
	case StatusApproved, StatusConfirmed, StatusCancellationPending, StatusAttended, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the booking still claims its slot (placed or pending).
func (s Status) Active() bool {
	return s == StatusPending || s.Placed()
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

type Source string

const (
	SourceRequest  Source = "request"
	SourceImported Source = "imported"
	SourceManual   Source = "manual"
)

// ParticipantRole tags a roster seat.
type ParticipantRole string

const (
	RoleMember ParticipantRole = "member"
	RoleGuest  ParticipantRole = "guest"
)

// Participant is a named person attributed to one roster seat. Seat 0 is the host.
type Participant struct {
	Seat  int
	Role  ParticipantRole
	Email string
	Name  string
	Tier  string
}

// RawImport keeps the fields as the external system sent them.
// It is retained after assignment so the booking can be reverted.
type RawImport struct {
	Email string
	Name  string
	Notes string
}

// Booking is a booking request record. Every field is always present.
type Booking struct {
	ID                string
	Source            Source
	ExternalBookingID *string
	CorrelationID     *string

	ResourceID   string
	ResourceName string
	ResourceType resource.Type
	Date         time.Time
	Interval     slot.Interval

	Owner    OwnerIdentity
	Imported RawImport

	DeclaredPlayerCount int
	Roster              []Participant

	Status Status

	TotalOwedCents  int64
	HasUnpaidFees   bool
	FeeSnapshotPaid bool

	Notes              string
	StaffNotes         string
	DeclineReason      string
	CancellationReason string

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationMinutes of the placement.
func (b *Booking) DurationMinutes() int {
	return b.Interval.Duration()
}

func (b *Booking) FilledPlayerCount() int {
	return len(b.Roster)
}

func (b *Booking) UnfilledSlots() int {
	if n := b.DeclaredPlayerCount - len(b.Roster); n > 0 {
		return n
	}
	return 0
}

// FullyRostered reports whether every declared seat has a participant.
func (b *Booking) FullyRostered() bool {
	return len(b.Roster) >= b.DeclaredPlayerCount
}

// IsUnmatched is structural: only the UnknownImport identity is unmatched.
func (b *Booking) IsUnmatched() bool {
	_, ok := b.Owner.(UnknownImport)
	return ok
}

// OwnedBy reports whether email is the booking's member owner.
func (b *Booking) OwnedBy(email string) bool {
	m, ok := b.Owner.(KnownMember)
	return ok && email != "" && strings.EqualFold(m.Email(), email)
}

// Seat returns the participant in seat n, if any.
func (b *Booking) Seat(n int) (Participant, bool) {
	for _, p := range b.Roster {
		if p.Seat == n {
			return p, true
		}
	}
	return Participant{}, false
}

// Reservation projects the booking into the resolver's view.
func (b *Booking) Reservation() availability.Reservation {
	return availability.Reservation{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		Interval:   b.Interval,
		Placed:     b.Status.Placed(),
		CreatedAt:  b.CreatedAt,
	}
}

// Clone returns a deep copy.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.ExternalBookingID != nil {
		id := *b.ExternalBookingID
		cp.ExternalBookingID = &id
	}
	if b.CorrelationID != nil {
		id := *b.CorrelationID
		cp.CorrelationID = &id
	}
	cp.Roster = append([]Participant(nil), b.Roster...)
	return &cp
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID string
	Email  string
	Staff  bool
}

type Filter struct {
	Date       *time.Time
	ResourceID string
	Status     Status
	OwnerEmail string
	Unmatched  *bool
	Page       int
	PageSize   int
	SortOrder  string
}
