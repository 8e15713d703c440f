// Package reconcile links imported bookings to members and fills roster seats.
package reconcile

import (
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

var (
	ErrTargetRequired = apperror.Validation("assign a member email or mark the seat as a guest, not both")
	ErrOverAssignment = apperror.Validation("booking has no open seat for another participant")
	ErrSeatTaken      = apperror.Validation("seat is already assigned")
	ErrAlreadyMatched = apperror.Validation("booking host is already assigned; unassign it first")
	ErrNotAssigned    = apperror.Validation("booking host is not assigned to anyone")
	ErrNotImported    = apperror.Validation("only imported bookings can be unassigned")
	ErrInvalidSeat    = apperror.Validation("seat must be between 0 and the declared player count")
)

const (
	defaultGuestName   = "Guest"
	defaultSearchLimit = 10
)

// unmatchedPageSize is the page size ListUnmatched walks the store with.
var unmatchedPageSize = 100

// AssignRequest attributes one seat. Seat nil picks the host seat of an
// unmatched booking, otherwise the first open seat.
type AssignRequest struct {
	BookingID   string
	Seat        *int
	MemberEmail string
	Guest       bool
	GuestName   string
	// Acknowledge accepts a possible duplicate booking for the member.
	Acknowledge     bool
	ExpectedVersion int
}
