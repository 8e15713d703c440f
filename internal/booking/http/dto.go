package http

import (
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/request"
	resHttp "github.com/nekogravitycat/bay-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Date       string `form:"date"`
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=pending approved confirmed attended no_show cancellation_pending cancelled declined"`
	OwnerEmail string `form:"owner_email" binding:"omitempty,email"`
	Unmatched  *bool  `form:"unmatched"`
}

// Filter converts the query into a store filter.
func (r *ListBookingsRequest) Filter() (booking.Filter, error) {
	f := booking.Filter{
		ResourceID: r.ResourceID,
		Status:     booking.Status(r.Status),
		OwnerEmail: r.OwnerEmail,
		Unmatched:  r.Unmatched,
		Page:       r.Page,
		PageSize:   r.PageSize,
		SortOrder:  r.SortOrder,
	}
	if r.Date != "" {
		d, err := slot.ParseDate(r.Date)
		if err != nil {
			return booking.Filter{}, err
		}
		f.Date = &d
	}
	return f, nil
}

type OwnerResponse struct {
	Kind  string `json:"kind"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name"`
	Tier  string `json:"tier,omitempty"`
}

type ParticipantResponse struct {
	Seat  int    `json:"seat"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name"`
	Tier  string `json:"tier,omitempty"`
}

type ImportedResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type BookingResponse struct {
	ID                  string                `json:"id"`
	Source              string                `json:"source"`
	ExternalBookingID   *string               `json:"external_booking_id"`
	Resource            resHttp.ResourceTag   `json:"resource"`
	Date                string                `json:"date"`
	StartTime           string                `json:"start_time"`
	EndTime             string                `json:"end_time"`
	DurationMinutes     int                   `json:"duration_minutes"`
	Owner               OwnerResponse         `json:"owner"`
	Imported            *ImportedResponse     `json:"imported,omitempty"`
	Unmatched           bool                  `json:"unmatched"`
	DeclaredPlayerCount int                   `json:"declared_player_count"`
	Roster              []ParticipantResponse `json:"roster"`
	UnfilledSlots       int                   `json:"unfilled_slots"`
	Status              string                `json:"status"`
	TotalOwedCents      int64                 `json:"total_owed_cents"`
	HasUnpaidFees       bool                  `json:"has_unpaid_fees"`
	FeeSnapshotPaid     bool                  `json:"fee_snapshot_paid"`
	Notes               string                `json:"notes"`
	StaffNotes          string                `json:"staff_notes,omitempty"`
	DeclineReason       string                `json:"decline_reason,omitempty"`
	CancellationReason  string                `json:"cancellation_reason,omitempty"`
	Version             int                   `json:"version"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// NewBookingResponse renders b. Staff notes are only shown to staff.
func NewBookingResponse(b *booking.Booking, staff bool) BookingResponse {
	roster := make([]ParticipantResponse, len(b.Roster))
	for i, p := range b.Roster {
		roster[i] = ParticipantResponse{Seat: p.Seat, Role: string(p.Role), Email: p.Email, Name: p.Name, Tier: p.Tier}
	}
	resp := BookingResponse{
		ID:                b.ID,
		Source:            string(b.Source),
		ExternalBookingID: b.ExternalBookingID,
		Resource:          resHttp.ResourceTag{ID: b.ResourceID, Name: b.ResourceName, Type: string(b.ResourceType)},
		Date:              slot.FormatDate(b.Date),
		StartTime:         slot.FormatClock(b.Interval.Start),
		EndTime:           slot.FormatClock(b.Interval.End),
		DurationMinutes:   b.DurationMinutes(),
		Owner: OwnerResponse{
			Kind:  string(b.Owner.Kind()),
			Email: b.Owner.Email(),
			Name:  b.Owner.DisplayName(),
			Tier:  b.Owner.Tier(),
		},
		Unmatched:           b.IsUnmatched(),
		DeclaredPlayerCount: b.DeclaredPlayerCount,
		Roster:              roster,
		UnfilledSlots:       b.UnfilledSlots(),
		Status:              string(b.Status),
		TotalOwedCents:      b.TotalOwedCents,
		HasUnpaidFees:       b.HasUnpaidFees,
		FeeSnapshotPaid:     b.FeeSnapshotPaid,
		Notes:               b.Notes,
		DeclineReason:       b.DeclineReason,
		CancellationReason:  b.CancellationReason,
		Version:             b.Version,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
	if staff {
		resp.StaffNotes = b.StaffNotes
		if b.Source == booking.SourceImported {
			resp.Imported = &ImportedResponse{Email: b.Imported.Email, Name: b.Imported.Name, Notes: b.Imported.Notes}
		}
	}
	return resp
}

type CreateBookingRequest struct {
	ResourceID  string `json:"resource_id" binding:"required,uuid"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	PlayerCount int    `json:"player_count" binding:"required,min=1"`
	Notes       string `json:"notes"`
	OwnerEmail  string `json:"owner_email" binding:"omitempty,email"`
}

type TransitionRequest struct {
	Action            string `json:"action" binding:"required,oneof=approve confirm decline withdraw check_in no_show request_cancel complete_cancel"`
	ExternalBookingID string `json:"external_booking_id"`
	Reason            string `json:"reason"`
	ExpectedVersion   int    `json:"expected_version" binding:"omitempty,min=1"`
}

type UpdateNotesRequest struct {
	Notes           *string `json:"notes"`
	StaffNotes      *string `json:"staff_notes"`
	ExpectedVersion int     `json:"expected_version" binding:"omitempty,min=1"`
}

type FeeResponse struct {
	BookingID          string `json:"booking_id"`
	Cents              int64  `json:"cents"`
	Dollars            string `json:"dollars"`
	Badge              string `json:"badge"`
	Source             string `json:"source"`
	OverageBlocks      int    `json:"overage_blocks"`
	UnfilledGuestSeats int    `json:"unfilled_guest_seats"`
}

func NewFeeResponse(b *booking.Booking, v booking.FeeView) FeeResponse {
	return FeeResponse{
		BookingID:          b.ID,
		Cents:              v.Quote.Cents,
		Dollars:            v.Dollars,
		Badge:              v.Badge,
		Source:             string(v.Quote.Source),
		OverageBlocks:      v.OverageBlocks,
		UnfilledGuestSeats: v.UnfilledGuestSeats,
	}
}
