package composer

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// SeatRequest names one non-host seat by member email or guest name.
type SeatRequest struct {
	Role  booking.ParticipantRole
	Email string
	Name  string
}

type Request struct {
	HostEmail           string
	ResourceID          string
	Date                time.Time
	Interval            slot.Interval
	DeclaredPlayerCount int
	Seats               []SeatRequest
	Notes               string
}

// Composition is a resolved draft and its notes record.
type Composition struct {
	Draft Draft
	Notes Notes
}

type FinalizeRequest struct {
	Request
	ExternalBookingID string
	CorrelationID     string
}

type Service interface {
	// Compose resolves every member and renders the notes record. Nothing is stored.
	Compose(ctx context.Context, actor booking.Actor, req Request) (*Composition, error)
	// Finalize stores the composed booking as confirmed with its external id.
	Finalize(ctx context.Context, actor booking.Actor, req FinalizeRequest) (*booking.Booking, error)
}

type service struct {
	members  member.Directory
	bookings booking.Service
}

func NewService(members member.Directory, bookings booking.Service) Service {
	return &service{members: members, bookings: bookings}
}

func (s *service) Compose(ctx context.Context, actor booking.Actor, req Request) (*Composition, error) {
	if !actor.Staff {
		return nil, booking.ErrPermissionDenied
	}
	draft, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	notes, err := Compose(draft)
	if err != nil {
		return nil, err
	}
	return &Composition{Draft: draft, Notes: notes}, nil
}

// resolve looks up the host and every member seat in the directory.
func (s *service) resolve(ctx context.Context, req Request) (Draft, error) {
	draft := Draft{
		ResourceID:          strings.TrimSpace(req.ResourceID),
		Date:                req.Date,
		Interval:            req.Interval,
		DeclaredPlayerCount: req.DeclaredPlayerCount,
		Notes:               strings.TrimSpace(req.Notes),
	}
	if !req.Date.IsZero() {
		draft.Date = slot.Date(req.Date)
	}

	if strings.TrimSpace(req.HostEmail) == "" {
		return Draft{}, ErrHostRequired
	}
	host, err := s.members.GetByEmail(ctx, req.HostEmail)
	if err != nil {
		return Draft{}, err
	}
	draft.Host = host

	for _, seat := range req.Seats {
		switch seat.Role {
		case booking.RoleMember:
			if strings.TrimSpace(seat.Email) == "" {
				return Draft{}, ErrUnresolvedMember
			}
			m, err := s.members.GetByEmail(ctx, seat.Email)
			if err != nil {
				return Draft{}, err
			}
			draft.Participants = append(draft.Participants, Participant{Role: booking.RoleMember, Member: m})
		case booking.RoleGuest:
			draft.Participants = append(draft.Participants, Participant{Role: booking.RoleGuest, Name: seat.Name})
		default:
			return Draft{}, apperror.Validation("seat role must be member or guest")
		}
	}
	return draft, nil
}

func (s *service) Finalize(ctx context.Context, actor booking.Actor, req FinalizeRequest) (*booking.Booking, error) {
	comp, err := s.Compose(ctx, actor, req.Request)
	if err != nil {
		return nil, err
	}
	externalID := strings.TrimSpace(req.ExternalBookingID)
	if len(externalID) < booking.MinExternalIDLength {
		return nil, apperror.ExternalLinkageMissing("")
	}
	if comp.Draft.Date.Before(s.bookings.Today()) {
		return nil, booking.ErrStartTimePast
	}

	d := comp.Draft
	b := &booking.Booking{
		Source:              booking.SourceManual,
		ExternalBookingID:   &externalID,
		ResourceID:          d.ResourceID,
		Date:                d.Date,
		Interval:            d.Interval,
		Owner:               booking.KnownMember{MemberEmail: d.Host.Email, Name: d.Host.Name, MemberTier: d.Host.Tier},
		DeclaredPlayerCount: d.DeclaredPlayerCount,
		Roster:              d.Roster(),
		Status:              booking.StatusConfirmed,
		Notes:               comp.Notes.String(),
		StaffNotes:          d.Notes,
	}
	if id := strings.TrimSpace(req.CorrelationID); id != "" {
		b.CorrelationID = &id
	}

	out, err := s.bookings.Place(ctx, b)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("booking_id", out.ID).
		Str("external_booking_id", externalID).
		Str("staff_id", actor.UserID).
		Msg("Manual booking finalized")
	return out, nil
}
