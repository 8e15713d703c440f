package trackman

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

var ErrExternalIDRequired = apperror.Validation("external booking id is required")

// ExternalBooking is a booking as the external system reports it.
type ExternalBooking struct {
	ExternalID    string `json:"booking_id"`
	ResourceID    string `json:"bay_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	Notes         string `json:"notes"`
	PlayerCount   int    `json:"player_count"`
}

// Finder looks bookings up by external id.
type Finder interface {
	FindByExternalID(ctx context.Context, externalID string) (*booking.Booking, error)
}

type Result struct {
	Booking *booking.Booking
	Created bool
}

type Importer struct {
	bookings booking.Service
	finder   Finder
	members  member.Directory
}

func NewImporter(bookings booking.Service, finder Finder, members member.Directory) *Importer {
	return &Importer{bookings: bookings, finder: finder, members: members}
}

// Import upserts by external id. A new record arrives confirmed with its
// identity classified and its roster prefilled from the notes. A known record
// only has its placement updated.
func (im *Importer) Import(ctx context.Context, eb ExternalBooking) (*Result, error) {
	externalID := strings.TrimSpace(eb.ExternalID)
	if externalID == "" {
		return nil, ErrExternalIDRequired
	}
	if len(externalID) < booking.MinExternalIDLength {
		return nil, apperror.ExternalLinkageMissing("")
	}
	date, err := slot.ParseDate(eb.Date)
	if err != nil {
		return nil, err
	}
	iv, err := slot.Parse(eb.StartTime, eb.EndTime)
	if err != nil {
		return nil, err
	}

	res, err := im.update(ctx, externalID, eb, date, iv)
	if !errors.Is(err, booking.ErrNotFound) {
		return res, err
	}

	b, err := im.newBooking(ctx, externalID, eb)
	if err != nil {
		return nil, err
	}
	b.Date, b.Interval = date, iv

	placed, err := im.bookings.Place(ctx, b)
	if errors.Is(err, booking.ErrExternalIDTaken) {
		// A concurrent delivery stored it first.
		return im.update(ctx, externalID, eb, date, iv)
	}
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("booking_id", placed.ID).
		Str("external_booking_id", externalID).
		Bool("unmatched", placed.IsUnmatched()).
		Msg("Imported booking")
	return &Result{Booking: placed, Created: true}, nil
}

func (im *Importer) update(ctx context.Context, externalID string, eb ExternalBooking, date time.Time, iv slot.Interval) (*Result, error) {
	existing, err := im.finder.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	b, err := im.bookings.Reschedule(ctx, existing.ID, eb.ResourceID, date, iv)
	if err != nil {
		return nil, err
	}
	return &Result{Booking: b}, nil
}

func (im *Importer) newBooking(ctx context.Context, externalID string, eb ExternalBooking) (*booking.Booking, error) {
	raw := booking.RawImport{
		Email: strings.TrimSpace(eb.CustomerEmail),
		Name:  strings.TrimSpace(eb.CustomerName),
		Notes: eb.Notes,
	}
	owner, err := im.confirmOwner(ctx, ClassifyOwner(eb.CustomerEmail, eb.CustomerName, eb.Notes), raw)
	if err != nil {
		return nil, err
	}

	notes, parseErr := composer.ParseNotes(eb.Notes)
	declared := eb.PlayerCount
	if declared < 1 {
		declared = max(1, len(notes.Lines))
	}
	if declared > booking.MaxPlayers {
		log.Ctx(ctx).Warn().
			Str("external_booking_id", externalID).
			Int("player_count", declared).
			Int("max_players", booking.MaxPlayers).
			Msg("Import player count above bay capacity, capped")
		declared = booking.MaxPlayers
	}

	roster, err := im.roster(ctx, owner, notes, declared)
	if err != nil {
		return nil, err
	}
	if parseErr != nil && strings.TrimSpace(eb.Notes) != "" {
		log.Ctx(ctx).Debug().Str("external_booking_id", externalID).Msg("Import notes are not a roster")
	}

	return &booking.Booking{
		Source:            booking.SourceImported,
		ExternalBookingID: &externalID,
		ResourceID:        eb.ResourceID,
		Owner:             owner,
		Imported:          raw,

		DeclaredPlayerCount: declared,
		Roster:              roster,
		Status:              booking.StatusConfirmed,
		Notes:               eb.Notes,
	}, nil
}

// confirmOwner fills a plausible member from the directory. An address the
// directory does not know is unmatched.
func (im *Importer) confirmOwner(ctx context.Context, owner booking.OwnerIdentity, raw booking.RawImport) (booking.OwnerIdentity, error) {
	km, ok := owner.(booking.KnownMember)
	if !ok {
		return owner, nil
	}
	m, err := im.members.GetByEmail(ctx, km.Email())
	if errors.Is(err, member.ErrNotFound) {
		return booking.UnknownImport{Raw: raw}, nil
	}
	if err != nil {
		return nil, err
	}
	return booking.KnownMember{MemberEmail: m.Email, Name: m.Name, MemberTier: m.Tier}, nil
}

// roster seats the host when known and every named line of the notes.
func (im *Importer) roster(ctx context.Context, owner booking.OwnerIdentity, notes composer.Notes, declared int) ([]booking.Participant, error) {
	var roster []booking.Participant
	if km, ok := owner.(booking.KnownMember); ok {
		roster = append(roster, booking.HostParticipant(km))
	}
	for seat, l := range notes.Lines {
		if seat == 0 || seat >= declared || l.Placeholder() {
			continue
		}
		p := booking.Participant{Seat: seat, Role: booking.RoleGuest, Name: l.Name()}
		if l.Tag == composer.TagMember {
			m, err := im.members.GetByEmail(ctx, l.Email)
			switch {
			case err == nil:
				p = booking.Participant{Seat: seat, Role: booking.RoleMember, Email: m.Email, Name: m.Name, Tier: m.Tier}
			case !errors.Is(err, member.ErrNotFound):
				return nil, err
			}
		}
		roster = append(roster, p)
	}
	return roster, nil
}
