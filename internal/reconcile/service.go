package reconcile

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
)

type Service interface {
	ListUnmatched(ctx context.Context, actor booking.Actor, date time.Time) ([]*booking.Booking, error)
	Candidates(ctx context.Context, actor booking.Actor, bookingID string, limit int) ([]*member.Member, error)
	Assign(ctx context.Context, actor booking.Actor, req AssignRequest) (*booking.Booking, error)
	Unassign(ctx context.Context, actor booking.Actor, bookingID string, expectedVersion int) (*booking.Booking, error)
}

type service struct {
	store    booking.Store
	bookings booking.Service
	members  member.Directory
}

func NewService(store booking.Store, bookings booking.Service, members member.Directory) Service {
	return &service{store: store, bookings: bookings, members: members}
}

func (s *service) ListUnmatched(ctx context.Context, actor booking.Actor, date time.Time) ([]*booking.Booking, error) {
	if !actor.Staff {
		return nil, booking.ErrPermissionDenied
	}
	d := slot.Date(date)
	unmatched := true
	filter := booking.Filter{Date: &d, Unmatched: &unmatched, PageSize: unmatchedPageSize}

	var out []*booking.Booking
	for seen := 0; ; {
		filter.Page++
		list, total, err := s.store.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, b := range list {
			if b.Status.Active() {
				out = append(out, b)
			}
		}
		seen += len(list)
		if len(list) == 0 || seen >= total {
			return out, nil
		}
	}
}

// Candidates searches the directory with the imported name and address.
func (s *service) Candidates(ctx context.Context, actor booking.Actor, bookingID string, limit int) ([]*member.Member, error) {
	if !actor.Staff {
		return nil, booking.ErrPermissionDenied
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var queries []string
	if name := strings.TrimSpace(b.Imported.Name); name != "" && !strings.EqualFold(name, trackman.UnknownName) {
		queries = append(queries, name)
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(b.Imported.Email), "@"); ok && local != "" {
		queries = append(queries, local)
	}

	seen := map[string]bool{}
	var out []*member.Member
	for _, q := range queries {
		found, err := s.members.Search(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			key := strings.ToLower(m.Email)
			if seen[key] || len(out) >= limit {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *service) Assign(ctx context.Context, actor booking.Actor, req AssignRequest) (*booking.Booking, error) {
	if !actor.Staff {
		return nil, booking.ErrPermissionDenied
	}
	email := strings.TrimSpace(req.MemberEmail)
	if (email != "") == req.Guest {
		return nil, ErrTargetRequired
	}

	current, err := s.store.Get(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := pickSeat(current, req.Seat); err != nil {
		return nil, err
	}

	var m *member.Member
	if !req.Guest {
		m, err = s.members.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if !req.Acknowledge {
			if err := s.duplicateGuard(ctx, current, m.Email); err != nil {
				return nil, err
			}
		}
	}

	var seat int
	out, err := s.bookings.Mutate(ctx, req.BookingID, req.ExpectedVersion, func(b *booking.Booking) error {
		n, err := pickSeat(b, req.Seat)
		if err != nil {
			return err
		}
		seat = n
		assign(b, seat, m, req.GuestName)
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("kind", string(apperror.KindOf(err))).
			Str("booking_id", req.BookingID).
			Msg("Assignment rejected")
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("booking_id", out.ID).
		Int("seat", seat).
		Bool("guest", req.Guest).
		Str("staff_id", actor.UserID).
		Msg("Seat assigned")
	return out, nil
}

// duplicateGuard reads committed state for another booking by the same member
// on the same date and resource type.
func (s *service) duplicateGuard(ctx context.Context, b *booking.Booking, email string) error {
	others, err := s.store.MemberBookingsOn(ctx, email, b.ResourceType, b.Date)
	if err != nil {
		return err
	}
	var ids []string
	for _, o := range others {
		if o.ID != b.ID {
			ids = append(ids, o.ID)
		}
	}
	if len(ids) > 0 {
		return apperror.ReconciliationAmbiguous(ids)
	}
	return nil
}

// pickSeat resolves the target seat against the booking's current roster.
func pickSeat(b *booking.Booking, requested *int) (int, error) {
	if requested == nil {
		if b.IsUnmatched() {
			return 0, nil
		}
		for seat := 1; seat < b.DeclaredPlayerCount; seat++ {
			if _, taken := b.Seat(seat); !taken {
				return seat, nil
			}
		}
		return 0, ErrOverAssignment
	}

	seat := *requested
	switch {
	case seat < 0:
		return 0, ErrInvalidSeat
	case seat >= b.DeclaredPlayerCount || b.FullyRostered():
		return 0, ErrOverAssignment
	case seat == 0 && !b.IsUnmatched():
		return 0, ErrAlreadyMatched
	}
	if _, taken := b.Seat(seat); taken {
		return 0, ErrSeatTaken
	}
	return seat, nil
}

// assign writes the participant into seat. Seat 0 also rewrites the owner.
func assign(b *booking.Booking, seat int, m *member.Member, guestName string) {
	var p booking.Participant
	if m != nil {
		km := booking.KnownMember{MemberEmail: m.Email, Name: m.Name, MemberTier: m.Tier}
		p = booking.HostParticipant(km)
		if seat == 0 {
			b.Owner = km
		}
	} else {
		name := strings.TrimSpace(guestName)
		if name == "" {
			name = defaultGuestName
		}
		p = booking.Participant{Role: booking.RoleGuest, Name: name}
		if seat == 0 {
			b.Owner = booking.AnonymousGuest{Name: name}
		}
	}
	p.Seat = seat
	b.Roster = append(b.Roster, p)
	sort.Slice(b.Roster, func(i, j int) bool { return b.Roster[i].Seat < b.Roster[j].Seat })
}

// Unassign returns an imported booking's host to the raw imported identity.
// Other seats stay filled.
func (s *service) Unassign(ctx context.Context, actor booking.Actor, bookingID string, expectedVersion int) (*booking.Booking, error) {
	if !actor.Staff {
		return nil, booking.ErrPermissionDenied
	}
	out, err := s.bookings.Mutate(ctx, bookingID, expectedVersion, func(b *booking.Booking) error {
		if b.Source != booking.SourceImported {
			return ErrNotImported
		}
		if b.IsUnmatched() {
			return ErrNotAssigned
		}
		b.Owner = booking.UnknownImport{Raw: b.Imported}
		roster := b.Roster[:0]
		for _, p := range b.Roster {
			if p.Seat != 0 {
				roster = append(roster, p)
			}
		}
		b.Roster = roster
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("booking_id", bookingID).Str("staff_id", actor.UserID).Msg("Booking unassigned")
	return out, nil
}
