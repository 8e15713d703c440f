package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/billing"
	"github.com/nekogravitycat/bay-booking-backend/internal/fee"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type CreateRequest struct {
	ResourceID          string
	Date                time.Time
	Interval            slot.Interval
	DeclaredPlayerCount int
	Notes               string
	// OwnerEmail lets staff request on a member's behalf. Ignored for members.
	OwnerEmail    string
	CorrelationID string
}

type NotesUpdate struct {
	Notes           *string
	StaffNotes      *string
	ExpectedVersion int
}

// FeeView is a booking's quote with its display values.
type FeeView struct {
	Quote              fee.Quote
	Dollars            string
	Badge              string
	OverageBlocks      int
	UnfilledGuestSeats int
}

type Service interface {
	Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error)
	Get(ctx context.Context, actor Actor, id string) (*Booking, error)
	List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error)
	Transition(ctx context.Context, actor Actor, id string, in TransitionInput) (*Booking, error)
	UpdateNotes(ctx context.Context, actor Actor, id string, req NotesUpdate) (*Booking, error)
	SettleFees(ctx context.Context, actor Actor, id string) (*Booking, error)
	Fee(ctx context.Context, actor Actor, id string) (*Booking, FeeView, error)

	// Place inserts a fully built booking after validating its placement under
	// the schedule lock. A repeated correlation id returns the existing record.
	Place(ctx context.Context, b *Booking) (*Booking, error)
	// Reschedule moves a booking. Only the import adapter calls it.
	Reschedule(ctx context.Context, id string, resourceID string, date time.Time, iv slot.Interval) (*Booking, error)
	// Mutate applies fn to a locked booking without touching its placement.
	Mutate(ctx context.Context, id string, expectedVersion int, fn func(b *Booking) error) (*Booking, error)

	Today() time.Time
}

// Invalidator drops cached day snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, date time.Time)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, time.Time) {}

// Deps are the collaborators of the booking service.
type Deps struct {
	Store        Store
	Resources    resource.Service
	Members      member.Directory
	Availability Invalidator
	Billing      billing.Client
	Events       Events
	Schedule     fee.Schedule
	Clock        clockwork.Clock
	Location     *time.Location
}

type service struct {
	Deps
}

func NewService(d Deps) Service {
	if d.Events == nil {
		d.Events = NopEvents{}
	}
	if d.Availability == nil {
		d.Availability = nopInvalidator{}
	}
	if d.Billing == nil {
		d.Billing = billing.NewLogClient()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &service{Deps: d}
}

// Today is the facility's current calendar date.
func (s *service) Today() time.Time {
	return slot.DateIn(s.Clock.Now(), s.Location)
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error) {
	if req.CorrelationID != "" {
		if existing, err := s.Store.FindByCorrelationID(ctx, req.CorrelationID); err == nil {
			return existing, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	date := slot.Date(req.Date)
	if err := validatePlacement(req.Interval); err != nil {
		return nil, err
	}
	if date.Before(s.Today()) {
		return nil, ErrStartTimePast
	}
	if req.DeclaredPlayerCount < 1 || req.DeclaredPlayerCount > MaxPlayers {
		return nil, ErrInvalidPlayerCount
	}

	res, err := s.activeResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	ownerEmail := actor.Email
	if actor.Staff && strings.TrimSpace(req.OwnerEmail) != "" {
		ownerEmail = req.OwnerEmail
	}
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, ErrOwnerRequired
	}
	m, err := s.Members.GetByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	owner := KnownMember{MemberEmail: m.Email, Name: m.Name, MemberTier: m.Tier}

	b := &Booking{
		Source:              SourceRequest,
		ResourceID:          res.ID,
		ResourceName:        res.Name,
		ResourceType:        res.Type,
		Date:                date,
		Interval:            req.Interval,
		Owner:               owner,
		DeclaredPlayerCount: req.DeclaredPlayerCount,
		Roster:              []Participant{HostParticipant(owner)},
		Status:              StatusPending,
		Notes:               strings.TrimSpace(req.Notes),
	}
	if req.CorrelationID != "" {
		id := req.CorrelationID
		b.CorrelationID = &id
	}
	return s.Place(ctx, b)
}

// HostParticipant builds seat 0 for a member owner.
func HostParticipant(m KnownMember) Participant {
	return Participant{Seat: 0, Role: RoleMember, Email: m.Email(), Name: m.Name, Tier: m.MemberTier}
}

func validatePlacement(iv slot.Interval) error {
	if _, err := slot.New(iv.Start, iv.End); err != nil {
		return err
	}
	if !iv.Aligned() {
		return slot.ErrUnaligned
	}
	if !iv.WithinOperatingHours() {
		return slot.ErrOutsideHours
	}
	return nil
}

func (s *service) activeResource(ctx context.Context, id string) (*resource.Resource, error) {
	res, err := s.Resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.IsActive {
		return nil, resource.ErrInactive
	}
	return res, nil
}

func (s *service) Place(ctx context.Context, b *Booking) (*Booking, error) {
	if b.CorrelationID != nil {
		if existing, err := s.Store.FindByCorrelationID(ctx, *b.CorrelationID); err == nil {
			return existing, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Date = slot.Date(b.Date)
	if b.ResourceType == "" {
		res, err := s.activeResource(ctx, b.ResourceID)
		if err != nil {
			return nil, err
		}
		b.ResourceName, b.ResourceType = res.Name, res.Type
	}

	err := s.Store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockSchedule(ctx, b.ResourceID, b.Date); err != nil {
			return err
		}
		day, err := tx.Day(ctx, b.Date)
		if err != nil {
			return err
		}
		if err := availability.CheckPlacement(day, availability.Placement{
			ResourceID: b.ResourceID,
			Interval:   b.Interval,
			Placed:     b.Status.Placed(),
		}); err != nil {
			return err
		}
		return tx.Insert(ctx, b)
	})
	if errors.Is(err, ErrDuplicateCorrelation) && b.CorrelationID != nil {
		return s.Store.FindByCorrelationID(ctx, *b.CorrelationID)
	}
	if err != nil {
		logWriteFailure(ctx, err, b, "Failed to place booking")
		return nil, err
	}

	s.Availability.Invalidate(ctx, b.Date)
	log.Ctx(ctx).Info().
		Str("booking_id", b.ID).
		Str("resource_id", b.ResourceID).
		Str("status", string(b.Status)).
		Str("source", string(b.Source)).
		Msg("Booking placed")
	return b, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && !b.OwnedBy(actor.Email) {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error) {
	if !actor.Staff {
		filter.OwnerEmail = actor.Email
		filter.Unmatched = nil
	}
	return s.Store.List(ctx, filter)
}

func (s *service) Transition(ctx context.Context, actor Actor, id string, in TransitionInput) (*Booking, error) {
	var (
		out  *Booking
		plan Plan
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Staff && !b.OwnedBy(actor.Email) {
			return ErrNotFound
		}

		plan, err = Evaluate(b, in, actor, s.Today())
		if err != nil {
			return err
		}
		if plan.Noop {
			out = b
			return nil
		}

		if plan.Places {
			if err := tx.LockSchedule(ctx, b.ResourceID, b.Date); err != nil {
				return err
			}
			day, err := tx.Day(ctx, b.Date)
			if err != nil {
				return err
			}
			if err := availability.CheckPlacement(day, availability.Placement{
				ResourceID:  b.ResourceID,
				Interval:    b.Interval,
				ExcludeID:   b.ID,
				RequestedAt: b.CreatedAt,
				Placed:      true,
			}); err != nil {
				return err
			}
		}

		cmd := billing.Command{
			BookingID:      b.ID,
			IdempotencyKey: idempotencyKey(b, in.Action),
			Reason:         strings.TrimSpace(in.Reason),
			IssuedAt:       s.Clock.Now().UTC(),
		}
		switch plan.Effect {
		case EffectNotifyCancellation:
			if err := s.Billing.NotifyCancellationRequested(ctx, cmd); err != nil {
				return err
			}
		case EffectReverseCharges:
			if err := s.Billing.ReverseCharges(ctx, cmd); err != nil {
				return err
			}
		}

		plan.Apply(b, in)
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("kind", string(apperror.KindOf(err))).
			Str("booking_id", id).
			Str("action", string(in.Action)).
			Msg("Transition rejected")
		return nil, err
	}
	if plan.Noop {
		return out, nil
	}

	s.Availability.Invalidate(ctx, out.Date)
	s.Events.StatusChanged(ctx, StatusChanged{
		BookingID:  out.ID,
		ResourceID: out.ResourceID,
		Date:       slot.FormatDate(out.Date),
		Action:     in.Action,
		From:       plan.From,
		To:         plan.To,
		Version:    out.Version,
		At:         s.Clock.Now().UTC(),
	})
	log.Ctx(ctx).Info().
		Str("booking_id", out.ID).
		Str("from", string(plan.From)).
		Str("to", string(plan.To)).
		Msg("Booking transitioned")
	return out, nil
}

// idempotencyKey is stable across operator retries of the same transition.
func idempotencyKey(b *Booking, action Action) string {
	return b.ID + ":" + string(action) + ":" + strconv.Itoa(b.Version)
}

func (s *service) Mutate(ctx context.Context, id string, expectedVersion int, fn func(b *Booking) error) (*Booking, error) {
	var out *Booking
	err := s.Store.InTx(ctx, func(tx Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && expectedVersion != b.Version {
			return apperror.StaleState(string(b.Status), b.Version)
		}
		before := b.Reservation()
		if err := fn(b); err != nil {
			return err
		}
		if b.Reservation() != before {
			return apperror.Validation("placement cannot change here")
		}
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) UpdateNotes(ctx context.Context, actor Actor, id string, req NotesUpdate) (*Booking, error) {
	if !actor.Staff {
		return nil, ErrPermissionDenied
	}
	return s.Mutate(ctx, id, req.ExpectedVersion, func(b *Booking) error {
		if req.Notes != nil {
			b.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.StaffNotes != nil {
			b.StaffNotes = strings.TrimSpace(*req.StaffNotes)
		}
		return nil
	})
}

// SettleFees captures the quoted amount and freezes the snapshot as paid.
// Settling an already paid booking is a no-op.
func (s *service) SettleFees(ctx context.Context, actor Actor, id string) (*Booking, error) {
	if !actor.Staff {
		return nil, ErrPermissionDenied
	}
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	used, err := s.usedMinutes(ctx, current)
	if err != nil {
		return nil, err
	}

	return s.Mutate(ctx, id, 0, func(b *Booking) error {
		if b.FeeSnapshotPaid {
			return nil
		}
		if !b.Status.Placed() {
			return apperror.InvalidTransition(string(b.Status), "settle")
		}
		q, err := fee.QuoteFor(s.quoteInput(b, used, true))
		if err != nil {
			return err
		}
		if q.Cents > 0 {
			if err := s.Billing.CaptureFees(ctx, billing.Command{
				BookingID:      b.ID,
				IdempotencyKey: idempotencyKey(b, "settle"),
				AmountCents:    q.Cents,
				IssuedAt:       s.Clock.Now().UTC(),
			}); err != nil {
				return err
			}
		}
		b.TotalOwedCents = q.Cents
		b.HasUnpaidFees = false
		b.FeeSnapshotPaid = true
		return nil
	})
}

func (s *service) Fee(ctx context.Context, actor Actor, id string) (*Booking, FeeView, error) {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, FeeView{}, err
	}
	used, err := s.usedMinutes(ctx, b)
	if err != nil {
		return nil, FeeView{}, err
	}

	in := s.quoteInput(b, used, slot.SameDate(b.Date, s.Today()))
	q, err := fee.QuoteFor(in)
	if err != nil {
		return nil, FeeView{}, err
	}
	return b, FeeView{
		Quote:              q,
		Dollars:            fee.FormatDollars(q.Cents),
		Badge:              fee.FormatBadge(q.Cents),
		OverageBlocks:      fee.OverageBlocks(in.Estimate),
		UnfilledGuestSeats: fee.UnfilledGuestSeats(in.Estimate),
	}, nil
}

func (s *service) quoteInput(b *Booking, usedMinutes int, sameDay bool) fee.QuoteInput {
	return fee.QuoteInput{
		SnapshotPaid:   b.FeeSnapshotPaid,
		TotalOwedCents: b.TotalOwedCents,
		SameDay:        sameDay,
		Estimate: s.Schedule.Input(
			b.Owner.Tier(),
			b.DurationMinutes(),
			usedMinutes,
			b.DeclaredPlayerCount,
			b.FilledPlayerCount(),
		),
	}
}

// usedMinutes sums the owner's earlier placed usage on the same day and resource type.
func (s *service) usedMinutes(ctx context.Context, b *Booking) (int, error) {
	m, ok := b.Owner.(KnownMember)
	if !ok {
		return 0, nil
	}
	others, err := s.Store.MemberBookingsOn(ctx, m.Email(), b.ResourceType, b.Date)
	if err != nil {
		return 0, err
	}
	used := 0
	for _, o := range others {
		if o.ID != b.ID && o.Status.Placed() && o.Interval.Start < b.Interval.Start {
			used += o.DurationMinutes()
		}
	}
	return used, nil
}

func (s *service) Reschedule(ctx context.Context, id string, resourceID string, date time.Time, iv slot.Interval) (*Booking, error) {
	if _, err := slot.New(iv.Start, iv.End); err != nil {
		return nil, err
	}
	date = slot.Date(date)
	res, err := s.activeResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	var (
		out     *Booking
		oldDate time.Time
	)
	err = s.Store.InTx(ctx, func(tx Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		oldDate = b.Date
		if b.ResourceID == resourceID && b.Date.Equal(date) && b.Interval == iv {
			out = b
			return nil
		}

		if err := tx.LockSchedule(ctx, resourceID, date); err != nil {
			return err
		}
		day, err := tx.Day(ctx, date)
		if err != nil {
			return err
		}
		if err := availability.CheckPlacement(day, availability.Placement{
			ResourceID:  resourceID,
			Interval:    iv,
			ExcludeID:   b.ID,
			RequestedAt: b.CreatedAt,
			Placed:      b.Status.Placed(),
		}); err != nil {
			return err
		}

		b.ResourceID, b.ResourceName, b.ResourceType = res.ID, res.Name, res.Type
		b.Date, b.Interval = date, iv
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("booking_id", id).Msg("Failed to reschedule booking")
		return nil, err
	}

	s.Availability.Invalidate(ctx, oldDate)
	s.Availability.Invalidate(ctx, date)
	return out, nil
}

func logWriteFailure(ctx context.Context, err error, b *Booking, msg string) {
	log.Ctx(ctx).Warn().Err(err).
		Str("kind", string(apperror.KindOf(err))).
		Str("booking_id", b.ID).
		Str("resource_id", b.ResourceID).
		Msg(msg)
}
