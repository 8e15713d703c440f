package availability

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// ReservationSource supplies the booking side of a day snapshot.
// It is implemented by the booking module.
type ReservationSource interface {
	DayReservations(ctx context.Context, date time.Time) ([]Reservation, error)
}

type ClosureRequest struct {
	ResourceID *string
	Date       time.Time
	Interval   slot.Interval
	Title      string
}

type BlockRequest struct {
	ResourceID string
	Date       time.Time
	Interval   slot.Interval
	Reason     string
}

// Service is the read side of the resolver plus closure and block management.
type Service interface {
	Day(ctx context.Context, date time.Time) (Day, error)
	Cell(ctx context.Context, resourceID string, date time.Time, s slot.Interval) (Cell, error)
	Grid(ctx context.Context, date time.Time, resourceIDs []string) ([]Row, error)

	ListClosures(ctx context.Context, date time.Time) ([]Closure, error)
	// CreateClosure never cancels existing bookings; it returns the ids that now
	// sit under the closure so staff can follow up explicitly.
	CreateClosure(ctx context.Context, req ClosureRequest) (*Closure, []string, error)
	DeleteClosure(ctx context.Context, id string) error

	ListBlocks(ctx context.Context, date time.Time) ([]Block, error)
	// CreateBlock returns overlapping existing bookings; the block is advisory for them.
	CreateBlock(ctx context.Context, req BlockRequest) (*Block, []string, error)
	DeleteBlock(ctx context.Context, id string) error

	Invalidate(ctx context.Context, date time.Time)
}

type service struct {
	repo         Repository
	reservations ReservationSource
	cache        Cache
}

func NewService(repo Repository, reservations ReservationSource, cache Cache) Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &service{repo: repo, reservations: reservations, cache: cache}
}

func (s *service) Day(ctx context.Context, date time.Time) (Day, error) {
	date = slot.Date(date)
	if day, ok := s.cache.Get(ctx, date); ok {
		return *day, nil
	}

	gen, cacheable := s.cache.Generation(ctx, date)
	day, err := LoadDay(ctx, s.repo, s.reservations, date)
	if err != nil {
		return Day{}, err
	}
	if cacheable {
		s.cache.Set(ctx, day, gen)
	}
	return day, nil
}

// LoadDay assembles a snapshot straight from storage.
func LoadDay(ctx context.Context, repo Repository, reservations ReservationSource, date time.Time) (Day, error) {
	date = slot.Date(date)
	closures, err := repo.ListClosures(ctx, date)
	if err != nil {
		return Day{}, err
	}
	blocks, err := repo.ListBlocks(ctx, date)
	if err != nil {
		return Day{}, err
	}
	res, err := reservations.DayReservations(ctx, date)
	if err != nil {
		return Day{}, err
	}
	return Day{Date: date, Closures: closures, Blocks: blocks, Reservations: res}, nil
}

func (s *service) Cell(ctx context.Context, resourceID string, date time.Time, iv slot.Interval) (Cell, error) {
	day, err := s.Day(ctx, date)
	if err != nil {
		return Cell{}, err
	}
	return ResolveCell(day, resourceID, iv), nil
}

func (s *service) Grid(ctx context.Context, date time.Time, resourceIDs []string) ([]Row, error) {
	day, err := s.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	return Grid(day, resourceIDs), nil
}

func (s *service) ListClosures(ctx context.Context, date time.Time) ([]Closure, error) {
	return s.repo.ListClosures(ctx, slot.Date(date))
}

func (s *service) CreateClosure(ctx context.Context, req ClosureRequest) (*Closure, []string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, nil, ErrEmptyTitle
	}
	iv, err := slot.New(req.Interval.Start, req.Interval.End)
	if err != nil {
		return nil, nil, err
	}

	c := &Closure{
		ResourceID: req.ResourceID,
		Date:       slot.Date(req.Date),
		Interval:   iv,
		Title:      strings.TrimSpace(req.Title),
	}
	if err := s.repo.CreateClosure(ctx, c); err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, c.Date)

	affected, err := s.affected(ctx, c.Date, c.ResourceID, iv)
	if err != nil {
		return c, nil, err
	}
	if len(affected) > 0 {
		log.Ctx(ctx).Warn().Str("closure_id", c.ID).Strs("booking_ids", affected).Msg("Closure overlaps existing bookings")
	}
	return c, affected, nil
}

func (s *service) DeleteClosure(ctx context.Context, id string) error {
	c, err := s.repo.DeleteClosure(ctx, id)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, c.Date)
	return nil
}

func (s *service) ListBlocks(ctx context.Context, date time.Time) ([]Block, error) {
	return s.repo.ListBlocks(ctx, slot.Date(date))
}

func (s *service) CreateBlock(ctx context.Context, req BlockRequest) (*Block, []string, error) {
	if req.ResourceID == "" {
		return nil, nil, ErrResourceMissing
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, nil, ErrEmptyReason
	}
	iv, err := slot.New(req.Interval.Start, req.Interval.End)
	if err != nil {
		return nil, nil, err
	}

	b := &Block{
		ResourceID: req.ResourceID,
		Date:       slot.Date(req.Date),
		Interval:   iv,
		Reason:     strings.TrimSpace(req.Reason),
	}
	if err := s.repo.CreateBlock(ctx, b); err != nil {
		return nil, nil, err
	}
	s.cache.Invalidate(ctx, b.Date)

	resourceID := b.ResourceID
	affected, err := s.affected(ctx, b.Date, &resourceID, iv)
	if err != nil {
		return b, nil, err
	}
	return b, affected, nil
}

func (s *service) DeleteBlock(ctx context.Context, id string) error {
	b, err := s.repo.DeleteBlock(ctx, id)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, b.Date)
	return nil
}

func (s *service) Invalidate(ctx context.Context, date time.Time) {
	s.cache.Invalidate(ctx, slot.Date(date))
}

func (s *service) affected(ctx context.Context, date time.Time, resourceID *string, iv slot.Interval) ([]string, error) {
	res, err := s.reservations.DayReservations(ctx, date)
	if err != nil {
		return nil, err
	}
	scope := ""
	if resourceID != nil {
		scope = *resourceID
	}
	return Overlapping(Day{Reservations: res}, scope, iv), nil
}
