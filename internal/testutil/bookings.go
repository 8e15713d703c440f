package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// Availability is an in-memory availability.Repository.
type Availability struct {
	mu       sync.Mutex
	closures []availability.Closure
	blocks   []availability.Block
}

func NewAvailability() *Availability {
	return &Availability{}
}

func (a *Availability) ListClosures(_ context.Context, date time.Time) ([]availability.Closure, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []availability.Closure
	for _, c := range a.closures {
		if c.Date.Equal(slot.Date(date)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a *Availability) CreateClosure(_ context.Context, c *availability.Closure) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	a.closures = append(a.closures, *c)
	return nil
}

func (a *Availability) DeleteClosure(_ context.Context, id string) (*availability.Closure, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.closures {
		if c.ID == id {
			a.closures = append(a.closures[:i], a.closures[i+1:]...)
			return &c, nil
		}
	}
	return nil, availability.ErrClosureNotFound
}

func (a *Availability) ListBlocks(_ context.Context, date time.Time) ([]availability.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []availability.Block
	for _, b := range a.blocks {
		if b.Date.Equal(slot.Date(date)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (a *Availability) CreateBlock(_ context.Context, b *availability.Block) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b.ID = uuid.NewString()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	a.blocks = append(a.blocks, *b)
	return nil
}

func (a *Availability) DeleteBlock(_ context.Context, id string) (*availability.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, b := range a.blocks {
		if b.ID == id {
			a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
			return &b, nil
		}
	}
	return nil, availability.ErrBlockNotFound
}

// Bookings is an in-memory booking.Store. Transactions are fully serialized,
// standing in for the row and schedule locks, and writes are staged until the
// callback returns nil. Commit enforces the same constraints as the schema.
type Bookings struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	items  map[string]*booking.Booking
	avail  *Availability
	clock  func() time.Time
}

func NewBookings(avail *Availability) *Bookings {
	return &Bookings{
		items: map[string]*booking.Booking{},
		avail: avail,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamps assigned on insert and update.
func (s *Bookings) SetClock(now func() time.Time) {
	s.clock = now
}

// Seed stores b as committed state without any checks.
func (s *Bookings) Seed(b *booking.Booking) *booking.Booking {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.clock()
	}
	b.UpdatedAt = b.CreatedAt
	s.items[b.ID] = b.Clone()
	return b.Clone()
}

// All returns every committed booking.
func (s *Bookings) All() []*booking.Booking {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	out := make([]*booking.Booking, 0, len(s.items))
	for _, b := range s.items {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Bookings) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{store: s, staged: map[string]*booking.Booking{}}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx.staged)
}

func (s *Bookings) commit(staged map[string]*booking.Booking) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	merged := make(map[string]*booking.Booking, len(s.items)+len(staged))
	for id, b := range s.items {
		merged[id] = b
	}
	for id, b := range staged {
		merged[id] = b
	}
	if err := checkConstraints(merged, staged); err != nil {
		return err
	}
	for id, b := range staged {
		s.items[id] = b.Clone()
	}
	return nil
}

// checkConstraints mirrors the schema's exclusion and unique constraints.
func checkConstraints(all, staged map[string]*booking.Booking) error {
	for _, b := range staged {
		for _, o := range all {
			if o.ID == b.ID {
				continue
			}
			if b.ExternalBookingID != nil && o.ExternalBookingID != nil && *b.ExternalBookingID == *o.ExternalBookingID {
				return booking.ErrExternalIDTaken
			}
			if b.CorrelationID != nil && o.CorrelationID != nil && *b.CorrelationID == *o.CorrelationID {
				return booking.ErrDuplicateCorrelation
			}
			if b.Status.Placed() && o.Status.Placed() && b.ResourceID == o.ResourceID &&
				b.Date.Equal(o.Date) && slot.Overlaps(b.Interval, o.Interval) {
				return apperror.PlacementConflict("booking", "")
			}
		}
	}
	return nil
}

func (s *Bookings) get(id string) (*booking.Booking, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	b, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

func (s *Bookings) Get(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := s.get(id)
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (s *Bookings) find(match func(b *booking.Booking) bool) (*booking.Booking, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	for _, b := range s.items {
		if match(b) {
			return b.Clone(), nil
		}
	}
	return nil, booking.ErrNotFound
}

func (s *Bookings) FindByCorrelationID(_ context.Context, correlationID string) (*booking.Booking, error) {
	return s.find(func(b *booking.Booking) bool {
		return b.CorrelationID != nil && *b.CorrelationID == correlationID
	})
}

func (s *Bookings) FindByExternalID(_ context.Context, externalID string) (*booking.Booking, error) {
	return s.find(func(b *booking.Booking) bool {
		return b.ExternalBookingID != nil && *b.ExternalBookingID == externalID
	})
}

func (s *Bookings) List(_ context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	var out []*booking.Booking
	for _, b := range s.All() {
		if filter.Date != nil && !b.Date.Equal(slot.Date(*filter.Date)) {
			continue
		}
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.OwnerEmail != "" && !b.OwnedBy(filter.OwnerEmail) {
			continue
		}
		if filter.Unmatched != nil && b.IsUnmatched() != *filter.Unmatched {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Interval.Start < out[j].Interval.Start
	})
	total := len(out)
	if filter.PageSize > 0 {
		lo := min((max(filter.Page, 1)-1)*filter.PageSize, total)
		out = out[lo:min(lo+filter.PageSize, total)]
	}
	return out, total, nil
}

func (s *Bookings) MemberBookingsOn(_ context.Context, email string, t resource.Type, date time.Time) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range s.All() {
		if b.OwnedBy(email) && b.ResourceType == t && b.Date.Equal(slot.Date(date)) && b.Status.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Bookings) DayReservations(_ context.Context, date time.Time) ([]availability.Reservation, error) {
	var out []availability.Reservation
	for _, b := range s.All() {
		if b.Date.Equal(slot.Date(date)) && b.Status.Active() {
			out = append(out, b.Reservation())
		}
	}
	return out, nil
}

func (s *Bookings) Counts(_ context.Context, today time.Time) (booking.Counts, error) {
	var c booking.Counts
	for _, b := range s.All() {
		switch b.Status {
		case booking.StatusPending:
			c.Pending++
		case booking.StatusApproved:
			if b.ExternalBookingID == nil {
				c.AwaitingLinkage++
			}
		case booking.StatusCancellationPending:
			c.CancellationPending++
		}
		if b.IsUnmatched() && b.Date.Equal(slot.Date(today)) && b.Status.Active() {
			c.UnmatchedToday++
		}
	}
	return c, nil
}

type memTx struct {
	store  *Bookings
	staged map[string]*booking.Booking
}

func (t *memTx) LockSchedule(context.Context, string, time.Time) error {
	return nil
}

func (t *memTx) current(id string) (*booking.Booking, bool) {
	if b, ok := t.staged[id]; ok {
		return b.Clone(), true
	}
	return t.store.get(id)
}

func (t *memTx) GetForUpdate(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := t.current(id)
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (t *memTx) Day(ctx context.Context, date time.Time) (availability.Day, error) {
	return availability.LoadDay(ctx, t.store.avail, txReservations{t}, date)
}

type txReservations struct {
	tx *memTx
}

func (r txReservations) DayReservations(_ context.Context, date time.Time) ([]availability.Reservation, error) {
	seen := map[string]bool{}
	var out []availability.Reservation
	add := func(b *booking.Booking) {
		if seen[b.ID] {
			return
		}
		seen[b.ID] = true
		if b.Date.Equal(slot.Date(date)) && b.Status.Active() {
			out = append(out, b.Reservation())
		}
	}
	for _, b := range r.tx.staged {
		add(b)
	}
	for _, b := range r.tx.store.All() {
		add(b)
	}
	return out, nil
}

func (t *memTx) Insert(_ context.Context, b *booking.Booking) error {
	if _, exists := t.current(b.ID); exists {
		return apperror.Validation("duplicate booking id")
	}
	now := t.store.clock()
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
	for i := range b.Roster {
		b.Roster[i].Email = strings.ToLower(b.Roster[i].Email)
	}
	t.staged[b.ID] = b.Clone()
	return nil
}

func (t *memTx) Update(_ context.Context, b *booking.Booking) error {
	cur, ok := t.current(b.ID)
	if !ok {
		return booking.ErrNotFound
	}
	if cur.Version != b.Version {
		return apperror.StaleState(string(cur.Status), cur.Version)
	}
	b.Version++
	b.UpdatedAt = t.store.clock()
	t.staged[b.ID] = b.Clone()
	return nil
}
