package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/refresh"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
	"github.com/nekogravitycat/bay-booking-backend/internal/testutil"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSource) Counts(context.Context, time.Time) (booking.Counts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return booking.Counts{}, c.err
	}
	return booking.Counts{Pending: c.calls}, nil
}

func (c *countingSource) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRefreshSummarizesBookings(t *testing.T) {
	// 02:00 UTC on the 3rd is still the 2nd in the facility's zone.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC))
	eastern := time.FixedZone("EST", -5*60*60)
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	ext := "TM-123456"

	store := testutil.NewBookings(testutil.NewAvailability())
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusPending, Owner: booking.KnownMember{MemberEmail: "jane@club.com"}})
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusApproved, Owner: booking.KnownMember{MemberEmail: "jane@club.com"}})
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusApproved, ExternalBookingID: &ext, Owner: booking.KnownMember{MemberEmail: "bob@club.com"}})
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusCancellationPending, Owner: booking.KnownMember{MemberEmail: "bob@club.com"}})
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusConfirmed, Owner: booking.UnknownImport{}})
	store.Seed(&booking.Booking{Date: today.AddDate(0, 0, 1), Status: booking.StatusConfirmed, Owner: booking.UnknownImport{}})
	store.Seed(&booking.Booking{Date: today, Status: booking.StatusCancelled, Owner: booking.UnknownImport{}})

	p, err := refresh.NewPoller(store, refresh.Options{Clock: clock, Location: eastern})
	require.NoError(t, err)

	_, err = p.Current()
	assert.ErrorIs(t, err, refresh.ErrNotReady)

	s, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", slot.FormatDate(s.Date))
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.AwaitingLinkage)
	assert.Equal(t, 1, s.CancellationPending)
	assert.Equal(t, 1, s.UnmatchedToday)
	assert.True(t, clock.Now().Equal(s.RefreshedAt))

	current, err := p.Current()
	require.NoError(t, err)
	assert.Equal(t, s, current)

	// Summarizing never writes.
	for _, b := range store.All() {
		assert.Equal(t, 1, b.Version)
	}
}

func TestRefreshErrorKeepsLastSummary(t *testing.T) {
	source := &countingSource{}
	p, err := refresh.NewPoller(source, refresh.Options{Clock: clockwork.NewFakeClock()})
	require.NoError(t, err)

	first, err := p.Refresh(context.Background())
	require.NoError(t, err)

	source.mu.Lock()
	source.err = errors.New("database unavailable")
	source.mu.Unlock()

	_, err = p.Refresh(context.Background())
	require.Error(t, err)

	current, err := p.Current()
	require.NoError(t, err)
	assert.Equal(t, first, current)
}

func TestRunRefreshesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{}
	p, err := refresh.NewPoller(source, refresh.Options{Interval: 30 * time.Second, Clock: clock})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// The first run happens at start without waiting for the interval.
	assert.Eventually(t, func() bool { return source.Calls() >= 1 }, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		clock.Advance(30 * time.Second)
		return source.Calls() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	s, err := p.Current()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Pending, 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
