package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

const (
	DefaultInterval = 30 * time.Second
	jobName         = "staff_summary_refresh"
	queryTimeout    = 10 * time.Second
)

var ErrNotReady = errors.New("staff summary not computed yet")

// Counter is the read side the poller summarizes.
type Counter interface {
	Counts(ctx context.Context, today time.Time) (booking.Counts, error)
}

// Summary is the staff dashboard snapshot.
type Summary struct {
	booking.Counts
	Date        time.Time
	RefreshedAt time.Time
}

type Options struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Location *time.Location
}

// Poller recomputes the staff summary on a fixed interval. It only reads.
type Poller struct {
	source    Counter
	clock     clockwork.Clock
	loc       *time.Location
	interval  time.Duration
	scheduler gocron.Scheduler

	mu      sync.RWMutex
	current *Summary
}

func NewPoller(source Counter, opts Options) (*Poller, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	sched, err := gocron.NewScheduler(
		gocron.WithClock(opts.Clock),
		gocron.WithLocation(opts.Location),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					log.Warn().
						Err(err).
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Msg("Scheduler job failed")
				}),
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Poller{
		source:    source,
		clock:     opts.Clock,
		loc:       opts.Location,
		interval:  opts.Interval,
		scheduler: sched,
	}, nil
}

// Run registers the refresh job, runs it once immediately and then on every
// interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	jobLogger := log.With().Str("job_name", jobName).Dur("interval", p.interval).Logger()
	ctx = jobLogger.WithContext(ctx)

	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() error {
			jobCtx, cancel := context.WithTimeout(ctx, queryTimeout)
			defer cancel()
			_, err := p.Refresh(jobCtx)
			return err
		}),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register scheduler job")
		return err
	}

	jobLogger.Info().Msg("Staff summary poller starting")
	p.scheduler.Start()
	<-ctx.Done()
	jobLogger.Info().Msg("Staff summary poller stopping")
	return p.scheduler.Shutdown()
}

// Refresh recomputes the summary now and stores it.
func (p *Poller) Refresh(ctx context.Context) (Summary, error) {
	now := p.clock.Now()
	today := slot.DateIn(now, p.loc)
	counts, err := p.source.Counts(ctx, today)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Counts: counts, Date: today, RefreshedAt: now.UTC()}
	p.mu.Lock()
	p.current = &s
	p.mu.Unlock()

	log.Ctx(ctx).Debug().
		Int("pending", counts.Pending).
		Int("awaiting_linkage", counts.AwaitingLinkage).
		Int("cancellation_pending", counts.CancellationPending).
		Int("unmatched_today", counts.UnmatchedToday).
		Msg("Staff summary refreshed")
	return s, nil
}

// Current returns the last computed summary.
func (p *Poller) Current() (Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return Summary{}, ErrNotReady
	}
	return *p.current, nil
}
