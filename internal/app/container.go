package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/bay-booking-backend/internal/api"
	"github.com/nekogravitycat/bay-booking-backend/internal/auth"
	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/bay-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/billing"
	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	composerHttp "github.com/nekogravitycat/bay-booking-backend/internal/composer/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/fee"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	memberHttp "github.com/nekogravitycat/bay-booking-backend/internal/member/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/retry"
	"github.com/nekogravitycat/bay-booking-backend/internal/reconcile"
	reconcileHttp "github.com/nekogravitycat/bay-booking-backend/internal/reconcile/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/refresh"
	refreshHttp "github.com/nekogravitycat/bay-booking-backend/internal/refresh/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	resourceHttp "github.com/nekogravitycat/bay-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
	trackmanHttp "github.com/nekogravitycat/bay-booking-backend/internal/trackman/http"
)

const (
	availabilityCacheTTL = 30 * time.Second
	billingTimeout       = 5 * time.Second
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	DBPool          *pgxpool.Pool
	JWTSecret       string
	JWTTTL          time.Duration
	Location        *time.Location
	FeeSchedule     fee.Schedule
	TrackmanSecret  string
	RefreshInterval time.Duration

	// Optional collaborators. Nil falls back to the in-process variant.
	Redis            *redis.Client
	BillingPublisher billing.Publisher
	EventPublisher   booking.Publisher
	Clock            clockwork.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Poller     *refresh.Poller
	Importer   *trackman.Importer
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Member directory
	members := member.NewPgxDirectory(cfg.DBPool, retry.DefaultPolicy)

	// Booking store, shared by the resolver and the reconciler
	bookingStore := booking.NewPgxStore(cfg.DBPool)

	// Availability Module
	var cache availability.Cache = availability.NoopCache{}
	if cfg.Redis != nil {
		cache = availability.NewRedisCache(cfg.Redis, availabilityCacheTTL)
	}
	availRepo := availability.NewPgxRepository(cfg.DBPool)
	availService := availability.NewService(availRepo, bookingStore, cache)

	// Billing collaborator
	billingClient := billing.NewLogClient()
	if cfg.BillingPublisher != nil {
		billingClient = billing.NewAMQPClient(cfg.BillingPublisher, billingTimeout)
	}
	var events booking.Events = booking.NopEvents{}
	if cfg.EventPublisher != nil {
		events = booking.NewAMQPEvents(cfg.EventPublisher)
	}

	// Booking Module
	bookingService := booking.NewService(booking.Deps{
		Store:        bookingStore,
		Resources:    resService,
		Members:      members,
		Availability: availService,
		Billing:      billingClient,
		Events:       events,
		Schedule:     cfg.FeeSchedule,
		Clock:        cfg.Clock,
		Location:     cfg.Location,
	})

	// Workflows on top of bookings
	composerService := composer.NewService(members, bookingService)
	reconcileService := reconcile.NewService(bookingStore, bookingService, members)
	importer := trackman.NewImporter(bookingService, bookingStore, members)

	poller, err := refresh.NewPoller(bookingStore, refresh.Options{
		Interval: cfg.RefreshInterval,
		Clock:    cfg.Clock,
		Location: cfg.Location,
	})
	if err != nil {
		return nil, err
	}

	// Router
	router := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		JWTManager:   jwtManager,
		Resources:    resourceHttp.NewHandler(resService),
		Availability: availabilityHttp.NewHandler(availService, resService),
		Members:      memberHttp.NewHandler(members),
		Bookings:     bookingHttp.NewHandler(bookingService),
		Composer:     composerHttp.NewHandler(composerService),
		Reconcile:    reconcileHttp.NewHandler(reconcileService),
		Summary:      refreshHttp.NewHandler(poller),
		Trackman:     trackmanHttp.NewHandler(importer, cfg.TrackmanSecret),
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Poller:     poller,
		Importer:   importer,
	}, nil
}
