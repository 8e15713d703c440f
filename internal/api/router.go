package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/auth"
	availabilityHttp "github.com/nekogravitycat/bay-booking-backend/internal/availability/http"
	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	composerHttp "github.com/nekogravitycat/bay-booking-backend/internal/composer/http"
	memberHttp "github.com/nekogravitycat/bay-booking-backend/internal/member/http"
	reconcileHttp "github.com/nekogravitycat/bay-booking-backend/internal/reconcile/http"
	refreshHttp "github.com/nekogravitycat/bay-booking-backend/internal/refresh/http"
	resourceHttp "github.com/nekogravitycat/bay-booking-backend/internal/resource/http"
	trackmanHttp "github.com/nekogravitycat/bay-booking-backend/internal/trackman/http"
)

// Config carries the handlers the router mounts.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	JWTManager   *auth.JWTManager

	Resources    *resourceHttp.Handler
	Availability *availabilityHttp.Handler
	Members      *memberHttp.Handler
	Bookings     *bookingHttp.Handler
	Composer     *composerHttp.Handler
	Reconcile    *reconcileHttp.Handler
	Summary      *refreshHttp.Handler
	Trackman     *trackmanHttp.Handler
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global Middleware:
	// - RequestLogger: request-scoped zerolog logger plus a completion line.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(), Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins(cfg)
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", bookingHttp.CorrelationHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(config))

	r.GET("/healthz", Health)

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// staffMiddleware: Further checks the token carries the staff role.
	staffMiddleware := auth.RequireStaff()

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		resourceHttp.RegisterRoutes(v1, cfg.Resources, authMiddleware, staffMiddleware)
		availabilityHttp.RegisterRoutes(v1, cfg.Availability, authMiddleware, staffMiddleware)
		memberHttp.RegisterRoutes(v1, cfg.Members, authMiddleware, staffMiddleware)
		bookingHttp.RegisterRoutes(v1, cfg.Bookings, authMiddleware, staffMiddleware)
		composerHttp.RegisterRoutes(v1, cfg.Composer, authMiddleware, staffMiddleware)
		reconcileHttp.RegisterRoutes(v1, cfg.Reconcile, authMiddleware, staffMiddleware)
		refreshHttp.RegisterRoutes(v1, cfg.Summary, authMiddleware, staffMiddleware)
		trackmanHttp.RegisterRoutes(v1, cfg.Trackman)
	}

	return r
}

func allowedOrigins(cfg Config) []string {
	if !cfg.IsProduction {
		return []string{"http://localhost:3000", "http://localhost:8081"}
	}
	var origins []string
	for _, o := range strings.Split(cfg.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
