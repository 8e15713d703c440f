package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/api"
	"github.com/nekogravitycat/bay-booking-backend/internal/auth"
	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/bay-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	composerHttp "github.com/nekogravitycat/bay-booking-backend/internal/composer/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/fee"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	memberHttp "github.com/nekogravitycat/bay-booking-backend/internal/member/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/reconcile"
	reconcileHttp "github.com/nekogravitycat/bay-booking-backend/internal/reconcile/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/refresh"
	refreshHttp "github.com/nekogravitycat/bay-booking-backend/internal/refresh/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	resourceHttp "github.com/nekogravitycat/bay-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/testutil"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
	trackmanHttp "github.com/nekogravitycat/bay-booking-backend/internal/trackman/http"
)

const bay = "00000000-0000-0000-0000-0000000000b1"

type harness struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	avail := testutil.NewAvailability()
	store := testutil.NewBookings(avail)
	store.SetClock(clock.Now)
	resources := testutil.NewResources()
	resources.Add(bay, "Bay 1", resource.TypeSimulator)
	members := testutil.NewMembers(member.Member{Email: "jane@club.com", Name: "Jane Doe", Tier: "Social"})

	resourceService := resource.NewService(resources)
	availabilityService := availability.NewService(avail, store, nil)
	bookingService := booking.NewService(booking.Deps{
		Store:        store,
		Resources:    resourceService,
		Members:      members,
		Availability: availabilityService,
		Schedule:     fee.DefaultSchedule(),
		Clock:        clock,
	})
	poller, err := refresh.NewPoller(store, refresh.Options{Clock: clock})
	require.NoError(t, err)

	jwt := auth.NewJWTManager("test-secret", time.Hour)
	router := api.NewRouter(api.Config{
		JWTManager:   jwt,
		Resources:    resourceHttp.NewHandler(resourceService),
		Availability: availabilityHttp.NewHandler(availabilityService, resourceService),
		Members:      memberHttp.NewHandler(members),
		Bookings:     bookingHttp.NewHandler(bookingService),
		Composer:     composerHttp.NewHandler(composer.NewService(members, bookingService)),
		Reconcile:    reconcileHttp.NewHandler(reconcile.NewService(store, bookingService, members)),
		Summary:      refreshHttp.NewHandler(poller),
		Trackman:     trackmanHttp.NewHandler(trackman.NewImporter(bookingService, store, members), "hook-secret"),
	})
	return &harness{router: router, jwt: jwt}
}

func (h *harness) do(t *testing.T, method, path, body string, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := h.jwt.GenerateAccessToken("u-1", "jane@club.com", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestHealthAssignsRequestID(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(api.RequestIDHeader))
}

func TestRoutesRequireAuth(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/v1/bookings", "", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/v1/reconcile/unmatched?date=2026-03-02", "", auth.RoleMember).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/v1/staff/summary", "", auth.RoleMember).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPost, "/v1/trackman/webhook", "{}", "").Code)
}

func TestMemberRequestShowsUpInStaffSummary(t *testing.T) {
	h := newHarness(t)

	body := `{"resource_id":"` + bay + `","date":"2026-03-02","start_time":"18:00","end_time":"19:00","player_count":2}`
	w := h.do(t, http.MethodPost, "/v1/bookings", body, auth.RoleMember)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	w = h.do(t, http.MethodGet, "/v1/staff/summary", "", auth.RoleStaff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":1`)
}

func TestRecoveryAnswers500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(api.RequestLogger(), api.Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal")
}
