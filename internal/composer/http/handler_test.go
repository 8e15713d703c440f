package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	composerHttp "github.com/nekogravitycat/bay-booking-backend/internal/composer/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/fee"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/testutil"
)

const bay = "00000000-0000-0000-0000-0000000000b1"

const composeBody = `{"host_email":"jane@club.com","resource_id":"` + bay + `","date":"2026-03-02","start_time":"10:00","duration_minutes":60,"player_count":3,"seats":[{"role":"member","email":"john@club.com"}],"notes":"birthday group"}`

func finalizeBody(externalID string) string {
	return strings.TrimSuffix(composeBody, "}") + `,"external_booking_id":"` + externalID + `"}`
}

func newFixture(t *testing.T) (*testutil.API, *testutil.Bookings) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := testutil.NewBookings(testutil.NewAvailability())
	store.SetClock(clock.Now)
	resources := testutil.NewResources()
	resources.Add(bay, "Bay 1", resource.TypeSimulator)
	members := testutil.NewMembers(
		member.Member{Email: "jane@club.com", Name: "Jane Doe", Tier: "Social"},
		member.Member{Email: "john@club.com", Name: "John Smith", Tier: "Core"},
	)

	bookings := booking.NewService(booking.Deps{
		Store:     store,
		Resources: resource.NewService(resources),
		Members:   members,
		Billing:   testutil.NewBilling(),
		Schedule:  fee.DefaultSchedule(),
		Clock:     clock,
		Location:  time.UTC,
	})
	api := testutil.NewAPI(t)
	composerHttp.RegisterRoutes(api.V1, composerHttp.NewHandler(composer.NewService(members, bookings)), api.Auth, api.Staff)
	return api, store
}

func TestCompose(t *testing.T) {
	api, store := newFixture(t)

	w := api.Do(t, http.MethodPost, "/v1/manual-bookings/compose", composeBody, testutil.Staff())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := testutil.Decode[composerHttp.ComposeResponse](t, w)
	assert.Equal(t, "M|jane@club.com|Jane|Doe\nM|john@club.com|John|Smith\nG|none|Guest|3", got.Notes)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, composerHttp.LineResponse{Tag: "M", Email: "jane@club.com", FirstName: "Jane", LastName: "Doe"}, got.Lines[0])
	assert.Equal(t, "G", got.Lines[2].Tag)
	assert.True(t, got.Lines[2].Placeholder)
	assert.Equal(t, 1, got.Unfilled)
	assert.Equal(t, bay, got.ResourceID)
	assert.Equal(t, "2026-03-02", got.Date)
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "11:00", got.EndTime)
	assert.Equal(t, 3, got.PlayerCount)

	// Compose is a preview and stores nothing.
	assert.Empty(t, store.All())
}

func TestComposeIsStaffOnly(t *testing.T) {
	api, _ := newFixture(t)

	w := api.Do(t, http.MethodPost, "/v1/manual-bookings/compose", composeBody, testutil.Member("jane@club.com"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.Do(t, http.MethodPost, "/v1/manual-bookings/compose", composeBody, testutil.Caller{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComposeValidation(t *testing.T) {
	api, _ := newFixture(t)

	tests := []struct {
		name string
		body string
		want apperror.Kind
	}{
		{name: "host not an email", body: strings.Replace(composeBody, `"host_email":"jane@club.com"`, `"host_email":"jane"`, 1), want: apperror.KindValidation},
		{name: "short duration", body: strings.Replace(composeBody, `"duration_minutes":60`, `"duration_minutes":10`, 1), want: apperror.KindValidation},
		{name: "unknown seat role", body: strings.Replace(composeBody, `"role":"member"`, `"role":"coach"`, 1), want: apperror.KindValidation},
		{name: "bad start time", body: strings.Replace(composeBody, `"start_time":"10:00"`, `"start_time":"ten"`, 1), want: apperror.KindValidation},
		{name: "bad date", body: strings.Replace(composeBody, `"date":"2026-03-02"`, `"date":"2 March"`, 1), want: apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.Do(t, http.MethodPost, "/v1/manual-bookings/compose", tt.body, testutil.Staff())
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.want, testutil.Decode[response.ErrorResponse](t, w).Kind)
		})
	}
}

func TestComposeUnknownMember(t *testing.T) {
	api, _ := newFixture(t)

	body := strings.Replace(composeBody, `"john@club.com"`, `"ghost@club.com"`, 1)
	w := api.Do(t, http.MethodPost, "/v1/manual-bookings/compose", body, testutil.Staff())
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestFinalize(t *testing.T) {
	api, store := newFixture(t)

	w := api.Do(t, http.MethodPost, "/v1/manual-bookings/finalize", finalizeBody(" TM-884120 "), testutil.Staff())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := testutil.Decode[bookingHttp.BookingResponse](t, w)
	assert.Equal(t, "manual", got.Source)
	assert.Equal(t, "confirmed", got.Status)
	require.NotNil(t, got.ExternalBookingID)
	assert.Equal(t, "TM-884120", *got.ExternalBookingID)
	assert.Equal(t, "jane@club.com", got.Owner.Email)
	assert.Equal(t, "M|jane@club.com|Jane|Doe\nM|john@club.com|John|Smith\nG|none|Guest|3", got.Notes)
	assert.Equal(t, "birthday group", got.StaffNotes)
	assert.Equal(t, 1, got.UnfilledSlots)
	assert.Len(t, store.All(), 1)
}

func TestFinalizeExternalIDRequired(t *testing.T) {
	api, store := newFixture(t)

	for _, id := range []string{"", "TM12"} {
		w := api.Do(t, http.MethodPost, "/v1/manual-bookings/finalize", finalizeBody(id), testutil.Staff())
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Equal(t, apperror.KindExternalLinkageMissing, testutil.Decode[response.ErrorResponse](t, w).Kind)
	}
	assert.Empty(t, store.All())
}

func TestFinalizeCorrelationHeaderDeduplicates(t *testing.T) {
	api, store := newFixture(t)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/manual-bookings/finalize", strings.NewReader(finalizeBody("TM-884120")))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(bookingHttp.CorrelationHeader, "3f2b0a4e-1c6d-4b55-9a43-2f3a0c8d9e10")
		return api.Serve(t, req, testutil.Staff())
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	assert.Equal(t,
		testutil.Decode[bookingHttp.BookingResponse](t, first).ID,
		testutil.Decode[bookingHttp.BookingResponse](t, second).ID)
	assert.Len(t, store.All(), 1)
}

func TestFinalizeConflict(t *testing.T) {
	api, _ := newFixture(t)

	w := api.Do(t, http.MethodPost, "/v1/manual-bookings/finalize", finalizeBody("TM-100001"), testutil.Staff())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.Do(t, http.MethodPost, "/v1/manual-bookings/finalize", finalizeBody("TM-100002"), testutil.Staff())
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, apperror.KindPlacementConflict, testutil.Decode[response.ErrorResponse](t, w).Kind)
}
