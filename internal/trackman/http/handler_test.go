package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/fee"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/testutil"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
	trackmanHttp "github.com/nekogravitycat/bay-booking-backend/internal/trackman/http"
)

const bay = "00000000-0000-0000-0000-0000000000b1"

func newRouter(t *testing.T) (*gin.Engine, *testutil.Bookings) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := testutil.NewBookings(testutil.NewAvailability())
	store.SetClock(clock.Now)
	resources := testutil.NewResources()
	resources.Add(bay, "Bay 1", resource.TypeSimulator)
	members := testutil.NewMembers(member.Member{Email: "jane@club.com", Name: "Jane Doe", Tier: "Social"})

	bookings := booking.NewService(booking.Deps{
		Store:     store,
		Resources: resource.NewService(resources),
		Members:   members,
		Schedule:  fee.DefaultSchedule(),
		Clock:     clock,
	})
	h := trackmanHttp.NewHandler(trackman.NewImporter(bookings, store, members), "s3cret")

	r := gin.New()
	trackmanHttp.RegisterRoutes(r.Group("/v1"), h)
	return r, store
}

func post(t *testing.T, r http.Handler, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequestWithContext(context.Background(), http.MethodPost, "/v1/trackman/webhook", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(trackmanHttp.SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook(t *testing.T) {
	r, store := newRouter(t)
	eb := trackman.ExternalBooking{
		ExternalID:    "TM-700100",
		ResourceID:    bay,
		Date:          "2026-03-02",
		StartTime:     "10:00",
		EndTime:       "11:00",
		CustomerEmail: "golfnow-unmatched@trackman.local",
		CustomerName:  "GolfNow Customer",
		PlayerCount:   1,
	}

	w := post(t, r, "", eb)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = post(t, r, "wrong", eb)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.All())

	w = post(t, r, "s3cret", eb)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Unmatched bool   `json:"unmatched"`
		StartTime string `json:"start_time"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.True(t, resp.Unmatched)
	assert.Equal(t, "10:00", resp.StartTime)

	eb.StartTime, eb.EndTime = "12:00", "13:00"
	w = post(t, r, "s3cret", eb)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, store.All(), 1)
}

func TestWebhookReportsConflict(t *testing.T) {
	r, _ := newRouter(t)
	base := trackman.ExternalBooking{
		ResourceID:    bay,
		Date:          "2026-03-02",
		StartTime:     "10:00",
		EndTime:       "11:00",
		CustomerEmail: "jane@club.com",
		CustomerName:  "Jane Doe",
	}
	first, second := base, base
	first.ExternalID, second.ExternalID = "TM-700200", "TM-700201"

	require.Equal(t, http.StatusCreated, post(t, r, "s3cret", first).Code)

	w := post(t, r, "s3cret", second)
	assert.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Kind    string         `json:"kind"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "placement_conflict", resp.Kind)
	assert.Equal(t, "booking", resp.Details["conflict_kind"])
}
