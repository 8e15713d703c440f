package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	resHttp "github.com/nekogravitycat/bay-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/testutil"
)

const (
	bay1 = "00000000-0000-0000-0000-0000000000b1"
	bay2 = "00000000-0000-0000-0000-0000000000b2"
	room = "00000000-0000-0000-0000-0000000000c1"
)

var jane = testutil.Member("jane@club.com")

func newAPI(t *testing.T) *testutil.API {
	t.Helper()
	repo := testutil.NewResources()
	repo.Add(bay1, "Bay 1", resource.TypeSimulator)
	repo.Add(bay2, "Bay 2", resource.TypeSimulator)
	repo.Add(room, "Board Room", resource.TypeConferenceRoom)

	api := testutil.NewAPI(t)
	resHttp.RegisterRoutes(api.V1, resHttp.NewHandler(resource.NewService(repo)), api.Auth, api.Staff)
	return api
}

func TestListResources(t *testing.T) {
	api := newAPI(t)

	w := api.Do(t, http.MethodGet, "/v1/resources", "", jane)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := testutil.Decode[response.PageResponse[resHttp.ResourceResponse]](t, w)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 3)

	w = api.Do(t, http.MethodGet, "/v1/resources?type=simulator", "", jane)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page = testutil.Decode[response.PageResponse[resHttp.ResourceResponse]](t, w)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bay 1", page.Items[0].Name)
	assert.Equal(t, "simulator", page.Items[0].Type)
	assert.True(t, page.Items[0].IsActive)
}

func TestListResourcesBadQuery(t *testing.T) {
	api := newAPI(t)

	for _, q := range []string{"?type=court", "?page=0", "?page_size=101", "?sort_order=sideways"} {
		w := api.Do(t, http.MethodGet, "/v1/resources"+q, "", jane)
		require.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, apperror.KindValidation, testutil.Decode[response.ErrorResponse](t, w).Kind, q)
	}

	w := api.Do(t, http.MethodGet, "/v1/resources", "", testutil.Caller{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetResource(t *testing.T) {
	api := newAPI(t)

	w := api.Do(t, http.MethodGet, "/v1/resources/"+room, "", jane)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := testutil.Decode[resHttp.ResourceResponse](t, w)
	assert.Equal(t, room, got.ID)
	assert.Equal(t, "conference_room", got.Type)

	w = api.Do(t, http.MethodGet, "/v1/resources/00000000-0000-0000-0000-0000000000ff", "", jane)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.Do(t, http.MethodGet, "/v1/resources/bay-1", "", jane)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateResource(t *testing.T) {
	api := newAPI(t)

	w := api.Do(t, http.MethodPost, "/v1/resources", `{"name":"  Bay 3 ","type":"simulator"}`, testutil.Staff())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := testutil.Decode[resHttp.ResourceResponse](t, w)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Bay 3", got.Name)
	assert.True(t, got.IsActive)

	w = api.Do(t, http.MethodPost, "/v1/resources", `{"name":"Bay 4","type":"simulator"}`, jane)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tests := []struct {
		name string
		body string
	}{
		{name: "blank name", body: `{"name":"   ","type":"simulator"}`},
		{name: "missing name", body: `{"type":"simulator"}`},
		{name: "unknown type", body: `{"name":"Court","type":"tennis"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.Do(t, http.MethodPost, "/v1/resources", tt.body, testutil.Staff())
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, apperror.KindValidation, testutil.Decode[response.ErrorResponse](t, w).Kind)
		})
	}
}

func TestDeactivateResource(t *testing.T) {
	api := newAPI(t)

	w := api.Do(t, http.MethodPatch, "/v1/resources/"+bay2+"/deactivate", "", jane)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.Do(t, http.MethodPatch, "/v1/resources/"+bay2+"/deactivate", "", testutil.Staff())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, testutil.Decode[resHttp.ResourceResponse](t, w).IsActive)

	w = api.Do(t, http.MethodGet, "/v1/resources?active_only=true", "", jane)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := testutil.Decode[response.PageResponse[resHttp.ResourceResponse]](t, w)
	assert.Equal(t, 2, page.Total)

	w = api.Do(t, http.MethodPatch, "/v1/resources/00000000-0000-0000-0000-0000000000ff/deactivate", "", testutil.Staff())
	assert.Equal(t, http.StatusNotFound, w.Code)
}
