package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/auth"
)

// Caller is who a test request is sent as. The zero value sends no token.
type Caller struct {
	UserID string
	Email  string
	Role   auth.Role
}

func Member(email string) Caller {
	return Caller{UserID: "u-" + email, Email: email, Role: auth.RoleMember}
}

func Staff() Caller {
	return Caller{UserID: "u-desk", Email: "desk@club.com", Role: auth.RoleStaff}
}

// API is a gin engine with the production auth middleware mounted under /v1.
type API struct {
	Engine *gin.Engine
	V1     *gin.RouterGroup
	Auth   gin.HandlerFunc
	Staff  gin.HandlerFunc
	jwt    *auth.JWTManager
}

func NewAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	engine := gin.New()
	return &API{
		Engine: engine,
		V1:     engine.Group("/v1"),
		Auth:   auth.AuthRequired(jwt),
		Staff:  auth.RequireStaff(),
		jwt:    jwt,
	}
}

// Do sends a JSON request as caller.
func (a *API) Do(t *testing.T, method, path, body string, caller Caller) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.Serve(t, req, caller)
}

// Serve signs req for caller and records the response.
func (a *API) Serve(t *testing.T, req *http.Request, caller Caller) *httptest.ResponseRecorder {
	t.Helper()
	if caller.Role != "" {
		token, err := a.jwt.GenerateAccessToken(caller.UserID, caller.Email, caller.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON body.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
