package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator map[string]model.Caller

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (model.Caller, error) {
	if token == "" {
		return model.AnonymousCaller(), nil
	}
	caller, ok := f[token]
	if !ok {
		return model.AnonymousCaller(), errors.Unauthenticated("invalid or expired token")
	}
	return caller, nil
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	doctor := model.StaffCaller(uuid.New(), model.StaffRoleDoctor)
	admin := model.StaffCaller(uuid.New(), model.StaffRoleAdmin)
	m := NewAuthMiddleware(fakeAuthenticator{"doc": doctor, "admin": admin}, "jwtToken")

	engine := gin.New()
	whoami := func(c *gin.Context) { c.String(http.StatusOK, CallerFrom(c).Kind.String()) }
	engine.GET("/required", m.Authenticate(), whoami)
	engine.GET("/optional", m.Optional(), whoami)
	engine.GET("/admin", m.Authenticate(), RequireStaffRole(model.StaffRoleAdmin), whoami)

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
		body   string
	}{
		{"bearer", "/required", "Bearer doc", "", http.StatusOK, "staff_member"},
		{"lowercase scheme", "/required", "bearer doc", "", http.StatusOK, "staff_member"},
		{"cookie", "/required", "", "doc", http.StatusOK, "staff_member"},
		{"missing", "/required", "", "", http.StatusUnauthorized, ""},
		{"invalid", "/required", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/required", "Basic doc", "doc", http.StatusUnauthorized, ""},
		{"optional anonymous", "/optional", "", "", http.StatusOK, "anonymous"},
		{"optional invalid", "/optional", "Bearer nope", "", http.StatusOK, "anonymous"},
		{"optional valid", "/optional", "Bearer doc", "", http.StatusOK, "staff_member"},
		{"role denied", "/admin", "Bearer doc", "", http.StatusForbidden, ""},
		{"role allowed", "/admin", "Bearer admin", "", http.StatusOK, "staff_member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "jwtToken", Value: tt.cookie})
			}
			w := serve(engine, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestCallerFromDefaultsToAnonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, CallerFrom(c).IsAnonymous())
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	engine := gin.New()
	engine.Use(rl.RateLimit())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, incoming)
	assert.Equal(t, incoming, serve(engine, req).Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "<script>")
	assert.NotEqual(t, "<script>", serve(engine, req).Header().Get(HeaderXRequestID))
}

func TestTimeout(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(TimeoutConfig{Duration: 10 * time.Millisecond}))
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	engine.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusGatewayTimeout, serve(engine, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestBodyLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(BodyLimit(16))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowOrigins = []string{"https://clinic.example.com"}
	engine := gin.New()
	engine.Use(CORS(config))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://clinic.example.com")
	w := serve(engine, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, serve(engine, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	engine := gin.New()
	engine.Use(SecurityHeaders(DefaultSecurityConfig()))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
