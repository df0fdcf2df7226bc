package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testSecret = []byte("session-secret")

func sign(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func protectedRouter(auth *Auth, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", auth.RequireRole(roles...), func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, s.UserID.String()+"|"+s.Role)
	})
	return r
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth(testSecret)
	router := protectedRouter(auth, "admin", "company_manager")
	userID := uuid.New()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, []byte("other"), jwt.MapClaims{"sub": userID.String(), "role": "admin"}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userID.String(), "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"non uuid subject", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": "42", "role": "admin"}), http.StatusUnauthorized},
		{"no role", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userID.String()}), http.StatusForbidden},
		{"role not allowed", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userID.String(), "role": "store_manager"}), http.StatusForbidden},
		{"allowed", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userID.String(), "role": "company_manager"}), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String()+"|company_manager", w.Body.String())
			}
		})
	}
}

func TestRequireRole_Cookie(t *testing.T) {
	auth := NewAuth(testSecret)
	router := protectedRouter(auth, "admin")

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sign(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "role": "admin"})})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, limiter.Allow("10.0.0.2"), "other clients keep their own bucket")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "one token refills per second at 60/min")
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(limiterIdleTTL + time.Second)
	limiter.Allow("b")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.visitors, "a")
	assert.Contains(t, limiter.visitors, "b")
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(60, 1).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), `"code":"rate_limited"`)
}

func TestRequestLogger_OmitsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/approvals/resolve", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/approvals/resolve?token=secret", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/approvals/resolve", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	for _, v := range fields {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret")
		}
	}
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	traceID := trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1}, TraceFlags: trace.FlagsSampled})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, traceID.String(), entries[0].ContextMap()["trace_id"])
}
