package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/api/middleware"
	"github.com/OldStager01/dpf-rul/internal/auth"
	"github.com/OldStager01/dpf-rul/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(svc *auth.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.JWTAuth(svc, "auth_token"))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  middleware.GetUserID(c),
			"username": middleware.GetUsername(c),
		})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	svc := auth.NewService("test-secret", time.Hour)
	token, err := svc.GenerateToken(7, "analyst")
	require.NoError(t, err)

	expired, err := auth.NewService("test-secret", -time.Minute).GenerateToken(7, "analyst")
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		cookie    string
		wantCode  int
		wantError string
	}{
		{name: "bearer token", header: "Bearer " + token, wantCode: http.StatusOK},
		{name: "cookie", cookie: token, wantCode: http.StatusOK},
		{name: "missing", wantCode: http.StatusUnauthorized, wantError: "missing authorization header"},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized, wantError: "invalid authorization header format"},
		{name: "garbage", header: "Bearer not-a-jwt", wantCode: http.StatusUnauthorized, wantError: "invalid token"},
		{name: "expired", header: "Bearer " + expired, wantCode: http.StatusUnauthorized, wantError: "token expired"},
	}

	r := protectedRouter(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(middleware.AuthorizationHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantError != "" {
				assert.Contains(t, w.Body.String(), tt.wantError)
			} else {
				assert.Contains(t, w.Body.String(), `"username":"analyst"`)
				assert.Contains(t, w.Body.String(), `"user_id":7`)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	unlimited := middleware.NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("k"))
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestEndpointRateLimiter(t *testing.T) {
	erl := middleware.NewEndpointRateLimiter().AddEndpoint(http.MethodPost, "/runs", 1, time.Minute)

	r := gin.New()
	r.Use(erl.Middleware())
	r.POST("/runs", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.GET("/runs", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/runs", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			last = w
		}
	}
	// listing is not throttled by the trigger limit
	assert.Equal(t, []int{http.StatusAccepted, http.StatusTooManyRequests, http.StatusOK}, codes)
	require.NotNil(t, last)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:     []string{"https://fleet.example.com"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization"},
		AllowCredentials: true,
	}))
	r.GET("/runs", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "https://fleet.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://fleet.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTraceID(t *testing.T) {
	var fromContext string
	r := gin.New()
	r.Use(middleware.TraceID())
	r.GET("/", func(c *gin.Context) {
		fromContext = logger.TraceIDFromContext(c.Request.Context())
		c.String(http.StatusOK, middleware.GetTraceID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.TraceIDHeader, "trace-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-abc", w.Header().Get(middleware.TraceIDHeader))
	assert.Equal(t, "trace-abc", w.Body.String())
	assert.Equal(t, "trace-abc", fromContext)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(middleware.TraceIDHeader), 36)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.TraceIDHeader, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(middleware.TraceIDHeader), 36)
}

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct {
	calls []observed
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.calls = append(o.calls, observed{method, route, status})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.Setup("debug", "production")
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	obs := &recordingObserver{}
	r := gin.New()
	r.Use(middleware.TraceID(), middleware.RequestLogger(obs, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/runs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String(), "healthy probes are not logged")

	req := httptest.NewRequest(http.MethodGet, "/runs/abc", nil)
	req.Header.Set(middleware.TraceIDHeader, "trace-77")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "trace-77", entry["trace_id"])
	assert.Equal(t, "/runs/:id", entry["route"])
	assert.EqualValues(t, 404, entry["status"])

	assert.Equal(t, []observed{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/runs/:id", http.StatusNotFound},
	}, obs.calls)
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 1024
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
