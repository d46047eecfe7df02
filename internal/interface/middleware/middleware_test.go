package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/job-tracker/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIPAndPath(t *testing.T) {
	_, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.POST("/auth/forgot-password", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := func(ip string) *http.Request {
		rq := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", nil)
		rq.Header.Set("X-Forwarded-For", ip)
		return rq
	}

	assert.Equal(t, http.StatusOK, do(r, req("198.51.100.1")).Code)
	assert.Equal(t, http.StatusOK, do(r, req("198.51.100.1")).Code)
	w := do(r, req("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), `"msg"`)

	// another client has its own window
	assert.Equal(t, http.StatusOK, do(r, req("198.51.100.2")).Code)
}

func TestRateLimitBypassAndFailOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/debug/vars", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rq := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
		rq.Header.Set("X-Forwarded-For", "10.1.2.3")
		assert.Equal(t, http.StatusOK, do(r, rq).Code)
	}

	mr.Close()
	rq := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	rq.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, http.StatusOK, do(r, rq).Code)
}

func TestAuthBearerAndSession(t *testing.T) {
	_, rdb := newRedis(t)
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	ctx := context.Background()
	require.NoError(t, rdb.HSet(ctx, "user:session:u1", map[string]any{"user_id": "u1", "email": "a@b.co", "sid": "s1"}).Err())

	r := gin.New()
	r.GET("/me", Auth(rdb, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})

	token, _, err := jwt.GenerateAccessToken("u1", "a@b.co", "s1")
	require.NoError(t, err)
	stale, _, err := jwt.GenerateAccessToken("u1", "a@b.co", "old")
	require.NoError(t, err)

	rq := httptest.NewRequest(http.MethodGet, "/me", nil)
	rq.Header.Set("Authorization", "Bearer "+token)
	w := do(r, rq)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	rq = httptest.NewRequest(http.MethodGet, "/me", nil)
	rq.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	assert.Equal(t, http.StatusOK, do(r, rq).Code)

	rq = httptest.NewRequest(http.MethodGet, "/me", nil)
	rq.Header.Set("Authorization", "Bearer "+stale)
	assert.Equal(t, http.StatusUnauthorized, do(r, rq).Code)

	rq = httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, rq).Code)

	rq = httptest.NewRequest(http.MethodGet, "/me", nil)
	rq.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, do(r, rq).Code)
}

func TestRealIPAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RealIP())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ClientIP(c))
	})

	rq := httptest.NewRequest(http.MethodGet, "/", nil)
	rq.Header.Set("CF-Connecting-IP", "203.0.113.7")
	rq.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	w := do(r, rq)
	assert.Equal(t, "203.0.113.7", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	rq = httptest.NewRequest(http.MethodGet, "/", nil)
	rq.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	rq.Header.Set(RequestIDHeader, "6f1c2a34-8d2b-4c6e-9a57-0b5f3e1d2c4a")
	w = do(r, rq)
	assert.Equal(t, "198.51.100.9", w.Body.String())
	assert.Equal(t, "6f1c2a34-8d2b-4c6e-9a57-0b5f3e1d2c4a", w.Header().Get(RequestIDHeader))

	rq = httptest.NewRequest(http.MethodGet, "/", nil)
	rq.Header.Set("X-Real-IP", "not-an-ip")
	rq.Header.Set("X-Forwarded-For", "2001:db8::1")
	assert.Equal(t, "2001:db8::1", do(r, rq).Body.String())
}
