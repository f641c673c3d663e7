package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gin-social/internal/identity"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	v := identity.NewVerifier("secret", "")
	var seen *identity.Principal
	r := gin.New()
	r.Use(Authenticate(v))
	r.GET("/", func(c *gin.Context) {
		seen = identity.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = nil
		w := serve(r, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		tok, err := v.Sign(identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		require.NoError(t, err)
		w := serve(r, "Bearer "+tok)
		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user_1", seen.ClerkID)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(r, "Token abc").Code)
	})

	t.Run("bad token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer abc").Code)
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestSentryReportsPanicThenRecovers(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))
		c.Next()
	})
	r.Use(Recovery(), Sentry())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "").Code)
}

func TestClientLimiterSweepsIdleVisitors(t *testing.T) {
	l := newClientLimiter(1, 1)
	now := time.Now()
	l.get("a", now)
	l.get("b", now.Add(l.idle+time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}
