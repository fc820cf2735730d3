package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fambudget/budget-server-go/internal/model"
)

func TestRateLimiterCheck(t *testing.T) {
	t.Run("allows requests under the limit", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 5; i++ {
			allowed, _, _ := rl.Check("user-1", 5)
			assert.True(t, allowed, "request %d", i+1)
		}
	})

	t.Run("denies requests over the limit", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 5; i++ {
			rl.Check("user-1", 5)
		}

		allowed, remaining, resetAt := rl.Check("user-1", 5)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
		assert.Greater(t, resetAt, int64(0))
	})

	t.Run("remaining counts down", func(t *testing.T) {
		rl := NewRateLimiter()

		_, remaining, _ := rl.Check("user-1", 3)
		assert.Equal(t, 2, remaining)
		_, remaining, _ = rl.Check("user-1", 3)
		assert.Equal(t, 1, remaining)
		_, remaining, _ = rl.Check("user-1", 3)
		assert.Equal(t, 0, remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter()

		for i := 0; i < 5; i++ {
			rl.Check("user-1", 5)
		}

		allowed, _, _ := rl.Check("user-2", 5)
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	newRequest := func(user *model.User) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		if user != nil {
			ctx := context.WithValue(req.Context(), UserContextKey, user)
			req = req.WithContext(ctx)
		}
		return req
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("sets rate limit headers", func(t *testing.T) {
		mw := NewRateLimitMiddleware(10)
		rec := httptest.NewRecorder()

		mw.Handler(okHandler).ServeHTTP(rec, newRequest(&model.User{ID: "user-1"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("returns 429 with envelope once exhausted", func(t *testing.T) {
		mw := NewRateLimitMiddleware(2)
		user := &model.User{ID: "user-1"}

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			mw.Handler(okHandler).ServeHTTP(rec, newRequest(user))
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		mw.Handler(okHandler).ServeHTTP(rec, newRequest(user))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assertErrorCode(t, rec, "RATE_LIMIT_EXCEEDED")
	})

	t.Run("passes through without a user", func(t *testing.T) {
		mw := NewRateLimitMiddleware(1)

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			mw.Handler(okHandler).ServeHTTP(rec, newRequest(nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
