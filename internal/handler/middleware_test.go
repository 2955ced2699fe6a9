package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("requests beyond the burst get 429", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 2)
		limited := rl.Limit(ok)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rr := httptest.NewRecorder()
			limited.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("visitors are tracked per IP", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1)
		assert.True(t, rl.limiter("10.0.0.1").Allow())
		assert.False(t, rl.limiter("10.0.0.1").Allow())
		assert.True(t, rl.limiter("10.0.0.2").Allow())
	})

	t.Run("sweep drops idle visitors but keeps active ones", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1)
		rl.limiter("idle")
		rl.limiter("active")

		rl.mu.Lock()
		rl.visitors["idle"].lastSeen = time.Now().Add(-2 * visitorTTL)
		rl.mu.Unlock()

		rl.sweep(time.Now())

		rl.mu.Lock()
		_, idleKept := rl.visitors["idle"]
		_, activeKept := rl.visitors["active"]
		rl.mu.Unlock()
		assert.False(t, idleKept)
		assert.True(t, activeKept)
	})

	t.Run("an active visitor's bucket is not reset", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(0.01), 1)
		require.True(t, rl.limiter("10.0.0.3").Allow())
		rl.sweep(time.Now())
		assert.False(t, rl.limiter("10.0.0.3").Allow())
	})
}

func TestCORSPreflight(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := CORS()(ok)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	// Wildcard origin and credentials are mutually exclusive in
	// browsers; this API is token-based so credentials stay off.
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}
