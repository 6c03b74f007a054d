package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/rate"
	"github.com/dropDatabas3/coralbridge/internal/security/adminkey"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mk("a"), nil, mk("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rr.Header().Get("X-Request-ID"), 36)
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithLogging(), WithRecover())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRequireAdminKey(t *testing.T) {
	phc, err := adminkey.Hash(adminkey.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}, "s3cret")
	require.NoError(t, err)
	h := Chain(okHandler, RequireAdminKey(adminkey.NewVerifier(phc)))

	cases := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
		{"s3cret", http.StatusNoContent},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/settings", nil)
		if c.key != "" {
			req.Header.Set(AdminKeyHeader, c.key)
		}
		h.ServeHTTP(rr, req)
		assert.Equal(t, c.want, rr.Code, c.key)
	}
}

func TestRequireAdminKey_Disabled(t *testing.T) {
	h := Chain(okHandler, RequireAdminKey(adminkey.NewVerifier("")))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminKeyHeader, "anything")
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

type fakeLimiter struct {
	res rate.Result
	err error
	key string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (rate.Result, error) {
	f.key = key
	return f.res, f.err
}

type countRecorder struct{ n int }

func (c *countRecorder) RateLimited() { c.n++ }

func TestWithRateLimit(t *testing.T) {
	lim := &fakeLimiter{res: rate.Result{Allowed: false, RetryAfter: 30 * time.Second}}
	rec := &countRecorder{}
	h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: lim, Recorder: rec}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/token", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	assert.Equal(t, "203.0.113.9|/v1/admin/token", lim.key)
	assert.Equal(t, 1, rec.n)

	// un error del limiter no bloquea
	lim.err = errors.New("redis down")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/token", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	lim.err = nil
	lim.res = rate.Result{Allowed: true, Remaining: 4}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/token", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
}
