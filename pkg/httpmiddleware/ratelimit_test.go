package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	h := RateLimit(t.Context(), RateLimitConfig{Max: 2, Window: time.Minute, Now: clock.Now})(okHandler())

	for i := range 2 {
		w := hit(h, "10.0.0.1:1000")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := hit(h, "10.0.0.1:1001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var (
		code    int
		message string
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = d.Int()
		case "message":
			message, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", message)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000").Code, "other clients are independent")
}

func TestRateLimit_SlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	h := RateLimit(t.Context(), RateLimitConfig{Max: 2, Window: time.Minute, Now: clock.Now})(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)

	// Half a window later the previous window still weighs 1 request.
	clock.t = clock.t.Add(90 * time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1").Code)

	// Two windows later everything is forgotten.
	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{})(okHandler())
	for range 10 {
		w := hit(h, "10.0.0.1:1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_Evict(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	_, _, ok := l.take("a", start)
	require.True(t, ok)

	l.evict(start.Add(time.Minute))
	assert.Len(t, l.clients, 1)
	l.evict(start.Add(2 * time.Minute))
	assert.Empty(t, l.clients)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded for first hop", header: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, remote: "1.1.1.1:1", want: "203.0.113.50"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "1.1.1.1:1", want: "198.51.100.7"},
		{name: "remote addr", remote: "192.168.1.1:4444", want: "192.168.1.1"},
		{name: "remote addr without port", remote: "192.168.1.1", want: "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
