package ports

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/riftlight/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

type mockedRateLimiter struct {
	t           *testing.T
	allow       bool
	expectedKey string
}

func (m *mockedRateLimiter) Consume(key string) bool {
	m.t.Helper()
	require.Equal(m.t, m.expectedKey, key)
	return m.allow
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	runTest := func(t *testing.T, allow bool) {
		t.Helper()
		handlerCalled := false
		onLimitExceededCalled := false
		rateLimiter := &mockedRateLimiter{
			t:           t,
			allow:       allow,
			expectedKey: "ip: 12.12.123.123",
		}
		ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
			rateLimiter, ratelimiting.IPKeyFunc,
		)

		w := httptest.NewRecorder()
		middleware := NewRateLimitMiddleware(
			ipRateLimiter,
			func(w http.ResponseWriter, r *http.Request) {
				onLimitExceededCalled = true
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			},
		)
		handler := middleware(
			func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			},
		)

		req := httptest.NewRequest(http.MethodPost, "/v1/ingest", nil)
		req.RemoteAddr = "12.12.123.123:4321"

		handler.ServeHTTP(w, req)

		require.Equal(t, allow, handlerCalled)
		require.Equal(t, !allow, onLimitExceededCalled)
		if allow {
			require.Equal(t, http.StatusOK, w.Code)
		} else {
			require.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	}

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()
		runTest(t, true)
	})

	t.Run("limited", func(t *testing.T) {
		t.Parallel()
		runTest(t, false)
	})
}

func TestComposeMiddlewares(t *testing.T) {
	t.Parallel()

	makeRecordingMiddleware := func(name string, order *[]string) func(http.HandlerFunc) http.HandlerFunc {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				*order = append(*order, name)
				next(w, r)
			}
		}
	}

	t.Run("runs middlewares outermost first", func(t *testing.T) {
		t.Parallel()
		order := []string{}
		middleware := ComposeMiddlewares(
			makeRecordingMiddleware("first", &order),
			makeRecordingMiddleware("second", &order),
			makeRecordingMiddleware("third", &order),
		)

		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, []string{"first", "second", "third", "handler"}, order)
	})

	t.Run("no middlewares", func(t *testing.T) {
		t.Parallel()
		middleware := ComposeMiddlewares()

		handlerCalled := false
		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.True(t, handlerCalled)
	})
}
