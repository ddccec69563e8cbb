package ports_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/riftlight/internal/ports"
	"github.com/stretchr/testify/require"
)

const PROD_DOMAIN_SUFFIX = "riftlight.net"
const STAGING_DOMAIN_SUFFIX = "riftlight-staging.pages.dev"

type originRule struct {
	origin  string
	allowed bool
}

func TestCORS(t *testing.T) {
	t.Parallel()
	allowedOrigins, err := ports.NewDomainSuffixes(
		PROD_DOMAIN_SUFFIX,
		STAGING_DOMAIN_SUFFIX,
	)
	require.NoError(t, err)

	cases := []originRule{
		// Prod
		{
			origin:  "https://riftlight.net",
			allowed: true,
		},
		{
			origin:  "https://www.riftlight.net",
			allowed: true,
		},
		// Staging
		{
			origin:  "https://c0ffee42.riftlight-staging.pages.dev",
			allowed: true,
		},
		{
			origin:  "https://riftlight-staging.pages.dev",
			allowed: true,
		},
		// Other pages
		{
			origin:  "riftlight.net",
			allowed: false,
		},
		{
			origin:  "https://example.com",
			allowed: false,
		},
		{
			origin:  "https://www.google.com",
			allowed: false,
		},
		// Similar-looking domains
		{
			origin:  "https://rift-light.net",
			allowed: false,
		},
		{
			origin:  "https://myriftlight.net",
			allowed: false,
		},
		// Wrong scheme
		{
			origin:  "http://riftlight.net",
			allowed: false,
		},
		{
			origin:  "http://www.riftlight.net",
			allowed: false,
		},
	}

	t.Run("middleware", func(t *testing.T) {
		t.Parallel()
		middleware := ports.BuildCORSMiddleware(allowedOrigins)

		for _, c := range cases {
			t.Run(fmt.Sprintf("origin %s", c.origin), func(t *testing.T) {
				t.Parallel()

				handler := middleware(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				})

				req := httptest.NewRequest(http.MethodPost, "/v1/ingest", nil)
				req.Header.Set("Origin", c.origin)
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				require.Equal(t, http.StatusOK, w.Code)
				if c.allowed {
					require.Equal(t, c.origin, w.Result().Header.Get("Access-Control-Allow-Origin"))
				} else {
					require.Empty(t, w.Result().Header.Get("Access-Control-Allow-Origin"))
				}
			})
		}
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		middleware := ports.BuildCORSMiddleware(allowedOrigins)

		for _, c := range cases {
			t.Run(fmt.Sprintf("origin %s", c.origin), func(t *testing.T) {
				t.Parallel()

				handlerCalled := false
				handler := middleware(func(w http.ResponseWriter, r *http.Request) {
					handlerCalled = true
					w.WriteHeader(http.StatusOK)
				})

				req := httptest.NewRequest(http.MethodOptions, "/v1/ingest", nil)
				req.Header.Set("Origin", c.origin)
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				if c.allowed {
					require.False(t, handlerCalled)
					require.Equal(t, http.StatusNoContent, w.Code)
					require.Equal(t, c.origin, w.Result().Header.Get("Access-Control-Allow-Origin"))
					require.Equal(t, "POST", w.Result().Header.Get("Access-Control-Allow-Methods"))
				} else {
					require.True(t, handlerCalled)
					require.Empty(t, w.Result().Header.Get("Access-Control-Allow-Origin"))
				}
			})
		}
	})

	t.Run("handler", func(t *testing.T) {
		t.Parallel()
		handler := ports.BuildCORSHandler(allowedOrigins)

		req := httptest.NewRequest(http.MethodOptions, "/v1/ingest", nil)
		req.Header.Set("Origin", fmt.Sprintf("https://%s", PROD_DOMAIN_SUFFIX))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)

		body, err := io.ReadAll(w.Result().Body)
		require.NoError(t, err)
		require.Empty(t, body)
	})
}

func TestNewDomainSuffixes(t *testing.T) {
	t.Parallel()

	t.Run("rejects leading dot", func(t *testing.T) {
		t.Parallel()
		_, err := ports.NewDomainSuffixes(".riftlight.net")
		require.Error(t, err)
	})

	t.Run("rejects scheme", func(t *testing.T) {
		t.Parallel()
		_, err := ports.NewDomainSuffixes("https://riftlight.net")
		require.Error(t, err)
	})
}
