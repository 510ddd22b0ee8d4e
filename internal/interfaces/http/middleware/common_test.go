package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newHeaderRouter builds a router with the given middleware and a
// single GET /ping route, for asserting on response headers.
func newHeaderRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doRequest(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS_EmptyWhitelistDefault(t *testing.T) {
	router := newHeaderRouter(CORS())

	t.Run("cross-origin request gets no CORS headers", func(t *testing.T) {
		w := doRequest(router, "GET", "http://evil.example.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same-origin request passes through", func(t *testing.T) {
		w := doRequest(router, "GET", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight still answers 204", func(t *testing.T) {
		w := doRequest(router, "OPTIONS", "http://evil.example.com")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWithConfig_OriginMatching(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"http://dashboard.bva.local", "http://staging.bva.local"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}
	router := newHeaderRouter(CORSWithConfig(cfg))

	t.Run("whitelisted origins are echoed back", func(t *testing.T) {
		for _, origin := range cfg.AllowOrigins {
			w := doRequest(router, "GET", origin)
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		}
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		w := doRequest(router, "GET", "http://other.example.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight for whitelisted origin carries method and header lists", func(t *testing.T) {
		w := doRequest(router, "OPTIONS", "http://dashboard.bva.local")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://dashboard.bva.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("preflight for unknown origin answers 204 without headers", func(t *testing.T) {
		w := doRequest(router, "OPTIONS", "http://other.example.com")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWithConfig_Wildcard(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}
	router := newHeaderRouter(CORSWithConfig(cfg))

	w := doRequest(router, "GET", "http://anywhere.example.com")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	// A credentialed response with a "*" origin is rejected by
	// browsers, so the flag must be suppressed.
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWithConfig_ExtraHeaders(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:  []string{"http://dashboard.bva.local"},
		AllowMethods:  []string{"GET"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	router := newHeaderRouter(CORSWithConfig(cfg))

	w := doRequest(router, "GET", "http://dashboard.bva.local")
	assert.Equal(t, "X-Request-ID, X-RateLimit-Remaining", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSWithConfig_MaxAgeIsDecimalSeconds(t *testing.T) {
	cases := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"one minute", time.Minute, "60"},
		{"one hour", time.Hour, "3600"},
		{"one day", 24 * time.Hour, "86400"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := CORSConfig{
				AllowOrigins: []string{"http://dashboard.bva.local"},
				AllowMethods: []string{"GET"},
				AllowHeaders: []string{"Content-Type"},
				MaxAge:       tc.duration,
			}
			router := newHeaderRouter(CORSWithConfig(cfg))
			w := doRequest(router, "GET", "http://dashboard.bva.local")
			assert.Equal(t, tc.want, w.Header().Get("Access-Control-Max-Age"))
		})
	}
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Empty(t, cfg.AllowOrigins, "origins must be opt-in")
	assert.Contains(t, cfg.AllowMethods, "GET")
	assert.Contains(t, cfg.AllowMethods, "DELETE")
	assert.Contains(t, cfg.AllowHeaders, "Authorization")
	assert.Contains(t, cfg.AllowHeaders, "X-Shop-ID")
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		w := doRequest(router, "GET", "")
		id := w.Header().Get("X-Request-ID")
		assert.Len(t, id, 32)
		assert.Equal(t, id, w.Body.String(), "context value must match the header")
	})

	t.Run("reuses the caller's ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("X-Request-ID", "sync-retry-7f3a")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "sync-retry-7f3a", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "sync-retry-7f3a", w.Body.String())
	})
}

func TestNewRequestID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newRequestID()
		assert.Len(t, id, 32)
		assert.False(t, seen[id], "request IDs must not repeat")
		seen[id] = true
	}
}

func TestSecure_Defaults(t *testing.T) {
	router := newHeaderRouter(Secure())
	w := doRequest(router, "GET", "")

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "frame-ancestors 'none'")

	permissions := w.Header().Get("Permissions-Policy")
	assert.Contains(t, permissions, "camera=()")
	assert.Contains(t, permissions, "microphone=()")

	// HSTS needs a TLS deployment, so it stays off until enabled.
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureWithConfig(t *testing.T) {
	t.Run("custom CSP directive", func(t *testing.T) {
		router := newHeaderRouter(SecureWithConfig(SecurityConfig{
			CSPEnabled:   true,
			CSPDirective: "default-src 'none'; script-src 'self'",
		}))
		w := doRequest(router, "GET", "")

		assert.Equal(t, "default-src 'none'; script-src 'self'", w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
	})

	t.Run("HSTS value composition", func(t *testing.T) {
		cases := []struct {
			name string
			cfg  SecurityConfig
			want string
		}{
			{
				name: "max-age only",
				cfg:  SecurityConfig{HSTSEnabled: true, HSTSMaxAge: 31536000},
				want: "max-age=31536000",
			},
			{
				name: "subdomains and preload",
				cfg: SecurityConfig{
					HSTSEnabled:           true,
					HSTSMaxAge:            63072000,
					HSTSIncludeSubdomains: true,
					HSTSPreload:           true,
				},
				want: "max-age=63072000; includeSubDomains; preload",
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				router := newHeaderRouter(SecureWithConfig(tc.cfg))
				w := doRequest(router, "GET", "")
				assert.Equal(t, tc.want, w.Header().Get("Strict-Transport-Security"))
			})
		}
	})

	t.Run("optional headers disabled leaves baseline intact", func(t *testing.T) {
		router := newHeaderRouter(SecureWithConfig(SecurityConfig{}))
		w := doRequest(router, "GET", "")

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
	})
}

func TestDefaultSecurityConfig(t *testing.T) {
	cfg := DefaultSecurityConfig()

	assert.False(t, cfg.HSTSEnabled)
	assert.Equal(t, 31536000, cfg.HSTSMaxAge)
	assert.True(t, cfg.CSPEnabled)
	assert.Contains(t, cfg.CSPDirective, "frame-ancestors 'none'")
	assert.True(t, cfg.PermissionsPolicyEnabled)
	assert.Contains(t, cfg.PermissionsPolicyDirective, "payment=()")
}
