package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "docs"})
	})
	return router
}

func getSwagger(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection_DisabledHidesEndpoint(t *testing.T) {
	router := swaggerRouter(SwaggerConfig{Enabled: false}, nil)

	w := getSwagger(router, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestSwaggerProtection_OpenWhenEnabled(t *testing.T) {
	router := swaggerRouter(SwaggerConfig{Enabled: true}, nil)

	assert.Equal(t, http.StatusOK, getSwagger(router, "").Code)
}

func TestSwaggerProtection_IPWhitelist(t *testing.T) {
	t.Run("exact IP", func(t *testing.T) {
		router := swaggerRouter(SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, nil)

		assert.Equal(t, http.StatusOK, getSwagger(router, "127.0.0.1:40000").Code)

		w := getSwagger(router, "203.0.113.9:40000")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "forbidden")
	})

	t.Run("CIDR range", func(t *testing.T) {
		router := swaggerRouter(SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil)

		assert.Equal(t, http.StatusOK, getSwagger(router, "10.50.100.200:40000").Code)
		assert.Equal(t, http.StatusForbidden, getSwagger(router, "192.168.1.1:40000").Code)
	})

	t.Run("malformed entries are skipped, not matched", func(t *testing.T) {
		router := swaggerRouter(SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip", "300.0.0.0/8"}}, nil)

		assert.Equal(t, http.StatusForbidden, getSwagger(router, "10.0.0.1:40000").Code)
	})
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	allow := func(c *gin.Context) {
		c.Set("user_id", "owner-1")
		c.Next()
	}

	t.Run("rejected token blocks docs", func(t *testing.T) {
		router := swaggerRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, deny)
		assert.Equal(t, http.StatusUnauthorized, getSwagger(router, "").Code)
	})

	t.Run("accepted token reaches docs", func(t *testing.T) {
		router := swaggerRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, allow)
		assert.Equal(t, http.StatusOK, getSwagger(router, "").Code)
	})

	t.Run("IP check runs before auth", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}}
		router := swaggerRouter(cfg, allow)

		assert.Equal(t, http.StatusOK, getSwagger(router, "127.0.0.1:40000").Code)
		assert.Equal(t, http.StatusForbidden, getSwagger(router, "192.168.1.1:40000").Code)
	})
}

func TestWhitelisted(t *testing.T) {
	cases := []struct {
		name string
		ip   string
		ips  []string
		nets []string
		want bool
	}{
		{"exact IPv4 match", "192.168.1.1", []string{"192.168.1.1"}, nil, true},
		{"IPv4 mismatch", "192.168.1.2", []string{"192.168.1.1"}, nil, false},
		{"inside CIDR", "10.0.0.5", nil, []string{"10.0.0.0/8"}, true},
		{"outside CIDR", "11.0.0.5", nil, []string{"10.0.0.0/8"}, false},
		{"IPv6 loopback", "::1", []string{"::1"}, nil, true},
		{"unparseable client IP", "", []string{"127.0.0.1"}, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var entries []string
			entries = append(entries, tc.ips...)
			entries = append(entries, tc.nets...)
			ips, nets := parseWhitelist(entries)

			assert.Equal(t, tc.want, whitelisted(net.ParseIP(tc.ip), ips, nets))
		})
	}
}
