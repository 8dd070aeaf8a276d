package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(t *testing.T, opt SecurityOptions, prep func(*gin.Context), mod func(*http.Request)) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if prep != nil {
		r.Use(func(c *gin.Context) { prep(c); c.Next() })
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	if mod != nil {
		mod(req)
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /ok = %d", w.Code)
	}
	return w.Header()
}

func TestSecurityHeaders_BaselineOnly(t *testing.T) {
	h := serveSecured(t, SecurityOptions{}, nil, nil)

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, hdr := range []string{
		"Permissions-Policy", "X-Permitted-Cross-Domain-Policies",
		"Cache-Control", "Pragma", "Expires", "Strict-Transport-Security",
	} {
		if h.Get(hdr) != "" {
			t.Fatalf("optional header %s emitted without opt-in: %q", hdr, h.Get(hdr))
		}
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	t.Run("sets when absent", func(t *testing.T) {
		h := serveSecured(t, SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-1")
		}, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
			t.Fatalf("expose header = %q", got)
		}
	})
	t.Run("appends to existing", func(t *testing.T) {
		h := serveSecured(t, SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-2")
			c.Header("Access-Control-Expose-Headers", "Foo")
		}, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "Foo, X-Request-ID" {
			t.Fatalf("expose header = %q", got)
		}
	})
	t.Run("does not duplicate", func(t *testing.T) {
		h := serveSecured(t, SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-3")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Foo")
		}, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Foo" {
			t.Fatalf("expose header = %q", got)
		}
	})
}

func TestSecurityHeaders_PolicyNoStoreAndHSTSOverTLS(t *testing.T) {
	h := serveSecured(t, SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   24 * time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}, nil, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})

	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %#v", h)
	}
	if got, want := h.Get("Strict-Transport-Security"), "max-age=86400; includeSubDomains; preload"; got != want {
		t.Fatalf("HSTS = %q, want %q", got, want)
	}
}

func TestSecurityHeaders_HSTSRequiresHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}

	// Plain HTTP never gets HSTS even when enabled.
	h := serveSecured(t, opt, nil, nil)
	if got := h.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS on plain HTTP: %q", got)
	}

	// Proxy-terminated TLS via X-Forwarded-Proto counts.
	h = serveSecured(t, opt, nil, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	if got := h.Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("HSTS via proxy header = %q", got)
	}
}

func TestSecurityHeaders_DefaultMaxAge(t *testing.T) {
	h := serveSecured(t, SecurityOptions{EnableHSTS: true}, nil, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})
	// Zero max-age falls back to 180 days.
	if got, want := h.Get("Strict-Transport-Security"), "max-age=15552000; includeSubDomains; preload"; got != want {
		t.Fatalf("HSTS = %q, want %q", got, want)
	}
}

func Test_viaHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if viaHTTPS(req) {
		t.Fatalf("plain HTTP reported as https")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	if !viaHTTPS(req) {
		t.Fatalf("TLS request not reported as https")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !viaHTTPS(req) {
		t.Fatalf("X-Forwarded-Proto not honored case-insensitively")
	}
}
