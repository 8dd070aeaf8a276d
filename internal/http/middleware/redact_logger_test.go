package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func Test_scrub(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"ana@example.com", "[REDACTED:email]"},
		{"+1-555-123-4567", "[REDACTED:phone]"},
		{"123e4567-e89b-12d3-a456-426614174000", "[REDACTED:id]"},
		// UUID must win over the phone pattern inside the same value.
		{"id=123e4567-e89b-12d3-a456-426614174000 tel 555-123-4567",
			"id=[REDACTED:id] tel [REDACTED:phone]"},
	}
	for _, tc := range cases {
		if got := scrub(tc.in); got != tc.want {
			t.Fatalf("scrub(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	// upstream middleware already stamped the response request id
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/players/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/players/p1?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "reach me at ana@example.com")
	req.Header.Set("X-Request-ID", "rid-req") // response header must win

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("expected info log, got: %s", logs)
	}
	if !strings.Contains(logs, `"path":"/players/:id"`) {
		t.Fatalf("expected route template path, got: %s", logs)
	}
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("expected response-header request id, got: %s", logs)
	}
	for _, marker := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(logs, marker) {
			t.Fatalf("missing %s in: %s", marker, logs)
		}
	}
	for _, hdr := range []string{`"Authorization":"[REDACTED]"`, `"Cookie":"[REDACTED]"`, `"X-Api-Key":"[REDACTED]"`} {
		if !strings.Contains(logs, hdr) {
			t.Fatalf("missing masked header %s in: %s", hdr, logs)
		}
	}
	if !strings.Contains(logs, `"X-Custom":"reach me at [REDACTED:email]"`) {
		t.Fatalf("expected pattern-scrubbed X-Custom, got: %s", logs)
	}
	if strings.Contains(logs, "topsecret") || strings.Contains(logs, "shhh") {
		t.Fatalf("secret leaked into logs: %s", logs)
	}
}

func TestRedactingLogger_SeverityAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "rid-warn")
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), req)

	logs := buf.String()
	// With no response header set, the logger falls back to the request header.
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log missing or wrong request id: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log missing or wrong request id: %s", logs)
	}
}
