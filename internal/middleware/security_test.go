package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSecurityRouter(cfg SecurityHeadersConfig) *gin.Engine {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doSecurityRequest(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_APIDefaults(t *testing.T) {
	w := doSecurityRequest(newSecurityRouter(APISecurityHeadersConfig()))

	checks := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "no-referrer",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeaders_HSTSValue(t *testing.T) {
	w := doSecurityRequest(newSecurityRouter(APISecurityHeadersConfig()))

	hsts := w.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=31536000") {
		t.Errorf("HSTS = %q, want max-age=31536000", hsts)
	}
	if !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("HSTS = %q, want includeSubDomains", hsts)
	}
	if strings.Contains(hsts, "preload") {
		t.Errorf("HSTS = %q, preload should be off by default", hsts)
	}
}

func TestSecurityHeaders_DisabledSectionsOmitted(t *testing.T) {
	w := doSecurityRequest(newSecurityRouter(SecurityHeadersConfig{}))

	for _, header := range []string{
		"Strict-Transport-Security",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Content-Security-Policy",
	} {
		if got := w.Header().Get(header); got != "" {
			t.Errorf("%s = %q, want unset when disabled", header, got)
		}
	}
}

func TestSecurityHeaders_AlwaysOnHeaders(t *testing.T) {
	w := doSecurityRequest(newSecurityRouter(SecurityHeadersConfig{}))

	if got := w.Header().Get("X-Permitted-Cross-Domain-Policies"); got != "none" {
		t.Errorf("X-Permitted-Cross-Domain-Policies = %q, want none", got)
	}
	if got := w.Header().Get("Cross-Origin-Opener-Policy"); got != "same-origin" {
		t.Errorf("Cross-Origin-Opener-Policy = %q, want same-origin", got)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{
		0:        "0",
		7:        "7",
		42:       "42",
		31536000: "31536000",
		-15:      "-15",
	}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}
