package security

import (
	"net/http"
	"strconv"
	"strings"
)

// CSPDirective is one Content-Security-Policy directive and its sources.
type CSPDirective struct {
	Name    string
	Sources []string
}

// HSTS is sent only on TLS requests. A zero MaxAge disables it.
type HSTS struct {
	MaxAge            int
	IncludeSubdomains bool
	Preload           bool
}

func (h HSTS) value() string {
	if h.MaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(h.MaxAge)
	if h.IncludeSubdomains {
		v += "; includeSubDomains"
	}
	if h.Preload {
		v += "; preload"
	}
	return v
}

// HeadersConfig describes the response headers added to every request.
// Fixed holds plain header values; empty values are skipped.
type HeadersConfig struct {
	CSP   []CSPDirective
	HSTS  HSTS
	Fixed map[string]string
}

// DefaultHeadersConfig is the policy for the expense pages: htmx from unpkg,
// inline styles for the SVG charts, no framing and no caching of ledger data.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: []CSPDirective{
			{"default-src", []string{"'self'"}},
			{"script-src", []string{"'self'", "https://unpkg.com"}},
			{"style-src", []string{"'self'", "'unsafe-inline'"}},
			{"img-src", []string{"'self'", "data:"}},
			{"connect-src", []string{"'self'"}},
			{"object-src", []string{"'none'"}},
			{"frame-ancestors", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'"}},
		},
		HSTS: HSTS{MaxAge: 31536000, IncludeSubdomains: true},
		Fixed: map[string]string{
			"X-Frame-Options":              "DENY",
			"X-Content-Type-Options":       "nosniff",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
			"Cache-Control":                "no-store",
		},
	}
}

// ContentSecurityPolicy renders the CSP directives as a header value.
func (c HeadersConfig) ContentSecurityPolicy() string {
	parts := make([]string, 0, len(c.CSP))
	for _, d := range c.CSP {
		if len(d.Sources) == 0 {
			parts = append(parts, d.Name)
			continue
		}
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

// NewHeadersMiddleware renders the configured headers once.
func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	static := make(http.Header, len(cfg.Fixed)+1)
	for k, v := range cfg.Fixed {
		if v != "" {
			static.Set(k, v)
		}
	}
	if csp := cfg.ContentSecurityPolicy(); csp != "" {
		static.Set("Content-Security-Policy", csp)
	}
	return &HeadersMiddleware{static: static, hsts: cfg.HSTS.value()}
}

// Middleware sets the headers before next runs, so handlers may override them.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, vs := range h.static {
			dst[k] = append([]string(nil), vs...)
		}
		if r.TLS != nil && h.hsts != "" {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks embedded assets as cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge) + ", immutable"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
