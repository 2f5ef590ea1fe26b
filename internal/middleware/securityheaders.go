package middleware

import (
	"net/http"
	"strings"
)

const (
	apiContentSecurityPolicy  = "default-src 'none'; frame-ancestors 'none'"
	pageContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"
)

// SecurityHeaders sets security headers on all responses
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// The index page loads its own script and styles; everything else is data.
			if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/healthz" {
				w.Header().Set("Content-Security-Policy", apiContentSecurityPolicy)
			} else {
				w.Header().Set("Content-Security-Policy", pageContentSecurityPolicy)
			}

			// HSTS only over TLS and when enabled, so local development stays on plain HTTP
			if enableHSTS && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}
