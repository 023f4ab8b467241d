package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/livecharge/livecharge/internal/api/models"
)

// Content security policies. API responses never load subresources; the
// board page loads its own bundle, map tiles, and the /ws socket.
const (
	apiContentSecurityPolicy  = "default-src 'none'; frame-ancestors 'none'"
	pageContentSecurityPolicy = "default-src 'self'; img-src 'self' data: https:; " +
		"style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; frame-ancestors 'none'"
)

var baseSecurityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	// The map centres on the visitor's position.
	"Permissions-Policy": "geolocation=(self), camera=(), microphone=()",
}

// SecurityHeaders adds the browser hardening headers to every response.
// HSTS is only sent on requests that arrived over HTTPS, directly or via a
// terminating proxy.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range baseSecurityHeaders {
			h.Set(k, v)
		}

		if isAPIPath(r.URL.Path) {
			h.Set("Content-Security-Policy", apiContentSecurityPolicy)
		} else {
			h.Set("Content-Security-Policy", pageContentSecurityPolicy)
		}

		if scheme(r) == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// RequireTLS rejects plain-HTTP requests forwarded by the load balancer when
// REQUIRE_TLS=true. Requests without X-Forwarded-Proto and the health
// probes are let through.
func RequireTLS(next http.Handler) http.Handler {
	return requireTLS(os.Getenv("REQUIRE_TLS") == "true", next)
}

func requireTLS(enabled bool, next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto := r.Header.Get("X-Forwarded-Proto")
		if _, probe := quietPaths[r.URL.Path]; proto == "" || proto == "https" || probe {
			next.ServeHTTP(w, r)
			return
		}

		models.NewProblem(
			"https://livecharge.app/problems/tls-required",
			"TLS required",
			http.StatusForbidden,
			GetRequestID(r.Context()),
		).WithDetail("This endpoint requires HTTPS").WithInstance(r.URL.Path).Write(w)
	})
}
