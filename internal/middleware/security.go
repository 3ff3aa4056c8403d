package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// DocsContentSecurityPolicy lets the Swagger UI run its inline bootstrap script.
const DocsContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return secureHeaders(production, "default-src 'self'")
}

// DocsSecurityHeaders is SecurityHeaders for the API documentation pages.
func DocsSecurityHeaders(production bool) func(http.Handler) http.Handler {
	return secureHeaders(production, DocsContentSecurityPolicy)
}

func secureHeaders(production bool, csp string) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: csp,
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	}).Handler
}

// LoginRateLimit caps login attempts per client IP.
func LoginRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(requestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, "Too many login attempts", http.StatusTooManyRequests)
		}),
	)
}
