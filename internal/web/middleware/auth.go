// Package middleware provides HTTP middleware for the results API.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/natiga/results/internal/config"
)

// BearerAuth returns middleware that validates the Authorization header
// against the configured admin tokens. When RequireToken is false all
// requests pass through; when it is true but no tokens are configured,
// every request is rejected.
func BearerAuth(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireToken {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				slog.Warn("auth: missing bearer token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				unauthorized(w, http.StatusUnauthorized, "missing bearer token", "AUTH_MISSING_TOKEN")
				return
			}

			if !isValidToken(token, cfg.AdminTokens) {
				slog.Warn("auth: invalid bearer token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				unauthorized(w, http.StatusForbidden, "invalid bearer token", "AUTH_INVALID_TOKEN")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// isValidToken compares against every configured token so the timing
// stays constant no matter which one matches.
func isValidToken(token string, validTokens []string) bool {
	valid := 0
	for _, t := range validTokens {
		valid |= subtle.ConstantTimeCompare([]byte(token), []byte(t))
	}
	return valid == 1
}

func unauthorized(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
