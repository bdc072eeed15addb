// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const headerAPIKey = "X-API-Key"

// Paths that never require the shared secret: operational probes and the
// API description.
var exemptPaths = map[string]bool{
	"/":        true,
	"/docs":    true,
	"/healthz": true,
	"/metrics": true,
	"/version": true,
}

// APIKeyAuth enforces the shared-secret key for every route except the
// exempt paths. The key is accepted either as a bearer token or via the
// X-API-Key header. An empty configured key disables the gate entirely.
func APIKeyAuth(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			supplied, ok := suppliedKey(r)
			if !ok {
				logger.Warn("request blocked by api key middleware",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeAuthError(w, "missing or invalid API key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
				logger.Warn("request blocked by api key mismatch",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeAuthError(w, "missing or invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func suppliedKey(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if key := strings.TrimSpace(r.Header.Get(headerAPIKey)); key != "" {
		return key, true
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	schemeToken := strings.SplitN(header, " ", 2)
	if len(schemeToken) != 2 {
		return "", false
	}
	if !strings.EqualFold(schemeToken[0], "Bearer") {
		return "", false
	}
	if schemeToken[1] == "" {
		return "", false
	}
	return schemeToken[1], true
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
