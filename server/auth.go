// ABOUTME: Bearer token authentication middleware for the API.
// ABOUTME: Constant-time comparison; supports a tanva_token cookie for browser sessions.

package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// AuthMiddleware returns a middleware that validates bearer tokens on /api/*
// routes. Health checks and everything outside /api pass through. Browser
// sessions may authenticate with a tanva_token cookie instead of the header.
// An empty token disables authentication (loopback-only deployments).
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := "Bearer " + token
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			path := r.URL.Path
			if !strings.HasPrefix(path, "/api/") && path != "/api" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if cookie, err := r.Cookie("tanva_token"); err == nil {
				if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		})
	}
}

// requireAdmin guards endpoints that change shared state (templates,
// settings, credit grants). An empty admin token closes those endpoints
// entirely rather than opening them.
func requireAdmin(adminToken string, next http.HandlerFunc) http.HandlerFunc {
	expected := "Bearer " + adminToken
	return func(w http.ResponseWriter, r *http.Request) {
		if adminToken == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin endpoints disabled"})
			return
		}
		auth := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin token required"})
			return
		}
		next(w, r)
	}
}
