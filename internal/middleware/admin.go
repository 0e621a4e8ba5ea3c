// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/olegiv/carta/internal/auth"
	"github.com/olegiv/carta/internal/model"
)

// AdminAuth guards the admin API with a bearer token checked against a
// bcrypt hash. The digest of the last accepted token is remembered so
// repeated requests skip the bcrypt comparison.
type AdminAuth struct {
	hash   string
	logger *slog.Logger

	mu       sync.RWMutex
	verified [sha256.Size]byte
	has      bool
}

// NewAdminAuth creates the guard for a bcrypt token hash.
func NewAdminAuth(tokenHash string, logger *slog.Logger) *AdminAuth {
	return &AdminAuth{hash: tokenHash, logger: logger}
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Verify reports whether token matches the configured hash.
func (a *AdminAuth) Verify(token string) bool {
	if token == "" || len(a.hash) == 0 {
		return false
	}
	digest := sha256.Sum256([]byte(token))

	a.mu.RLock()
	cached := a.has && subtle.ConstantTimeCompare(digest[:], a.verified[:]) == 1
	a.mu.RUnlock()
	if cached {
		return true
	}

	if !auth.VerifyToken(token, a.hash) {
		return false
	}

	a.mu.Lock()
	a.verified = digest
	a.has = true
	a.mu.Unlock()
	return true
}

// Handler rejects requests without a valid token with 401.
func (a *AdminAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Verify(bearerToken(r)) {
			a.logger.Warn("admin request rejected", "category", model.EventCategorySystem,
				"path", r.URL.Path, "remote_addr", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="carta-admin"`)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
