// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("database is locked"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(fakePinger{err: tt.err}, "redis")

			req := httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil)
			w := httptest.NewRecorder()
			h.Health(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("Status = %d, want %d", w.Code, tt.wantCode)
			}

			var status HealthStatus
			if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status.Status, tt.wantStatus)
			}
			if status.Checks["cache"].Message != "redis" {
				t.Errorf("cache check = %+v, want redis backend", status.Checks["cache"])
			}
			if status.System == nil || status.System.NumCPU == 0 {
				t.Error("verbose health should include system info")
			}
			if status.Version == "" {
				t.Error("missing version")
			}
		})
	}
}

func TestHealthHandler_LivenessAndReadiness(t *testing.T) {
	h := NewHealthHandler(fakePinger{err: errors.New("down")}, "memory")

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Liveness status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Readiness status = %d, want 503", w.Code)
	}

	h = NewHealthHandler(fakePinger{}, "memory")
	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Readiness status = %d, want 200", w.Code)
	}
}

func TestHealthRoute_NoSecurityHeaders(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, request{method: http.MethodGet, path: "/health"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); csp != "" {
		t.Errorf("health should skip security headers, got CSP %q", csp)
	}
}
