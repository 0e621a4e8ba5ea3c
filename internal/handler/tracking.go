// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/carta/internal/analytics"
)

// Tracker records views and clicks at most once per session.
type Tracker interface {
	TrackView(ctx context.Context, markers analytics.MarkerStore, menuID string, visit analytics.Visit) bool
	TrackClick(ctx context.Context, markers analytics.MarkerStore, promotionID string) bool
}

// TrackingHandler serves the analytics beacons. Both endpoints answer 204
// whatever happened, so clients never retry or surface errors.
type TrackingHandler struct {
	tracker Tracker
	markers analytics.MarkerStore
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(tracker Tracker, markers analytics.MarkerStore) *TrackingHandler {
	return &TrackingHandler{tracker: tracker, markers: markers}
}

// View handles POST /t/view/{menuID}.
func (h *TrackingHandler) View(w http.ResponseWriter, r *http.Request) {
	h.tracker.TrackView(r.Context(), h.markers, chi.URLParam(r, "menuID"), analytics.Visit{
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Click handles POST /t/click/{promotionID}.
func (h *TrackingHandler) Click(w http.ResponseWriter, r *http.Request) {
	h.tracker.TrackClick(r.Context(), h.markers, chi.URLParam(r, "promotionID"))
	w.WriteHeader(http.StatusNoContent)
}

// noContent answers rate-limited beacons.
func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
