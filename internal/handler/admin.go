// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/carta/internal/admin"
	"github.com/olegiv/carta/internal/analytics"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/scheduler"
	"github.com/olegiv/carta/internal/store"
)

// OwnerHeader selects the owner new menus are created for and menus are
// listed by.
const OwnerHeader = "X-Owner-ID"

// DefaultOwnerID is used when a create request names no owner.
const DefaultOwnerID = "owner"

// Event log listing bounds.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventLister reads the persisted event log.
type EventLister interface {
	ListEvents(ctx context.Context, category string, limit int) ([]model.Event, error)
}

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(name string) error
}

// AdminHandler serves the owner API.
type AdminHandler struct {
	svc    *admin.Service
	stats  *analytics.Stats
	events EventLister
	jobs   JobRunner
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler. events and jobs may be nil.
func NewAdminHandler(svc *admin.Service, stats *analytics.Stats, events EventLister, jobs JobRunner, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, stats: stats, events: events, jobs: jobs, logger: logger}
}

func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}

// ListMenus handles GET /admin/menus.
func (h *AdminHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.svc.ListMenus(r.Context(), strings.TrimSpace(r.Header.Get(OwnerHeader)))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if menus == nil {
		menus = []model.Menu{}
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"menus": menus})
}

// CreateMenu handles POST /admin/menus.
func (h *AdminHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var in admin.MenuInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.OwnerID = strings.TrimSpace(r.Header.Get(OwnerHeader))
	if in.OwnerID == "" {
		in.OwnerID = DefaultOwnerID
	}

	m, err := h.svc.CreateMenu(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"menu": m})
}

// Publish handles POST /admin/menus/{id}/publish.
func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// Unpublish handles POST /admin/menus/{id}/unpublish.
func (h *AdminHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *AdminHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	if err := h.svc.SetPublished(r.Context(), chi.URLParam(r, "id"), published); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"published": published})
}

// CreateSection handles POST /admin/menus/{id}/sections.
func (h *AdminHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var in admin.SectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.MenuID = chi.URLParam(r, "id")

	sec, err := h.svc.CreateSection(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"section": sec})
}

// CreateItem handles POST /admin/sections/{id}/items.
func (h *AdminHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in admin.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.SectionID = chi.URLParam(r, "id")

	it, err := h.svc.CreateItem(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"item": it})
}

// CreatePromotion handles POST /admin/menus/{id}/promotions.
func (h *AdminHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var in admin.PromotionInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.MenuID = chi.URLParam(r, "id")

	p, err := h.svc.CreatePromotion(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"promotion": p})
}

// ActivatePromotion handles POST /admin/promotions/{id}/activate.
func (h *AdminHandler) ActivatePromotion(w http.ResponseWriter, r *http.Request) {
	h.setPromotionActive(w, r, true)
}

// DeactivatePromotion handles POST /admin/promotions/{id}/deactivate.
func (h *AdminHandler) DeactivatePromotion(w http.ResponseWriter, r *http.Request) {
	h.setPromotionActive(w, r, false)
}

func (h *AdminHandler) setPromotionActive(w http.ResponseWriter, r *http.Request, active bool) {
	if err := h.svc.SetPromotionActive(r.Context(), chi.URLParam(r, "id"), active); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"active": active})
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// Reorder returns the handler for PUT .../{id}/order/<kind>.
func (h *AdminHandler) Reorder(kind store.ReorderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.svc.Reorder(r.Context(), kind, chi.URLParam(r, "id"), req.IDs); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSONSuccess(w, http.StatusOK, map[string]any{"count": len(req.IDs)})
	}
}

type pricesRequest struct {
	Updates []admin.PriceUpdate `json:"updates"`
}

// UpdatePrices handles POST /admin/prices. On partial failure it answers
// with the error status and the number of applied updates.
func (h *AdminHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	applied, err := h.svc.UpdatePrices(r.Context(), req.Updates)
	if err != nil {
		w.Header().Set("X-Prices-Applied", strconv.Itoa(applied))
		h.fail(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"updated": applied})
}

// Stats handles GET /admin/menus/{id}/stats?days=N.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: days: not a number: %q", admin.ErrInvalid, raw))
			return
		}
		days = n
	}

	menuID := chi.URLParam(r, "id")
	if _, err := h.svc.GetMenu(r.Context(), menuID); err != nil {
		h.fail(w, r, err)
		return
	}
	buckets, err := h.stats.Menu(r.Context(), menuID, days)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var views, clicks int
	for _, b := range buckets {
		views += b.Views
		clicks += b.Clicks
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"menu_id": menuID,
		"days":    len(buckets),
		"views":   views,
		"clicks":  clicks,
		"series":  buckets,
	})
}

// Events handles GET /admin/events?category=&limit=.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.ListEvents(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"events": events})
}

// Jobs handles GET /admin/jobs.
func (h *AdminHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, http.StatusOK, map[string]any{"jobs": h.jobs.List()})
}

// RunJob handles POST /admin/jobs/{name}/run.
func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	known := false
	for _, j := range h.jobs.List() {
		if j.Name == name {
			known = true
			break
		}
	}
	if !known {
		writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}

	if err := h.jobs.TriggerNow(name); err != nil {
		h.logger.Error("manual job run failed", "job", name, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "job failed: "+err.Error())
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"job": name})
}
