// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP API of the menu server: the public
// menu endpoints, the analytics beacons, the owner admin API and health
// checks.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/carta/internal/middleware"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/store"
)

// Route patterns.
const (
	RouteHealth      = "/health"
	RoutePublicMenu  = "/m/{slug}"
	RouteTrackView   = "/t/view/{menuID}"
	RouteTrackClick  = "/t/click/{promotionID}"
	RouteAdmin       = "/admin"
	RouteSuffixOrder = "/order"
)

// RouterConfig carries the settings the router needs.
type RouterConfig struct {
	IsDevelopment  bool
	DefaultLang    model.Lang
	RequestTimeout time.Duration
	TrackRateLimit float64
	TrackBurst     int
	// AdminTokenHash is a bcrypt hash; empty leaves /admin unmounted.
	AdminTokenHash string
}

// Handlers groups the endpoint handlers. Admin may be nil.
type Handlers struct {
	Health   *HealthHandler
	Public   *PublicHandler
	Tracking *TrackingHandler
	Admin    *AdminHandler
}

// NewRouter builds the chi router with its middleware stack.
func NewRouter(cfg RouterConfig, h Handlers, sessions *scs.SessionManager, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.IsDevelopment {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)
	securityConfig.ExcludePaths = []string{RouteHealth}
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get(RouteHealth, h.Health.Health)
	r.Get(RouteHealth+"/live", h.Health.Liveness)
	r.Get(RouteHealth+"/ready", h.Health.Readiness)

	r.Route(RoutePublicMenu, func(r chi.Router) {
		r.Use(middleware.Language(cfg.DefaultLang))
		r.Get("/", h.Public.Menu)
		r.Get("/highlights", h.Public.Highlights)
		r.Get("/print", h.Public.Print)
	})

	r.Group(func(r chi.Router) {
		limiter := middleware.NewClientRateLimiter(cfg.TrackRateLimit, cfg.TrackBurst, http.HandlerFunc(noContent))
		r.Use(limiter.Handler)
		r.Use(sessions.LoadAndSave)
		r.Post(RouteTrackView, h.Tracking.View)
		r.Post(RouteTrackClick, h.Tracking.Click)
	})

	if h.Admin != nil && cfg.AdminTokenHash != "" {
		auth := middleware.NewAdminAuth(cfg.AdminTokenHash, logger)
		r.Route(RouteAdmin, func(r chi.Router) {
			r.Use(auth.Handler)
			mountAdmin(r, h.Admin)
		})
	}

	return r
}

func mountAdmin(r chi.Router, h *AdminHandler) {
	r.Get("/menus", h.ListMenus)
	r.Post("/menus", h.CreateMenu)
	r.Route("/menus/{id}", func(r chi.Router) {
		r.Post("/publish", h.Publish)
		r.Post("/unpublish", h.Unpublish)
		r.Post("/sections", h.CreateSection)
		r.Post("/promotions", h.CreatePromotion)
		r.Put(RouteSuffixOrder+"/sections", h.Reorder(store.ReorderSections))
		r.Put(RouteSuffixOrder+"/promotions", h.Reorder(store.ReorderPromotions))
		r.Get("/stats", h.Stats)
	})
	r.Post("/sections/{id}/items", h.CreateItem)
	r.Put("/sections/{id}"+RouteSuffixOrder+"/items", h.Reorder(store.ReorderItems))
	r.Post("/promotions/{id}/activate", h.ActivatePromotion)
	r.Post("/promotions/{id}/deactivate", h.DeactivatePromotion)
	r.Post("/prices", h.UpdatePrices)

	if h.events != nil {
		r.Get("/events", h.Events)
	}
	if h.jobs != nil {
		r.Get("/jobs", h.Jobs)
		r.Post("/jobs/{name}/run", h.RunJob)
	}
}
