// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/olegiv/carta/internal/menu"
	"github.com/olegiv/carta/internal/middleware"
	"github.com/olegiv/carta/internal/model"
)

// maxPublicCacheAge bounds the Cache-Control max-age of menu responses.
const maxPublicCacheAge = 60 * time.Second

// VisitorCookieName holds the visitor seed for promotion experiments.
const VisitorCookieName = "carta_vid"

// MenuReader serves assembled public menus.
type MenuReader interface {
	View(ctx context.Context, slug string, lang model.Lang) (menu.PublicMenuView, error)
	Highlights(ctx context.Context, slug string, lang model.Lang) ([]menu.ItemView, error)
	PrintView(ctx context.Context, slug string, lang model.Lang) (menu.PublicMenuView, error)
}

// PublicHandler serves the public menu endpoints.
type PublicHandler struct {
	menus        MenuReader
	assetBaseURL string
	logger       *slog.Logger
	now          func() time.Time
}

// NewPublicHandler creates a PublicHandler. Relative image and logo URLs
// are prefixed with assetBaseURL when it is set.
func NewPublicHandler(menus MenuReader, assetBaseURL string, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		menus:        menus,
		assetBaseURL: strings.TrimRight(assetBaseURL, "/"),
		logger:       logger,
		now:          time.Now,
	}
}

// Menu handles GET /m/{slug}.
func (h *PublicHandler) Menu(w http.ResponseWriter, r *http.Request) {
	v, err := h.menus.View(r.Context(), chi.URLParam(r, "slug"), middleware.GetLanguage(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.present(&v, r)
	cacheControl := publicCacheControl(h.now(), v.NextRefreshAt)
	if hasExperiments(v.Promotions) {
		v.Promotions = menu.SelectExperiments(v.Promotions, visitorSeed(w, r))
		cacheControl = privateCache(cacheControl)
	}
	setCacheHeaders(w, cacheControl)
	writeJSON(w, http.StatusOK, v)
}

// Highlights handles GET /m/{slug}/highlights.
func (h *PublicHandler) Highlights(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	items, err := h.menus.Highlights(r.Context(), chi.URLParam(r, "slug"), lang)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	for i := range items {
		items[i].ImageURL = h.assetURL(items[i].ImageURL)
	}
	setCacheHeaders(w, publicCacheControl(h.now(), nil))
	writeJSON(w, http.StatusOK, map[string]any{"lang": lang, "items": items})
}

// Print handles GET /m/{slug}/print.
func (h *PublicHandler) Print(w http.ResponseWriter, r *http.Request) {
	v, err := h.menus.PrintView(r.Context(), chi.URLParam(r, "slug"), middleware.GetLanguage(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.present(&v, r)
	setCacheHeaders(w, publicCacheControl(h.now(), nil))
	writeJSON(w, http.StatusOK, v)
}

// present applies the presentation-only request options to v.
func (h *PublicHandler) present(v *menu.PublicMenuView, r *http.Request) {
	if theme := r.URL.Query().Get("theme"); model.IsValidTheme(theme) {
		v.Theme = theme
	}
	v.Menu.LogoURL = h.assetURL(v.Menu.LogoURL)
	for i := range v.Sections {
		for j := range v.Sections[i].Items {
			v.Sections[i].Items[j].ImageURL = h.assetURL(v.Sections[i].Items[j].ImageURL)
		}
	}
	for i := range v.Promotions {
		v.Promotions[i].ImageURL = h.assetURL(v.Promotions[i].ImageURL)
	}
}

// assetURL prefixes site-relative URLs with the asset base URL.
func (h *PublicHandler) assetURL(u string) string {
	if h.assetBaseURL == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	return h.assetBaseURL + u
}

// publicCacheControl lets clients cache a view until the next schedule
// boundary, at most maxPublicCacheAge.
func publicCacheControl(now time.Time, nextRefresh *time.Time) string {
	age := maxPublicCacheAge
	if nextRefresh != nil {
		age = min(age, nextRefresh.Sub(now).Truncate(time.Second))
	}
	if age <= 0 {
		return "no-cache"
	}
	return "public, max-age=" + strconv.Itoa(int(age.Seconds()))
}

// setCacheHeaders sets Cache-Control on a response whose body depends on
// the negotiated language. Responses carrying Set-Cookie are private.
func setCacheHeaders(w http.ResponseWriter, cacheControl string) {
	w.Header().Add("Vary", "Accept-Language, Cookie")
	if len(w.Header().Values("Set-Cookie")) > 0 {
		cacheControl = privateCache(cacheControl)
	}
	w.Header().Set("Cache-Control", cacheControl)
}

func privateCache(cacheControl string) string {
	return strings.Replace(cacheControl, "public", "private", 1)
}

func hasExperiments(promotions []menu.PromotionView) bool {
	for _, p := range promotions {
		if p.Experiment != nil && p.Experiment.Group != "" {
			return true
		}
	}
	return false
}

// visitorSeed returns the visitor cookie value, issuing a new one when the
// request has none.
func visitorSeed(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookieName); err == nil && uuid.Validate(c.Value) == nil {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
