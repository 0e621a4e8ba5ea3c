// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records menu views and promotion clicks at most once
// per visitor session and serves the rolled-up statistics.
package analytics

import (
	"context"
	"log/slog"
	"net"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/util"
)

// Session marker keys and value.
const (
	ViewMarkerPrefix  = "menu_view_tracked_"
	ClickMarkerPrefix = "promo_click_tracked_"
	MarkerValue       = "true"
)

// MarkerStore is the session-scoped key/value store holding dedup
// markers. Any error means the store is unavailable.
type MarkerStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Recorder appends analytics events.
type Recorder interface {
	InsertMenuView(ctx context.Context, v model.MenuView) error
	InsertPromoClick(ctx context.Context, c model.PromoClick) error
}

// CountryLocator resolves a public IP to an ISO country code.
type CountryLocator interface {
	Country(ip net.IP) string
}

// Visit describes the request behind a tracked view.
type Visit struct {
	UserAgent  string
	RemoteAddr string
}

// Tracker records analytics events. It never returns errors: invalid
// identifiers are ignored and store failures are logged and dropped.
type Tracker struct {
	recorder   Recorder
	geo        CountryLocator
	logger     *slog.Logger
	now        func() time.Time
	recordBots bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGeoIP enables country resolution for views.
func WithGeoIP(l CountryLocator) Option {
	return func(t *Tracker) { t.geo = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithBots records views from crawlers too. They are skipped by default.
func WithBots(record bool) Option {
	return func(t *Tracker) { t.recordBots = record }
}

// NewTracker creates a Tracker.
func NewTracker(recorder Recorder, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsCanonicalID reports whether id is a UUID in the 36 character
// hyphenated form. Braced, URN and compact forms are rejected.
func IsCanonicalID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// TruncateUserAgent cuts ua to model.MaxUserAgentLength bytes without
// splitting a UTF-8 sequence.
func TruncateUserAgent(ua string) string {
	if len(ua) <= model.MaxUserAgentLength {
		return ua
	}
	cut := model.MaxUserAgentLength
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

// TrackView records one view of menuID unless this session already did.
// It reports whether a row was written.
func (t *Tracker) TrackView(ctx context.Context, markers MarkerStore, menuID string, visit Visit) bool {
	if !IsCanonicalID(menuID) {
		return false
	}

	ua := ParseUserAgent(visit.UserAgent)
	if ua.Bot && !t.recordBots {
		return false
	}

	key := ViewMarkerPrefix + menuID
	if t.seen(ctx, markers, key) {
		return false
	}

	view := model.MenuView{
		MenuID:     menuID,
		UserAgent:  TruncateUserAgent(visit.UserAgent),
		DeviceType: ua.DeviceType,
		CreatedAt:  t.now().UTC(),
	}
	if t.geo != nil {
		if ip, ok := util.PublicClientIP(visit.RemoteAddr); ok {
			view.CountryCode = t.geo.Country(ip)
		}
	}

	if err := t.recorder.InsertMenuView(ctx, view); err != nil {
		t.logger.Warn("failed to record menu view",
			"menu_id", menuID, "error", err, "category", model.EventCategoryAnalytics)
		return false
	}
	t.mark(ctx, markers, key)
	return true
}

// TrackClick records one click on promotionID unless this session
// already did. It reports whether a row was written.
func (t *Tracker) TrackClick(ctx context.Context, markers MarkerStore, promotionID string) bool {
	if !IsCanonicalID(promotionID) {
		return false
	}

	key := ClickMarkerPrefix + promotionID
	if t.seen(ctx, markers, key) {
		return false
	}

	click := model.PromoClick{PromotionID: promotionID, CreatedAt: t.now().UTC()}
	if err := t.recorder.InsertPromoClick(ctx, click); err != nil {
		t.logger.Warn("failed to record promotion click",
			"promotion_id", promotionID, "error", err, "category", model.EventCategoryAnalytics)
		return false
	}
	t.mark(ctx, markers, key)
	return true
}

// seen reports whether the marker is set. An unavailable store counts as
// not seen, so tracking degrades to recording every time.
func (t *Tracker) seen(ctx context.Context, markers MarkerStore, key string) bool {
	if markers == nil {
		return false
	}
	v, err := markers.Get(ctx, key)
	if err != nil {
		t.logger.Debug("marker store unavailable", "key", key, "error", err)
		return false
	}
	return v == MarkerValue
}

func (t *Tracker) mark(ctx context.Context, markers MarkerStore, key string) {
	if markers == nil {
		return
	}
	if err := markers.Put(ctx, key, MarkerValue); err != nil {
		t.logger.Debug("marker store unavailable", "key", key, "error", err)
	}
}
