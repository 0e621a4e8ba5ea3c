// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/carta/internal/model"
)

// DefaultCeiling bounds every sleep of the watcher.
const DefaultCeiling = 20 * time.Second

// PromotionSource loads the active promotions of all published menus.
type PromotionSource func(ctx context.Context) ([]model.Promotion, error)

// TransitionFunc is called with the promotions whose phase changed
// between two wake-ups.
type TransitionFunc func(ctx context.Context, changed []model.Promotion)

// Watcher sleeps until the next promotion schedule boundary and reports
// the promotions that changed phase. Admin mutations call Refresh so the
// next boundary is recomputed immediately.
type Watcher struct {
	source       PromotionSource
	onTransition TransitionFunc
	logger       *slog.Logger
	ceiling      time.Duration
	now          func() time.Time
	refresh      chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithCeiling sets the maximum sleep between two evaluations.
func WithCeiling(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.ceiling = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) {
		w.now = now
	}
}

// NewWatcher creates a watcher. Call Run to start it.
func NewWatcher(source PromotionSource, onTransition TransitionFunc, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:       source,
		onTransition: onTransition,
		logger:       logger,
		ceiling:      DefaultCeiling,
		now:          time.Now,
		refresh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Refresh asks the watcher to reload promotions. It never blocks.
func (w *Watcher) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	last := w.now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	w.logger.Info("promotion watcher started", "ceiling", w.ceiling)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("promotion watcher stopped")
			return
		case <-timer.C:
		case <-w.refresh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		now := w.now()
		promotions, err := w.source(ctx)
		if err != nil {
			w.logger.Warn("failed to load promotions for schedule", "error", err, "category", model.EventCategoryPromotion)
			timer.Reset(w.ceiling)
			continue
		}

		if changed := Transitions(promotions, last, now); len(changed) > 0 {
			for _, p := range changed {
				w.logger.Info("promotion schedule transition",
					"category", model.EventCategoryPromotion,
					"promotion_id", p.ID,
					"menu_id", p.MenuID,
					"phase", PromotionPhase(p, now).String())
			}
			if w.onTransition != nil {
				w.onTransition(ctx, changed)
			}
		}
		last = now

		timer.Reset(w.sleepFor(promotions, now))
	}
}

// sleepFor returns the delay until the next boundary, capped by the ceiling.
func (w *Watcher) sleepFor(promotions []model.Promotion, now time.Time) time.Duration {
	next, ok := NextTransition(promotions, now)
	if !ok {
		return w.ceiling
	}
	d := next.Sub(now)
	if d > w.ceiling {
		return w.ceiling
	}
	if d <= 0 {
		return time.Millisecond
	}
	return d
}
