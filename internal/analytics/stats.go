// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/carta/internal/model"
)

// Bounds of the stats window in days.
const (
	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

// StatsStore reads rolled-up daily statistics for the days from..to inclusive.
type StatsStore interface {
	DailyStats(ctx context.Context, menuID string, from, to time.Time) ([]model.DailyStat, error)
}

// Stats serves chart data for the admin dashboard.
type Stats struct {
	store StatsStore
	now   func() time.Time
}

// NewStats creates a Stats reader.
func NewStats(store StatsStore) *Stats {
	return &Stats{store: store, now: time.Now}
}

// ClampDays maps a requested window to [1, MaxStatsDays], with
// DefaultStatsDays for non-positive values.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultStatsDays
	case days > MaxStatsDays:
		return MaxStatsDays
	default:
		return days
	}
}

// Menu returns one bucket per day for the last days days of menuID,
// oldest first, including today.
func (s *Stats) Menu(ctx context.Context, menuID string, days int) ([]model.DailyStat, error) {
	days = ClampDays(days)
	now := s.now()
	from := startOfDay(now).AddDate(0, 0, -(days - 1))
	to := startOfDay(now)

	rows, err := s.store.DailyStats(ctx, menuID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading stats for menu %s: %w", menuID, err)
	}
	return RollingBuckets(now, days, rows), nil
}

// RollingBuckets lays rows out on a contiguous run of days UTC days
// ending on now's day. Days without a row are zero. Rows outside the
// window are ignored and rows for the same day are summed.
func RollingBuckets(now time.Time, days int, rows []model.DailyStat) []model.DailyStat {
	if days <= 0 {
		return []model.DailyStat{}
	}

	first := startOfDay(now).AddDate(0, 0, -(days - 1))
	buckets := make([]model.DailyStat, days)
	index := make(map[time.Time]int, days)
	for i := range buckets {
		day := first.AddDate(0, 0, i)
		buckets[i].Day = day
		index[day] = i
	}

	for _, r := range rows {
		if i, ok := index[startOfDay(r.Day)]; ok {
			buckets[i].Views += r.Views
			buckets[i].Clicks += r.Clicks
		}
	}
	return buckets
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
