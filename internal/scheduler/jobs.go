// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/carta/internal/model"
)

// Job names.
const (
	JobRollup      = "analytics-rollup"
	JobCleanup     = "analytics-cleanup"
	JobGeoIPReload = "geoip-reload"
)

// AnalyticsStore is the storage the analytics jobs maintain.
type AnalyticsStore interface {
	RollupDay(ctx context.Context, day time.Time) error
	DeleteRawEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Reloader reopens an on-disk database when it changed.
type Reloader interface {
	Reload() error
}

// AnalyticsJobs builds the rollup and retention jobs. The hourly rollup
// recomputes today and yesterday so late events of the previous day are
// counted. Raw events and log entries older than retention are removed
// nightly.
func AnalyticsJobs(st AnalyticsStore, retention time.Duration, now func() time.Time, logger *slog.Logger) []Job {
	if now == nil {
		now = time.Now
	}
	return []Job{
		{
			Name:        JobRollup,
			Description: "Roll raw views and clicks up into daily stats",
			Schedule:    "5 * * * *",
			Run: func(ctx context.Context) error {
				today := now().UTC()
				for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
					if err := st.RollupDay(ctx, day); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:        JobCleanup,
			Description: "Delete raw analytics events and log entries past retention",
			Schedule:    "30 0 * * *",
			Timeout:     10 * time.Minute,
			Run: func(ctx context.Context) error {
				cutoff := now().Add(-retention)
				raw, err := st.DeleteRawEventsBefore(ctx, cutoff)
				if err != nil {
					return fmt.Errorf("raw events: %w", err)
				}
				events, err := st.DeleteEventsBefore(ctx, cutoff)
				if err != nil {
					return fmt.Errorf("event log: %w", err)
				}
				logger.Info("analytics retention applied",
					"category", model.EventCategoryAnalytics, "raw_deleted", raw, "events_deleted", events)
				return nil
			},
		},
	}
}

// GeoIPJob reloads the GeoIP database daily.
func GeoIPJob(r Reloader) Job {
	return Job{
		Name:        JobGeoIPReload,
		Description: "Reopen the GeoIP database when the file changed",
		Schedule:    "0 3 * * *",
		Timeout:     time.Minute,
		Run: func(context.Context) error {
			return r.Reload()
		},
	}
}
