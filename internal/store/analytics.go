// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/carta/internal/model"
)

// InsertMenuView appends one raw view event.
func (q *Queries) InsertMenuView(ctx context.Context, v model.MenuView) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO menu_views (menu_id, user_agent, device_type, country_code, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.MenuID, v.UserAgent, v.DeviceType, v.CountryCode, formatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting menu view: %w", err)
	}
	return nil
}

// InsertPromoClick appends one raw click event.
func (q *Queries) InsertPromoClick(ctx context.Context, c model.PromoClick) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO promo_clicks (promotion_id, created_at) VALUES (?, ?)`,
		c.PromotionID, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting promo click: %w", err)
	}
	return nil
}

// RollupDay recomputes the daily stats of every menu with events on the
// UTC day containing day. Running it again for the same day replaces the
// previous rows.
func (q *Queries) RollupDay(ctx context.Context, day time.Time) error {
	u := day.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	from, to := formatTime(start), formatTime(start.AddDate(0, 0, 1))

	_, err := q.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO menu_daily_stats (menu_id, day, views, clicks)
		SELECT menu_id, ?, SUM(views), SUM(clicks)
		FROM (
			SELECT menu_id, COUNT(*) AS views, 0 AS clicks
			FROM menu_views
			WHERE created_at >= ? AND created_at < ?
			GROUP BY menu_id
			UNION ALL
			SELECT p.menu_id, 0, COUNT(*)
			FROM promo_clicks c
			JOIN promotions p ON p.id = c.promotion_id
			WHERE c.created_at >= ? AND c.created_at < ?
			GROUP BY p.menu_id
		)
		GROUP BY menu_id
	`, formatDay(start), from, to, from, to)
	if err != nil {
		return fmt.Errorf("rolling up %s: %w", formatDay(start), err)
	}
	return nil
}

// DailyStats returns the rolled-up rows of a menu for days in [from, to].
func (q *Queries) DailyStats(ctx context.Context, menuID string, from, to time.Time) ([]model.DailyStat, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT day, views, clicks FROM menu_daily_stats
		 WHERE menu_id = ? AND day >= ? AND day <= ?
		 ORDER BY day`,
		menuID, formatDay(from), formatDay(to))
	if err != nil {
		return nil, fmt.Errorf("listing daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.DailyStat
	for rows.Next() {
		var (
			s   model.DailyStat
			day string
		)
		if err := rows.Scan(&day, &s.Views, &s.Clicks); err != nil {
			return nil, fmt.Errorf("scanning daily stat: %w", err)
		}
		if s.Day, err = parseDay(day); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// DeleteRawEventsBefore removes raw views and clicks older than cutoff and
// returns how many rows were deleted.
func (q *Queries) DeleteRawEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ts := formatTime(cutoff)

	res, err := q.db.ExecContext(ctx, `DELETE FROM menu_views WHERE created_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("deleting menu views: %w", err)
	}
	views, _ := res.RowsAffected()

	res, err = q.db.ExecContext(ctx, `DELETE FROM promo_clicks WHERE created_at < ?`, ts)
	if err != nil {
		return views, fmt.Errorf("deleting promo clicks: %w", err)
	}
	clicks, _ := res.RowsAffected()

	return views + clicks, nil
}

// CountMenuViews returns the number of raw views of a menu.
func (q *Queries) CountMenuViews(ctx context.Context, menuID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_views WHERE menu_id = ?`, menuID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting menu views: %w", err)
	}
	return n, nil
}
