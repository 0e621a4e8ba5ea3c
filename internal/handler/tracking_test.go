// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const browserUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func TestTrackView_OncePerSession(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	m := app.demoMenu(t)
	ua := map[string]string{"User-Agent": browserUA}

	first := app.do(t, request{method: http.MethodPost, path: "/t/view/" + m.ID, header: ua})
	require.Equal(t, http.StatusNoContent, first.Code)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies, "tracking starts a session")

	second := app.do(t, request{method: http.MethodPost, path: "/t/view/" + m.ID, header: ua, cookies: cookies})
	assert.Equal(t, http.StatusNoContent, second.Code)

	count, err := app.q.CountMenuViews(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A new session counts again.
	third := app.do(t, request{method: http.MethodPost, path: "/t/view/" + m.ID, header: ua})
	assert.Equal(t, http.StatusNoContent, third.Code)
	count, err = app.q.CountMenuViews(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTrackView_AlwaysNoContent(t *testing.T) {
	app := newTestApp(t)
	m := app.demoMenu(t)

	tests := []struct {
		name string
		path string
		ua   string
	}{
		{"malformed id", "/t/view/not-a-uuid", browserUA},
		{"bot", "/t/view/" + m.ID, "Googlebot/2.1 (+http://www.google.com/bot.html)"},
		{"malformed click", "/t/click/123", browserUA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, request{method: http.MethodPost, path: tt.path, header: map[string]string{"User-Agent": tt.ua}})
			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}

	count, err := app.q.CountMenuViews(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTrackClick(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	m := app.demoMenu(t)

	promotions, err := app.q.ListActivePromotions(ctx, m.ID)
	require.NoError(t, err)
	require.NotEmpty(t, promotions)
	promoID := promotions[0].ID

	first := app.do(t, request{method: http.MethodPost, path: "/t/click/" + promoID})
	require.Equal(t, http.StatusNoContent, first.Code)
	second := app.do(t, request{method: http.MethodPost, path: "/t/click/" + promoID, cookies: first.Result().Cookies()})
	require.Equal(t, http.StatusNoContent, second.Code)

	now := time.Now().UTC()
	require.NoError(t, app.q.RollupDay(ctx, now))
	stats, err := app.q.DailyStats(ctx, m.ID, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Clicks)
}

func TestTrack_GetNotAllowed(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, request{method: http.MethodGet, path: "/t/view/x"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
