// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/store"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

type memoryEvents struct {
	mu     sync.Mutex
	events []model.Event
}

func (m *memoryEvents) CreateEvent(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryEvents) all() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Event(nil), m.events...)
}

func TestEventLogHandler_Levels(t *testing.T) {
	events := &memoryEvents{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, events))

	logger.Info("menu assembled", "slug", "la-tasca")
	logger.Warn("tracking insert failed", "menu_id", "m1")
	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	got := events.all()
	require.Len(t, got, 2)
	assert.Equal(t, model.EventLevelWarning, got[0].Level)
	assert.Equal(t, model.EventCategoryAnalytics, got[0].Category)
	assert.Equal(t, model.EventLevelError, got[1].Level)
	assert.Equal(t, model.EventCategorySystem, got[1].Category)

	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(got[1].Metadata), &meta))
	assert.Equal(t, map[string]string{"host": "localhost", "port": "5432"}, meta)
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	events := &memoryEvents{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, events)).
		With("category", model.EventCategoryPromotion)

	logger.Warn("boundary passed", "promotion_id", "p1")

	got := events.all()
	require.Len(t, got, 1)
	assert.Equal(t, model.EventCategoryPromotion, got[0].Category)
	assert.Equal(t, `{"promotion_id":"p1"}`, got[0].Metadata)
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	events := &memoryEvents{}
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, events, slog.LevelError))

	logger.Warn("cache fallback")
	assert.Empty(t, events.all())

	logger.Error("cache unavailable")
	require.Len(t, events.all(), 1)
	assert.Equal(t, model.EventCategoryCache, events.all()[0].Category)
}

func TestCategoryInference(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"promotion window opened", model.EventCategoryPromotion},
		{"schedule watcher reload failed", model.EventCategoryPromotion},
		{"analytics rollup failed", model.EventCategoryAnalytics},
		{"redis ping failed", model.EventCategoryCache},
		{"menu not found", model.EventCategoryMenu},
		{"item price updated", model.EventCategoryMenu},
		{"shutting down", model.EventCategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, category(tt.msg, nil))
		})
	}
}

func TestEventLogHandler_Database(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "carta-logging-test-*.db")
	require.NoError(t, err)
	_ = f.Close()

	db, err := store.NewDB(f.Name())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, store.Migrate(db))

	q := store.New(db)
	logger := slog.New(NewEventLogHandler(discardHandler{}, q))
	logger.Error("redis connection lost", "addr", "localhost:6379")

	events, err := q.ListEvents(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "redis connection lost", events[0].Message)
	assert.Equal(t, model.EventCategoryCache, events[0].Category)
	assert.Contains(t, events[0].Metadata, "localhost:6379")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, false, nil).Info("menu served", "slug", "la-tasca")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "production logs are JSON")

	buf.Reset()
	New(&buf, slog.LevelInfo, true, nil).Info("menu served", "slug", "la-tasca")
	assert.Contains(t, buf.String(), "slug=la-tasca")

	buf.Reset()
	New(&buf, slog.LevelWarn, true, nil).Info("hidden")
	assert.Empty(t, buf.String())
}
