// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package menu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/carta/internal/cache"
	"github.com/olegiv/carta/internal/model"
)

type fakeStore struct {
	menus      map[string]*model.Menu
	sections   []model.Section
	items      []model.Item
	promotions []model.Promotion
	itemsErr   error
	menuLoads  atomic.Int32
}

func (f *fakeStore) GetPublishedMenuBySlug(_ context.Context, slug string) (*model.Menu, error) {
	f.menuLoads.Add(1)
	m, ok := f.menus[slug]
	if !ok || !m.IsPublished() {
		return nil, nil
	}
	return m, nil
}

func (f *fakeStore) ListVisibleSections(context.Context, string) ([]model.Section, error) {
	return f.sections, nil
}

func (f *fakeStore) ListVisibleItems(context.Context, []string) ([]model.Item, error) {
	return f.items, f.itemsErr
}

func (f *fakeStore) ListActivePromotions(context.Context, string) ([]model.Promotion, error) {
	return f.promotions, nil
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = mem.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, mem, time.Hour, logger)
}

func tascaStore() *fakeStore {
	m := publishedMenu()
	rec := item("i1", "s1", 0)
	rec.IsRecommended = true
	return &fakeStore{
		menus:    map[string]*model.Menu{m.Slug: m},
		sections: []model.Section{section("s1", 0, true)},
		items:    []model.Item{rec, item("i2", "s1", 1)},
		promotions: []model.Promotion{
			{ID: "p1", MenuID: m.ID, IsActive: true, EndsAt: at(testNow.Add(time.Hour))},
		},
	}
}

func TestService_ViewCachesContent(t *testing.T) {
	store := tascaStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := svc.ViewAt(ctx, "la-tasca", model.LangEN, testNow)
		require.NoError(t, err)
		assert.Equal(t, "The Tavern", v.Menu.Name)
		assert.Len(t, v.Promotions, 1)
	}
	assert.Equal(t, int32(1), store.menuLoads.Load())

	// Cached content is re-evaluated against the request instant.
	v, err := svc.ViewAt(ctx, "la-tasca", model.LangEN, testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, v.Promotions)
}

func TestService_NotFound(t *testing.T) {
	store := tascaStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.View(ctx, "missing", model.LangES)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.View(ctx, "Bad Slug!", model.LangES)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), store.menuLoads.Load(), "invalid slugs never reach the store")
}

func TestService_StoreErrorPropagates(t *testing.T) {
	store := tascaStore()
	store.itemsErr = errors.New("connection reset")
	svc := newTestService(t, store)

	_, err := svc.View(context.Background(), "la-tasca", model.LangES)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestService_Invalidate(t *testing.T) {
	store := tascaStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Content(ctx, "la-tasca")
	require.NoError(t, err)

	svc.InvalidateSlug(ctx, "la-tasca")
	_, err = svc.Content(ctx, "la-tasca")
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.menuLoads.Load())

	svc.InvalidateMenu(ctx, publishedMenu().ID)
	_, err = svc.Content(ctx, "la-tasca")
	require.NoError(t, err)
	assert.Equal(t, int32(3), store.menuLoads.Load())

	// Unknown menu IDs drop every cached menu.
	svc.InvalidateMenu(ctx, "unknown")
	_, err = svc.Content(ctx, "la-tasca")
	require.NoError(t, err)
	assert.Equal(t, int32(4), store.menuLoads.Load())
}

func TestService_HighlightsAndPrint(t *testing.T) {
	svc := newTestService(t, tascaStore())
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	hl, err := svc.Highlights(ctx, "la-tasca", model.LangES)
	require.NoError(t, err)
	require.Len(t, hl, 1)
	assert.Equal(t, "i1", hl[0].ID)

	pv, err := svc.PrintView(ctx, "la-tasca", model.LangES)
	require.NoError(t, err)
	assert.Empty(t, pv.Promotions)
	assert.Nil(t, pv.NextRefreshAt)
	assert.Len(t, pv.Sections, 1)
}

func TestService_WithoutCache(t *testing.T) {
	store := tascaStore()
	svc := NewService(store, nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.View(ctx, "la-tasca", model.LangES)
	require.NoError(t, err)
	_, err = svc.View(ctx, "la-tasca", model.LangES)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.menuLoads.Load())

	svc.InvalidateMenu(ctx, "anything")
}
