// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/store"
	"github.com/olegiv/carta/internal/testutil"
)

type recorder struct {
	mu        sync.Mutex
	menus     []string
	slugs     []string
	refreshes int
}

func (r *recorder) InvalidateMenu(_ context.Context, menuID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus = append(r.menus, menuID)
}

func (r *recorder) InvalidateSlug(_ context.Context, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slugs = append(r.slugs, slug)
}

func (r *recorder) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
}

func newTestService(t *testing.T) (*Service, *store.Queries, *recorder) {
	t.Helper()
	q := testutil.TestQueries(t)
	rec := &recorder{}
	svc := NewService(q, rec, rec, testutil.TestLoggerSilent())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc, q, rec
}

func createMenu(t *testing.T, svc *Service, name string) model.Menu {
	t.Helper()
	m, err := svc.CreateMenu(context.Background(), MenuInput{OwnerID: "owner-1", Name: model.NewText(name, "", "")})
	require.NoError(t, err)
	return m
}

func TestCreateMenu_SlugGeneration(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	m := createMenu(t, svc, "¡Tapas & Vinos!")
	assert.Equal(t, "tapas-vinos", m.Slug)
	assert.Equal(t, "¡Tapas & Vinos!", m.Name.Base)
	assert.Equal(t, model.MenuDraft, m.Status)
	assert.Equal(t, model.DefaultTheme, m.Theme)

	second := createMenu(t, svc, "Tapas y Vinos")
	assert.Equal(t, "tapas-y-vinos", second.Slug)

	third := createMenu(t, svc, "Tapas & Vinos")
	assert.Equal(t, "tapas-vinos-2", third.Slug)

	_, err := svc.CreateMenu(ctx, MenuInput{OwnerID: "owner-1", Name: model.NewText("Otra", "", ""), Slug: "tapas-vinos"})
	assert.ErrorIs(t, err, store.ErrConflict, "explicit slugs are never suffixed")
}

func TestCreateMenu_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   MenuInput
	}{
		{"missing name", MenuInput{OwnerID: "o"}},
		{"markup only", MenuInput{OwnerID: "o", Name: model.NewText("<b></b>", "", "")}},
		{"missing owner", MenuInput{Name: model.NewText("Bar", "", "")}},
		{"unknown theme", MenuInput{OwnerID: "o", Name: model.NewText("Bar", "", ""), Theme: "neon"}},
		{"bad logo", MenuInput{OwnerID: "o", Name: model.NewText("Bar", "", ""), LogoURL: "javascript:alert(1)"}},
		{"no slug chars", MenuInput{OwnerID: "o", Name: model.NewText("!!!", "", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMenu(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSanitizeText(t *testing.T) {
	got := sanitizeText(model.Text{
		Base: `  <script>alert(1)</script>Croquetas <b>caseras</b> `,
		Variants: model.Variants{
			model.LangEN: "Homemade <i>croquettes</i>",
			model.LangPT: "<p></p>",
			"fr":         "Croquettes",
		},
	})
	assert.Equal(t, "Croquetas caseras", got.Base)
	assert.Equal(t, model.Variants{model.LangEN: "Homemade croquettes"}, got.Variants)
	assert.Equal(t, "Fish & Chips", sanitize("Fish &amp; Chips"))
}

func TestSetPublished(t *testing.T) {
	svc, q, rec := newTestService(t)
	ctx := context.Background()
	m := createMenu(t, svc, "La Tasca")

	require.NoError(t, svc.SetPublished(ctx, m.ID, true))
	got, err := q.GetPublishedMenuBySlug(ctx, m.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{m.Slug}, rec.slugs)
	assert.Equal(t, 1, rec.refreshes)

	require.NoError(t, svc.SetPublished(ctx, m.ID, false))
	got, err = q.GetPublishedMenuBySlug(ctx, m.Slug)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, svc.SetPublished(ctx, "missing", true), store.ErrNotFound)
}

func TestCreateContent(t *testing.T) {
	svc, q, rec := newTestService(t)
	ctx := context.Background()
	m := createMenu(t, svc, "La Tasca")
	other := createMenu(t, svc, "El Otro")

	sec, err := svc.CreateSection(ctx, SectionInput{MenuID: m.ID, Name: model.NewText("Entrantes", "Starters", "")})
	require.NoError(t, err)
	assert.True(t, sec.IsVisible)

	_, err = svc.CreateSection(ctx, SectionInput{MenuID: "missing", Name: model.NewText("X", "", "")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	it, err := svc.CreateItem(ctx, ItemInput{
		SectionID: sec.ID, Name: model.NewText("Croquetas", "", ""), Price: "8.5",
		Allergens: []string{"Gluten", "<b>milk</b>"}, IsRecommended: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Price(850), it.Price)
	assert.Equal(t, []string{"gluten", "milk"}, it.Allergens.List())

	stored, err := q.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.Price, stored.Price)

	_, err = svc.CreateItem(ctx, ItemInput{SectionID: sec.ID, Name: model.NewText("Gratis", "", ""), Price: "-1"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.CreateItem(ctx, ItemInput{SectionID: sec.ID, Name: model.NewText("Caro", "", ""), Price: "1.999"})
	assert.ErrorIs(t, err, ErrInvalid)

	t.Run("promotion targets", func(t *testing.T) {
		p, err := svc.CreatePromotion(ctx, PromotionInput{MenuID: m.ID, Title: model.NewText("Hoy", "", ""), ItemID: it.ID})
		require.NoError(t, err)
		assert.Equal(t, model.TargetItem, p.Target.Kind())
		assert.True(t, p.IsActive)

		_, err = svc.CreatePromotion(ctx, PromotionInput{MenuID: m.ID, Title: model.NewText("Ambos", "", ""), ItemID: it.ID, SectionID: sec.ID})
		assert.ErrorIs(t, err, ErrInvalid)
		assert.ErrorIs(t, err, model.ErrInvalidTarget)

		_, err = svc.CreatePromotion(ctx, PromotionInput{MenuID: other.ID, Title: model.NewText("Ajeno", "", ""), SectionID: sec.ID})
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = svc.CreatePromotion(ctx, PromotionInput{MenuID: m.ID, Title: model.NewText("Fantasma", "", ""), ItemID: "missing"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("experiments", func(t *testing.T) {
		p, err := svc.CreatePromotion(ctx, PromotionInput{
			MenuID: m.ID, Title: model.NewText("A", "", ""), ExperimentGroup: "g", ExperimentWeight: 70,
		})
		require.NoError(t, err)
		require.NotNil(t, p.Experiment)
		assert.Equal(t, 70, p.Experiment.Weight)

		_, err = svc.CreatePromotion(ctx, PromotionInput{
			MenuID: m.ID, Title: model.NewText("B", "", ""), ExperimentGroup: "g", ExperimentWeight: 0,
		})
		assert.ErrorIs(t, err, model.ErrInvalidExperiment)
	})

	assert.Contains(t, rec.menus, m.ID)
	assert.GreaterOrEqual(t, rec.refreshes, 2)
}

func TestReorder(t *testing.T) {
	svc, q, rec := newTestService(t)
	ctx := context.Background()
	m := createMenu(t, svc, "La Tasca")

	var ids []string
	for _, name := range []string{"Entrantes", "Principales", "Postres"} {
		sec, err := svc.CreateSection(ctx, SectionInput{MenuID: m.ID, Name: model.NewText(name, "", "")})
		require.NoError(t, err)
		ids = append(ids, sec.ID)
	}
	rec.menus = nil

	require.NoError(t, svc.Reorder(ctx, store.ReorderSections, m.ID, []string{ids[2], ids[0], ids[1]}))
	sections, err := q.ListVisibleSections(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], sections[0].ID)
	assert.Equal(t, []string{m.ID}, rec.menus)

	err = svc.Reorder(ctx, store.ReorderSections, m.ID, ids[:2])
	assert.ErrorIs(t, err, ErrInvalid)

	it, err := svc.CreateItem(ctx, ItemInput{SectionID: ids[0], Name: model.NewText("Pan", "", ""), Price: "1"})
	require.NoError(t, err)
	rec.menus = nil
	require.NoError(t, svc.Reorder(ctx, store.ReorderItems, ids[0], []string{it.ID}))
	assert.Equal(t, []string{m.ID}, rec.menus, "item reorders invalidate the owning menu")
}

func TestUpdatePrices(t *testing.T) {
	svc, q, rec := newTestService(t)
	ctx := context.Background()
	m := createMenu(t, svc, "La Tasca")
	sec, err := svc.CreateSection(ctx, SectionInput{MenuID: m.ID, Name: model.NewText("Carta", "", "")})
	require.NoError(t, err)

	var updates []PriceUpdate
	for i := range 10 {
		it, err := svc.CreateItem(ctx, ItemInput{SectionID: sec.ID, Name: model.NewText(fmt.Sprintf("Plato %d", i), "", ""), Price: "5"})
		require.NoError(t, err)
		updates = append(updates, PriceUpdate{ItemID: it.ID, Price: fmt.Sprintf("%d.50", 10+i)})
	}
	rec.menus = nil

	n, err := svc.UpdatePrices(ctx, updates)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []string{m.ID}, rec.menus, "each menu is invalidated once")

	it, err := q.GetItem(ctx, updates[3].ItemID)
	require.NoError(t, err)
	assert.Equal(t, model.Price(1350), it.Price)

	t.Run("bad price rejects the batch", func(t *testing.T) {
		_, err := svc.UpdatePrices(ctx, []PriceUpdate{{ItemID: updates[0].ItemID, Price: "1"}, {ItemID: updates[1].ItemID, Price: "abc"}})
		assert.ErrorIs(t, err, ErrInvalid)
		it, err := q.GetItem(ctx, updates[0].ItemID)
		require.NoError(t, err)
		assert.Equal(t, model.Price(1050), it.Price)
	})

	t.Run("unknown item", func(t *testing.T) {
		rec.menus = nil
		n, err := svc.UpdatePrices(ctx, []PriceUpdate{{ItemID: updates[0].ItemID, Price: "2"}, {ItemID: "missing", Price: "3"}})
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.LessOrEqual(t, n, 1)
	})

	t.Run("too many", func(t *testing.T) {
		_, err := svc.UpdatePrices(ctx, make([]PriceUpdate, MaxBulkPrices+1))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	n, err = svc.UpdatePrices(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
