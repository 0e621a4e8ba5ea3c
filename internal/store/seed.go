// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/carta/internal/model"
)

// Demo menu identity.
const (
	DemoOwnerID  = "demo-owner"
	DemoMenuSlug = "la-tasca"
)

type demoItem struct {
	name      model.Text
	desc      model.Text
	price     model.Price
	tags      []string
	allergens []string
}

type demoSection struct {
	name  model.Text
	desc  model.Text
	items []demoItem
}

func demoSections() []demoSection {
	return []demoSection{
		{
			name: model.NewText("Entrantes", "Starters", "Entradas"),
			desc: model.NewText("Para compartir", "To share", "Para partilhar"),
			items: []demoItem{
				{name: model.NewText("Croquetas de jamón", "Ham croquettes", "Croquetes de presunto"), price: 850, tags: []string{"recommended"}, allergens: []string{"gluten", "milk"}},
				{name: model.NewText("Pimientos de Padrón", "Padrón peppers", ""), price: 650, tags: []string{"vegan", "spicy", "gluten_free"}},
				{name: model.NewText("Gazpacho", "", ""), price: 590, tags: []string{"vegan", "dairy_free"}},
			},
		},
		{
			name: model.NewText("Principales", "Mains", "Pratos principais"),
			items: []demoItem{
				{name: model.NewText("Paella valenciana", "Valencian paella", "Paelha valenciana"), desc: model.NewText("Para dos personas", "Serves two", "Para duas pessoas"), price: 2400, tags: []string{"recommended", "gluten_free"}, allergens: []string{"crustaceans"}},
				{name: model.NewText("Pulpo a la gallega", "Galician octopus", "Polvo à galega"), price: 1950, allergens: []string{"molluscs"}},
			},
		},
		{
			name: model.NewText("Postres", "Desserts", "Sobremesas"),
			items: []demoItem{
				{name: model.NewText("Crema catalana", "", ""), price: 550, allergens: []string{"eggs", "milk"}},
				{name: model.NewText("Tarta de Santiago", "Santiago almond cake", "Tarte de Santiago"), price: 600, tags: []string{"gluten_free"}, allergens: []string{"nuts", "eggs"}},
			},
		},
	}
}

// Seed creates the demo menu unless it already exists. Promotion windows
// are placed relative to now so the schedule is visible right away.
func Seed(ctx context.Context, db *sql.DB, now time.Time) error {
	queries := New(db)

	var exists int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menus WHERE slug = ?`, DemoMenuSlug).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking for demo menu: %w", err)
	}
	if exists > 0 {
		slog.Info("demo menu already exists, skipping seed", "slug", DemoMenuSlug)
		return nil
	}

	menuID := uuid.NewString()
	err = queries.CreateMenu(ctx, model.Menu{
		ID:        menuID,
		OwnerID:   DemoOwnerID,
		Name:      model.NewText("La Tasca", "", ""),
		Slug:      DemoMenuSlug,
		Status:    model.MenuPublished,
		Theme:     model.DefaultTheme,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating demo menu: %w", err)
	}

	var firstSectionID, featuredItemID string
	for si, ds := range demoSections() {
		sectionID := uuid.NewString()
		if si == 0 {
			firstSectionID = sectionID
		}
		err := queries.CreateSection(ctx, model.Section{
			ID: sectionID, MenuID: menuID, Name: ds.name, Description: ds.desc,
			SortOrder: si, IsVisible: true,
		})
		if err != nil {
			return fmt.Errorf("creating demo section: %w", err)
		}

		for ii, di := range ds.items {
			item := model.Item{
				ID: uuid.NewString(), SectionID: sectionID, Name: di.name, Description: di.desc,
				Price: di.price, Allergens: model.NewAllergens(di.allergens...),
				SortOrder: ii, IsVisible: true,
			}
			for _, tag := range di.tags {
				switch tag {
				case "recommended":
					item.IsRecommended = true
				case "vegan":
					item.IsVegan = true
				case "spicy":
					item.IsSpicy = true
				case "gluten_free":
					item.IsGlutenFree = true
				case "dairy_free":
					item.IsDairyFree = true
				}
			}
			if err := queries.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating demo item: %w", err)
			}
			if item.IsRecommended && featuredItemID == "" && si > 0 {
				featuredItemID = item.ID
			}
		}
	}

	weekEnd := now.Add(7 * 24 * time.Hour)
	happyHour := now.Add(2 * time.Hour)
	promotions := []model.Promotion{
		{
			Title:       model.NewText("Paella de la semana", "Paella of the week", "Paelha da semana"),
			Description: model.NewText("Solo esta semana", "This week only", "Só esta semana"),
			PriceText:   model.NewText("2 x 40 €", "", ""),
			EndsAt:      &weekEnd,
			Target:      model.ItemTarget(featuredItemID),
		},
		{
			Title:    model.NewText("Hora feliz", "Happy hour", "Hora feliz"),
			StartsAt: &happyHour,
			Target:   model.SectionTarget(firstSectionID),
		},
		{
			Title:      model.NewText("Postre gratis", "Free dessert", "Sobremesa grátis"),
			Experiment: &model.Experiment{Group: "dessert-offer", Weight: 50},
		},
		{
			Title:      model.NewText("Café gratis", "Free coffee", "Café grátis"),
			Experiment: &model.Experiment{Group: "dessert-offer", Weight: 50},
		},
	}
	for i, p := range promotions {
		p.ID = uuid.NewString()
		p.MenuID = menuID
		p.IsActive = true
		p.SortOrder = i
		if err := queries.CreatePromotion(ctx, p); err != nil {
			return fmt.Errorf("creating demo promotion: %w", err)
		}
	}

	slog.Info("seeded demo menu", "slug", DemoMenuSlug, "id", menuID)
	return nil
}
