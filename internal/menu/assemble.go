// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package menu assembles the public view of a restaurant menu: which
// sections, items and promotions a visitor sees at an instant, in which
// order and language.
package menu

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/carta/internal/i18n"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/schedule"
)

// ErrNotFound is returned when a menu does not exist or is not published.
var ErrNotFound = errors.New("menu not found")

// stockPhotos are used for items without an image.
var stockPhotos = []string{
	"https://images.unsplash.com/photo-1546069901-ba9599a7e63c?w=600&q=80",
	"https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=600&q=80",
	"https://images.unsplash.com/photo-1567620905732-2d1ec7ab7445?w=600&q=80",
	"https://images.unsplash.com/photo-1540189549336-e6e99c3679fe?w=600&q=80",
	"https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=600&q=80",
	"https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=600&q=80",
}

// StockPhoto returns the fallback image for an item name. The choice
// depends only on the name's length in characters.
func StockPhoto(name string) string {
	return stockPhotos[utf8.RuneCountInString(name)%len(stockPhotos)]
}

// dietary tags in badge order
var tagOrder = []struct {
	code string
	has  func(model.Item) bool
}{
	{"recommended", func(i model.Item) bool { return i.IsRecommended }},
	{"vegan", func(i model.Item) bool { return i.IsVegan }},
	{"spicy", func(i model.Item) bool { return i.IsSpicy }},
	{"gluten_free", func(i model.Item) bool { return i.IsGlutenFree }},
	{"dairy_free", func(i model.Item) bool { return i.IsDairyFree }},
}

// Assemble builds the public view of menu at now in lang. It is pure:
// identical arguments always produce equal views and the inputs are not
// modified. Sections without eligible items are left out.
func Assemble(
	m *model.Menu,
	sections []model.Section,
	items []model.Item,
	promotions []model.Promotion,
	now time.Time,
	lang model.Lang,
) (PublicMenuView, error) {
	if !m.IsPublished() {
		return PublicMenuView{}, ErrNotFound
	}

	theme := m.Theme
	if theme == "" {
		theme = model.DefaultTheme
	}

	view := PublicMenuView{
		Menu: MenuHeader{
			ID:      m.ID,
			Slug:    m.Slug,
			Name:    i18n.Text(m.Name, lang),
			LogoURL: m.LogoURL,
		},
		Lang:       lang,
		Theme:      theme,
		Sections:   []SectionView{},
		Promotions: []PromotionView{},
	}

	itemsBySection := make(map[string][]model.Item)
	for _, it := range items {
		if schedule.ItemEligible(it) {
			itemsBySection[it.SectionID] = append(itemsBySection[it.SectionID], it)
		}
	}

	for _, s := range sortedBy(filter(sections, schedule.SectionEligible), func(s model.Section) int { return s.SortOrder }) {
		sectionItems := sortedBy(itemsBySection[s.ID], func(i model.Item) int { return i.SortOrder })
		if len(sectionItems) == 0 {
			continue
		}

		sv := SectionView{
			ID:          s.ID,
			Name:        i18n.Text(s.Name, lang),
			Description: i18n.Text(s.Description, lang),
			Items:       make([]ItemView, 0, len(sectionItems)),
		}
		for _, it := range sectionItems {
			sv.Items = append(sv.Items, itemView(it, lang))
		}
		view.Sections = append(view.Sections, sv)
	}

	view.Nav = view.NavEntries()

	rendered := renderedAnchors(view.Sections)
	eligible := filter(promotions, func(p model.Promotion) bool { return schedule.PromotionEligible(p, now) })
	for _, p := range sortedBy(eligible, func(p model.Promotion) int { return p.SortOrder }) {
		pv := promotionView(p, lang)
		if p.Target.Kind() != model.TargetNone && !rendered[p.Target.ID()] {
			pv.Target = Target{Kind: model.TargetNone.String()}
		}
		view.Promotions = append(view.Promotions, pv)
	}

	if next, ok := schedule.NextTransition(promotions, now); ok {
		view.NextRefreshAt = &next
	}

	return view, nil
}

// Highlights returns the recommended items of an assembled view in
// section order, then item order.
func Highlights(v PublicMenuView) []ItemView {
	var out []ItemView
	for _, s := range v.Sections {
		for _, it := range s.Items {
			if it.IsRecommended {
				out = append(out, it)
			}
		}
	}
	return out
}

func itemView(it model.Item, lang model.Lang) ItemView {
	image := it.ImageURL
	if image == "" {
		image = StockPhoto(it.Name.Base)
	}

	iv := ItemView{
		ID:            it.ID,
		SectionID:     it.SectionID,
		Name:          i18n.Text(it.Name, lang),
		Description:   i18n.Text(it.Description, lang),
		Price:         it.Price,
		ImageURL:      image,
		IsRecommended: it.IsRecommended,
		IsVegan:       it.IsVegan,
		IsSpicy:       it.IsSpicy,
		IsGlutenFree:  it.IsGlutenFree,
		IsDairyFree:   it.IsDairyFree,
	}

	for _, tag := range tagOrder {
		if tag.has(it) {
			iv.Badges = append(iv.Badges, label(lang, "tag.", tag.code))
		}
	}
	for _, code := range it.Allergens.List() {
		iv.Allergens = append(iv.Allergens, label(lang, "allergen.", code))
	}
	return iv
}

// renderedAnchors collects the IDs of the sections and items present in
// the view. Promotion targets outside this set are shown untargeted.
func renderedAnchors(sections []SectionView) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range sections {
		ids[s.ID] = true
		for _, it := range s.Items {
			ids[it.ID] = true
		}
	}
	return ids
}

func promotionView(p model.Promotion, lang model.Lang) PromotionView {
	pv := PromotionView{
		ID:          p.ID,
		Title:       i18n.Text(p.Title, lang),
		Description: i18n.Text(p.Description, lang),
		PriceText:   i18n.Text(p.PriceText, lang),
		ImageURL:    p.ImageURL,
		Target:      Target{Kind: p.Target.Kind().String(), ID: p.Target.ID()},
	}
	if p.Experiment != nil {
		pv.Experiment = &ExperimentView{Group: p.Experiment.Group, Weight: p.Experiment.Weight}
	}
	return pv
}

// label localizes a code, falling back to the code itself.
func label(lang model.Lang, prefix, code string) Label {
	key := prefix + code
	text := i18n.T(lang, key)
	if text == key {
		text = strings.ReplaceAll(code, "_", " ")
	}
	return Label{Code: code, Label: text}
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// sortedBy returns a stably sorted copy of in.
func sortedBy[T any](in []T, key func(T) int) []T {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
	return out
}
