// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package menu

import (
	"time"

	"github.com/olegiv/carta/internal/model"
)

// PublicMenuView is the read-only view model consumed by the public renderer.
type PublicMenuView struct {
	Menu       MenuHeader      `json:"menu"`
	Lang       model.Lang      `json:"lang"`
	Theme      string          `json:"theme"`
	Nav        []Label         `json:"nav"`
	Sections   []SectionView   `json:"sections"`
	Promotions []PromotionView `json:"promotions"`
	// NextRefreshAt is the next promotion schedule boundary, if any.
	// Clients schedule a single re-render for it instead of polling.
	NextRefreshAt *time.Time `json:"nextRefreshAt,omitempty"`
}

// MenuHeader carries the menu's own presentation fields.
type MenuHeader struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// SectionView is a section with its renderable items.
type SectionView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Items       []ItemView `json:"items"`
}

// ItemView is a localized item.
type ItemView struct {
	ID            string      `json:"id"`
	SectionID     string      `json:"sectionId"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Price         model.Price `json:"price"`
	ImageURL      string      `json:"imageUrl"`
	IsRecommended bool        `json:"isRecommended"`
	IsVegan       bool        `json:"isVegan"`
	IsSpicy       bool        `json:"isSpicy"`
	IsGlutenFree  bool        `json:"isGlutenFree"`
	IsDairyFree   bool        `json:"isDairyFree"`
	Badges        []Label     `json:"badges,omitempty"`
	Allergens     []Label     `json:"allergens,omitempty"`
}

// Label is a code with its localized caption.
type Label struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// PromotionView is a localized promotion card.
type PromotionView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	PriceText   string          `json:"priceText,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Target      Target          `json:"target"`
	Experiment  *ExperimentView `json:"experiment,omitempty"`
}

// ExperimentView is the A/B group a promotion competes in.
type ExperimentView struct {
	Group  string `json:"group"`
	Weight int    `json:"weight"`
}

// Target is the JSON form of model.PromotionTarget.
type Target struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// NavEntries returns the section navigation (id, name) in display order.
func (v *PublicMenuView) NavEntries() []Label {
	nav := make([]Label, 0, len(v.Sections))
	for _, s := range v.Sections {
		nav = append(nav, Label{Code: s.ID, Label: s.Name})
	}
	return nav
}
