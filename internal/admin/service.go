// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package admin implements the owner-side write path: creating and
// publishing menus, editing content, reordering and bulk price updates.
// Every mutation purges the affected menu from the content cache and, when
// promotion schedules may have moved, wakes the schedule watcher.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/store"
	"github.com/olegiv/carta/internal/util"
)

// ErrInvalid wraps every input validation failure.
var ErrInvalid = errors.New("invalid input")

// MaxBulkPrices bounds one bulk price update.
const MaxBulkPrices = 500

// bulkWorkers bounds concurrent writes during a bulk price update.
const bulkWorkers = 4

// textPolicy strips every tag; menu text is plain.
var textPolicy = bluemonday.StrictPolicy()

// Store is the persistence the admin service needs.
type Store interface {
	CreateMenu(ctx context.Context, m model.Menu) error
	GetMenu(ctx context.Context, id string) (model.Menu, error)
	ListMenus(ctx context.Context, ownerID string) ([]model.Menu, error)
	SetMenuStatus(ctx context.Context, id string, status model.MenuStatus, now time.Time) error
	CreateSection(ctx context.Context, s model.Section) error
	GetSection(ctx context.Context, id string) (model.Section, error)
	CreateItem(ctx context.Context, it model.Item) error
	GetItem(ctx context.Context, id string) (model.Item, error)
	CreatePromotion(ctx context.Context, p model.Promotion) error
	GetPromotion(ctx context.Context, id string) (model.Promotion, error)
	SetPromotionActive(ctx context.Context, id string, active bool) error
	UpdateItemPrice(ctx context.Context, itemID string, price model.Price) (string, error)
	Reorder(ctx context.Context, kind store.ReorderKind, parentID string, ids []string) error
}

// Invalidator purges cached menu content.
type Invalidator interface {
	InvalidateMenu(ctx context.Context, menuID string)
	InvalidateSlug(ctx context.Context, slug string)
}

// Refresher is woken after promotion schedules change.
type Refresher interface {
	Refresh()
}

// Service is the admin write path.
type Service struct {
	store     Store
	cache     Invalidator
	refresher Refresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. cache and refresher may be nil.
func NewService(st Store, cache Invalidator, refresher Refresher, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		cache:     cache,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

// sanitize strips markup and surrounding space from user text.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizeText(t model.Text) model.Text {
	out := model.Text{Base: sanitize(t.Base)}
	for lang, v := range t.Variants {
		if _, ok := model.ParseLang(string(lang)); !ok {
			continue
		}
		if v = sanitize(v); v != "" {
			if out.Variants == nil {
				out.Variants = model.Variants{}
			}
			out.Variants[lang] = v
		}
	}
	return out
}

func sanitizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", nil
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(u, "/") {
		return u, nil
	}
	return "", invalid("url", "must be http(s) or site-relative, got %q", raw)
}

func (s *Service) invalidate(ctx context.Context, menuID string) {
	if s.cache != nil {
		s.cache.InvalidateMenu(ctx, menuID)
	}
}

func (s *Service) refresh() {
	if s.refresher != nil {
		s.refresher.Refresh()
	}
}

// MenuInput describes a new menu.
type MenuInput struct {
	OwnerID string     `json:"-"`
	Name    model.Text `json:"name"`
	Slug    string     `json:"slug,omitempty"`
	LogoURL string     `json:"logo_url,omitempty"`
	Theme   string     `json:"theme,omitempty"`
}

// maxSlugAttempts bounds suffixing of generated slugs.
const maxSlugAttempts = 20

// CreateMenu validates and stores a draft menu. Without an explicit slug
// one is generated from the name, suffixed with -2, -3, ... when taken.
func (s *Service) CreateMenu(ctx context.Context, in MenuInput) (model.Menu, error) {
	name := sanitizeText(in.Name)
	if name.Base == "" {
		return model.Menu{}, invalid("name", "required")
	}
	if in.OwnerID == "" {
		return model.Menu{}, invalid("owner", "required")
	}
	logo, err := sanitizeURL(in.LogoURL)
	if err != nil {
		return model.Menu{}, err
	}
	theme := in.Theme
	if theme == "" {
		theme = model.DefaultTheme
	}
	if !model.IsValidTheme(theme) {
		return model.Menu{}, invalid("theme", "unknown theme %q", theme)
	}

	now := s.now()
	m := model.Menu{
		ID:        uuid.NewString(),
		OwnerID:   in.OwnerID,
		Name:      name,
		LogoURL:   logo,
		Status:    model.MenuDraft,
		Theme:     theme,
		CreatedAt: now,
		UpdatedAt: now,
	}

	explicit := strings.TrimSpace(in.Slug) != ""
	base := util.Slugify(in.Slug)
	if !explicit {
		base = util.Slugify(name.Base)
	}
	if !util.IsValidSlug(base) {
		return model.Menu{}, invalid("slug", "cannot derive a slug from %q", in.Slug+name.Base)
	}

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		m.Slug = base
		if attempt > 1 {
			suffix := fmt.Sprintf("-%d", attempt)
			m.Slug = strings.TrimSuffix(base[:min(len(base), util.MaxSlugLength-len(suffix))], "-") + suffix
		}
		err = s.store.CreateMenu(ctx, m)
		if err == nil {
			s.logger.Info("menu created", "category", model.EventCategoryMenu, "menu_id", m.ID, "slug", m.Slug)
			return m, nil
		}
		if !errors.Is(err, store.ErrConflict) || explicit {
			return model.Menu{}, err
		}
	}
	return model.Menu{}, fmt.Errorf("menu slug %q: %w", base, store.ErrConflict)
}

// ListMenus returns the menus of an owner.
func (s *Service) ListMenus(ctx context.Context, ownerID string) ([]model.Menu, error) {
	return s.store.ListMenus(ctx, ownerID)
}

// GetMenu returns a menu in any status.
func (s *Service) GetMenu(ctx context.Context, menuID string) (model.Menu, error) {
	return s.store.GetMenu(ctx, menuID)
}

// SetPublished publishes or unpublishes a menu.
func (s *Service) SetPublished(ctx context.Context, menuID string, published bool) error {
	m, err := s.store.GetMenu(ctx, menuID)
	if err != nil {
		return err
	}
	status := model.MenuDraft
	if published {
		status = model.MenuPublished
	}
	if err := s.store.SetMenuStatus(ctx, menuID, status, s.now()); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateSlug(ctx, m.Slug)
	}
	s.refresh()
	s.logger.Info("menu status changed", "category", model.EventCategoryMenu, "menu_id", menuID, "status", status)
	return nil
}

// SectionInput describes a new section.
type SectionInput struct {
	MenuID      string     `json:"-"`
	Name        model.Text `json:"name"`
	Description model.Text `json:"description"`
	Hidden      bool       `json:"hidden,omitempty"`
	SortOrder   int        `json:"sort_order"`
}

// CreateSection validates and stores a section.
func (s *Service) CreateSection(ctx context.Context, in SectionInput) (model.Section, error) {
	sec := model.Section{
		ID:          uuid.NewString(),
		MenuID:      in.MenuID,
		Name:        sanitizeText(in.Name),
		Description: sanitizeText(in.Description),
		SortOrder:   in.SortOrder,
		IsVisible:   !in.Hidden,
	}
	if sec.Name.Base == "" {
		return model.Section{}, invalid("name", "required")
	}
	if _, err := s.store.GetMenu(ctx, in.MenuID); err != nil {
		return model.Section{}, err
	}
	if err := s.store.CreateSection(ctx, sec); err != nil {
		return model.Section{}, err
	}
	s.invalidate(ctx, sec.MenuID)
	return sec, nil
}

// ItemInput describes a new item. Price is a decimal string.
type ItemInput struct {
	SectionID     string     `json:"-"`
	Name          model.Text `json:"name"`
	Description   model.Text `json:"description"`
	Price         string     `json:"price"`
	ImageURL      string     `json:"image_url,omitempty"`
	IsRecommended bool       `json:"is_recommended,omitempty"`
	IsVegan       bool       `json:"is_vegan,omitempty"`
	IsSpicy       bool       `json:"is_spicy,omitempty"`
	IsGlutenFree  bool       `json:"is_gluten_free,omitempty"`
	IsDairyFree   bool       `json:"is_dairy_free,omitempty"`
	Allergens     []string   `json:"allergens,omitempty"`
	Hidden        bool       `json:"hidden,omitempty"`
	SortOrder     int        `json:"sort_order"`
}

// CreateItem validates and stores an item.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (model.Item, error) {
	price, err := model.ParsePrice(in.Price)
	if err != nil {
		return model.Item{}, invalid("price", "%v", err)
	}
	image, err := sanitizeURL(in.ImageURL)
	if err != nil {
		return model.Item{}, err
	}
	allergens := make([]string, 0, len(in.Allergens))
	for _, a := range in.Allergens {
		allergens = append(allergens, sanitize(a))
	}

	it := model.Item{
		ID:            uuid.NewString(),
		SectionID:     in.SectionID,
		Name:          sanitizeText(in.Name),
		Description:   sanitizeText(in.Description),
		Price:         price,
		ImageURL:      image,
		IsRecommended: in.IsRecommended,
		IsVegan:       in.IsVegan,
		IsSpicy:       in.IsSpicy,
		IsGlutenFree:  in.IsGlutenFree,
		IsDairyFree:   in.IsDairyFree,
		Allergens:     model.NewAllergens(allergens...),
		SortOrder:     in.SortOrder,
		IsVisible:     !in.Hidden,
	}
	if it.Name.Base == "" {
		return model.Item{}, invalid("name", "required")
	}

	sec, err := s.store.GetSection(ctx, in.SectionID)
	if err != nil {
		return model.Item{}, err
	}
	if err := s.store.CreateItem(ctx, it); err != nil {
		return model.Item{}, err
	}
	s.invalidate(ctx, sec.MenuID)
	return it, nil
}

// PromotionInput describes a new promotion. At most one of SectionID and
// ItemID may be set; ExperimentWeight is required with ExperimentGroup.
type PromotionInput struct {
	MenuID           string     `json:"-"`
	Title            model.Text `json:"title"`
	Description      model.Text `json:"description"`
	PriceText        model.Text `json:"price_text"`
	ImageURL         string     `json:"image_url,omitempty"`
	Inactive         bool       `json:"inactive,omitempty"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	SectionID        string     `json:"section_id,omitempty"`
	ItemID           string     `json:"item_id,omitempty"`
	ExperimentGroup  string     `json:"experiment_group,omitempty"`
	ExperimentWeight int        `json:"experiment_weight,omitempty"`
	SortOrder        int        `json:"sort_order"`
}

// CreatePromotion validates and stores a promotion. Linked sections and
// items must belong to the same menu.
func (s *Service) CreatePromotion(ctx context.Context, in PromotionInput) (model.Promotion, error) {
	target, err := model.NewPromotionTarget(in.SectionID, in.ItemID)
	if err != nil {
		return model.Promotion{}, fmt.Errorf("%w: target: %w", ErrInvalid, err)
	}
	image, err := sanitizeURL(in.ImageURL)
	if err != nil {
		return model.Promotion{}, err
	}

	p := model.Promotion{
		ID:          uuid.NewString(),
		MenuID:      in.MenuID,
		Title:       sanitizeText(in.Title),
		Description: sanitizeText(in.Description),
		PriceText:   sanitizeText(in.PriceText),
		ImageURL:    image,
		IsActive:    !in.Inactive,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Target:      target,
		SortOrder:   in.SortOrder,
	}
	if p.Title.Base == "" {
		return model.Promotion{}, invalid("title", "required")
	}
	if group := sanitize(in.ExperimentGroup); group != "" {
		exp, err := model.NewExperiment(group, in.ExperimentWeight)
		if err != nil {
			return model.Promotion{}, fmt.Errorf("%w: experiment: %w", ErrInvalid, err)
		}
		p.Experiment = &exp
	}

	if _, err := s.store.GetMenu(ctx, in.MenuID); err != nil {
		return model.Promotion{}, err
	}
	if err := s.checkTargetMenu(ctx, p); err != nil {
		return model.Promotion{}, err
	}

	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return model.Promotion{}, err
	}
	s.invalidate(ctx, p.MenuID)
	s.refresh()
	s.logger.Info("promotion created", "category", model.EventCategoryPromotion, "promotion_id", p.ID, "menu_id", p.MenuID)
	return p, nil
}

func (s *Service) checkTargetMenu(ctx context.Context, p model.Promotion) error {
	if id, ok := p.Target.SectionID(); ok {
		sec, err := s.store.GetSection(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return invalid("section_id", "unknown section %q", id)
		}
		if err != nil {
			return err
		}
		if sec.MenuID != p.MenuID {
			return invalid("section_id", "section belongs to another menu")
		}
	}
	if id, ok := p.Target.ItemID(); ok {
		it, err := s.store.GetItem(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return invalid("item_id", "unknown item %q", id)
		}
		if err != nil {
			return err
		}
		sec, err := s.store.GetSection(ctx, it.SectionID)
		if err != nil {
			return err
		}
		if sec.MenuID != p.MenuID {
			return invalid("item_id", "item belongs to another menu")
		}
	}
	return nil
}

// SetPromotionActive toggles a promotion.
func (s *Service) SetPromotionActive(ctx context.Context, promotionID string, active bool) error {
	p, err := s.store.GetPromotion(ctx, promotionID)
	if err != nil {
		return err
	}
	if err := s.store.SetPromotionActive(ctx, promotionID, active); err != nil {
		return err
	}
	s.invalidate(ctx, p.MenuID)
	s.refresh()
	return nil
}

// Reorder rewrites the display order of the children of parentID: a menu
// for sections and promotions, a section for items.
func (s *Service) Reorder(ctx context.Context, kind store.ReorderKind, parentID string, ids []string) error {
	menuID := parentID
	if kind == store.ReorderItems {
		sec, err := s.store.GetSection(ctx, parentID)
		if err != nil {
			return err
		}
		menuID = sec.MenuID
	}

	if err := s.store.Reorder(ctx, kind, parentID, ids); err != nil {
		if errors.Is(err, store.ErrInvalidOrder) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return err
	}
	s.invalidate(ctx, menuID)
	if kind == store.ReorderPromotions {
		s.refresh()
	}
	return nil
}

// PriceUpdate sets one item's price. Price is a decimal string.
type PriceUpdate struct {
	ItemID string `json:"item_id"`
	Price  string `json:"price"`
}

// UpdatePrices applies price updates concurrently. All prices are parsed
// before any write. Each touched menu is invalidated once, even when some
// updates fail; the first failure is returned.
func (s *Service) UpdatePrices(ctx context.Context, updates []PriceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if len(updates) > MaxBulkPrices {
		return 0, invalid("updates", "at most %d per request, got %d", MaxBulkPrices, len(updates))
	}

	prices := make([]model.Price, len(updates))
	for i, u := range updates {
		p, err := model.ParsePrice(u.Price)
		if err != nil {
			return 0, invalid(fmt.Sprintf("updates[%d].price", i), "%v", err)
		}
		if u.ItemID == "" {
			return 0, invalid(fmt.Sprintf("updates[%d].item_id", i), "required")
		}
		prices[i] = p
	}

	var (
		mu      sync.Mutex
		touched = map[string]bool{}
		applied int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkWorkers)
	for i, u := range updates {
		g.Go(func() error {
			menuID, err := s.store.UpdateItemPrice(gctx, u.ItemID, prices[i])
			if err != nil {
				return fmt.Errorf("item %s: %w", u.ItemID, err)
			}
			mu.Lock()
			touched[menuID] = true
			applied++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	for menuID := range touched {
		s.invalidate(ctx, menuID)
	}
	if err != nil {
		s.logger.Warn("bulk price update partially failed",
			"category", model.EventCategoryMenu, "applied", applied, "requested", len(updates), "error", err)
		return applied, err
	}
	s.logger.Info("prices updated", "category", model.EventCategoryMenu, "count", applied)
	return applied, nil
}
