// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package menu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/carta/internal/cache"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/util"
)

// ContentStore is the read side of the content store used on the public path.
// GetPublishedMenuBySlug returns (nil, nil) when no published menu has slug.
type ContentStore interface {
	GetPublishedMenuBySlug(ctx context.Context, slug string) (*model.Menu, error)
	ListVisibleSections(ctx context.Context, menuID string) ([]model.Section, error)
	ListVisibleItems(ctx context.Context, sectionIDs []string) ([]model.Item, error)
	ListActivePromotions(ctx context.Context, menuID string) ([]model.Promotion, error)
}

// Content is the raw published content of one menu. It is independent of
// time and language, so it can be cached and assembled per request.
type Content struct {
	Menu       model.Menu        `json:"menu"`
	Sections   []model.Section   `json:"sections"`
	Items      []model.Item      `json:"items"`
	Promotions []model.Promotion `json:"promotions"`
}

const contentKeyPrefix = "menu:content:"

func contentKey(slug string) string {
	return contentKeyPrefix + slug
}

// Service serves assembled menu views, caching raw content per slug.
type Service struct {
	store  ContentStore
	cache  *cache.TypedCache[Content]
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	slugs map[string]string // menu ID -> slug of cached content
}

// NewService creates a Service. A nil cacher disables caching.
func NewService(store ContentStore, cacher cache.Cacher, ttl time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		slugs:  make(map[string]string),
	}
	if cacher != nil {
		s.cache = cache.NewTypedCache[Content](cacher, ttl)
	}
	return s
}

// Content returns the published content for slug, from cache when possible.
// It returns ErrNotFound for malformed slugs and unknown or draft menus.
func (s *Service) Content(ctx context.Context, slug string) (*Content, error) {
	if !util.IsValidSlug(slug) {
		return nil, ErrNotFound
	}

	if s.cache == nil {
		return s.load(ctx, slug)
	}
	return s.cache.GetOrSet(ctx, contentKey(slug), func() (*Content, error) {
		c, err := s.load(ctx, slug)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.slugs[c.Menu.ID] = slug
		s.mu.Unlock()
		return c, nil
	})
}

// load fetches sections with their items and the promotions concurrently.
func (s *Service) load(ctx context.Context, slug string) (*Content, error) {
	m, err := s.store.GetPublishedMenuBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("loading menu %q: %w", slug, err)
	}
	if m == nil {
		return nil, ErrNotFound
	}

	c := &Content{Menu: *m}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sections, err := s.store.ListVisibleSections(gctx, m.ID)
		if err != nil {
			return fmt.Errorf("listing sections: %w", err)
		}
		ids := make([]string, len(sections))
		for i, sec := range sections {
			ids[i] = sec.ID
		}
		items, err := s.store.ListVisibleItems(gctx, ids)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		c.Sections, c.Items = sections, items
		return nil
	})
	g.Go(func() error {
		promotions, err := s.store.ListActivePromotions(gctx, m.ID)
		if err != nil {
			return fmt.Errorf("listing promotions: %w", err)
		}
		c.Promotions = promotions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading menu %q: %w", slug, err)
	}
	return c, nil
}

// View assembles the public view of slug in lang at the current instant.
func (s *Service) View(ctx context.Context, slug string, lang model.Lang) (PublicMenuView, error) {
	return s.ViewAt(ctx, slug, lang, s.now())
}

// ViewAt is View at an explicit instant.
func (s *Service) ViewAt(ctx context.Context, slug string, lang model.Lang, now time.Time) (PublicMenuView, error) {
	c, err := s.Content(ctx, slug)
	if err != nil {
		return PublicMenuView{}, err
	}
	return Assemble(&c.Menu, c.Sections, c.Items, c.Promotions, now, lang)
}

// Highlights returns the recommended items of slug's current view.
func (s *Service) Highlights(ctx context.Context, slug string, lang model.Lang) ([]ItemView, error) {
	v, err := s.View(ctx, slug, lang)
	if err != nil {
		return nil, err
	}
	return Highlights(v), nil
}

// PrintView is the view used for printed menus: all rendered sections and
// no promotions, so it does not depend on the promotion schedule.
func (s *Service) PrintView(ctx context.Context, slug string, lang model.Lang) (PublicMenuView, error) {
	v, err := s.View(ctx, slug, lang)
	if err != nil {
		return PublicMenuView{}, err
	}
	v.Promotions = []PromotionView{}
	v.NextRefreshAt = nil
	return v, nil
}

// InvalidateSlug drops cached content for slug.
func (s *Service) InvalidateSlug(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, contentKey(slug)); err != nil {
		s.logger.Warn("failed to invalidate menu content", "slug", slug, "error", err, "category", "cache")
	}
}

// InvalidateMenu drops cached content for a menu ID. When the slug is not
// known locally, all cached content is dropped.
func (s *Service) InvalidateMenu(ctx context.Context, menuID string) {
	if s.cache == nil {
		return
	}

	s.mu.Lock()
	slug, ok := s.slugs[menuID]
	delete(s.slugs, menuID)
	s.mu.Unlock()

	if ok {
		s.InvalidateSlug(ctx, slug)
		return
	}
	if err := s.cache.DeletePrefix(ctx, contentKeyPrefix); err != nil {
		s.logger.Warn("failed to invalidate menu content", "menu_id", menuID, "error", err, "category", "cache")
	}
}
