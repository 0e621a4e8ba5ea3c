// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/util"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// textColumns scans a localizable column triple.
type textColumns struct {
	base   string
	en, pt sql.NullString
}

func (c *textColumns) dest() []any {
	return []any{&c.base, &c.en, &c.pt}
}

func (c *textColumns) text() model.Text {
	return model.NewText(c.base, util.StringFromNull(c.en), util.StringFromNull(c.pt))
}

const menuColumns = `id, owner_id, name, name_en, name_pt, slug, logo_url, status, theme, created_at, updated_at`

// publicMenuColumns never reads owner_id.
const publicMenuColumns = `id, '', name, name_en, name_pt, slug, logo_url, status, theme, created_at, updated_at`

func scanMenu(row rowScanner) (model.Menu, error) {
	var (
		m                    model.Menu
		name                 textColumns
		status               string
		createdAt, updatedAt string
	)
	dest := []any{&m.ID, &m.OwnerID}
	dest = append(dest, name.dest()...)
	dest = append(dest, &m.Slug, &m.LogoURL, &status, &m.Theme, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return model.Menu{}, err
	}

	m.Name = name.text()
	m.Status = model.MenuStatus(status)

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Menu{}, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Menu{}, err
	}
	return m, nil
}

// GetPublishedMenuBySlug returns the published menu with slug, or nil when
// there is none.
func (q *Queries) GetPublishedMenuBySlug(ctx context.Context, slug string) (*model.Menu, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+publicMenuColumns+` FROM menus WHERE slug = ? AND status = ?`,
		slug, string(model.MenuPublished))
	m, err := scanMenu(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting menu %q: %w", slug, err)
	}
	return &m, nil
}

// GetMenu returns a menu by ID regardless of status.
func (q *Queries) GetMenu(ctx context.Context, id string) (model.Menu, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = ?`, id)
	m, err := scanMenu(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Menu{}, ErrNotFound
	}
	if err != nil {
		return model.Menu{}, fmt.Errorf("getting menu %s: %w", id, err)
	}
	return m, nil
}

// ListMenus returns the menus of an owner, newest first. An empty owner
// lists every menu.
func (q *Queries) ListMenus(ctx context.Context, ownerID string) ([]model.Menu, error) {
	query := `SELECT ` + menuColumns + ` FROM menus`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing menus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var menus []model.Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning menu: %w", err)
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

const sectionColumns = `id, menu_id, name, name_en, name_pt, description, description_en, description_pt, sort_order, is_visible`

func scanSection(row rowScanner) (model.Section, error) {
	var (
		s          model.Section
		name, desc textColumns
	)
	dest := []any{&s.ID, &s.MenuID}
	dest = append(dest, name.dest()...)
	dest = append(dest, desc.dest()...)
	dest = append(dest, &s.SortOrder, &s.IsVisible)
	if err := row.Scan(dest...); err != nil {
		return model.Section{}, err
	}
	s.Name = name.text()
	s.Description = desc.text()
	return s, nil
}

// ListVisibleSections returns the visible sections of a menu in display order.
func (q *Queries) ListVisibleSections(ctx context.Context, menuID string) ([]model.Section, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections
		 WHERE menu_id = ? AND is_visible = 1
		 ORDER BY sort_order, id`, menuID)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sections []model.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// GetSection returns a section by ID.
func (q *Queries) GetSection(ctx context.Context, id string) (model.Section, error) {
	s, err := scanSection(q.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Section{}, ErrNotFound
	}
	if err != nil {
		return model.Section{}, fmt.Errorf("getting section %s: %w", id, err)
	}
	return s, nil
}

const itemColumns = `id, section_id, name, name_en, name_pt, description, description_en, description_pt,
	price_cents, image_url, is_recommended, is_vegan, is_spicy, is_gluten_free, is_dairy_free,
	allergens, sort_order, is_visible`

func scanItem(row rowScanner) (model.Item, error) {
	var (
		it         model.Item
		name, desc textColumns
		price      int64
		allergens  string
	)
	dest := []any{&it.ID, &it.SectionID}
	dest = append(dest, name.dest()...)
	dest = append(dest, desc.dest()...)
	dest = append(dest, &price, &it.ImageURL,
		&it.IsRecommended, &it.IsVegan, &it.IsSpicy, &it.IsGlutenFree, &it.IsDairyFree,
		&allergens, &it.SortOrder, &it.IsVisible)
	if err := row.Scan(dest...); err != nil {
		return model.Item{}, err
	}
	it.Name = name.text()
	it.Description = desc.text()
	it.Price = model.Price(price)
	it.Allergens = model.ParseAllergens(allergens)
	return it, nil
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ListVisibleItems returns the visible items of the given sections ordered
// by section and sort order.
func (q *Queries) ListVisibleItems(ctx context.Context, sectionIDs []string) ([]model.Item, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(sectionIDs))
	for i, id := range sectionIDs {
		args[i] = id
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE section_id IN (`+placeholders(len(sectionIDs))+`) AND is_visible = 1
		 ORDER BY section_id, sort_order, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem returns an item by ID.
func (q *Queries) GetItem(ctx context.Context, id string) (model.Item, error) {
	it, err := scanItem(q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

const promotionColumns = `p.id, p.menu_id, p.title, p.title_en, p.title_pt,
	p.description, p.description_en, p.description_pt,
	p.price_text, p.price_text_en, p.price_text_pt,
	p.image_url, p.is_active, p.starts_at, p.ends_at, p.section_id, p.item_id,
	p.experiment_group, p.experiment_weight, p.sort_order`

func scanPromotion(row rowScanner) (model.Promotion, error) {
	var (
		p                        model.Promotion
		title, desc, priceText   textColumns
		startsAt, endsAt         sql.NullString
		sectionID, itemID, group sql.NullString
		weight                   sql.NullInt64
	)
	dest := []any{&p.ID, &p.MenuID}
	dest = append(dest, title.dest()...)
	dest = append(dest, desc.dest()...)
	dest = append(dest, priceText.dest()...)
	dest = append(dest, &p.ImageURL, &p.IsActive, &startsAt, &endsAt, &sectionID, &itemID,
		&group, &weight, &p.SortOrder)
	if err := row.Scan(dest...); err != nil {
		return model.Promotion{}, err
	}

	p.Title = title.text()
	p.Description = desc.text()
	p.PriceText = priceText.text()

	var err error
	if p.StartsAt, err = parseNullTime(startsAt); err != nil {
		return model.Promotion{}, err
	}
	if p.EndsAt, err = parseNullTime(endsAt); err != nil {
		return model.Promotion{}, err
	}
	if p.Target, err = model.NewPromotionTarget(util.StringFromNull(sectionID), util.StringFromNull(itemID)); err != nil {
		return model.Promotion{}, fmt.Errorf("promotion %s: %w", p.ID, err)
	}
	if group.Valid && group.String != "" && weight.Valid {
		p.Experiment = &model.Experiment{Group: group.String, Weight: int(weight.Int64)}
	}
	return p, nil
}

func (q *Queries) listPromotions(ctx context.Context, query string, args ...any) ([]model.Promotion, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var promotions []model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning promotion: %w", err)
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

// ListActivePromotions returns the promotions of a menu with the active
// flag set. Schedule windows are evaluated by the caller at request time.
func (q *Queries) ListActivePromotions(ctx context.Context, menuID string) ([]model.Promotion, error) {
	return q.listPromotions(ctx,
		`SELECT `+promotionColumns+` FROM promotions p
		 WHERE p.menu_id = ? AND p.is_active = 1
		 ORDER BY p.sort_order, p.id`, menuID)
}

// ListActivePromotionsForPublishedMenus returns the active promotions of
// every published menu.
func (q *Queries) ListActivePromotionsForPublishedMenus(ctx context.Context) ([]model.Promotion, error) {
	return q.listPromotions(ctx,
		`SELECT `+promotionColumns+` FROM promotions p
		 JOIN menus m ON m.id = p.menu_id
		 WHERE m.status = ? AND p.is_active = 1
		 ORDER BY p.menu_id, p.sort_order, p.id`, string(model.MenuPublished))
}

// GetPromotion returns a promotion by ID.
func (q *Queries) GetPromotion(ctx context.Context, id string) (model.Promotion, error) {
	p, err := scanPromotion(q.db.QueryRowContext(ctx,
		`SELECT `+promotionColumns+` FROM promotions p WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Promotion{}, ErrNotFound
	}
	if err != nil {
		return model.Promotion{}, fmt.Errorf("getting promotion %s: %w", id, err)
	}
	return p, nil
}
