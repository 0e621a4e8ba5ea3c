// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/util"
)

// Command errors.
var (
	ErrConflict     = errors.New("conflicts with an existing row")
	ErrInvalidOrder = errors.New("order must list every child exactly once")
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func textArgs(t model.Text) []any {
	return []any{
		t.Base,
		util.NullStringFromValue(t.Variant(model.LangEN)),
		util.NullStringFromValue(t.Variant(model.LangPT)),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateMenu inserts a menu. A taken slug yields ErrConflict.
func (q *Queries) CreateMenu(ctx context.Context, m model.Menu) error {
	args := []any{m.ID, m.OwnerID}
	args = append(args, textArgs(m.Name)...)
	args = append(args, m.Slug, m.LogoURL, string(m.Status), m.Theme,
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt))

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO menus (`+menuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("menu slug %q: %w", m.Slug, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating menu: %w", err)
	}
	return nil
}

// SetMenuStatus publishes or unpublishes a menu.
func (q *Queries) SetMenuStatus(ctx context.Context, id string, status model.MenuStatus, now time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE menus SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(now), id)
	if err != nil {
		return fmt.Errorf("updating menu status: %w", err)
	}
	return requireRow(res)
}

// PublishMenu makes a menu visible on the public path.
func (q *Queries) PublishMenu(ctx context.Context, id string, now time.Time) error {
	return q.SetMenuStatus(ctx, id, model.MenuPublished, now)
}

// CreateSection inserts a section.
func (q *Queries) CreateSection(ctx context.Context, s model.Section) error {
	args := []any{s.ID, s.MenuID}
	args = append(args, textArgs(s.Name)...)
	args = append(args, textArgs(s.Description)...)
	args = append(args, s.SortOrder, boolInt(s.IsVisible))

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sections (`+sectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("creating section: %w", err)
	}
	return nil
}

// CreateItem inserts an item.
func (q *Queries) CreateItem(ctx context.Context, it model.Item) error {
	args := []any{it.ID, it.SectionID}
	args = append(args, textArgs(it.Name)...)
	args = append(args, textArgs(it.Description)...)
	args = append(args, int64(it.Price), it.ImageURL,
		boolInt(it.IsRecommended), boolInt(it.IsVegan), boolInt(it.IsSpicy),
		boolInt(it.IsGlutenFree), boolInt(it.IsDairyFree),
		it.Allergens.JSON(), it.SortOrder, boolInt(it.IsVisible))

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// CreatePromotion inserts a promotion.
func (q *Queries) CreatePromotion(ctx context.Context, p model.Promotion) error {
	var sectionID, itemID string
	if id, ok := p.Target.SectionID(); ok {
		sectionID = id
	} else if id, ok := p.Target.ItemID(); ok {
		itemID = id
	}

	var (
		group  sql.NullString
		weight sql.NullInt64
	)
	if p.Experiment != nil {
		w := int64(p.Experiment.Weight)
		group = util.NullStringFromValue(p.Experiment.Group)
		weight = util.NullInt64FromPtr(&w)
	}

	args := []any{p.ID, p.MenuID}
	args = append(args, textArgs(p.Title)...)
	args = append(args, textArgs(p.Description)...)
	args = append(args, textArgs(p.PriceText)...)
	args = append(args, p.ImageURL, boolInt(p.IsActive), nullTime(p.StartsAt), nullTime(p.EndsAt),
		util.NullStringFromValue(sectionID), util.NullStringFromValue(itemID),
		group, weight, p.SortOrder)

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO promotions (id, menu_id, title, title_en, title_pt,
			description, description_en, description_pt,
			price_text, price_text_en, price_text_pt,
			image_url, is_active, starts_at, ends_at, section_id, item_id,
			experiment_group, experiment_weight, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("creating promotion: %w", err)
	}
	return nil
}

// SetPromotionActive toggles the active flag of a promotion.
func (q *Queries) SetPromotionActive(ctx context.Context, id string, active bool) error {
	res, err := q.db.ExecContext(ctx, `UPDATE promotions SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating promotion: %w", err)
	}
	return requireRow(res)
}

// UpdateItemPrice sets the price of an item and returns the ID of the
// menu that owns it.
func (q *Queries) UpdateItemPrice(ctx context.Context, itemID string, price model.Price) (string, error) {
	if price < 0 {
		return "", model.ErrInvalidPrice
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var menuID string
	err = tx.QueryRowContext(ctx,
		`SELECT s.menu_id FROM items i JOIN sections s ON s.id = i.section_id WHERE i.id = ?`,
		itemID).Scan(&menuID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving item menu: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE items SET price_cents = ? WHERE id = ?`, int64(price), itemID); err != nil {
		return "", fmt.Errorf("updating item price: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing price update: %w", err)
	}
	return menuID, nil
}

// ReorderKind names the collection Reorder rewrites.
type ReorderKind string

// Reorderable collections. Sections and promotions are children of a
// menu, items are children of a section.
const (
	ReorderSections   ReorderKind = "sections"
	ReorderItems      ReorderKind = "items"
	ReorderPromotions ReorderKind = "promotions"
)

func (k ReorderKind) tableAndParent() (string, string, bool) {
	switch k {
	case ReorderSections:
		return "sections", "menu_id", true
	case ReorderItems:
		return "items", "section_id", true
	case ReorderPromotions:
		return "promotions", "menu_id", true
	default:
		return "", "", false
	}
}

// Reorder assigns sort_order 0..n-1 to the children of parentID in the
// order given. ids must be exactly the current set of children; anything
// else yields ErrInvalidOrder and no row changes.
func (q *Queries) Reorder(ctx context.Context, kind ReorderKind, parentID string, ids []string) error {
	table, parent, ok := kind.tableAndParent()
	if !ok {
		return fmt.Errorf("unknown reorder kind %q", kind)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM `+table+` WHERE `+parent+` = ?`, parentID)
	if err != nil {
		return fmt.Errorf("listing %s: %w", table, err)
	}
	current := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		current[id] = false
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(ids) != len(current) {
		return fmt.Errorf("%s of %s: got %d ids, have %d: %w", table, parentID, len(ids), len(current), ErrInvalidOrder)
	}
	for _, id := range ids {
		seen, ok := current[id]
		if !ok || seen {
			return fmt.Errorf("%s of %s: id %q: %w", table, parentID, id, ErrInvalidOrder)
		}
		current[id] = true
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE `+table+` SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing reorder: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, id); err != nil {
			return fmt.Errorf("reordering %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
