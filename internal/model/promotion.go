// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for promotion construction.
var (
	ErrInvalidTarget     = errors.New("promotion cannot target both a section and an item")
	ErrInvalidExperiment = errors.New("experiment weight must be between 1 and 100")
)

// TargetKind identifies what a promotion links to.
type TargetKind uint8

// Promotion target kinds.
const (
	TargetNone TargetKind = iota
	TargetSection
	TargetItem
)

// String implements fmt.Stringer.
func (k TargetKind) String() string {
	switch k {
	case TargetSection:
		return "section"
	case TargetItem:
		return "item"
	default:
		return "none"
	}
}

// PromotionTarget is the navigation target of a promotion: nothing,
// one section, or one item. The zero value is TargetNone.
type PromotionTarget struct {
	kind TargetKind
	id   string
}

// NoTarget returns a target that links nowhere.
func NoTarget() PromotionTarget {
	return PromotionTarget{}
}

// SectionTarget links a promotion to a section.
func SectionTarget(id string) PromotionTarget {
	if id == "" {
		return NoTarget()
	}
	return PromotionTarget{kind: TargetSection, id: id}
}

// ItemTarget links a promotion to an item.
func ItemTarget(id string) PromotionTarget {
	if id == "" {
		return NoTarget()
	}
	return PromotionTarget{kind: TargetItem, id: id}
}

// NewPromotionTarget builds a target from the two nullable link columns.
// Setting both is rejected with ErrInvalidTarget.
func NewPromotionTarget(sectionID, itemID string) (PromotionTarget, error) {
	switch {
	case sectionID != "" && itemID != "":
		return NoTarget(), ErrInvalidTarget
	case sectionID != "":
		return SectionTarget(sectionID), nil
	case itemID != "":
		return ItemTarget(itemID), nil
	default:
		return NoTarget(), nil
	}
}

// Kind returns the target kind.
func (t PromotionTarget) Kind() TargetKind { return t.kind }

// ID returns the linked entity ID, or "" for TargetNone.
func (t PromotionTarget) ID() string { return t.id }

// SectionID returns the linked section ID when the target is a section.
func (t PromotionTarget) SectionID() (string, bool) {
	if t.kind != TargetSection {
		return "", false
	}
	return t.id, true
}

// ItemID returns the linked item ID when the target is an item.
func (t PromotionTarget) ItemID() (string, bool) {
	if t.kind != TargetItem {
		return "", false
	}
	return t.id, true
}

type targetJSON struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// MarshalJSON encodes the target as {"kind": "...", "id": "..."}.
func (t PromotionTarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(targetJSON{Kind: t.kind.String(), ID: t.id})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (t *PromotionTarget) UnmarshalJSON(data []byte) error {
	var raw targetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "section":
		*t = SectionTarget(raw.ID)
	case "item":
		*t = ItemTarget(raw.ID)
	case "none", "":
		*t = NoTarget()
	default:
		return fmt.Errorf("unknown promotion target kind %q", raw.Kind)
	}
	return nil
}

// Experiment places a promotion in an A/B group.
type Experiment struct {
	Group  string `json:"group"`
	Weight int    `json:"weight"`
}

// NewExperiment validates the weight range.
func NewExperiment(group string, weight int) (Experiment, error) {
	if weight < 1 || weight > 100 {
		return Experiment{}, fmt.Errorf("%w: got %d", ErrInvalidExperiment, weight)
	}
	return Experiment{Group: group, Weight: weight}, nil
}

// Promotion is a marketing card shown at the top of a menu.
type Promotion struct {
	ID          string          `json:"id"`
	MenuID      string          `json:"menu_id"`
	Title       Text            `json:"title"`
	Description Text            `json:"description"`
	PriceText   Text            `json:"price_text"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	StartsAt    *time.Time      `json:"starts_at,omitempty"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	Target      PromotionTarget `json:"target"`
	Experiment  *Experiment     `json:"experiment,omitempty"`
	SortOrder   int             `json:"sort_order"`
}
