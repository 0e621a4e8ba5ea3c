// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MenuStatus is the publication state of a menu.
type MenuStatus string

// Menu statuses.
const (
	MenuDraft     MenuStatus = "draft"
	MenuPublished MenuStatus = "published"
)

// Default presentation theme.
const DefaultTheme = "classic"

// Themes lists the presentation themes a menu may use.
var Themes = []string{DefaultTheme, "modern", "rustic", "dark"}

// IsValidTheme reports whether name is a known theme.
func IsValidTheme(name string) bool {
	return slices.Contains(Themes, name)
}

// Menu is a tenant's top-level menu document.
// OwnerID is never read by the public projection.
type Menu struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      Text       `json:"name"`
	Slug      string     `json:"slug"`
	LogoURL   string     `json:"logo_url,omitempty"`
	Status    MenuStatus `json:"status"`
	Theme     string     `json:"theme"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsPublished reports whether the menu is visible on the public path.
func (m *Menu) IsPublished() bool {
	return m != nil && m.Status == MenuPublished
}

// Section groups items within a menu.
type Section struct {
	ID          string `json:"id"`
	MenuID      string `json:"menu_id"`
	Name        Text   `json:"name"`
	Description Text   `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsVisible   bool   `json:"is_visible"`
}

// Item is a single dish or drink.
type Item struct {
	ID            string    `json:"id"`
	SectionID     string    `json:"section_id"`
	Name          Text      `json:"name"`
	Description   Text      `json:"description"`
	Price         Price     `json:"price"`
	ImageURL      string    `json:"image_url,omitempty"`
	IsRecommended bool      `json:"is_recommended"`
	IsVegan       bool      `json:"is_vegan"`
	IsSpicy       bool      `json:"is_spicy"`
	IsGlutenFree  bool      `json:"is_gluten_free"`
	IsDairyFree   bool      `json:"is_dairy_free"`
	Allergens     Allergens `json:"allergens"`
	SortOrder     int       `json:"sort_order"`
	IsVisible     bool      `json:"is_visible"`
}

// Price is a non-negative amount in minor currency units (cents).
type Price int64

// ErrInvalidPrice is returned for negative or malformed prices.
var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice parses a decimal string with at most two fractional digits.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasFrac && (len(frac) > 2 || !isDigits(frac))) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return Price(w*100 + f), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the price with two decimals.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// MarshalJSON encodes the price as a decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Allergens is a set of allergen codes (e.g. "gluten", "nuts").
type Allergens map[string]struct{}

// NewAllergens builds a set, normalizing codes to lower case.
func NewAllergens(codes ...string) Allergens {
	a := make(Allergens, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			a[c] = struct{}{}
		}
	}
	return a
}

// Has reports whether the set contains code.
func (a Allergens) Has(code string) bool {
	_, ok := a[strings.ToLower(code)]
	return ok
}

// List returns the codes sorted alphabetically.
func (a Allergens) List() []string {
	out := make([]string, 0, len(a))
	for c := range a {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// ParseAllergens decodes the JSON array stored in the items table.
// Malformed input yields an empty set.
func ParseAllergens(raw string) Allergens {
	if raw == "" || raw == "[]" {
		return Allergens{}
	}
	var codes []string
	_ = json.Unmarshal([]byte(raw), &codes)
	return NewAllergens(codes...)
}

// JSON encodes the set as a sorted JSON array.
func (a Allergens) JSON() string {
	data, err := json.Marshal(a.List())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// MarshalJSON encodes the set as a sorted array.
func (a Allergens) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.List())
}

// UnmarshalJSON decodes an array of codes.
func (a *Allergens) UnmarshalJSON(data []byte) error {
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}
	*a = NewAllergens(codes...)
	return nil
}
