// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schedule decides which menu entities are eligible for display at
// a given instant and when the next promotion schedule boundary occurs.
package schedule

import (
	"time"

	"github.com/olegiv/carta/internal/model"
)

// SectionEligible reports whether a section may be shown.
func SectionEligible(s model.Section) bool {
	return s.IsVisible
}

// ItemEligible reports whether an item may be shown.
func ItemEligible(i model.Item) bool {
	return i.IsVisible
}

// PromotionEligible reports whether a promotion is shown at now.
// Both window bounds are inclusive and a nil bound is unbounded.
// A window with StartsAt after EndsAt is never eligible.
func PromotionEligible(p model.Promotion, now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// Phase is the schedule state of a promotion at an instant.
type Phase int

// Promotion phases.
const (
	PhaseInactive Phase = iota
	PhasePending
	PhaseActive
	PhaseExpired
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	case PhaseExpired:
		return "expired"
	default:
		return "inactive"
	}
}

// PromotionPhase classifies a promotion at now. PhaseActive is returned
// exactly when PromotionEligible is true.
func PromotionPhase(p model.Promotion, now time.Time) Phase {
	switch {
	case !p.IsActive:
		return PhaseInactive
	case p.StartsAt != nil && now.Before(*p.StartsAt):
		return PhasePending
	case p.EndsAt != nil && now.After(*p.EndsAt):
		return PhaseExpired
	default:
		return PhaseActive
	}
}

// NextTransition returns the earliest schedule boundary after now among
// active promotions. A promotion becomes eligible at StartsAt and stops
// being eligible one nanosecond after EndsAt. It returns false when no
// boundary lies ahead. Inverted windows are never eligible and add no
// boundary.
func NextTransition(promotions []model.Promotion, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false

	consider := func(t time.Time) {
		if !t.After(now) {
			return
		}
		if !found || t.Before(next) {
			next = t
			found = true
		}
	}

	for _, p := range promotions {
		if !p.IsActive || invertedWindow(p) {
			continue
		}
		if p.StartsAt != nil {
			consider(*p.StartsAt)
		}
		if p.EndsAt != nil {
			consider(p.EndsAt.Add(time.Nanosecond))
		}
	}
	return next, found
}

func invertedWindow(p model.Promotion) bool {
	return p.StartsAt != nil && p.EndsAt != nil && p.StartsAt.After(*p.EndsAt)
}

// Transitions returns the promotions whose phase at to differs from
// their phase at from.
func Transitions(promotions []model.Promotion, from, to time.Time) []model.Promotion {
	var changed []model.Promotion
	for _, p := range promotions {
		if PromotionPhase(p, from) != PromotionPhase(p, to) {
			changed = append(changed, p)
		}
	}
	return changed
}
