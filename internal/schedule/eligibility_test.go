// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/carta/internal/model"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestSectionAndItemEligible(t *testing.T) {
	assert.True(t, SectionEligible(model.Section{IsVisible: true}))
	assert.False(t, SectionEligible(model.Section{IsVisible: false}))
	assert.True(t, ItemEligible(model.Item{IsVisible: true}))
	assert.False(t, ItemEligible(model.Item{IsVisible: false}))
}

func TestPromotionEligible(t *testing.T) {
	now := *at("2025-01-01T12:00:00Z")

	tests := []struct {
		name  string
		promo model.Promotion
		want  bool
	}{
		{"inactive", model.Promotion{IsActive: false}, false},
		{"active open-ended", model.Promotion{IsActive: true}, true},
		{"inactive inside window", model.Promotion{IsActive: false, StartsAt: at("2024-01-01T00:00:00Z"), EndsAt: at("2026-01-01T00:00:00Z")}, false},
		{"starts in future", model.Promotion{IsActive: true, StartsAt: at("2025-01-02T00:00:00Z")}, false},
		{"started", model.Promotion{IsActive: true, StartsAt: at("2024-12-31T00:00:00Z")}, true},
		{"starts exactly now", model.Promotion{IsActive: true, StartsAt: at("2025-01-01T12:00:00Z")}, true},
		{"ends exactly now", model.Promotion{IsActive: true, EndsAt: at("2025-01-01T12:00:00Z")}, true},
		{"expired", model.Promotion{IsActive: true, EndsAt: at("2020-01-01T00:00:00Z")}, false},
		{"inside window", model.Promotion{IsActive: true, StartsAt: at("2024-12-01T00:00:00Z"), EndsAt: at("2025-02-01T00:00:00Z")}, true},
		{"inverted window", model.Promotion{IsActive: true, StartsAt: at("2025-02-01T00:00:00Z"), EndsAt: at("2024-12-01T00:00:00Z")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PromotionEligible(tt.promo, now))
		})
	}
}

func TestPromotionEligibleMatchesWindowProperty(t *testing.T) {
	base := *at("2025-06-15T00:00:00Z")
	bounds := []*time.Time{nil}
	for h := -48; h <= 48; h += 12 {
		b := base.Add(time.Duration(h) * time.Hour)
		bounds = append(bounds, &b)
	}

	for _, active := range []bool{true, false} {
		for _, start := range bounds {
			for _, end := range bounds {
				p := model.Promotion{IsActive: active, StartsAt: start, EndsAt: end}
				for h := -60; h <= 60; h += 6 {
					now := base.Add(time.Duration(h) * time.Hour)
					want := active &&
						(start == nil || !now.Before(*start)) &&
						(end == nil || !now.After(*end))
					require.Equal(t, want, PromotionEligible(p, now))
					require.Equal(t, want, PromotionPhase(p, now) == PhaseActive)
				}
			}
		}
	}
}

func TestPromotionPhase(t *testing.T) {
	p := model.Promotion{IsActive: true, StartsAt: at("2025-01-10T00:00:00Z"), EndsAt: at("2025-01-20T00:00:00Z")}

	assert.Equal(t, PhasePending, PromotionPhase(p, *at("2025-01-05T00:00:00Z")))
	assert.Equal(t, PhaseActive, PromotionPhase(p, *at("2025-01-15T00:00:00Z")))
	assert.Equal(t, PhaseExpired, PromotionPhase(p, *at("2025-01-25T00:00:00Z")))

	p.IsActive = false
	assert.Equal(t, PhaseInactive, PromotionPhase(p, *at("2025-01-15T00:00:00Z")))

	assert.Equal(t, "pending", PhasePending.String())
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "expired", PhaseExpired.String())
	assert.Equal(t, "inactive", PhaseInactive.String())
}

func TestExpiredScenario(t *testing.T) {
	p := model.Promotion{IsActive: true, EndsAt: at("2020-01-01T00:00:00Z")}
	assert.False(t, PromotionEligible(p, *at("2025-01-01T00:00:00Z")))
}

func TestNextTransition(t *testing.T) {
	now := *at("2025-01-01T12:00:00Z")

	t.Run("no promotions", func(t *testing.T) {
		_, ok := NextTransition(nil, now)
		assert.False(t, ok)
	})

	t.Run("open-ended promotions", func(t *testing.T) {
		_, ok := NextTransition([]model.Promotion{{IsActive: true}}, now)
		assert.False(t, ok)
	})

	t.Run("earliest future boundary wins", func(t *testing.T) {
		promos := []model.Promotion{
			{IsActive: true, StartsAt: at("2025-01-03T00:00:00Z")},
			{IsActive: true, StartsAt: at("2024-12-01T00:00:00Z"), EndsAt: at("2025-01-02T00:00:00Z")},
			{IsActive: false, StartsAt: at("2025-01-01T13:00:00Z")},
		}
		next, ok := NextTransition(promos, now)
		require.True(t, ok)
		assert.Equal(t, at("2025-01-02T00:00:00Z").Add(time.Nanosecond), next)
	})

	t.Run("past boundaries ignored", func(t *testing.T) {
		promos := []model.Promotion{
			{IsActive: true, StartsAt: at("2024-01-01T00:00:00Z"), EndsAt: at("2024-06-01T00:00:00Z")},
		}
		_, ok := NextTransition(promos, now)
		assert.False(t, ok)
	})

	t.Run("inverted windows add no boundary", func(t *testing.T) {
		promos := []model.Promotion{
			{IsActive: true, StartsAt: at("2025-01-05T00:00:00Z"), EndsAt: at("2025-01-02T00:00:00Z")},
		}
		_, ok := NextTransition(promos, now)
		assert.False(t, ok)

		promos = append(promos, model.Promotion{IsActive: true, StartsAt: at("2025-01-10T00:00:00Z")})
		next, ok := NextTransition(promos, now)
		require.True(t, ok)
		assert.Equal(t, *at("2025-01-10T00:00:00Z"), next)
	})

	t.Run("end equal to now still ahead", func(t *testing.T) {
		promos := []model.Promotion{{IsActive: true, EndsAt: &now}}
		next, ok := NextTransition(promos, now)
		require.True(t, ok)
		assert.Equal(t, now.Add(time.Nanosecond), next)
		assert.False(t, PromotionEligible(promos[0], next))
	})

	t.Run("pending becomes active at boundary", func(t *testing.T) {
		p := model.Promotion{IsActive: true, StartsAt: at("2025-01-01T12:00:20Z")}
		next, ok := NextTransition([]model.Promotion{p}, now)
		require.True(t, ok)
		assert.False(t, PromotionEligible(p, next.Add(-time.Nanosecond)))
		assert.True(t, PromotionEligible(p, next))
	})
}

func TestTransitions(t *testing.T) {
	starting := model.Promotion{ID: "a", IsActive: true, StartsAt: at("2025-01-01T12:00:10Z")}
	steady := model.Promotion{ID: "b", IsActive: true}
	ending := model.Promotion{ID: "c", IsActive: true, EndsAt: at("2025-01-01T12:00:05Z")}

	changed := Transitions([]model.Promotion{starting, steady, ending}, *at("2025-01-01T12:00:00Z"), *at("2025-01-01T12:00:30Z"))
	require.Len(t, changed, 2)
	assert.Equal(t, "a", changed[0].ID)
	assert.Equal(t, "c", changed[1].ID)
}
