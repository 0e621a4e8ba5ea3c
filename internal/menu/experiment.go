// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package menu

import (
	"hash/fnv"
)

// SelectExperiments keeps one promotion per experiment group, chosen by
// weight with a deterministic roll derived from seed and the group name.
// The same seed always sees the same variant. Promotions outside any
// group are kept as they are, and the winner keeps its position.
func SelectExperiments(promotions []PromotionView, seed string) []PromotionView {
	groups := make(map[string][]int)
	for i, p := range promotions {
		if p.Experiment != nil && p.Experiment.Group != "" {
			groups[p.Experiment.Group] = append(groups[p.Experiment.Group], i)
		}
	}
	if len(groups) == 0 {
		return promotions
	}

	winners := make(map[int]bool, len(groups))
	for group, idx := range groups {
		winners[pickWeighted(promotions, idx, seed, group)] = true
	}

	out := make([]PromotionView, 0, len(promotions))
	for i, p := range promotions {
		if p.Experiment == nil || p.Experiment.Group == "" || winners[i] {
			out = append(out, p)
		}
	}
	return out
}

func pickWeighted(promotions []PromotionView, idx []int, seed, group string) int {
	total := 0
	for _, i := range idx {
		total += max(promotions[i].Experiment.Weight, 1)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(group))
	roll := int(h.Sum32() % uint32(total))

	for _, i := range idx {
		roll -= max(promotions[i].Experiment.Weight, 1)
		if roll < 0 {
			return i
		}
	}
	return idx[len(idx)-1]
}
