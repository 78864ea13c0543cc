// Package effect aggregates the passive bonuses of equipped items and applies
// them to rewards and penalties.
package effect

import (
	"fmt"
	"math"

	"github.com/radurbae/onepercent/internal/model"
)

// Caps on aggregated boosts, in percent.
const (
	MaxXPBoost       = 20
	MaxCategoryBoost = 15
)

// Effects is the combined bonus of every equipped item.
type Effects struct {
	XPBoostPercent    int
	GoldBoostPercent  int
	CategoryBoosts    map[model.Category]int
	SkipPenaltyReduce int
	StreakBufferDays  int
}

// Aggregate sums the effects of the given items, capping the global XP boost
// and each category boost independently.
func Aggregate(items []model.Item) Effects {
	e := Effects{CategoryBoosts: make(map[model.Category]int)}

	for _, item := range items {
		if item.EffectType == nil || item.EffectValue == nil {
			continue
		}
		v := *item.EffectValue

		switch *item.EffectType {
		case model.EffectXPBoost:
			e.XPBoostPercent += v
		case model.EffectGoldBoost:
			e.GoldBoostPercent += v
		case model.EffectCategoryXPBoost:
			if item.EffectCategory != nil {
				e.CategoryBoosts[*item.EffectCategory] += v
			}
		case model.EffectSkipPenalty:
			e.SkipPenaltyReduce += v
		case model.EffectStreakBuffer:
			e.StreakBufferDays += v
		}
	}

	e.XPBoostPercent = min(e.XPBoostPercent, MaxXPBoost)
	for cat, v := range e.CategoryBoosts {
		e.CategoryBoosts[cat] = min(v, MaxCategoryBoost)
	}
	return e
}

// CategoryBoost returns the capped boost for a category, or 0.
func (e Effects) CategoryBoost(category model.Category) int {
	if e.CategoryBoosts == nil {
		return 0
	}
	return e.CategoryBoosts[category]
}

// ApplyXP scales baseXP by the global boost plus the matched category boost.
// The combined percentage is capped at MaxXPBoost. Pass an empty category
// when the reward has none.
func ApplyXP(baseXP int64, e Effects, category model.Category) int64 {
	total := e.XPBoostPercent
	if category != "" {
		total += e.CategoryBoost(category)
	}
	total = min(total, MaxXPBoost)
	return int64(math.Round(float64(baseXP) * (1 + float64(total)/100)))
}

// ApplyGold scales baseGold by the gold boost.
func ApplyGold(baseGold int64, e Effects) int64 {
	if e.GoldBoostPercent <= 0 {
		return baseGold
	}
	return int64(math.Round(float64(baseGold) * (1 + float64(e.GoldBoostPercent)/100)))
}

// ApplySkipPenalty reduces a penalty by the equipped reduction, clamped to [0, 100] percent.
func ApplySkipPenalty(basePenalty int64, e Effects) int64 {
	reduce := max(0, min(e.SkipPenaltyReduce, 100))
	return int64(math.Round(float64(basePenalty) * (1 - float64(reduce)/100)))
}

// Summary renders the non-zero effects as display lines.
func Summary(e Effects) []string {
	var lines []string
	if e.XPBoostPercent > 0 {
		lines = append(lines, fmt.Sprintf("+%d%% XP", e.XPBoostPercent))
	}
	if e.GoldBoostPercent > 0 {
		lines = append(lines, fmt.Sprintf("+%d%% Gold", e.GoldBoostPercent))
	}
	for _, cat := range model.Categories() {
		if v := e.CategoryBoost(cat); v > 0 {
			lines = append(lines, fmt.Sprintf("+%d%% %s XP", v, cat))
		}
	}
	if e.SkipPenaltyReduce > 0 {
		lines = append(lines, fmt.Sprintf("-%d%% skip penalty", e.SkipPenaltyReduce))
	}
	if e.StreakBufferDays > 0 {
		lines = append(lines, fmt.Sprintf("+%d streak buffer", e.StreakBufferDays))
	}
	return lines
}
