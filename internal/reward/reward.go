// Package reward computes XP and gold for completed quests and dungeon runs.
package reward

import "math"

// Table holds the reward constants. Values are XP or gold amounts.
type Table struct {
	BaseXP         int64 `mapstructure:"base_xp" validate:"gte=0"`
	BaseGold       int64 `mapstructure:"base_gold" validate:"gte=0"`
	StreakXPCap    int64 `mapstructure:"streak_xp_cap" validate:"gte=0"`
	DailyClearXP   int64 `mapstructure:"daily_clear_xp" validate:"gte=0"`
	DailyClearGold int64 `mapstructure:"daily_clear_gold" validate:"gte=0"`
	DungeonXP      int64 `mapstructure:"dungeon_xp" validate:"gte=0"`
	DungeonGold    int64 `mapstructure:"dungeon_gold" validate:"gte=0"`
}

// DefaultTable is used when no overrides are configured.
var DefaultTable = Table{
	BaseXP:         5,
	BaseGold:       2,
	StreakXPCap:    5,
	DailyClearXP:   10,
	DailyClearGold: 5,
	DungeonXP:      10,
	DungeonGold:    5,
}

// Dungeon durations offered to players, in minutes.
var DungeonDurations = []int{10, 15, 25}

// Input describes the context of a completion.
type Input struct {
	Streak       int
	DailyCleared bool
	DungeonRun   bool
}

// Rewards is the XP and gold granted for one completion.
type Rewards struct {
	XP   int64
	Gold int64
}

// Calculate computes rewards using DefaultTable.
func Calculate(in Input) Rewards {
	return DefaultTable.Calculate(in)
}

// Calculate computes rewards: base (or dungeon base) plus a capped streak
// bonus plus the daily-clear bonus when every scheduled quest is done.
func (t Table) Calculate(in Input) Rewards {
	var r Rewards
	if in.DungeonRun {
		r.XP = t.DungeonXP
		r.Gold = t.DungeonGold
	} else {
		r.XP = t.BaseXP
		r.Gold = t.BaseGold
	}

	r.XP += t.StreakBonus(in.Streak)

	if in.DailyCleared {
		r.XP += t.DailyClearXP
		r.Gold += t.DailyClearGold
	}
	return r
}

// StreakBonus returns one XP per streak day up to StreakXPCap.
func (t Table) StreakBonus(streak int) int64 {
	if streak <= 0 {
		return 0
	}
	return min(int64(streak), t.StreakXPCap)
}

// QuestPreviewXP is the XP shown on a quest before completion.
func (t Table) QuestPreviewXP(streak int) int64 {
	return t.BaseXP + t.StreakBonus(streak)
}

// DungeonMultiplier returns the XP multiplier for a focus session length.
func DungeonMultiplier(minutes int) float64 {
	switch {
	case minutes >= 25:
		return 2.5
	case minutes >= 15:
		return 2.0
	default:
		return 1.5
	}
}

// DungeonRewards computes rewards for a dungeon run of the given length.
// Only XP is scaled; gold is left as calculated.
func (t Table) DungeonRewards(minutes int, in Input) Rewards {
	in.DungeonRun = true
	r := t.Calculate(in)
	r.XP = int64(math.Round(float64(r.XP) * DungeonMultiplier(minutes)))
	return r
}
