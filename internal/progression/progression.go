// Package progression derives level and rank from cumulative XP.
// All functions are pure and total over their inputs.
package progression

import (
	"math"

	"github.com/radurbae/onepercent/internal/model"
)

// Level cost constants: advancing from level L to L+1 costs BaseLevelXP + LevelXPStep*L.
const (
	BaseLevelXP = 50
	LevelXPStep = 25
)

// RankThreshold maps a minimum level to a rank.
type RankThreshold struct {
	MinLevel int
	Rank     model.Rank
}

// DefaultRankTable is ordered by ascending MinLevel.
var DefaultRankTable = []RankThreshold{
	{MinLevel: 1, Rank: model.RankE},
	{MinLevel: 5, Rank: model.RankD},
	{MinLevel: 10, Rank: model.RankC},
	{MinLevel: 15, Rank: model.RankB},
	{MinLevel: 20, Rank: model.RankA},
	{MinLevel: 30, Rank: model.RankS},
	{MinLevel: 40, Rank: model.RankSS},
}

// RankInfo holds display attributes for a rank.
type RankInfo struct {
	Rank  model.Rank
	Color string
	Glow  string
}

var rankInfo = map[model.Rank]RankInfo{
	model.RankE:  {Rank: model.RankE, Color: "#9ca3af", Glow: "none"},
	model.RankD:  {Rank: model.RankD, Color: "#22c55e", Glow: "0 0 8px rgba(34,197,94,0.5)"},
	model.RankC:  {Rank: model.RankC, Color: "#3b82f6", Glow: "0 0 8px rgba(59,130,246,0.5)"},
	model.RankB:  {Rank: model.RankB, Color: "#a855f7", Glow: "0 0 10px rgba(168,85,247,0.6)"},
	model.RankA:  {Rank: model.RankA, Color: "#f59e0b", Glow: "0 0 12px rgba(245,158,11,0.6)"},
	model.RankS:  {Rank: model.RankS, Color: "#ef4444", Glow: "0 0 14px rgba(239,68,68,0.7)"},
	model.RankSS: {Rank: model.RankSS, Color: "#facc15", Glow: "0 0 18px rgba(250,204,21,0.8)"},
}

// GetRankInfo returns display attributes for a rank, falling back to E.
func GetRankInfo(rank model.Rank) RankInfo {
	if info, ok := rankInfo[rank]; ok {
		return info
	}
	return rankInfo[model.RankE]
}

// XPRequiredForLevel returns the XP needed to advance from level to level+1.
func XPRequiredForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return BaseLevelXP + LevelXPStep*int64(level)
}

// CumulativeXPForLevel returns the total XP needed to reach level from zero.
func CumulativeXPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	// Sum of (50 + 25*l) for l in 1..level-1.
	n := int64(level - 1)
	return BaseLevelXP*n + LevelXPStep*n*(n+1)/2
}

// LevelFromXP returns the largest level whose cumulative requirement is covered by xp.
// Negative xp is treated as zero.
func LevelFromXP(xp int64) int {
	level := 1
	remaining := xp
	for remaining >= XPRequiredForLevel(level) {
		remaining -= XPRequiredForLevel(level)
		level++
	}
	return level
}

// RankFromLevel maps a level onto DefaultRankTable.
func RankFromLevel(level int) model.Rank {
	return RankFromLevelWith(DefaultRankTable, level)
}

// RankFromLevelWith maps a level onto a custom threshold table.
// The table must be ordered by ascending MinLevel.
func RankFromLevelWith(table []RankThreshold, level int) model.Rank {
	rank := model.RankE
	for _, t := range table {
		if level >= t.MinLevel {
			rank = t.Rank
		}
	}
	return rank
}

// XPProgressPercent returns how far xp has progressed through the given
// level, clamped to [0, 100]. Non-finite inputs yield 0.
func XPProgressPercent(xp float64, level int) float64 {
	if math.IsNaN(xp) || math.IsInf(xp, 0) || xp < 0 {
		return 0
	}
	if level < 1 {
		level = 1
	}
	into := xp - float64(CumulativeXPForLevel(level))
	pct := into / float64(XPRequiredForLevel(level)) * 100
	return math.Max(0, math.Min(100, pct))
}

// Derive returns level and rank for a cumulative XP total.
func Derive(xp int64) (int, model.Rank) {
	level := LevelFromXP(xp)
	return level, RankFromLevel(level)
}
