// Package model defines the data models for the habit RPG bot.
package model

import "time"

// Rank is the letter grade derived from a player's level.
type Rank string

// Ranks from lowest to highest.
const (
	RankE  Rank = "E"
	RankD  Rank = "D"
	RankC  Rank = "C"
	RankB  Rank = "B"
	RankA  Rank = "A"
	RankS  Rank = "S"
	RankSS Rank = "SS"
)

// Ranks returns all ranks ordered from lowest to highest.
func Ranks() []Rank {
	return []Rank{RankE, RankD, RankC, RankB, RankA, RankS, RankSS}
}

// Ordinal returns the position of the rank in Ranks, or -1 if unknown.
func (r Rank) Ordinal() int {
	for i, rank := range Ranks() {
		if rank == r {
			return i
		}
	}
	return -1
}

// AtLeast reports whether r is the same as or above other.
func (r Rank) AtLeast(other Rank) bool {
	return r.Ordinal() >= other.Ordinal() && r.Ordinal() >= 0
}

// PlayerProfile is the per-user progression record.
// Level and Rank are a cache of values derived from XP.
type PlayerProfile struct {
	UserID        int64     `db:"user_id"`
	Username      string    `db:"username"`
	XP            int64     `db:"xp"`
	Gold          int64     `db:"gold"`
	Level         int       `db:"level"`
	Rank          Rank      `db:"rank"`
	EquippedTitle *string   `db:"equipped_title"`
	EquippedBadge *string   `db:"equipped_badge"`
	EquippedTheme *string   `db:"equipped_theme"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// QuestType distinguishes primary habits from secondary ones.
type QuestType string

const (
	QuestTypeMain QuestType = "main"
	QuestTypeSide QuestType = "side"
)

// Habit is a user-defined recurring quest.
type Habit struct {
	ID           string         `db:"id"`
	UserID       int64          `db:"user_id"`
	Title        string         `db:"title"`
	TinyStep     string         `db:"tiny_step"`
	ScheduleDays []time.Weekday `db:"schedule_days"`
	QuestType    QuestType      `db:"quest_type"`
	Difficulty   *int           `db:"difficulty"`
	CreatedAt    time.Time      `db:"created_at"`
}

// ActiveOn reports whether the habit is scheduled on the given date.
// An empty schedule means every day.
func (h *Habit) ActiveOn(date time.Time) bool {
	if len(h.ScheduleDays) == 0 {
		return true
	}
	wd := date.Weekday()
	for _, d := range h.ScheduleDays {
		if d == wd {
			return true
		}
	}
	return false
}

// CheckinStatus is the outcome recorded for a habit on a date.
type CheckinStatus string

const (
	CheckinDone    CheckinStatus = "done"
	CheckinSkipped CheckinStatus = "skipped"
)

// Checkin records the status of one habit on one date.
type Checkin struct {
	UserID    int64         `db:"user_id"`
	HabitID   string        `db:"habit_id"`
	Date      time.Time     `db:"date"`
	Status    CheckinStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

// DailySummary is the per-day habit tally, rewritten on every completion.
type DailySummary struct {
	UserID         int64     `db:"user_id"`
	Date           time.Time `db:"date"`
	CompletedCount int       `db:"completed_count"`
	ScheduledCount int       `db:"scheduled_count"`
	Cleared        bool      `db:"cleared"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Ledger reasons.
const (
	ReasonQuestComplete       = "quest_complete"
	ReasonDungeonClear        = "dungeon_clear"
	ReasonMissedQuestsPenalty = "missed_quests_penalty"
	ReasonRandomQuest         = "random_quest"
)

// LedgerEntry is an append-only record of an XP/gold change.
type LedgerEntry struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	HabitID   *string   `db:"habit_id"`
	QuestID   *string   `db:"quest_id"`
	Date      time.Time `db:"date"`
	XPDelta   int64     `db:"xp_delta"`
	GoldDelta int64     `db:"gold_delta"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// ItemType is the cosmetic slot an item occupies.
type ItemType string

const (
	ItemTitle ItemType = "title"
	ItemBadge ItemType = "badge"
	ItemTheme ItemType = "theme"
	ItemFrame ItemType = "frame"
)

// Rarity grades items from most common to rarest.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// EffectType identifies the passive bonus an item grants while equipped.
type EffectType string

const (
	EffectXPBoost         EffectType = "xp_boost"
	EffectGoldBoost       EffectType = "gold_boost"
	EffectCategoryXPBoost EffectType = "category_xp_boost"
	EffectSkipPenalty     EffectType = "skip_penalty_reduce"
	EffectStreakBuffer    EffectType = "streak_buffer"
)

// Item is a catalog entry. Catalog rows are unique by (Type, Name).
type Item struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Type           ItemType    `db:"type"`
	Rarity         Rarity      `db:"rarity"`
	Description    string      `db:"description"`
	EffectType     *EffectType `db:"effect_type"`
	EffectValue    *int        `db:"effect_value"`
	EffectCategory *Category   `db:"effect_category"`
	UnlockKey      *string     `db:"unlock_key"`
}

// UserItem is an owned item joined with its catalog entry.
type UserItem struct {
	UserID     int64     `db:"user_id"`
	ItemID     string    `db:"item_id"`
	Equipped   bool      `db:"equipped"`
	AcquiredAt time.Time `db:"acquired_at"`
	Item       Item
}

// Achievement is an unlocked achievement key.
type Achievement struct {
	UserID     int64     `db:"user_id"`
	Key        string    `db:"key"`
	UnlockedAt time.Time `db:"unlocked_at"`
}

// Category is the life area a pool quest trains.
type Category string

const (
	CategoryWellness     Category = "wellness"
	CategoryProductivity Category = "productivity"
	CategorySocial       Category = "social"
	CategoryLearning     Category = "learning"
	CategoryFitness      Category = "fitness"
	CategoryCreativity   Category = "creativity"
)

// Categories returns all quest categories.
func Categories() []Category {
	return []Category{
		CategoryWellness, CategoryProductivity, CategorySocial,
		CategoryLearning, CategoryFitness, CategoryCreativity,
	}
}

// QuestPoolItem is a template from which daily quests are drawn.
type QuestPoolItem struct {
	ID          string   `db:"id"`
	Title       string   `db:"title"`
	Description string   `db:"description"`
	Category    Category `db:"category"`
	XPReward    int64    `db:"xp_reward"`
	GoldReward  int64    `db:"gold_reward"`
	Active      bool     `db:"is_active"`
}

// DailyQuest is a pool quest assigned to a user for a date,
// joined with its pool item when read.
type DailyQuest struct {
	ID          string     `db:"id"`
	UserID      int64      `db:"user_id"`
	Date        time.Time  `db:"date"`
	QuestPoolID string     `db:"quest_pool_id"`
	Completed   bool       `db:"completed"`
	CompletedAt *time.Time `db:"completed_at"`
	Quest       QuestPoolItem
}

// QuestRefreshTracker records whether a user rerolled quests on a date.
type QuestRefreshTracker struct {
	UserID      int64      `db:"user_id"`
	Date        time.Time  `db:"date"`
	Refreshed   bool       `db:"refreshed"`
	RefreshedAt *time.Time `db:"refreshed_at"`
}

// Progress is the set of profile fields rewritten after a credit or debit.
type Progress struct {
	XP    int64
	Gold  int64
	Level int
	Rank  Rank
}

// CheckinQuery filters checkin reads. Zero values disable a filter.
type CheckinQuery struct {
	HabitID string
	Since   time.Time
	Limit   int
}
