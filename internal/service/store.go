package service

import (
	"context"
	"time"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/repository"
)

// ProfileStore persists player profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, userID int64, username string) (*model.PlayerProfile, error)
	GetProfile(ctx context.Context, userID int64) (*model.PlayerProfile, error)
	UpdateProgress(ctx context.Context, userID int64, progress model.Progress) (*model.PlayerProfile, error)
	UpdateUsername(ctx context.Context, userID int64, username string) error
}

// LedgerStore persists the append-only reward ledger. ApplyCredit writes a
// profile's new progress together with the entry that explains it.
type LedgerStore interface {
	ApplyCredit(ctx context.Context, userID int64, progress model.Progress, entry model.LedgerEntry) (*model.PlayerProfile, error)
	ListLedger(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error)
}

// HabitStore persists habits, checkins and daily tallies.
type HabitStore interface {
	CreateHabit(ctx context.Context, habit model.Habit) (*model.Habit, error)
	GetHabit(ctx context.Context, userID int64, habitID string) (*model.Habit, error)
	ListHabits(ctx context.Context, userID int64) ([]model.Habit, error)
	UpsertCheckin(ctx context.Context, checkin model.Checkin) error
	GetCheckin(ctx context.Context, userID int64, habitID string, date time.Time) (*model.Checkin, error)
	ListCheckins(ctx context.Context, userID int64, q model.CheckinQuery) ([]model.Checkin, error)
	UpsertDailySummary(ctx context.Context, summary model.DailySummary) error
	ListDailySummaries(ctx context.Context, userID int64, since time.Time) ([]model.DailySummary, error)
}

// InventoryStore persists the item catalog and owned items.
type InventoryStore interface {
	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	GetItemByName(ctx context.Context, itemType model.ItemType, name string) (*model.Item, error)
	ListUnlockableItems(ctx context.Context) (map[string][]model.Item, error)
	EnsureItem(ctx context.Context, item model.Item) (*model.Item, error)
	ListUserItems(ctx context.Context, userID int64) ([]model.UserItem, error)
	ListEquippedItems(ctx context.Context, userID int64) ([]model.Item, error)
	HasItem(ctx context.Context, userID int64, itemID string) (bool, error)
	GrantItem(ctx context.Context, userID int64, item model.Item, equipIfFree bool) (bool, error)
	EquipItem(ctx context.Context, userID int64, item model.Item) (bool, error)
	UnequipItem(ctx context.Context, userID int64, item model.Item) error
}

// AchievementStore persists unlocked achievements.
type AchievementStore interface {
	ListAchievements(ctx context.Context, userID int64) ([]model.Achievement, error)
	UnlockAchievement(ctx context.Context, userID int64, key string, items []model.Item) (bool, error)
}

// QuestStore persists the quest pool, daily assignments and refresh tracking.
type QuestStore interface {
	ListActiveQuestPool(ctx context.Context) ([]model.QuestPoolItem, error)
	ListDailyQuests(ctx context.Context, userID int64, date time.Time) ([]model.DailyQuest, error)
	ListDailyQuestsSince(ctx context.Context, userID int64, since, until time.Time) ([]model.DailyQuest, error)
	GetDailyQuest(ctx context.Context, userID int64, questID string) (*model.DailyQuest, error)
	InsertDailyQuests(ctx context.Context, quests []model.DailyQuest) error
	DeleteDailyQuests(ctx context.Context, userID int64, date time.Time) error
	MarkDailyQuestCompleted(ctx context.Context, userID int64, questID string, at time.Time) (bool, error)
	CountCompletedByCategory(ctx context.Context, userID int64) (map[model.Category]int, error)
	IsRefreshed(ctx context.Context, userID int64, date time.Time) (bool, error)
	MarkRefreshed(ctx context.Context, userID int64, date, at time.Time) error
}

var (
	_ ProfileStore     = (*repository.ProfileRepository)(nil)
	_ LedgerStore      = (*repository.LedgerRepository)(nil)
	_ HabitStore       = (*repository.HabitRepository)(nil)
	_ InventoryStore   = (*repository.InventoryRepository)(nil)
	_ AchievementStore = (*repository.AchievementRepository)(nil)
	_ QuestStore       = (*repository.QuestRepository)(nil)
)
