package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/progression"
	"github.com/radurbae/onepercent/internal/repository"
	"github.com/radurbae/onepercent/internal/streak"
)

// StatsWindowDays bounds the checkin history used for streaks and comebacks.
const StatsWindowDays = 60

// StarterItem is the cosmetic every new player starts with.
var StarterItem = model.Item{
	Name:        "Default Dark",
	Type:        model.ItemTheme,
	Rarity:      model.RarityCommon,
	Description: "The starting look",
}

// AchievementStats are the inputs to achievement predicates.
type AchievementStats struct {
	TotalQuests    int
	FocusQuests    int
	LearningQuests int
	WellnessQuests int
	CurrentStreak  int
	ComebackCount  int
	Level          int
	Rank           model.Rank

	// Not tracked yet; always zero.
	MorningCount    int
	NightCount      int
	PerfectWeeks    int
	DaysWithoutSkip int
}

// AchievementDef is a named predicate over stats.
type AchievementDef struct {
	Key   string
	Name  string
	Check func(AchievementStats) bool
}

// Achievements is the fixed, ordered definition table.
var Achievements = []AchievementDef{
	{Key: "first_quest", Name: "First Quest", Check: func(s AchievementStats) bool { return s.TotalQuests >= 1 }},
	{Key: "streak_7", Name: "7-Day Streak", Check: func(s AchievementStats) bool { return s.CurrentStreak >= 7 }},
	{Key: "streak_14", Name: "14-Day Streak", Check: func(s AchievementStats) bool { return s.CurrentStreak >= 14 }},
	{Key: "streak_30", Name: "30-Day Streak", Check: func(s AchievementStats) bool { return s.CurrentStreak >= 30 }},
	{Key: "quests_30", Name: "30 Quests", Check: func(s AchievementStats) bool { return s.TotalQuests >= 30 }},
	{Key: "quests_50", Name: "50 Quests", Check: func(s AchievementStats) bool { return s.TotalQuests >= 50 }},
	{Key: "quests_100", Name: "100 Quests", Check: func(s AchievementStats) bool { return s.TotalQuests >= 100 }},
	{Key: "focus_15", Name: "Focus 15", Check: func(s AchievementStats) bool { return s.FocusQuests >= 15 }},
	{Key: "focus_20", Name: "Focus 20", Check: func(s AchievementStats) bool { return s.FocusQuests >= 20 }},
	{Key: "focus_30", Name: "Focus 30", Check: func(s AchievementStats) bool { return s.FocusQuests >= 30 }},
	{Key: "learning_20", Name: "Learning 20", Check: func(s AchievementStats) bool { return s.LearningQuests >= 20 }},
	{Key: "learning_30", Name: "Learning 30", Check: func(s AchievementStats) bool { return s.LearningQuests >= 30 }},
	{Key: "learning_50", Name: "Learning 50", Check: func(s AchievementStats) bool { return s.LearningQuests >= 50 }},
	{Key: "wellness_20", Name: "Wellness 20", Check: func(s AchievementStats) bool { return s.WellnessQuests >= 20 }},
	{Key: "comeback", Name: "Comeback", Check: func(s AchievementStats) bool { return s.ComebackCount >= 1 }},
	{Key: "level_5", Name: "Level 5", Check: func(s AchievementStats) bool { return s.Level >= 5 }},
	{Key: "rank_a", Name: "Rank A", Check: func(s AchievementStats) bool { return s.Rank.AtLeast(model.RankA) }},
	{Key: "morning_10", Name: "Morning 10", Check: func(s AchievementStats) bool { return s.MorningCount >= 10 }},
	{Key: "night_10", Name: "Night 10", Check: func(s AchievementStats) bool { return s.NightCount >= 10 }},
	{Key: "perfect_week", Name: "Perfect Week", Check: func(s AchievementStats) bool { return s.PerfectWeeks >= 1 }},
	{Key: "no_skip_30", Name: "No Skip 30", Check: func(s AchievementStats) bool { return s.DaysWithoutSkip >= 30 }},
}

// AchievementName returns the display name of a key, or the key itself.
func AchievementName(key string) string {
	for _, def := range Achievements {
		if def.Key == key {
			return def.Name
		}
	}
	return key
}

// Unlock is a newly unlocked achievement and the items it granted.
type Unlock struct {
	Key   string
	Name  string
	Items []model.Item
}

// AchievementService evaluates achievements and grants their rewards.
type AchievementService struct {
	profiles     ProfileStore
	habits       HabitStore
	quests       QuestStore
	inventory    InventoryStore
	achievements AchievementStore
	clock        *clock.Clock
}

// NewAchievementService creates a new AchievementService instance.
func NewAchievementService(
	profiles ProfileStore,
	habits HabitStore,
	quests QuestStore,
	inventory InventoryStore,
	achievements AchievementStore,
	clk *clock.Clock,
) *AchievementService {
	return &AchievementService{
		profiles:     profiles,
		habits:       habits,
		quests:       quests,
		inventory:    inventory,
		achievements: achievements,
		clock:        clk,
	}
}

// GetAchievementStats gathers the user's current stats.
func (s *AchievementService) GetAchievementStats(ctx context.Context, userID int64) (AchievementStats, error) {
	stats := AchievementStats{Level: 1, Rank: model.RankE}
	if userID <= 0 {
		return stats, nil
	}

	today := s.clock.Today()

	var (
		counts   map[model.Category]int
		checkins []model.Checkin
		profile  *model.PlayerProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.quests.CountCompletedByCategory(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		checkins, err = s.habits.ListCheckins(gctx, userID, model.CheckinQuery{
			Since: clock.AddDays(today, -StatsWindowDays),
		})
		return err
	})
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, userID)
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil
		}
		profile = p
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("failed to gather achievement stats: %w", err)
	}

	for category, n := range counts {
		stats.TotalQuests += n
		switch category {
		case model.CategoryProductivity, model.CategoryFitness:
			stats.FocusQuests += n
		case model.CategoryLearning:
			stats.LearningQuests += n
		case model.CategoryWellness:
			stats.WellnessQuests += n
		}
	}

	stats.CurrentStreak = streak.Current(checkins, today)
	stats.ComebackCount = streak.Comebacks(checkins)

	if profile != nil {
		stats.Level, stats.Rank = progression.Derive(profile.XP)
	}
	return stats, nil
}

// ListUnlocked returns the user's unlocked achievements.
func (s *AchievementService) ListUnlocked(ctx context.Context, userID int64) ([]model.Achievement, error) {
	if userID <= 0 {
		return nil, nil
	}
	list, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return list, nil
}

// CheckAchievements unlocks every newly satisfied achievement and grants its
// items. Unlocks are returned in definition order.
func (s *AchievementService) CheckAchievements(ctx context.Context, userID int64) ([]Unlock, error) {
	if userID <= 0 {
		return nil, nil
	}

	stats, err := s.GetAchievementStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	unlocked := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		unlocked[a.Key] = struct{}{}
	}

	var pending []AchievementDef
	for _, def := range Achievements {
		if _, ok := unlocked[def.Key]; ok {
			continue
		}
		if def.Check(stats) {
			pending = append(pending, def)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	rewards, err := s.inventory.ListUnlockableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlockable items: %w", err)
	}
	owned, err := s.ownedItemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var unlocks []Unlock
	for _, def := range pending {
		var grant []model.Item
		for _, it := range rewards[def.Key] {
			if _, ok := owned[it.ID]; !ok {
				grant = append(grant, it)
				owned[it.ID] = struct{}{}
			}
		}

		ok, err := s.achievements.UnlockAchievement(ctx, userID, def.Key, grant)
		if err != nil {
			return unlocks, fmt.Errorf("failed to unlock achievement: %w", err)
		}
		if !ok {
			continue
		}

		metrics.AchievementsUnlocked.WithLabelValues(def.Key).Inc()
		log.Info().Int64("user_id", userID).Str("key", def.Key).Int("items", len(grant)).Msg("Achievement unlocked")
		unlocks = append(unlocks, Unlock{Key: def.Key, Name: def.Name, Items: grant})
	}
	return unlocks, nil
}

func (s *AchievementService) ownedItemIDs(ctx context.Context, userID int64) (map[string]struct{}, error) {
	items, err := s.inventory.ListUserItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user items: %w", err)
	}
	owned := make(map[string]struct{}, len(items))
	for _, ui := range items {
		owned[ui.ItemID] = struct{}{}
	}
	return owned, nil
}

// GrantStarterItems gives the user the starter theme, equipped when the
// theme slot is free. Repeated calls never duplicate it.
func (s *AchievementService) GrantStarterItems(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return nil
	}

	item, err := s.inventory.EnsureItem(ctx, StarterItem)
	if err != nil {
		return fmt.Errorf("failed to resolve starter item: %w", err)
	}

	granted, err := s.inventory.GrantItem(ctx, userID, *item, true)
	if err != nil {
		return fmt.Errorf("failed to grant starter item: %w", err)
	}
	if granted {
		log.Debug().Int64("user_id", userID).Str("item", item.Name).Msg("Starter item granted")
	}
	return nil
}
