package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/radurbae/onepercent/internal/effect"
	"github.com/radurbae/onepercent/internal/loot"
	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/repository"
	"github.com/radurbae/onepercent/internal/reward"
	"github.com/radurbae/onepercent/internal/streak"
)

// MaxDungeonMinutes bounds a single focus session.
const MaxDungeonMinutes = 180

// Windows for completion stats, in days.
const (
	CompletionWindowDays = 30
	TrendWindowDays      = 7
)

// HabitInput describes a habit to create.
type HabitInput struct {
	Title        string          `validate:"required,max=120"`
	TinyStep     string          `validate:"max=200"`
	ScheduleDays []time.Weekday  `validate:"max=7,dive,gte=0,lte=6"`
	QuestType    model.QuestType `validate:"omitempty,oneof=main side"`
	Difficulty   *int            `validate:"omitempty,gte=1,lte=5"`
}

// HabitStatus is a habit scheduled today with its progress.
type HabitStatus struct {
	Habit     model.Habit
	Checkin   *model.Checkin
	Streak    int
	PreviewXP int64
}

// Done reports whether the habit was completed today.
func (h HabitStatus) Done() bool {
	return h.Checkin != nil && h.Checkin.Status == model.CheckinDone
}

// HabitCompletion is the outcome of completing a habit or a dungeon run.
type HabitCompletion struct {
	Habit        model.Habit
	Rewards      reward.Rewards
	Streak       int
	DailyCleared bool
	Credit       *CreditResult
	Loot         *model.Item
	Unlocks      []Unlock
}

// CompletionStats is the share of scheduled habits completed recently.
// Rates are percentages; a window with nothing scheduled has rate 0.
type CompletionStats struct {
	Completed    int
	Scheduled    int
	Rate         float64
	ThisWeekRate float64
	LastWeekRate float64
}

// Trend is the change in completion rate from last week to this week.
func (c CompletionStats) Trend() float64 {
	return c.ThisWeekRate - c.LastWeekRate
}

// SummarizeCompletion rolls daily summaries up into completion stats for the
// window ending today. This week is the last TrendWindowDays days and last
// week the TrendWindowDays before that.
func SummarizeCompletion(summaries []model.DailySummary, today time.Time) CompletionStats {
	since := clock.AddDays(today, -CompletionWindowDays)
	weekStart := clock.AddDays(today, -TrendWindowDays)
	lastWeekStart := clock.AddDays(today, -2*TrendWindowDays)

	var stats CompletionStats
	var thisDone, thisSched, lastDone, lastSched int
	for _, d := range summaries {
		if d.Date.Before(since) || d.Date.After(today) {
			continue
		}
		stats.Completed += d.CompletedCount
		stats.Scheduled += d.ScheduledCount
		switch {
		case !d.Date.Before(weekStart):
			thisDone += d.CompletedCount
			thisSched += d.ScheduledCount
		case !d.Date.Before(lastWeekStart):
			lastDone += d.CompletedCount
			lastSched += d.ScheduledCount
		}
	}
	stats.Rate = percent(stats.Completed, stats.Scheduled)
	stats.ThisWeekRate = percent(thisDone, thisSched)
	stats.LastWeekRate = percent(lastDone, lastSched)
	return stats
}

func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

// HabitService handles habits, checkins and their rewards.
type HabitService struct {
	habits       HabitStore
	inventory    InventoryStore
	profiles     *ProfileService
	effects      *EffectService
	achievements *AchievementService
	roller       *loot.Roller
	table        reward.Table
	clock        *clock.Clock
	locks        *lock.UserLock
	validate     *validator.Validate
}

// NewHabitService creates a new HabitService instance.
func NewHabitService(
	habits HabitStore,
	inventory InventoryStore,
	profiles *ProfileService,
	effects *EffectService,
	achievements *AchievementService,
	roller *loot.Roller,
	table reward.Table,
	clk *clock.Clock,
	locks *lock.UserLock,
) *HabitService {
	if roller == nil {
		roller = loot.NewRoller(nil, nil, nil)
	}
	return &HabitService{
		habits:       habits,
		inventory:    inventory,
		profiles:     profiles,
		effects:      effects,
		achievements: achievements,
		roller:       roller,
		table:        table,
		clock:        clk,
		locks:        locks,
		validate:     validator.New(),
	}
}

// CreateHabit validates and stores a new habit.
func (s *HabitService) CreateHabit(ctx context.Context, userID int64, in HabitInput) (*model.Habit, error) {
	if userID <= 0 {
		return nil, nil
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHabit, err)
	}
	if in.QuestType == "" {
		in.QuestType = model.QuestTypeMain
	}

	habit, err := s.habits.CreateHabit(ctx, model.Habit{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        in.Title,
		TinyStep:     in.TinyStep,
		ScheduleDays: in.ScheduleDays,
		QuestType:    in.QuestType,
		Difficulty:   in.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	log.Debug().Int64("user_id", userID).Str("habit_id", habit.ID).Msg("Habit created")
	return habit, nil
}

// TodayHabits returns the habits scheduled today with today's checkin and streak.
func (s *HabitService) TodayHabits(ctx context.Context, userID int64) ([]HabitStatus, error) {
	if userID <= 0 {
		return nil, nil
	}

	today := s.clock.Today()
	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	checkins, err := s.habits.ListCheckins(ctx, userID, model.CheckinQuery{Since: clock.AddDays(today, -StatsWindowDays)})
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}

	byHabit := make(map[string][]model.Checkin)
	for _, c := range checkins {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c)
	}

	var out []HabitStatus
	for _, h := range habits {
		if !h.ActiveOn(today) {
			continue
		}
		st := HabitStatus{Habit: h, Streak: streak.Current(byHabit[h.ID], today)}
		for _, c := range byHabit[h.ID] {
			if c.Date.Equal(today) {
				st.Checkin = &c
				break
			}
		}
		st.PreviewXP = s.table.QuestPreviewXP(st.Streak)
		out = append(out, st)
	}
	return out, nil
}

// CompleteHabit marks the habit done today, rewrites today's summary and
// credits its rewards. The streak bonus counts days before today. Returns nil if the habit does not
// exist and ErrAlreadyCheckedIn if it was already done today.
func (s *HabitService) CompleteHabit(ctx context.Context, userID int64, habitID string) (*HabitCompletion, error) {
	if userID <= 0 {
		return nil, nil
	}

	habit, err := s.getHabit(ctx, userID, habitID)
	if err != nil || habit == nil {
		return nil, err
	}
	effects, err := s.effects.GetEquippedEffects(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	history, err := s.habits.ListCheckins(ctx, userID, model.CheckinQuery{
		HabitID: habitID,
		Since:   clock.AddDays(today, -StatsWindowDays),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	currentStreak := streak.Current(history, today)

	if err := s.checkIn(ctx, userID, habitID, model.CheckinDone); err != nil {
		return nil, err
	}
	summary, err := s.recordDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	base := s.table.Calculate(reward.Input{Streak: currentStreak, DailyCleared: summary.Cleared})
	completion, err := s.credit(ctx, userID, *habit, base, effects, model.ReasonQuestComplete)
	if err != nil {
		return nil, err
	}
	completion.Streak = currentStreak
	completion.DailyCleared = summary.Cleared
	metrics.Completions.WithLabelValues(metrics.KindHabit).Inc()

	drop, err := s.rollLoot(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to roll loot")
	}
	completion.Loot = drop

	if s.achievements != nil {
		unlocks, err := s.achievements.CheckAchievements(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to check achievements")
		}
		completion.Unlocks = unlocks
	}
	return completion, nil
}

// CompletionStats returns the user's completion rate over the last
// CompletionWindowDays days and the weekly trend.
func (s *HabitService) CompletionStats(ctx context.Context, userID int64) (*CompletionStats, error) {
	if userID <= 0 {
		return &CompletionStats{}, nil
	}
	today := s.clock.Today()
	summaries, err := s.habits.ListDailySummaries(ctx, userID, clock.AddDays(today, -CompletionWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	stats := SummarizeCompletion(summaries, today)
	return &stats, nil
}

// SkipHabit records a skip for today. Returns false if the habit does not
// exist and ErrAlreadyCheckedIn if it was already done today.
func (s *HabitService) SkipHabit(ctx context.Context, userID int64, habitID string) (bool, error) {
	if userID <= 0 {
		return false, nil
	}

	habit, err := s.getHabit(ctx, userID, habitID)
	if err != nil || habit == nil {
		return false, err
	}
	if err := s.checkIn(ctx, userID, habitID, model.CheckinSkipped); err != nil {
		return false, err
	}

	log.Debug().Int64("user_id", userID).Str("habit_id", habitID).Msg("Habit skipped")
	return true, nil
}

// FinishDungeon credits a focus session on the habit and marks it done.
// Session length scales XP only.
func (s *HabitService) FinishDungeon(ctx context.Context, userID int64, habitID string, minutes int) (*HabitCompletion, error) {
	if userID <= 0 {
		return nil, nil
	}
	if minutes <= 0 || minutes > MaxDungeonMinutes {
		return nil, ErrInvalidDuration
	}

	habit, err := s.getHabit(ctx, userID, habitID)
	if err != nil || habit == nil {
		return nil, err
	}
	effects, err := s.effects.GetEquippedEffects(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkIn(ctx, userID, habitID, model.CheckinDone); err != nil {
		return nil, err
	}
	if _, err := s.recordDay(ctx, userID, s.clock.Today()); err != nil {
		return nil, err
	}

	base := s.table.DungeonRewards(minutes, reward.Input{})
	completion, err := s.credit(ctx, userID, *habit, base, effects, model.ReasonDungeonClear)
	if err != nil {
		return nil, err
	}
	metrics.Completions.WithLabelValues(metrics.KindDungeon).Inc()

	log.Debug().Int64("user_id", userID).Str("habit_id", habitID).Int("minutes", minutes).Msg("Dungeon cleared")
	return completion, nil
}

func (s *HabitService) getHabit(ctx context.Context, userID int64, habitID string) (*model.Habit, error) {
	habit, err := s.habits.GetHabit(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, repository.ErrHabitNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return habit, nil
}

// checkIn records today's status unless the habit is already done today.
func (s *HabitService) checkIn(ctx context.Context, userID int64, habitID string, status model.CheckinStatus) error {
	today := s.clock.Today()
	return s.locks.WithLock(ctx, userID, func() error {
		existing, err := s.habits.GetCheckin(ctx, userID, habitID, today)
		switch {
		case err == nil && existing.Status == model.CheckinDone:
			return ErrAlreadyCheckedIn
		case err != nil && !errors.Is(err, repository.ErrCheckinNotFound):
			return fmt.Errorf("failed to get checkin: %w", err)
		}

		err = s.habits.UpsertCheckin(ctx, model.Checkin{UserID: userID, HabitID: habitID, Date: today, Status: status})
		if err != nil {
			return fmt.Errorf("failed to record checkin: %w", err)
		}
		return nil
	})
}

// tallyDay counts the habits scheduled on day and how many of them are done.
// The day is cleared when at least one habit is scheduled and all are done.
func (s *HabitService) tallyDay(ctx context.Context, userID int64, day time.Time) (model.DailySummary, error) {
	summary := model.DailySummary{UserID: userID, Date: day}

	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return summary, fmt.Errorf("failed to list habits: %w", err)
	}
	checkins, err := s.habits.ListCheckins(ctx, userID, model.CheckinQuery{Since: day})
	if err != nil {
		return summary, fmt.Errorf("failed to list checkins: %w", err)
	}

	done := make(map[string]bool)
	for _, c := range checkins {
		if c.Date.Equal(day) && c.Status == model.CheckinDone {
			done[c.HabitID] = true
		}
	}

	for _, h := range habits {
		if !h.ActiveOn(day) {
			continue
		}
		summary.ScheduledCount++
		if done[h.ID] {
			summary.CompletedCount++
		}
	}
	summary.Cleared = summary.ScheduledCount > 0 && summary.CompletedCount == summary.ScheduledCount
	return summary, nil
}

// recordDay rewrites the day's tally after a completion.
func (s *HabitService) recordDay(ctx context.Context, userID int64, day time.Time) (model.DailySummary, error) {
	summary, err := s.tallyDay(ctx, userID, day)
	if err != nil {
		return summary, err
	}
	if err := s.habits.UpsertDailySummary(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to record daily summary: %w", err)
	}
	return summary, nil
}

// credit applies equipped effects to base rewards and credits the profile.
func (s *HabitService) credit(ctx context.Context, userID int64, habit model.Habit, base reward.Rewards, effects effect.Effects, reason string) (*HabitCompletion, error) {
	rewards := reward.Rewards{
		XP:   effect.ApplyXP(base.XP, effects, ""),
		Gold: effect.ApplyGold(base.Gold, effects),
	}

	credit, err := s.profiles.Credit(ctx, userID, rewards.XP, rewards.Gold, reason, HabitRef(habit.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to credit habit rewards: %w", err)
	}
	return &HabitCompletion{Habit: habit, Rewards: rewards, Credit: credit}, nil
}

// rollLoot draws against the user's owned cosmetics and grants any drop.
func (s *HabitService) rollLoot(ctx context.Context, userID int64) (*model.Item, error) {
	owned, err := s.inventory.ListUserItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user items: %w", err)
	}
	keys := make(loot.Owned, len(owned))
	for _, ui := range owned {
		keys[loot.Key(ui.Item.Type, ui.Item.Name)] = struct{}{}
	}

	drop := s.roller.Roll(keys)
	if drop == nil {
		return nil, nil
	}

	item, err := s.inventory.EnsureItem(ctx, model.Item{
		Name:        drop.Name,
		Type:        drop.Type,
		Rarity:      drop.Rarity,
		Description: drop.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve loot item: %w", err)
	}
	granted, err := s.inventory.GrantItem(ctx, userID, *item, false)
	if err != nil {
		return nil, fmt.Errorf("failed to grant loot: %w", err)
	}
	if !granted {
		return nil, nil
	}

	metrics.LootDrops.WithLabelValues(string(item.Rarity)).Inc()
	log.Info().Int64("user_id", userID).Str("item", item.Name).Str("rarity", string(item.Rarity)).Msg("Loot dropped")
	return item, nil
}
