package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/repository"
)

func (e *testEnv) newHabit(t *testing.T, userID int64, in HabitInput) *model.Habit {
	t.Helper()
	h, err := e.habits.CreateHabit(context.Background(), userID, in)
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

func TestHabitService_CreateHabit(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)

	h := env.newHabit(t, testUser, HabitInput{Title: "Read", TinyStep: "One page"})
	assert.Equal(t, "Read", h.Title)
	assert.Equal(t, model.QuestTypeMain, h.QuestType)
	assert.NotEmpty(t, h.ID)

	h, err := env.habits.CreateHabit(context.Background(), 0, HabitInput{Title: "Read"})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestHabitService_CreateHabitValidation(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	six := 6
	tests := []struct {
		name string
		in   HabitInput
	}{
		{"missing title", HabitInput{}},
		{"bad quest type", HabitInput{Title: "Run", QuestType: "weekly"}},
		{"bad difficulty", HabitInput{Title: "Run", Difficulty: &six}},
		{"bad weekday", HabitInput{Title: "Run", ScheduleDays: []time.Weekday{7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.habits.CreateHabit(ctx, testUser, tt.in)
			assert.ErrorIs(t, err, ErrInvalidHabit)
		})
	}
}

func TestHabitService_TodayHabitsFiltersSchedule(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	require.Equal(t, time.Monday, env.today().Weekday())

	daily := env.newHabit(t, testUser, HabitInput{Title: "Stretch"})
	env.newHabit(t, testUser, HabitInput{Title: "Swim", ScheduleDays: []time.Weekday{time.Tuesday}})
	monday := env.newHabit(t, testUser, HabitInput{Title: "Plan", ScheduleDays: []time.Weekday{time.Monday, time.Friday}})

	env.addCheckin(t, testUser, daily.ID, -2, model.CheckinDone)
	env.addCheckin(t, testUser, daily.ID, -1, model.CheckinDone)

	statuses, err := env.habits.TodayHabits(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, daily.ID, statuses[0].Habit.ID)
	assert.Equal(t, 2, statuses[0].Streak)
	assert.Equal(t, int64(7), statuses[0].PreviewXP)
	assert.False(t, statuses[0].Done())

	assert.Equal(t, monday.ID, statuses[1].Habit.ID)
	assert.Zero(t, statuses[1].Streak)

	_, err = env.habits.CompleteHabit(ctx, testUser, monday.ID)
	require.NoError(t, err)

	statuses, err = env.habits.TodayHabits(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, statuses[1].Done())
}

func TestHabitService_CompleteHabitRewards(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Meditate"})

	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.DailyCleared)
	assert.Zero(t, res.Streak)
	assert.Equal(t, int64(15), res.Rewards.XP)
	assert.Equal(t, int64(7), res.Rewards.Gold)
	assert.Equal(t, int64(15), res.Credit.Profile.XP)
	assert.Nil(t, res.Loot)

	ledger := env.store.ledgerFor(testUser)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.ReasonQuestComplete, ledger[0].Reason)
	require.NotNil(t, ledger[0].HabitID)
	assert.Equal(t, h.ID, *ledger[0].HabitID)
}

func TestHabitService_CompleteHabitStreakBonus(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Walk"})
	for day := -3; day < 0; day++ {
		env.addCheckin(t, testUser, h.ID, day, model.CheckinDone)
	}

	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Streak)
	assert.Equal(t, int64(18), res.Rewards.XP)
}

func TestHabitService_NoDailyClearWhileOthersPending(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	first := env.newHabit(t, testUser, HabitInput{Title: "Journal"})
	second := env.newHabit(t, testUser, HabitInput{Title: "Floss"})

	res, err := env.habits.CompleteHabit(ctx, testUser, first.ID)
	require.NoError(t, err)
	assert.False(t, res.DailyCleared)
	assert.Equal(t, int64(5), res.Rewards.XP)
	assert.Equal(t, int64(2), res.Rewards.Gold)

	res, err = env.habits.CompleteHabit(ctx, testUser, second.ID)
	require.NoError(t, err)
	assert.True(t, res.DailyCleared)
}

func TestHabitService_CompleteHabitTwice(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Water"})

	_, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)

	_, err = env.habits.CompleteHabit(ctx, testUser, h.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	_, err = env.habits.SkipHabit(ctx, testUser, h.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	_, err = env.habits.FinishDungeon(ctx, testUser, h.ID, 10)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	assert.Len(t, env.store.ledgerFor(testUser), 1)
}

func TestHabitService_SkipThenComplete(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Sketch"})

	ok, err := env.habits.SkipHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := env.store.GetCheckin(ctx, testUser, h.ID, env.today())
	require.NoError(t, err)
	assert.Equal(t, model.CheckinSkipped, c.Status)

	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	c, err = env.store.GetCheckin(ctx, testUser, h.ID, env.today())
	require.NoError(t, err)
	assert.Equal(t, model.CheckinDone, c.Status)
}

func TestHabitService_MissingHabit(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	res, err := env.habits.CompleteHabit(ctx, testUser, "missing")
	require.NoError(t, err)
	assert.Nil(t, res)

	ok, err := env.habits.SkipHabit(ctx, testUser, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	res, err = env.habits.FinishDungeon(ctx, testUser, "missing", 15)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestHabitService_LootDrop(t *testing.T) {
	env := newTestEnv(t, fixedSource{f: 0})
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Code"})

	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Loot)
	assert.Equal(t, model.RarityLegendary, res.Loot.Rarity)
	assert.Equal(t, "The One Percent", res.Loot.Name)

	owned, err := env.store.HasItem(ctx, testUser, res.Loot.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	items, err := env.effects.Inventory(ctx, testUser)
	require.NoError(t, err)
	for _, ui := range items {
		if ui.ItemID == res.Loot.ID {
			assert.False(t, ui.Equipped)
		}
	}

	// The same draw now lands on the next unowned legendary.
	env.advance(1)
	res, err = env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Loot)
	assert.Equal(t, "Crown Sigil", res.Loot.Name)
}

func TestHabitService_FinishDungeon(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Deep work"})

	res, err := env.habits.FinishDungeon(ctx, testUser, h.ID, 25)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(25), res.Rewards.XP)
	assert.Equal(t, int64(5), res.Rewards.Gold)
	assert.Nil(t, res.Loot)

	ledger := env.store.ledgerFor(testUser)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.ReasonDungeonClear, ledger[0].Reason)

	c, err := env.store.GetCheckin(ctx, testUser, h.ID, env.today())
	require.NoError(t, err)
	assert.Equal(t, model.CheckinDone, c.Status)
}

func TestHabitService_FinishDungeonDuration(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Deep work"})

	for _, minutes := range []int{0, -5, MaxDungeonMinutes + 1} {
		_, err := env.habits.FinishDungeon(ctx, testUser, h.ID, minutes)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	}

	res, err := env.habits.FinishDungeon(ctx, testUser, h.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Rewards.XP)
}

func TestHabitService_AppliesXPBoost(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	env.giveEffectItem(t, testUser, model.ItemTitle, model.EffectXPBoost, 20, "")
	env.giveEffectItem(t, testUser, model.ItemBadge, model.EffectGoldBoost, 50, "")
	h := env.newHabit(t, testUser, HabitInput{Title: "Cook"})

	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), res.Rewards.XP)
	assert.Equal(t, int64(11), res.Rewards.Gold)
}

func TestHabitService_CompletionRewritesDailySummary(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	first := env.newHabit(t, testUser, HabitInput{Title: "Journal"})
	second := env.newHabit(t, testUser, HabitInput{Title: "Floss"})
	env.newHabit(t, testUser, HabitInput{Title: "Swim", ScheduleDays: []time.Weekday{time.Tuesday}})

	_, err := env.habits.CompleteHabit(ctx, testUser, first.ID)
	require.NoError(t, err)

	summaries, err := env.store.ListDailySummaries(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Date.Equal(env.today()))
	assert.Equal(t, 1, summaries[0].CompletedCount)
	assert.Equal(t, 2, summaries[0].ScheduledCount)
	assert.False(t, summaries[0].Cleared)

	_, err = env.habits.FinishDungeon(ctx, testUser, second.ID, 15)
	require.NoError(t, err)

	summaries, err = env.store.ListDailySummaries(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, summaries, 1, "one row per day")
	assert.Equal(t, 2, summaries[0].CompletedCount)
	assert.Equal(t, 2, summaries[0].ScheduledCount)
	assert.True(t, summaries[0].Cleared)
}

func TestHabitService_SkipLeavesDailySummaryAlone(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Run"})
	_, err := env.habits.SkipHabit(ctx, testUser, h.ID)
	require.NoError(t, err)

	summaries, err := env.store.ListDailySummaries(ctx, testUser, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHabitService_CompletionStats(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	first := env.newHabit(t, testUser, HabitInput{Title: "Journal"})
	second := env.newHabit(t, testUser, HabitInput{Title: "Floss"})

	// Last week: one of two done on each of two days.
	env.advance(-10)
	_, err := env.habits.CompleteHabit(ctx, testUser, first.ID)
	require.NoError(t, err)
	env.advance(1)
	_, err = env.habits.CompleteHabit(ctx, testUser, first.ID)
	require.NoError(t, err)

	// Today: both done.
	env.advance(9)
	_, err = env.habits.CompleteHabit(ctx, testUser, first.ID)
	require.NoError(t, err)
	_, err = env.habits.CompleteHabit(ctx, testUser, second.ID)
	require.NoError(t, err)

	stats, err := env.habits.CompletionStats(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Completed)
	assert.Equal(t, 6, stats.Scheduled)
	assert.InDelta(t, 66.67, stats.Rate, 0.01)
	assert.InDelta(t, 100, stats.ThisWeekRate, 0.01)
	assert.InDelta(t, 50, stats.LastWeekRate, 0.01)
	assert.InDelta(t, 50, stats.Trend(), 0.01)

	empty, err := env.habits.CompletionStats(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, empty.Scheduled)
}

func TestSummarizeCompletion(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day := func(offset, done, scheduled int) model.DailySummary {
		return model.DailySummary{Date: today.AddDate(0, 0, offset), CompletedCount: done, ScheduledCount: scheduled}
	}

	tests := []struct {
		name      string
		summaries []model.DailySummary
		want      CompletionStats
	}{
		{"nothing scheduled", nil, CompletionStats{}},
		{
			"this week only",
			[]model.DailySummary{day(0, 2, 2), day(-6, 0, 2)},
			CompletionStats{Completed: 2, Scheduled: 4, Rate: 50, ThisWeekRate: 50},
		},
		{
			"week boundaries",
			[]model.DailySummary{day(-7, 1, 1), day(-8, 0, 1), day(-14, 1, 1), day(-15, 1, 1)},
			CompletionStats{Completed: 3, Scheduled: 4, Rate: 75, ThisWeekRate: 100, LastWeekRate: 50},
		},
		{
			"outside the window",
			[]model.DailySummary{day(-31, 5, 5), day(1, 5, 5), day(-30, 1, 4)},
			CompletionStats{Completed: 1, Scheduled: 4, Rate: 25},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeCompletion(tt.summaries, today))
		})
	}
}

func TestHabitService_EffectLoadFailureWritesNothing(t *testing.T) {
	env := newTestEnv(t, noDrop)
	env.newPlayer(t, testUser)
	ctx := context.Background()

	h := env.newHabit(t, testUser, HabitInput{Title: "Read"})
	env.store.equippedErr = errStoreDown

	_, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.ErrorIs(t, err, errStoreDown)
	_, err = env.habits.FinishDungeon(ctx, testUser, h.ID, 25)
	require.ErrorIs(t, err, errStoreDown)

	_, err = env.store.GetCheckin(ctx, testUser, h.ID, env.today())
	assert.ErrorIs(t, err, repository.ErrCheckinNotFound)
	assert.Empty(t, env.store.ledgerFor(testUser))

	env.store.equippedErr = nil
	res, err := env.habits.CompleteHabit(ctx, testUser, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Rewards.XP)
}
