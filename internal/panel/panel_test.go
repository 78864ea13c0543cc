package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radurbae/onepercent/internal/effect"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/reward"
	"github.com/radurbae/onepercent/internal/service"
)

func quest(id, title string, completed bool) model.DailyQuest {
	return model.DailyQuest{
		ID:        id,
		Completed: completed,
		Quest:     model.QuestPoolItem{Title: title, Category: model.CategoryLearning, XPReward: 20, GoldReward: 10},
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", ProgressBar(0))
	assert.Equal(t, "▰▰▰▰▱▱▱▱▱▱", ProgressBar(45))
	assert.Equal(t, "▰▰▰▰▰▰▰▰▰▰", ProgressBar(100))
	assert.Equal(t, "▰▰▰▰▰▰▰▰▰▰", ProgressBar(250))
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", ProgressBar(-5))
}

func TestFormatQuests(t *testing.T) {
	msg := FormatQuests([]model.DailyQuest{quest("a", "Read a chapter", true), quest("b", "Call a friend", false)})
	assert.Contains(t, msg, "✅ 1. 📚 Read a chapter (+20 XP, +10 gold)")
	assert.Contains(t, msg, "⬜ 2. 📚 Call a friend")
	assert.Contains(t, msg, "1/2 done")

	assert.Contains(t, FormatQuests(nil), "No quests")
}

func TestFormatPenalty(t *testing.T) {
	assert.Empty(t, FormatPenalty(nil))
	assert.Empty(t, FormatPenalty(&service.YesterdayEvaluation{Total: 5, Completed: 5}))

	msg := FormatPenalty(&service.YesterdayEvaluation{Missed: 3, Total: 5, XPPenalty: 15, GoldPenalty: 9, Message: "Try again."})
	assert.Contains(t, msg, "Try again.")
	assert.Contains(t, msg, "Missed 3 of 5 quests yesterday: -15 XP, -9 gold")
}

func TestFormatCompletion(t *testing.T) {
	assert.Empty(t, FormatCompletion(nil))
	assert.Empty(t, FormatCompletion(&service.CompletionStats{}))

	up := FormatCompletion(&service.CompletionStats{Completed: 4, Scheduled: 6, Rate: 66.7, ThisWeekRate: 100, LastWeekRate: 50})
	assert.Contains(t, up, "Last 30 days: 4/6 done (67%)")
	assert.Contains(t, up, "📈 This week 100% · last week 50%")

	down := FormatCompletion(&service.CompletionStats{Completed: 1, Scheduled: 4, Rate: 25, LastWeekRate: 50})
	assert.Contains(t, down, "📉")

	flat := FormatCompletion(&service.CompletionStats{Completed: 1, Scheduled: 2, Rate: 50, ThisWeekRate: 50, LastWeekRate: 50})
	assert.Contains(t, flat, "➡️")
}

func TestFormatCredit(t *testing.T) {
	assert.Equal(t, "+5 XP, +2 gold", FormatCredit(5, 2, nil))

	credit := &service.CreditResult{
		Profile:     &model.PlayerProfile{Level: 5, Rank: model.RankD},
		LevelBefore: 4,
		LevelAfter:  5,
	}
	assert.Contains(t, FormatCredit(25, 5, credit), "Level up! Now level 5, rank D")
}

func TestFormatHabitCompletion(t *testing.T) {
	msg := FormatHabitCompletion(&service.HabitCompletion{
		Habit:        model.Habit{Title: "Stretch"},
		Rewards:      reward.Rewards{XP: 18, Gold: 7},
		Streak:       3,
		DailyCleared: true,
		Loot:         &model.Item{Name: "Aurora", Rarity: model.RarityLegendary},
		Unlocks:      []service.Unlock{{Key: "streak_7", Name: "7-Day Streak"}},
	})
	assert.Contains(t, msg, "✅ Stretch")
	assert.Contains(t, msg, "+18 XP, +7 gold")
	assert.Contains(t, msg, "Streak: 3 days")
	assert.Contains(t, msg, "All habits cleared")
	assert.Contains(t, msg, "Loot: 🟠 Aurora (legendary)")
	assert.Contains(t, msg, "Achievement unlocked: 7-Day Streak")
}

func TestFormatBag(t *testing.T) {
	assert.Contains(t, FormatBag(nil, effect.Effects{}), "empty")

	msg := FormatBag([]model.UserItem{
		{ItemID: "1", Equipped: true, Item: model.Item{Name: "Default Dark", Type: model.ItemTheme, Rarity: model.RarityCommon}},
		{ItemID: "2", Item: model.Item{Name: "Iron Will", Type: model.ItemTitle, Rarity: model.RarityRare}},
	}, effect.Effects{XPBoostPercent: 10})
	assert.Contains(t, msg, "1. ⚪ Default Dark (theme) [equipped]")
	assert.Contains(t, msg, "2. 🔵 Iron Will (title)\n")
	assert.Contains(t, msg, "+10% XP")
}

func TestFormatLedger(t *testing.T) {
	msg := FormatLedger([]model.LedgerEntry{
		{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), XPDelta: -15, GoldDelta: -9, Reason: model.ReasonMissedQuestsPenalty},
		{Date: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), XPDelta: 25, GoldDelta: 5, Reason: model.ReasonDungeonClear},
		{Date: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), XPDelta: 1, Reason: "bonus"},
	})
	assert.Contains(t, msg, "03-10 Missed quests: -15 XP, -9 gold")
	assert.Contains(t, msg, "03-09 Dungeon: +25 XP, +5 gold")
	assert.Contains(t, msg, "03-09 bonus: +1 XP, +0 gold")
}

func TestFormatAchievements(t *testing.T) {
	msg := FormatAchievements(
		[]model.Achievement{{Key: "first_quest"}},
		service.AchievementStats{TotalQuests: 3, CurrentStreak: 2},
	)
	assert.Contains(t, msg, "🏅 First Quest")
	assert.Contains(t, msg, "Quests: 3")
	assert.Contains(t, msg, "Streak: 2")
}

func TestBuildQuestPanel(t *testing.T) {
	quests := []model.DailyQuest{quest("a", "A", true), quest("b", "B", false), quest("c", "C", false), quest("d", "D", false)}

	markup := BuildQuestPanel(quests, true)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, CallbackQuestDone+"b", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "✅ 2", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, CallbackQuestRefresh, markup.InlineKeyboard[2][0].Unique)

	assert.Nil(t, BuildQuestPanel([]model.DailyQuest{quest("a", "A", true)}, false))
}

func TestBuildHabitPanel(t *testing.T) {
	done := &model.Checkin{Status: model.CheckinDone}
	markup := BuildHabitPanel([]service.HabitStatus{
		{Habit: model.Habit{ID: "h1"}, Checkin: done},
		{Habit: model.Habit{ID: "h2"}},
	})
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, CallbackHabitCheck+"h2", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, CallbackHabitSkip+"h2", markup.InlineKeyboard[0][1].Unique)
}

func TestBuildBagPanel(t *testing.T) {
	markup := BuildBagPanel([]model.UserItem{{ItemID: "x", Equipped: true}, {ItemID: "y"}})
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, CallbackItemUnequip+"x", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, CallbackItemEquip+"y", markup.InlineKeyboard[0][1].Unique)
}
