package panel

import (
	"fmt"
	"strings"

	"github.com/radurbae/onepercent/internal/effect"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/progression"
	"github.com/radurbae/onepercent/internal/service"
)

const divider = "━━━━━━━━━━━━━━━\n"

// Commands lists the bot commands shown on /start.
const Commands = "/profile - Stats and equipment\n" +
	"/quests - Today's quests\n" +
	"/done <n> - Complete quest n\n" +
	"/refresh - Reroll today's quests (once a day)\n" +
	"/habits - Today's habits\n" +
	"/addhabit <title> | <tiny step> - New habit\n" +
	"/check <n> - Complete habit n\n" +
	"/skip <n> - Skip habit n\n" +
	"/dungeon <n> <minutes> - Focus session on habit n\n" +
	"/bag - Inventory\n" +
	"/equip <n> - Equip item n\n" +
	"/unequip <n> - Unequip item n\n" +
	"/achievements - Unlocked achievements\n" +
	"/ledger - Recent XP and gold changes"

var categoryEmoji = map[model.Category]string{
	model.CategoryWellness:     "🧘",
	model.CategoryProductivity: "📋",
	model.CategorySocial:       "🤝",
	model.CategoryLearning:     "📚",
	model.CategoryFitness:      "💪",
	model.CategoryCreativity:   "🎨",
}

var rarityEmoji = map[model.Rarity]string{
	model.RarityCommon:    "⚪",
	model.RarityUncommon:  "🟢",
	model.RarityRare:      "🔵",
	model.RarityEpic:      "🟣",
	model.RarityLegendary: "🟠",
}

// FormatWelcome greets a new or returning player.
func FormatWelcome(name string, p *model.PlayerProfile, created bool) string {
	if created {
		return fmt.Sprintf("🎉 Welcome, %s!\n\nYou start at level %d, rank %s.\n\n%s", name, p.Level, p.Rank, Commands)
	}
	return fmt.Sprintf("👋 Welcome back, %s!\n\nLevel %d · Rank %s · %d gold", name, p.Level, p.Rank, p.Gold)
}

// ProgressBar renders a ten-segment bar for a 0-100 percentage.
func ProgressBar(percent float64) string {
	filled := max(0, min(10, int(percent/10)))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// FormatProfile renders the profile card.
func FormatProfile(p *model.PlayerProfile, e effect.Effects) string {
	pct := progression.XPProgressPercent(float64(p.XP), p.Level)
	next := progression.CumulativeXPForLevel(p.Level + 1)

	var b strings.Builder
	b.WriteString("📊 Profile\n")
	b.WriteString(divider)
	fmt.Fprintf(&b, "👤 %s\n", p.Username)
	fmt.Fprintf(&b, "⭐ Level %d · Rank %s\n", p.Level, p.Rank)
	fmt.Fprintf(&b, "%s %.0f%%\n", ProgressBar(pct), pct)
	fmt.Fprintf(&b, "✨ XP: %d / %d\n", p.XP, next)
	fmt.Fprintf(&b, "💰 Gold: %d\n", p.Gold)

	slots := []struct {
		label string
		value *string
	}{
		{"🏷 Title", p.EquippedTitle},
		{"🎖 Badge", p.EquippedBadge},
		{"🎨 Theme", p.EquippedTheme},
	}
	for _, s := range slots {
		if s.value != nil {
			fmt.Fprintf(&b, "%s: %s\n", s.label, *s.value)
		}
	}

	if lines := effect.Summary(e); len(lines) > 0 {
		b.WriteString(divider)
		b.WriteString("Active effects:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "• %s\n", l)
		}
	}
	b.WriteString(divider)
	return b.String()
}

// FormatCompletion renders the monthly completion rate and the weekly trend.
// Empty when nothing was scheduled in the window.
func FormatCompletion(c *service.CompletionStats) string {
	if c == nil || c.Scheduled == 0 {
		return ""
	}

	trend := "➡️"
	switch d := c.Trend(); {
	case d > 0:
		trend = "📈"
	case d < 0:
		trend = "📉"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Last %d days: %d/%d done (%.0f%%)\n",
		service.CompletionWindowDays, c.Completed, c.Scheduled, c.Rate)
	fmt.Fprintf(&b, "%s This week %.0f%% · last week %.0f%%\n", trend, c.ThisWeekRate, c.LastWeekRate)
	b.WriteString(divider)
	return b.String()
}

// FormatPenalty renders yesterday's missed-quest penalty.
func FormatPenalty(ev *service.YesterdayEvaluation) string {
	if ev == nil || !ev.Penalized() {
		return ""
	}
	return fmt.Sprintf("⚠️ %s\nMissed %d of %d quests yesterday: -%d XP, -%d gold\n\n",
		ev.Message, ev.Missed, ev.Total, ev.XPPenalty, ev.GoldPenalty)
}

// FormatQuests renders today's quest list.
func FormatQuests(quests []model.DailyQuest) string {
	if len(quests) == 0 {
		return "📜 No quests available today. Check back later."
	}

	var b strings.Builder
	b.WriteString("📜 Today's quests\n")
	b.WriteString(divider)
	done := 0
	for i, q := range quests {
		mark := "⬜"
		if q.Completed {
			mark = "✅"
			done++
		}
		fmt.Fprintf(&b, "%s %d. %s %s (+%d XP, +%d gold)\n",
			mark, i+1, categoryEmoji[q.Quest.Category], q.Quest.Title, q.Quest.XPReward, q.Quest.GoldReward)
	}
	b.WriteString(divider)
	fmt.Fprintf(&b, "%d/%d done", done, len(quests))
	return b.String()
}

// FormatCredit renders the rewards line and a level-up notice.
func FormatCredit(xp, gold int64, credit *service.CreditResult) string {
	msg := fmt.Sprintf("+%d XP, +%d gold", xp, gold)
	if credit != nil && credit.LeveledUp() {
		msg += fmt.Sprintf("\n🆙 Level up! Now level %d, rank %s", credit.LevelAfter, credit.Profile.Rank)
	}
	return msg
}

// FormatUnlocks renders newly unlocked achievements.
func FormatUnlocks(unlocks []service.Unlock) string {
	if len(unlocks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, u := range unlocks {
		fmt.Fprintf(&b, "\n🏆 Achievement unlocked: %s", u.Name)
		for _, it := range u.Items {
			fmt.Fprintf(&b, "\n   🎁 %s %s", rarityEmoji[it.Rarity], it.Name)
		}
	}
	return b.String()
}

// FormatQuestCompletion renders a completed daily quest.
func FormatQuestCompletion(qc *service.QuestCompletion) string {
	return fmt.Sprintf("✅ %s\n%s%s",
		qc.Quest.Quest.Title,
		FormatCredit(qc.Rewards.XP, qc.Rewards.Gold, qc.Credit),
		FormatUnlocks(qc.Unlocks))
}

// FormatHabits renders today's scheduled habits.
func FormatHabits(habits []service.HabitStatus) string {
	if len(habits) == 0 {
		return "🗓 No habits scheduled today. Add one with /addhabit <title> | <tiny step>"
	}

	var b strings.Builder
	b.WriteString("🗓 Today's habits\n")
	b.WriteString(divider)
	for i, h := range habits {
		mark := "⬜"
		switch {
		case h.Done():
			mark = "✅"
		case h.Checkin != nil:
			mark = "⏭"
		}
		fmt.Fprintf(&b, "%s %d. %s", mark, i+1, h.Habit.Title)
		if h.Streak > 0 {
			fmt.Fprintf(&b, " 🔥%d", h.Streak)
		}
		if !h.Done() {
			fmt.Fprintf(&b, " (+%d XP)", h.PreviewXP)
		}
		b.WriteString("\n")
		if h.Habit.TinyStep != "" {
			fmt.Fprintf(&b, "   ↳ %s\n", h.Habit.TinyStep)
		}
	}
	b.WriteString(divider)
	return b.String()
}

// FormatHabitCompletion renders a completed habit or dungeon run.
func FormatHabitCompletion(hc *service.HabitCompletion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\n", hc.Habit.Title)
	b.WriteString(FormatCredit(hc.Rewards.XP, hc.Rewards.Gold, hc.Credit))
	if hc.Streak > 0 {
		fmt.Fprintf(&b, "\n🔥 Streak: %d days", hc.Streak)
	}
	if hc.DailyCleared {
		b.WriteString("\n🌟 All habits cleared today!")
	}
	if hc.Loot != nil {
		fmt.Fprintf(&b, "\n🎁 Loot: %s %s (%s)", rarityEmoji[hc.Loot.Rarity], hc.Loot.Name, hc.Loot.Rarity)
	}
	b.WriteString(FormatUnlocks(hc.Unlocks))
	return b.String()
}

// FormatBag renders the inventory with the aggregated effects.
func FormatBag(items []model.UserItem, e effect.Effects) string {
	if len(items) == 0 {
		return "🎒 Your bag is empty. Complete habits for a chance at loot!"
	}

	var b strings.Builder
	b.WriteString("🎒 Bag\n")
	b.WriteString(divider)
	for i, ui := range items {
		equipped := ""
		if ui.Equipped {
			equipped = " [equipped]"
		}
		fmt.Fprintf(&b, "%d. %s %s (%s)%s\n", i+1, rarityEmoji[ui.Item.Rarity], ui.Item.Name, ui.Item.Type, equipped)
	}
	if lines := effect.Summary(e); len(lines) > 0 {
		b.WriteString(divider)
		b.WriteString(strings.Join(lines, " · "))
		b.WriteString("\n")
	}
	b.WriteString(divider)
	return b.String()
}

// FormatAchievements renders unlocked achievements and quest counters.
func FormatAchievements(unlocked []model.Achievement, stats service.AchievementStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Achievements %d/%d\n", len(unlocked), len(service.Achievements))
	b.WriteString(divider)
	if len(unlocked) == 0 {
		b.WriteString("None yet. Finish a quest to earn your first!\n")
	}
	for _, a := range unlocked {
		fmt.Fprintf(&b, "🏅 %s\n", service.AchievementName(a.Key))
	}
	b.WriteString(divider)
	fmt.Fprintf(&b, "Quests: %d · Focus: %d · Learning: %d · Wellness: %d\n",
		stats.TotalQuests, stats.FocusQuests, stats.LearningQuests, stats.WellnessQuests)
	fmt.Fprintf(&b, "Streak: %d · Comebacks: %d", stats.CurrentStreak, stats.ComebackCount)
	return b.String()
}

var reasonLabels = map[string]string{
	model.ReasonQuestComplete:       "Habit",
	model.ReasonDungeonClear:        "Dungeon",
	model.ReasonMissedQuestsPenalty: "Missed quests",
	model.ReasonRandomQuest:         "Daily quest",
}

// FormatLedger renders recent ledger entries, newest first.
func FormatLedger(entries []model.LedgerEntry) string {
	if len(entries) == 0 {
		return "📒 No XP or gold changes yet."
	}

	var b strings.Builder
	b.WriteString("📒 Recent changes\n")
	b.WriteString(divider)
	for _, e := range entries {
		label, ok := reasonLabels[e.Reason]
		if !ok {
			label = e.Reason
		}
		fmt.Fprintf(&b, "%s %s: %+d XP, %+d gold\n", e.Date.Format("01-02"), label, e.XPDelta, e.GoldDelta)
	}
	b.WriteString(divider)
	return b.String()
}
