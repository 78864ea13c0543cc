// Package panel renders bot messages and inline keyboards.
package panel

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/service"
)

// Callback data prefixes
const (
	CallbackQuestDone    = "quest_done:"   // quest_done:<daily quest id>
	CallbackQuestRefresh = "quest_refresh" // quest_refresh
	CallbackHabitCheck   = "habit_check:"  // habit_check:<habit id>
	CallbackHabitSkip    = "habit_skip:"   // habit_skip:<habit id>
	CallbackItemEquip    = "item_equip:"   // item_equip:<item id>
	CallbackItemUnequip  = "item_unequip:" // item_unequip:<item id>
)

const buttonsPerRow = 2

// inline lays buttons out two per row and appends the trailing rows.
func inline(markup *tele.ReplyMarkup, btns []tele.Btn, trailing ...tele.Row) *tele.ReplyMarkup {
	var rows []tele.Row
	var current []tele.Btn
	for i, btn := range btns {
		current = append(current, btn)
		if len(current) == buttonsPerRow || i == len(btns)-1 {
			rows = append(rows, markup.Row(current...))
			current = nil
		}
	}
	rows = append(rows, trailing...)
	if len(rows) == 0 {
		return nil
	}
	markup.Inline(rows...)
	return markup
}

// BuildQuestPanel offers a button per open quest plus a reroll button when
// the daily reroll is still available.
func BuildQuestPanel(quests []model.DailyQuest, canRefresh bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var btns []tele.Btn
	for i, q := range quests {
		if q.Completed {
			continue
		}
		btns = append(btns, markup.Data(fmt.Sprintf("✅ %d", i+1), CallbackQuestDone+q.ID))
	}

	var trailing []tele.Row
	if canRefresh {
		trailing = append(trailing, markup.Row(markup.Data("🔄 Reroll", CallbackQuestRefresh)))
	}
	return inline(markup, btns, trailing...)
}

// BuildHabitPanel offers done and skip buttons for every open habit.
func BuildHabitPanel(habits []service.HabitStatus) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	for i, h := range habits {
		if h.Done() {
			continue
		}
		rows = append(rows, markup.Row(
			markup.Data(fmt.Sprintf("✅ %d", i+1), CallbackHabitCheck+h.Habit.ID),
			markup.Data(fmt.Sprintf("⏭ %d", i+1), CallbackHabitSkip+h.Habit.ID),
		))
	}
	return inline(markup, nil, rows...)
}

// BuildBagPanel offers equip or unequip for every owned item.
func BuildBagPanel(items []model.UserItem) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var btns []tele.Btn
	for i, ui := range items {
		if ui.Equipped {
			btns = append(btns, markup.Data(fmt.Sprintf("➖ %d", i+1), CallbackItemUnequip+ui.ItemID))
			continue
		}
		btns = append(btns, markup.Data(fmt.Sprintf("➕ %d", i+1), CallbackItemEquip+ui.ItemID))
	}
	return inline(markup, btns)
}
