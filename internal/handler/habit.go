package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/panel"
	"github.com/radurbae/onepercent/internal/service"
)

const usageAddHabit = "Usage: /addhabit <title> | <tiny step>\nExample: /addhabit Read | Open the book"

// HabitHandler handles habit and dungeon commands.
type HabitHandler struct {
	habits *service.HabitService
}

// NewHabitHandler creates a new HabitHandler.
func NewHabitHandler(habits *service.HabitService) *HabitHandler {
	return &HabitHandler{habits: habits}
}

// ParseHabitPayload splits "title | tiny step" into its parts.
func ParseHabitPayload(payload string) service.HabitInput {
	title, step, _ := strings.Cut(payload, "|")
	return service.HabitInput{
		Title:    strings.TrimSpace(title),
		TinyStep: strings.TrimSpace(step),
	}
}

// HandleHabits handles the /habits command.
func (h *HabitHandler) HandleHabits(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	habits, err := h.habits.TodayHabits(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to list habits")
		return c.Reply(msgFailed)
	}
	return reply(c, panel.FormatHabits(habits), panel.BuildHabitPanel(habits))
}

// HandleAddHabit handles the /addhabit <title> | <tiny step> command.
func (h *HabitHandler) HandleAddHabit(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil {
		return nil
	}

	habit, err := h.habits.CreateHabit(ctx, sender.ID, ParseHabitPayload(msg.Payload))
	if err != nil {
		if errors.Is(err, service.ErrInvalidHabit) {
			return c.Reply(usageAddHabit)
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to create habit")
		return c.Reply(msgFailed)
	}
	return c.Reply(fmt.Sprintf("🆕 Habit added: %s\nSee it with /habits", habit.Title))
}

// resolve maps a 1-based position in today's habits to a habit ID.
func (h *HabitHandler) resolve(ctx context.Context, userID int64, arg string) (string, string) {
	habits, err := h.habits.TodayHabits(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list habits")
		return "", msgFailed
	}
	idx, ok := parseIndex(arg, len(habits))
	if !ok {
		return "", msgBadIndex
	}
	return habits[idx].Habit.ID, ""
}

// HandleCheck handles the /check <n> command.
func (h *HabitHandler) HandleCheck(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /check <habit number>")
	}
	habitID, problem := h.resolve(ctx, sender.ID, args[0])
	if problem != "" {
		return c.Reply(problem)
	}

	msg, _ := h.complete(ctx, sender.ID, habitID)
	return c.Reply(msg)
}

func (h *HabitHandler) complete(ctx context.Context, userID int64, habitID string) (string, bool) {
	hc, err := h.habits.CompleteHabit(ctx, userID, habitID)
	return h.describe(userID, habitID, hc, err)
}

func (h *HabitHandler) describe(userID int64, habitID string, hc *service.HabitCompletion, err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return msgAlreadyHit, false
	case errors.Is(err, service.ErrInvalidDuration):
		return fmt.Sprintf("❌ A dungeon run lasts 1 to %d minutes", service.MaxDungeonMinutes), false
	case err != nil:
		log.Error().Err(err).Int64("user_id", userID).Str("habit_id", habitID).Msg("Failed to complete habit")
		return msgFailed, false
	case hc == nil:
		return msgBadIndex, false
	}
	return panel.FormatHabitCompletion(hc), true
}

// HandleSkip handles the /skip <n> command.
func (h *HabitHandler) HandleSkip(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /skip <habit number>")
	}
	habitID, problem := h.resolve(ctx, sender.ID, args[0])
	if problem != "" {
		return c.Reply(problem)
	}
	return c.Reply(h.skip(ctx, sender.ID, habitID))
}

func (h *HabitHandler) skip(ctx context.Context, userID int64, habitID string) string {
	ok, err := h.habits.SkipHabit(ctx, userID, habitID)
	switch {
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return msgAlreadyHit
	case err != nil:
		log.Error().Err(err).Int64("user_id", userID).Str("habit_id", habitID).Msg("Failed to skip habit")
		return msgFailed
	case !ok:
		return msgBadIndex
	}
	return "⏭ Skipped for today. Tomorrow is a fresh start."
}

// HandleDungeon handles the /dungeon <n> <minutes> command.
func (h *HabitHandler) HandleDungeon(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 2 {
		return c.Reply("Usage: /dungeon <habit number> <minutes>")
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return c.Reply("Usage: /dungeon <habit number> <minutes>")
	}
	habitID, problem := h.resolve(ctx, sender.ID, args[0])
	if problem != "" {
		return c.Reply(problem)
	}

	hc, err := h.habits.FinishDungeon(ctx, sender.ID, habitID, minutes)
	msg, ok := h.describe(sender.ID, habitID, hc, err)
	if ok {
		msg = fmt.Sprintf("⚔️ Dungeon cleared in %d minutes\n%s", minutes, msg)
	}
	return c.Reply(msg)
}

// HandleCallback handles habit keyboard callbacks.
func (h *HabitHandler) HandleCallback(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	data := CallbackData(c)

	switch {
	case strings.HasPrefix(data, panel.CallbackHabitCheck):
		msg, ok := h.complete(ctx, sender.ID, strings.TrimPrefix(data, panel.CallbackHabitCheck))
		if !ok {
			return toast(c, msg, true)
		}
		_ = toast(c, "✅ Habit complete", false)
		if err := c.Send(msg); err != nil {
			return err
		}

	case strings.HasPrefix(data, panel.CallbackHabitSkip):
		_ = toast(c, h.skip(ctx, sender.ID, strings.TrimPrefix(data, panel.CallbackHabitSkip)), false)

	default:
		return nil
	}

	habits, err := h.habits.TodayHabits(ctx, sender.ID)
	if err != nil {
		return nil
	}
	return edit(c, panel.FormatHabits(habits), panel.BuildHabitPanel(habits))
}
