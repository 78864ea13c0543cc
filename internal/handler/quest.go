package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/panel"
	"github.com/radurbae/onepercent/internal/service"
)

// QuestHandler handles daily quest commands.
type QuestHandler struct {
	quests *service.QuestService
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(quests *service.QuestService) *QuestHandler {
	return &QuestHandler{quests: quests}
}

// questPanel renders today's quests and their keyboard.
func (h *QuestHandler) questPanel(ctx context.Context, userID int64, dq *service.DailyQuests) (string, *tele.ReplyMarkup) {
	canRefresh, err := h.quests.CanRefreshToday(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to check refresh")
	}
	msg := withPenalty(dq.Evaluation, panel.FormatQuests(dq.Quests))
	return msg, panel.BuildQuestPanel(dq.Quests, canRefresh)
}

// HandleQuests handles the /quests command.
// The first call of the day judges yesterday and generates today's set.
func (h *QuestHandler) HandleQuests(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	dq, err := h.quests.GetDailyQuests(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get daily quests")
		if !errors.Is(err, service.ErrQuestGeneration) {
			return c.Reply(msgFailed)
		}
	}

	msg, markup := h.questPanel(ctx, sender.ID, dq)
	return reply(c, msg, markup)
}

// HandleDone handles the /done <n> command.
func (h *QuestHandler) HandleDone(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /done <quest number>")
	}

	dq, err := h.quests.GetDailyQuests(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get daily quests")
		return c.Reply(msgFailed)
	}
	idx, ok := parseIndex(args[0], len(dq.Quests))
	if !ok {
		return c.Reply(msgBadIndex)
	}

	msg, _ := h.complete(ctx, sender.ID, dq.Quests[idx].ID)
	return c.Reply(withPenalty(dq.Evaluation, msg))
}

// withPenalty prefixes msg with yesterday's penalty when this call judged it.
func withPenalty(ev *service.YesterdayEvaluation, msg string) string {
	return panel.FormatPenalty(ev) + msg
}

// complete finishes a quest and reports whether anything was credited.
func (h *QuestHandler) complete(ctx context.Context, userID int64, questID string) (string, bool) {
	qc, err := h.quests.CompleteDailyQuest(ctx, userID, questID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("quest_id", questID).Msg("Failed to complete quest")
		return msgFailed, false
	}
	if qc == nil {
		return msgAlreadyHit, false
	}
	return panel.FormatQuestCompletion(qc), true
}

// HandleRefresh handles the /refresh command.
func (h *QuestHandler) HandleRefresh(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	msg, markup, err := h.refresh(ctx, sender.ID)
	if err != nil {
		return c.Reply(msgFailed)
	}
	return reply(c, msg, markup)
}

func (h *QuestHandler) refresh(ctx context.Context, userID int64) (string, *tele.ReplyMarkup, error) {
	res, err := h.quests.RefreshDailyQuests(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to refresh daily quests")
		if !errors.Is(err, service.ErrQuestGeneration) {
			return "", nil, err
		}
	}

	msg, markup := h.questPanel(ctx, userID, &service.DailyQuests{Quests: res.Quests})
	if res.AlreadyRefreshed {
		msg = "⏰ You already rerolled today's quests\n\n" + msg
	} else {
		msg = "🔄 Quests rerolled\n\n" + msg
	}
	return msg, markup, nil
}

// HandleCallback handles quest keyboard callbacks.
func (h *QuestHandler) HandleCallback(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	data := CallbackData(c)

	switch {
	case data == panel.CallbackQuestRefresh:
		msg, markup, err := h.refresh(ctx, sender.ID)
		if err != nil {
			return toast(c, msgFailed, true)
		}
		_ = toast(c, "", false)
		return edit(c, msg, markup)

	case strings.HasPrefix(data, panel.CallbackQuestDone):
		msg, ok := h.complete(ctx, sender.ID, strings.TrimPrefix(data, panel.CallbackQuestDone))
		if !ok {
			return toast(c, msg, true)
		}
		_ = toast(c, "✅ Quest complete", false)
		if err := c.Send(msg); err != nil {
			return err
		}

		dq, err := h.quests.GetDailyQuests(ctx, sender.ID)
		if err != nil {
			return nil
		}
		list, markup := h.questPanel(ctx, sender.ID, &service.DailyQuests{Quests: dq.Quests})
		return edit(c, list, markup)
	}
	return nil
}
