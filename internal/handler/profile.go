package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/panel"
	"github.com/radurbae/onepercent/internal/service"
)

// ProfileHandler handles profile, achievement and ledger commands.
type ProfileHandler struct {
	profiles     *service.ProfileService
	effects      *service.EffectService
	achievements *service.AchievementService
	habits       *service.HabitService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	profiles *service.ProfileService,
	effects *service.EffectService,
	achievements *service.AchievementService,
	habits *service.HabitService,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:     profiles,
		effects:      effects,
		achievements: achievements,
		habits:       habits,
	}
}

// HandleStart handles the /start command.
// Creates the profile and grants the starter theme on first use.
func (h *ProfileHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	name := DisplayName(sender)
	profile, created, err := h.profiles.EnsureProfile(ctx, sender.ID, name)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure profile")
		return c.Reply(msgFailed)
	}
	return c.Reply(panel.FormatWelcome(name, profile, created))
}

// HandleProfile handles the /profile command.
func (h *ProfileHandler) HandleProfile(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	profile, err := h.profiles.GetProfile(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get profile")
		return c.Reply(msgFailed)
	}
	if profile == nil {
		return c.Reply(msgNoProfile)
	}

	effects, err := h.effects.GetEquippedEffects(ctx, sender.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to get effects")
	}
	completion, err := h.habits.CompletionStats(ctx, sender.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to get completion stats")
	}
	return c.Reply(panel.FormatProfile(profile, effects) + panel.FormatCompletion(completion))
}

// HandleAchievements handles the /achievements command.
func (h *ProfileHandler) HandleAchievements(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	unlocked, err := h.achievements.ListUnlocked(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to list achievements")
		return c.Reply(msgFailed)
	}
	stats, err := h.achievements.GetAchievementStats(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get achievement stats")
		return c.Reply(msgFailed)
	}
	return c.Reply(panel.FormatAchievements(unlocked, stats))
}

// HandleLedger handles the /ledger command.
func (h *ProfileHandler) HandleLedger(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	entries, err := h.profiles.Ledger(ctx, sender.ID, service.DefaultLedgerLimit)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to list ledger")
		return c.Reply(msgFailed)
	}
	return c.Reply(panel.FormatLedger(entries))
}
