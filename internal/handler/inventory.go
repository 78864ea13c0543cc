package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/panel"
	"github.com/radurbae/onepercent/internal/service"
)

// InventoryHandler handles bag and equipment commands.
type InventoryHandler struct {
	effects *service.EffectService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(effects *service.EffectService) *InventoryHandler {
	return &InventoryHandler{effects: effects}
}

func (h *InventoryHandler) bag(ctx context.Context, userID int64) (string, *tele.ReplyMarkup, []model.UserItem, error) {
	items, err := h.effects.Inventory(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to get inventory")
		return "", nil, nil, err
	}
	effects, err := h.effects.GetEquippedEffects(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to get effects")
	}
	return panel.FormatBag(items, effects), panel.BuildBagPanel(items), items, nil
}

// HandleBag handles the /bag command.
func (h *InventoryHandler) HandleBag(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	msg, markup, _, err := h.bag(ctx, sender.ID)
	if err != nil {
		return c.Reply(msgFailed)
	}
	return reply(c, msg, markup)
}

// HandleEquip handles the /equip <n> command.
func (h *InventoryHandler) HandleEquip(c tele.Context) error {
	return h.handleSlot(c, "/equip", h.equip)
}

// HandleUnequip handles the /unequip <n> command.
func (h *InventoryHandler) HandleUnequip(c tele.Context) error {
	return h.handleSlot(c, "/unequip", h.unequip)
}

func (h *InventoryHandler) handleSlot(c tele.Context, command string, apply func(context.Context, int64, string) string) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: " + command + " <item number from /bag>")
	}

	_, _, items, err := h.bag(ctx, sender.ID)
	if err != nil {
		return c.Reply(msgFailed)
	}
	idx, ok := parseIndex(args[0], len(items))
	if !ok {
		return c.Reply(msgBadIndex)
	}
	return c.Reply(apply(ctx, sender.ID, items[idx].ItemID))
}

func (h *InventoryHandler) equip(ctx context.Context, userID int64, itemID string) string {
	ok, err := h.effects.EquipItem(ctx, userID, itemID)
	switch {
	case err != nil:
		log.Error().Err(err).Int64("user_id", userID).Str("item_id", itemID).Msg("Failed to equip item")
		return msgFailed
	case !ok:
		return "❌ You don't own that item"
	}
	return "✅ Equipped"
}

func (h *InventoryHandler) unequip(ctx context.Context, userID int64, itemID string) string {
	if err := h.effects.UnequipItem(ctx, userID, itemID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("item_id", itemID).Msg("Failed to unequip item")
		return msgFailed
	}
	return "➖ Unequipped"
}

// HandleCallback handles bag keyboard callbacks.
func (h *InventoryHandler) HandleCallback(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	data := CallbackData(c)

	var notice string
	switch {
	case strings.HasPrefix(data, panel.CallbackItemEquip):
		notice = h.equip(ctx, sender.ID, strings.TrimPrefix(data, panel.CallbackItemEquip))
	case strings.HasPrefix(data, panel.CallbackItemUnequip):
		notice = h.unequip(ctx, sender.ID, strings.TrimPrefix(data, panel.CallbackItemUnequip))
	default:
		return nil
	}
	_ = toast(c, notice, false)

	msg, markup, _, err := h.bag(ctx, sender.ID)
	if err != nil {
		return nil
	}
	return edit(c, msg, markup)
}
