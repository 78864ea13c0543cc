package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/radurbae/onepercent/internal/effect"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/repository"
)

// EffectService handles equipment and the passive effects it grants.
type EffectService struct {
	inventory InventoryStore
	locks     *lock.UserLock
}

// NewEffectService creates a new EffectService instance.
func NewEffectService(inventory InventoryStore, locks *lock.UserLock) *EffectService {
	return &EffectService{inventory: inventory, locks: locks}
}

// GetEquippedEffects sums the effects of the user's equipped items.
func (s *EffectService) GetEquippedEffects(ctx context.Context, userID int64) (effect.Effects, error) {
	if userID <= 0 {
		return effect.Effects{}, nil
	}
	items, err := s.inventory.ListEquippedItems(ctx, userID)
	if err != nil {
		return effect.Effects{}, fmt.Errorf("failed to get equipped items: %w", err)
	}
	return effect.Aggregate(items), nil
}

// Inventory returns every item the user owns.
func (s *EffectService) Inventory(ctx context.Context, userID int64) ([]model.UserItem, error) {
	if userID <= 0 {
		return nil, nil
	}
	items, err := s.inventory.ListUserItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return items, nil
}

// EquipItem equips an owned item, replacing whatever occupied its slot.
// Returns false if the item does not exist or the user does not own it.
func (s *EffectService) EquipItem(ctx context.Context, userID int64, itemID string) (bool, error) {
	if userID <= 0 {
		return false, nil
	}

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get item: %w", err)
	}

	var equipped bool
	err = s.locks.WithLock(ctx, userID, func() error {
		owned, err := s.inventory.HasItem(ctx, userID, itemID)
		if err != nil {
			return fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			return nil
		}
		equipped, err = s.inventory.EquipItem(ctx, userID, *item)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to equip item: %w", err)
	}

	if equipped {
		log.Debug().Int64("user_id", userID).Str("item", item.Name).Str("slot", string(item.Type)).Msg("Item equipped")
	}
	return equipped, nil
}

// UnequipItem unequips an item. Unknown or already unequipped items are a no-op.
func (s *EffectService) UnequipItem(ctx context.Context, userID int64, itemID string) error {
	if userID <= 0 {
		return nil
	}

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get item: %w", err)
	}

	return s.locks.WithLock(ctx, userID, func() error {
		return s.inventory.UnequipItem(ctx, userID, *item)
	})
}
