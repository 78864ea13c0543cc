package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

const itemColumns = `i.id, i.name, i.type, i.rarity, i.description, i.effect_type, i.effect_value, i.effect_category, i.unlock_key`

// profileSlotColumn maps slots mirrored on the profile to their column.
var profileSlotColumn = map[model.ItemType]string{
	model.ItemTitle: "equipped_title",
	model.ItemBadge: "equipped_badge",
	model.ItemTheme: "equipped_theme",
}

// InventoryRepository handles the item catalog and owned items.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository creates a new InventoryRepository instance.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// itemRow holds nullable catalog columns before conversion.
type itemRow struct {
	item           model.Item
	itemType       string
	rarity         string
	effectType     *string
	effectCategory *string
}

func (ir *itemRow) dest() []any {
	return []any{
		&ir.item.ID, &ir.item.Name, &ir.itemType, &ir.rarity, &ir.item.Description,
		&ir.effectType, &ir.item.EffectValue, &ir.effectCategory, &ir.item.UnlockKey,
	}
}

func (ir *itemRow) model() model.Item {
	it := ir.item
	it.Type = model.ItemType(ir.itemType)
	it.Rarity = model.Rarity(ir.rarity)
	if ir.effectType != nil {
		et := model.EffectType(*ir.effectType)
		it.EffectType = &et
	}
	if ir.effectCategory != nil {
		cat := model.Category(*ir.effectCategory)
		it.EffectCategory = &cat
	}
	return it
}

func optString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// ========== Catalog ==========

// GetItem retrieves a catalog item by ID.
// Returns ErrItemNotFound if it does not exist.
func (r *InventoryRepository) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	const query = `SELECT ` + itemColumns + ` FROM items i WHERE i.id = $1`

	var ir itemRow
	if err := r.pool.QueryRow(ctx, query, itemID).Scan(ir.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	it := ir.model()
	return &it, nil
}

// GetItemByName retrieves a catalog item by type and name.
func (r *InventoryRepository) GetItemByName(ctx context.Context, itemType model.ItemType, name string) (*model.Item, error) {
	const query = `SELECT ` + itemColumns + ` FROM items i WHERE i.type = $1 AND i.name = $2`

	var ir itemRow
	if err := r.pool.QueryRow(ctx, query, string(itemType), name).Scan(ir.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item by name: %w", err)
	}
	it := ir.model()
	return &it, nil
}

// ListUnlockableItems returns catalog items grouped by their unlock key.
func (r *InventoryRepository) ListUnlockableItems(ctx context.Context) (map[string][]model.Item, error) {
	const query = `SELECT ` + itemColumns + ` FROM items i WHERE i.unlock_key IS NOT NULL ORDER BY i.name`

	items, err := r.queryItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlockable items: %w", err)
	}

	byKey := make(map[string][]model.Item)
	for _, it := range items {
		byKey[*it.UnlockKey] = append(byKey[*it.UnlockKey], it)
	}
	return byKey, nil
}

// EnsureItem returns the catalog row for (type, name), inserting it first if missing.
func (r *InventoryRepository) EnsureItem(ctx context.Context, item model.Item) (*model.Item, error) {
	const query = `
		INSERT INTO items AS i (name, type, rarity, description, effect_type, effect_value, effect_category, unlock_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (type, name) DO UPDATE SET name = i.name
		RETURNING ` + itemColumns

	var ir itemRow
	err := r.pool.QueryRow(ctx, query,
		item.Name, string(item.Type), string(item.Rarity), item.Description,
		optString(item.EffectType), item.EffectValue, optString(item.EffectCategory), item.UnlockKey,
	).Scan(ir.dest()...)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure item: %w", err)
	}
	it := ir.model()
	return &it, nil
}

func (r *InventoryRepository) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var ir itemRow
		if err := rows.Scan(ir.dest()...); err != nil {
			return nil, err
		}
		items = append(items, ir.model())
	}
	return items, rows.Err()
}

// ========== Owned items ==========

// ListUserItems returns every owned item joined with its catalog entry.
func (r *InventoryRepository) ListUserItems(ctx context.Context, userID int64) ([]model.UserItem, error) {
	const query = `
		SELECT ui.user_id, ui.item_id, ui.equipped, ui.acquired_at, ` + itemColumns + `
		FROM user_items ui
		JOIN items i ON i.id = ui.item_id
		WHERE ui.user_id = $1
		ORDER BY ui.acquired_at, i.name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user items: %w", err)
	}
	defer rows.Close()

	var owned []model.UserItem
	for rows.Next() {
		var (
			ui model.UserItem
			ir itemRow
		)
		dest := append([]any{&ui.UserID, &ui.ItemID, &ui.Equipped, &ui.AcquiredAt}, ir.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan user item: %w", err)
		}
		ui.Item = ir.model()
		owned = append(owned, ui)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user items: %w", err)
	}
	return owned, nil
}

// ListEquippedItems returns the catalog entries of the user's equipped items.
func (r *InventoryRepository) ListEquippedItems(ctx context.Context, userID int64) ([]model.Item, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM user_items ui
		JOIN items i ON i.id = ui.item_id
		WHERE ui.user_id = $1 AND ui.equipped
		ORDER BY ui.slot
	`

	items, err := r.queryItems(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipped items: %w", err)
	}
	return items, nil
}

// HasItem reports whether the user owns the item.
func (r *InventoryRepository) HasItem(ctx context.Context, userID int64, itemID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM user_items WHERE user_id = $1 AND item_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check item ownership: %w", err)
	}
	return exists, nil
}

// GrantItem gives the user an item unless already owned. With equipIfFree the
// item is equipped when nothing else occupies its slot. Reports whether a row
// was inserted.
func (r *InventoryRepository) GrantItem(ctx context.Context, userID int64, item model.Item, equipIfFree bool) (bool, error) {
	inserted := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO user_items (user_id, item_id, slot, equipped, acquired_at)
			SELECT $1, $2, $3, $4 AND NOT EXISTS (
				SELECT 1 FROM user_items WHERE user_id = $1 AND slot = $3 AND equipped
			), NOW()
			ON CONFLICT (user_id, item_id) DO NOTHING
			RETURNING equipped
		`

		var equipped bool
		err := tx.QueryRow(ctx, query, userID, item.ID, string(item.Type), equipIfFree).Scan(&equipped)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		inserted = true

		if col, ok := profileSlotColumn[item.Type]; ok && equipped {
			query := `UPDATE player_profile SET ` + col + ` = $2, updated_at = NOW() WHERE user_id = $1`
			if _, err := tx.Exec(ctx, query, userID, item.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to grant item: %w", err)
	}
	return inserted, nil
}

// EquipItem equips an owned item, unequipping anything else in its slot, in
// one transaction. Profile-mirrored slots are updated too. Returns false if
// the user does not own the item.
func (r *InventoryRepository) EquipItem(ctx context.Context, userID int64, item model.Item) (bool, error) {
	equipped := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const clear = `
			UPDATE user_items SET equipped = FALSE
			WHERE user_id = $1 AND slot = $2 AND equipped AND item_id <> $3
		`
		if _, err := tx.Exec(ctx, clear, userID, string(item.Type), item.ID); err != nil {
			return err
		}

		const set = `UPDATE user_items SET equipped = TRUE WHERE user_id = $1 AND item_id = $2`
		result, err := tx.Exec(ctx, set, userID, item.ID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		if col, ok := profileSlotColumn[item.Type]; ok {
			query := `UPDATE player_profile SET ` + col + ` = $2, updated_at = NOW() WHERE user_id = $1`
			if _, err := tx.Exec(ctx, query, userID, item.Name); err != nil {
				return err
			}
		}
		equipped = true
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isUniqueViolation(err) {
			return false, ErrSlotOccupied
		}
		return false, fmt.Errorf("failed to equip item: %w", err)
	}
	return equipped, nil
}

// UnequipItem unequips an item. Unequipping an item that is not equipped is a no-op.
func (r *InventoryRepository) UnequipItem(ctx context.Context, userID int64, item model.Item) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `UPDATE user_items SET equipped = FALSE WHERE user_id = $1 AND item_id = $2 AND equipped`
		result, err := tx.Exec(ctx, query, userID, item.ID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return nil
		}

		if col, ok := profileSlotColumn[item.Type]; ok {
			clear := `UPDATE player_profile SET ` + col + ` = NULL, updated_at = NOW() WHERE user_id = $1 AND ` + col + ` = $2`
			if _, err := tx.Exec(ctx, clear, userID, item.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to unequip item: %w", err)
	}
	return nil
}
