package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

// AchievementRepository handles unlocked achievements.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository instance.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// ListAchievements returns the user's unlocked achievements, oldest first.
func (r *AchievementRepository) ListAchievements(ctx context.Context, userID int64) ([]model.Achievement, error) {
	const query = `
		SELECT user_id, key, unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY unlocked_at, key
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var list []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.UserID, &a.Key, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return list, nil
}

// UnlockAchievement records the unlock and grants its items in one
// transaction. Items the user already owns are skipped. Returns false when
// the achievement was already unlocked, in which case nothing is granted.
func (r *AchievementRepository) UnlockAchievement(ctx context.Context, userID int64, key string, items []model.Item) (bool, error) {
	unlocked := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO achievements (user_id, key, unlocked_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, key) DO NOTHING
		`
		result, err := tx.Exec(ctx, insert, userID, key)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return nil
		}

		const grant = `
			INSERT INTO user_items (user_id, item_id, slot, equipped, acquired_at)
			VALUES ($1, $2, $3, FALSE, NOW())
			ON CONFLICT (user_id, item_id) DO NOTHING
		`
		for _, it := range items {
			if _, err := tx.Exec(ctx, grant, userID, it.ID, string(it.Type)); err != nil {
				return err
			}
		}
		unlocked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement %s: %w", key, err)
	}
	return unlocked, nil
}
