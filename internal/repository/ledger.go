package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

// LedgerRepository handles the append-only reward ledger.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// ApplyCredit writes the new progress and its ledger entry in one
// transaction. Returns ErrProfileNotFound if the profile does not exist, in
// which case nothing is written.
func (r *LedgerRepository) ApplyCredit(ctx context.Context, userID int64, progress model.Progress, entry model.LedgerEntry) (*model.PlayerProfile, error) {
	const update = `
		UPDATE player_profile
		SET xp = $2, gold = $3, level = $4, rank = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	const insert = `
		INSERT INTO reward_ledger (id, user_id, habit_id, quest_id, date, xp_delta, gold_delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	var updated *model.PlayerProfile
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanProfile(tx.QueryRow(ctx, update, userID, progress.XP, progress.Gold, progress.Level, progress.Rank))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insert,
			entry.ID, entry.UserID, entry.HabitID, entry.QuestID, entry.Date,
			entry.XPDelta, entry.GoldDelta, entry.Reason,
		); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to apply credit: %w", err)
	}
	return updated, nil
}

// ListLedger returns a user's latest ledger entries, newest first.
func (r *LedgerRepository) ListLedger(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	const query = `
		SELECT id, user_id, habit_id, quest_id, date, xp_delta, gold_delta, reason, created_at
		FROM reward_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.HabitID, &e.QuestID, &e.Date,
			&e.XPDelta, &e.GoldDelta, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger: %w", err)
	}
	return entries, nil
}
