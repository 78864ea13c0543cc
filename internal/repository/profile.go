package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

const profileColumns = `user_id, username, xp, gold, level, rank, equipped_title, equipped_badge, equipped_theme, created_at, updated_at`

// ProfileRepository handles player profile persistence.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository instance.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func scanProfile(row pgx.Row) (*model.PlayerProfile, error) {
	var p model.PlayerProfile
	err := row.Scan(
		&p.UserID,
		&p.Username,
		&p.XP,
		&p.Gold,
		&p.Level,
		&p.Rank,
		&p.EquippedTitle,
		&p.EquippedBadge,
		&p.EquippedTheme,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile creates a level 1, rank E profile with no XP or gold.
// Returns ErrProfileExists if another caller created it first.
func (r *ProfileRepository) CreateProfile(ctx context.Context, userID int64, username string) (*model.PlayerProfile, error) {
	const query = `
		INSERT INTO player_profile (user_id, username, xp, gold, level, rank, created_at, updated_at)
		VALUES ($1, $2, 0, 0, 1, 'E', NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + profileColumns

	p, err := scanProfile(r.pool.QueryRow(ctx, query, userID, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return p, nil
}

// GetProfile retrieves a profile by user ID.
// Returns ErrProfileNotFound if the profile does not exist.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID int64) (*model.PlayerProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM player_profile WHERE user_id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpdateProgress overwrites XP, gold, level and rank.
func (r *ProfileRepository) UpdateProgress(ctx context.Context, userID int64, progress model.Progress) (*model.PlayerProfile, error) {
	const query = `
		UPDATE player_profile
		SET xp = $2, gold = $3, level = $4, rank = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(r.pool.QueryRow(ctx, query, userID, progress.XP, progress.Gold, progress.Level, progress.Rank))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	return p, nil
}

// UpdateUsername updates a player's display name.
func (r *ProfileRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	const query = `
		UPDATE player_profile
		SET username = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
