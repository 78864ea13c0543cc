package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

const dailyQuestColumns = `
	dq.id, dq.user_id, dq.date, dq.quest_pool_id, dq.completed, dq.completed_at,
	qp.id, qp.title, qp.description, qp.category, qp.xp_reward, qp.gold_reward, qp.is_active`

// QuestRepository handles the quest pool, daily assignments and refresh tracking.
type QuestRepository struct {
	pool *pgxpool.Pool
}

// NewQuestRepository creates a new QuestRepository instance.
func NewQuestRepository(pool *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{pool: pool}
}

func scanDailyQuest(row pgx.Row) (*model.DailyQuest, error) {
	var (
		dq       model.DailyQuest
		category string
	)
	err := row.Scan(
		&dq.ID, &dq.UserID, &dq.Date, &dq.QuestPoolID, &dq.Completed, &dq.CompletedAt,
		&dq.Quest.ID, &dq.Quest.Title, &dq.Quest.Description, &category,
		&dq.Quest.XPReward, &dq.Quest.GoldReward, &dq.Quest.Active,
	)
	if err != nil {
		return nil, err
	}
	dq.Quest.Category = model.Category(category)
	return &dq, nil
}

func (r *QuestRepository) queryDailyQuests(ctx context.Context, query string, args ...any) ([]model.DailyQuest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []model.DailyQuest
	for rows.Next() {
		dq, err := scanDailyQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, *dq)
	}
	return quests, rows.Err()
}

// ========== Quest pool ==========

// ListActiveQuestPool returns every active pool item.
func (r *QuestRepository) ListActiveQuestPool(ctx context.Context) ([]model.QuestPoolItem, error) {
	const query = `
		SELECT id, title, description, category, xp_reward, gold_reward, is_active
		FROM quest_pool
		WHERE is_active
		ORDER BY category, title
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest pool: %w", err)
	}
	defer rows.Close()

	var pool []model.QuestPoolItem
	for rows.Next() {
		var (
			q        model.QuestPoolItem
			category string
		)
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &category, &q.XPReward, &q.GoldReward, &q.Active); err != nil {
			return nil, fmt.Errorf("failed to scan quest pool item: %w", err)
		}
		q.Category = model.Category(category)
		pool = append(pool, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quest pool: %w", err)
	}
	return pool, nil
}

// ========== Daily quests ==========

// ListDailyQuests returns the user's assignments for a date joined with their pool items.
func (r *QuestRepository) ListDailyQuests(ctx context.Context, userID int64, date time.Time) ([]model.DailyQuest, error) {
	const query = `
		SELECT ` + dailyQuestColumns + `
		FROM daily_quests dq
		JOIN quest_pool qp ON qp.id = dq.quest_pool_id
		WHERE dq.user_id = $1 AND dq.date = $2
		ORDER BY qp.category, qp.title
	`

	quests, err := r.queryDailyQuests(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily quests: %w", err)
	}
	return quests, nil
}

// ListDailyQuestsSince returns assignments dated on or after since and before until.
func (r *QuestRepository) ListDailyQuestsSince(ctx context.Context, userID int64, since, until time.Time) ([]model.DailyQuest, error) {
	const query = `
		SELECT ` + dailyQuestColumns + `
		FROM daily_quests dq
		JOIN quest_pool qp ON qp.id = dq.quest_pool_id
		WHERE dq.user_id = $1 AND dq.date >= $2 AND dq.date < $3
		ORDER BY dq.date
	`

	quests, err := r.queryDailyQuests(ctx, query, userID, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest history: %w", err)
	}
	return quests, nil
}

// GetDailyQuest retrieves one of the user's assignments.
// Returns ErrQuestNotFound if it does not exist or belongs to someone else.
func (r *QuestRepository) GetDailyQuest(ctx context.Context, userID int64, questID string) (*model.DailyQuest, error) {
	const query = `
		SELECT ` + dailyQuestColumns + `
		FROM daily_quests dq
		JOIN quest_pool qp ON qp.id = dq.quest_pool_id
		WHERE dq.user_id = $1 AND dq.id = $2
	`

	dq, err := scanDailyQuest(r.pool.QueryRow(ctx, query, userID, questID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get daily quest: %w", err)
	}
	return dq, nil
}

// InsertDailyQuests inserts a day's assignments as one batch inside a
// transaction, so either every row lands or none does.
func (r *QuestRepository) InsertDailyQuests(ctx context.Context, quests []model.DailyQuest) error {
	if len(quests) == 0 {
		return nil
	}

	const query = `
		INSERT INTO daily_quests (id, user_id, date, quest_pool_id, completed, completed_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL)
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range quests {
			batch.Queue(query, q.ID, q.UserID, q.Date, q.QuestPoolID)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert daily quests: %w", err)
	}
	return nil
}

// DeleteDailyQuests removes the user's assignments for a date.
func (r *QuestRepository) DeleteDailyQuests(ctx context.Context, userID int64, date time.Time) error {
	const query = `DELETE FROM daily_quests WHERE user_id = $1 AND date = $2`

	if _, err := r.pool.Exec(ctx, query, userID, date); err != nil {
		return fmt.Errorf("failed to delete daily quests: %w", err)
	}
	return nil
}

// MarkDailyQuestCompleted completes an assignment if it is still open.
// Reports whether this call performed the transition.
func (r *QuestRepository) MarkDailyQuestCompleted(ctx context.Context, userID int64, questID string, at time.Time) (bool, error) {
	const query = `
		UPDATE daily_quests
		SET completed = TRUE, completed_at = $3
		WHERE user_id = $1 AND id = $2 AND completed = FALSE
	`

	result, err := r.pool.Exec(ctx, query, userID, questID, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete daily quest: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// CountCompletedByCategory returns the user's completed assignment count per pool category.
func (r *QuestRepository) CountCompletedByCategory(ctx context.Context, userID int64) (map[model.Category]int, error) {
	const query = `
		SELECT qp.category, COUNT(*)
		FROM daily_quests dq
		JOIN quest_pool qp ON qp.id = dq.quest_pool_id
		WHERE dq.user_id = $1 AND dq.completed
		GROUP BY qp.category
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed quests: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan completion count: %w", err)
		}
		counts[model.Category(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completion counts: %w", err)
	}
	return counts, nil
}

// ========== Refresh tracker ==========

// IsRefreshed reports whether the user already spent the free refresh on date.
func (r *QuestRepository) IsRefreshed(ctx context.Context, userID int64, date time.Time) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM quest_refresh_tracker
			WHERE user_id = $1 AND date = $2 AND refreshed
		)
	`

	var refreshed bool
	if err := r.pool.QueryRow(ctx, query, userID, date).Scan(&refreshed); err != nil {
		return false, fmt.Errorf("failed to read refresh tracker: %w", err)
	}
	return refreshed, nil
}

// MarkRefreshed upserts the refresh tracker for (user, date).
func (r *QuestRepository) MarkRefreshed(ctx context.Context, userID int64, date, at time.Time) error {
	const query = `
		INSERT INTO quest_refresh_tracker (user_id, date, refreshed, refreshed_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (user_id, date) DO UPDATE SET refreshed = TRUE, refreshed_at = EXCLUDED.refreshed_at
	`

	if _, err := r.pool.Exec(ctx, query, userID, date, at); err != nil {
		return fmt.Errorf("failed to mark refresh: %w", err)
	}
	return nil
}
