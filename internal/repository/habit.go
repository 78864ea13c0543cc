package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radurbae/onepercent/internal/model"
)

const habitColumns = `id, user_id, title, tiny_step, schedule_days, quest_type, difficulty, created_at`

// HabitRepository handles habits and their daily checkins.
type HabitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new HabitRepository instance.
func NewHabitRepository(pool *pgxpool.Pool) *HabitRepository {
	return &HabitRepository{pool: pool}
}

func weekdaysToInts(days []time.Weekday) []int16 {
	out := make([]int16, len(days))
	for i, d := range days {
		out[i] = int16(d)
	}
	return out
}

func scanHabit(row pgx.Row) (*model.Habit, error) {
	var (
		h    model.Habit
		days []int16
		kind string
	)
	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.TinyStep, &days, &kind, &h.Difficulty, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.QuestType = model.QuestType(kind)
	for _, d := range days {
		h.ScheduleDays = append(h.ScheduleDays, time.Weekday(d))
	}
	return &h, nil
}

// CreateHabit inserts a habit. The caller assigns the ID.
func (r *HabitRepository) CreateHabit(ctx context.Context, habit model.Habit) (*model.Habit, error) {
	const query = `
		INSERT INTO habits (id, user_id, title, tiny_step, schedule_days, quest_type, difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + habitColumns

	h, err := scanHabit(r.pool.QueryRow(ctx, query,
		habit.ID, habit.UserID, habit.Title, habit.TinyStep,
		weekdaysToInts(habit.ScheduleDays), string(habit.QuestType), habit.Difficulty,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return h, nil
}

// GetHabit retrieves one of the user's habits.
// Returns ErrHabitNotFound if it does not exist or belongs to someone else.
func (r *HabitRepository) GetHabit(ctx context.Context, userID int64, habitID string) (*model.Habit, error) {
	const query = `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2`

	h, err := scanHabit(r.pool.QueryRow(ctx, query, habitID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

// ListHabits returns the user's habits in creation order.
func (r *HabitRepository) ListHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	const query = `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}
	return habits, nil
}

// UpsertCheckin records a status for (user, habit, date), replacing any previous status.
func (r *HabitRepository) UpsertCheckin(ctx context.Context, checkin model.Checkin) error {
	const query = `
		INSERT INTO checkins (user_id, habit_id, date, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, habit_id, date)
		DO UPDATE SET status = EXCLUDED.status
	`

	_, err := r.pool.Exec(ctx, query, checkin.UserID, checkin.HabitID, checkin.Date, string(checkin.Status))
	if err != nil {
		return fmt.Errorf("failed to upsert checkin: %w", err)
	}
	return nil
}

// GetCheckin returns the checkin for (user, habit, date).
// Returns ErrCheckinNotFound if none was recorded.
func (r *HabitRepository) GetCheckin(ctx context.Context, userID int64, habitID string, date time.Time) (*model.Checkin, error) {
	const query = `
		SELECT user_id, habit_id, date, status, created_at
		FROM checkins
		WHERE user_id = $1 AND habit_id = $2 AND date = $3
	`

	var (
		c      model.Checkin
		status string
	)
	err := r.pool.QueryRow(ctx, query, userID, habitID, date).Scan(&c.UserID, &c.HabitID, &c.Date, &status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckinNotFound
		}
		return nil, fmt.Errorf("failed to get checkin: %w", err)
	}
	c.Status = model.CheckinStatus(status)
	return &c, nil
}

// ListCheckins returns the user's checkins newest first, filtered by q.
func (r *HabitRepository) ListCheckins(ctx context.Context, userID int64, q model.CheckinQuery) ([]model.Checkin, error) {
	var (
		sb   strings.Builder
		args = []any{userID}
	)
	sb.WriteString(`SELECT user_id, habit_id, date, status, created_at FROM checkins WHERE user_id = $1`)
	if q.HabitID != "" {
		args = append(args, q.HabitID)
		fmt.Fprintf(&sb, ` AND habit_id = $%d`, len(args))
	}
	if !q.Since.IsZero() {
		args = append(args, q.Since)
		fmt.Fprintf(&sb, ` AND date >= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY date DESC, habit_id`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []model.Checkin
	for rows.Next() {
		var (
			c      model.Checkin
			status string
		)
		if err := rows.Scan(&c.UserID, &c.HabitID, &c.Date, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		c.Status = model.CheckinStatus(status)
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkins: %w", err)
	}
	return checkins, nil
}

// UpsertDailySummary writes the day's habit tally, replacing any earlier
// tally for the same (user, date).
func (r *HabitRepository) UpsertDailySummary(ctx context.Context, summary model.DailySummary) error {
	const query = `
		INSERT INTO daily_summaries (user_id, date, completed_count, scheduled_count, cleared, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, date)
		DO UPDATE SET completed_count = EXCLUDED.completed_count,
			scheduled_count = EXCLUDED.scheduled_count,
			cleared = EXCLUDED.cleared,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		summary.UserID, summary.Date, summary.CompletedCount, summary.ScheduledCount, summary.Cleared,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// ListDailySummaries returns the user's tallies on or after since, oldest first.
func (r *HabitRepository) ListDailySummaries(ctx context.Context, userID int64, since time.Time) ([]model.DailySummary, error) {
	const query = `
		SELECT user_id, date, completed_count, scheduled_count, cleared, updated_at
		FROM daily_summaries
		WHERE user_id = $1 AND date >= $2
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	defer rows.Close()

	var out []model.DailySummary
	for rows.Next() {
		var s model.DailySummary
		if err := rows.Scan(&s.UserID, &s.Date, &s.CompletedCount, &s.ScheduledCount, &s.Cleared, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily summaries: %w", err)
	}
	return out, nil
}
