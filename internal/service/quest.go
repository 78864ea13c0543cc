package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/radurbae/onepercent/internal/effect"
	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/pkg/rng"
	"github.com/radurbae/onepercent/internal/repository"
	"github.com/radurbae/onepercent/internal/reward"
)

// Missed-quest penalty per unfinished quest.
const (
	MissedQuestXPPenalty   int64 = 5
	MissedQuestGoldPenalty int64 = 3
)

// PunishmentMessages are shown after a missed-quest penalty.
var PunishmentMessages = []string{
	"Yesterday's unfinished quests cost you. Remember: small daily wins compound into massive results.",
	"You left quests incomplete yesterday. The pain of discipline is lighter than the pain of regret.",
	"Missed quests = missed growth. Every uncompleted task is a vote against who you want to become.",
	"Yesterday you chose comfort over growth. Today, choose differently.",
	"Incomplete quests yesterday? Your future self was counting on you. Make it up today.",
}

// QuestConfig tunes daily quest generation.
type QuestConfig struct {
	PerDay       int
	LookbackDays int
}

// DefaultQuestConfig assigns five quests balanced over two weeks of history.
var DefaultQuestConfig = QuestConfig{PerDay: 5, LookbackDays: 14}

// YesterdayEvaluation is the outcome of judging yesterday's quests.
// Message is empty when no penalty applies.
type YesterdayEvaluation struct {
	Missed      int
	Completed   int
	Total       int
	XPPenalty   int64
	GoldPenalty int64
	Message     string
}

// Penalized reports whether a penalty was due.
func (e *YesterdayEvaluation) Penalized() bool {
	return e != nil && e.Missed > 0
}

// DailyQuests is today's quest set. Evaluation is set only on the first
// generation of the day.
type DailyQuests struct {
	Quests     []model.DailyQuest
	Evaluation *YesterdayEvaluation
}

// RefreshResult is the outcome of a quest reroll.
type RefreshResult struct {
	Quests           []model.DailyQuest
	AlreadyRefreshed bool
}

// QuestCompletion is the outcome of completing a daily quest.
type QuestCompletion struct {
	Quest   model.DailyQuest
	Rewards reward.Rewards
	Credit  *CreditResult
	Unlocks []Unlock
}

// QuestService runs the daily quest schedule.
type QuestService struct {
	quests       QuestStore
	profiles     *ProfileService
	effects      *EffectService
	achievements *AchievementService
	clock        *clock.Clock
	src          rng.Source
	cfg          QuestConfig

	// Serializes generation per user. Separate from the profile lock,
	// which generation takes when applying penalties.
	genLocks *lock.UserLock
}

// NewQuestService creates a new QuestService instance.
// achievements may be nil to skip achievement checks on completion.
func NewQuestService(
	quests QuestStore,
	profiles *ProfileService,
	effects *EffectService,
	achievements *AchievementService,
	clk *clock.Clock,
	src rng.Source,
	cfg QuestConfig,
) *QuestService {
	if src == nil {
		src = rng.Global()
	}
	if cfg.PerDay <= 0 {
		cfg.PerDay = DefaultQuestConfig.PerDay
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultQuestConfig.LookbackDays
	}
	return &QuestService{
		quests:       quests,
		profiles:     profiles,
		effects:      effects,
		achievements: achievements,
		clock:        clk,
		src:          src,
		cfg:          cfg,
		genLocks:     lock.NewUserLock(),
	}
}

// GetDailyQuests returns today's quests. The first call of the day generates
// them and then judges yesterday. A stored set that lacks stat coverage
// and has no completions is regenerated.
func (s *QuestService) GetDailyQuests(ctx context.Context, userID int64) (*DailyQuests, error) {
	if userID <= 0 {
		return &DailyQuests{}, nil
	}

	result := &DailyQuests{}
	err := s.genLocks.WithLock(ctx, userID, func() error {
		today := s.clock.Today()

		existing, err := s.quests.ListDailyQuests(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("failed to get daily quests: %w", err)
		}

		if len(existing) > 0 {
			if HasStatCoverage(existing) || anyCompleted(existing) {
				result.Quests = existing
				return nil
			}

			log.Info().Int64("user_id", userID).Msg("Daily quests lack stat coverage, regenerating")
			if err := s.quests.DeleteDailyQuests(ctx, userID, today); err != nil {
				return fmt.Errorf("failed to clear daily quests: %w", err)
			}
			result.Quests, err = s.GenerateDailyQuests(ctx, userID, today)
			return err
		}

		// Yesterday is judged once, after today's set is stored. A failed or
		// empty generation leaves the next call on this branch again.
		result.Quests, err = s.GenerateDailyQuests(ctx, userID, today)
		if err != nil || len(result.Quests) == 0 {
			return err
		}
		result.Evaluation, err = s.EvaluateYesterday(ctx, userID)
		return err
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func anyCompleted(quests []model.DailyQuest) bool {
	for _, q := range quests {
		if q.Completed {
			return true
		}
	}
	return false
}

// EvaluateYesterday penalizes every quest left unfinished yesterday. It has
// no guard against running twice; GetDailyQuests calls it only right after
// the day's first successful generation.
func (s *QuestService) EvaluateYesterday(ctx context.Context, userID int64) (*YesterdayEvaluation, error) {
	eval := &YesterdayEvaluation{}
	if userID <= 0 {
		return eval, nil
	}

	yesterday := clock.AddDays(s.clock.Today(), -1)
	quests, err := s.quests.ListDailyQuests(ctx, userID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to get yesterday's quests: %w", err)
	}

	eval.Total = len(quests)
	for _, q := range quests {
		if q.Completed {
			eval.Completed++
		}
	}
	eval.Missed = eval.Total - eval.Completed
	if eval.Missed == 0 {
		return eval, nil
	}

	effects, err := s.effects.GetEquippedEffects(ctx, userID)
	if err != nil {
		return nil, err
	}
	missed := int64(eval.Missed)
	eval.XPPenalty = effect.ApplySkipPenalty(missed*MissedQuestXPPenalty, effects)
	eval.GoldPenalty = effect.ApplySkipPenalty(missed*MissedQuestGoldPenalty, effects)
	eval.Message = rng.Pick(s.src, PunishmentMessages)

	_, err = s.profiles.Credit(ctx, userID, -eval.XPPenalty, -eval.GoldPenalty, model.ReasonMissedQuestsPenalty, LedgerRef{})
	switch {
	case errors.Is(err, ErrProfileNotFound):
		log.Debug().Int64("user_id", userID).Msg("No profile to penalize")
	case err != nil:
		return nil, fmt.Errorf("failed to apply penalty: %w", err)
	default:
		metrics.PenaltiesApplied.Inc()
	}

	log.Info().
		Int64("user_id", userID).
		Int("missed", eval.Missed).
		Int64("xp_penalty", eval.XPPenalty).
		Int64("gold_penalty", eval.GoldPenalty).
		Msg("Missed quests penalized")

	return eval, nil
}

// GenerateDailyQuests selects and stores a quest set for date. The set is
// inserted as one batch; on failure nothing is kept and ErrQuestGeneration
// is returned with an empty slice.
func (s *QuestService) GenerateDailyQuests(ctx context.Context, userID int64, date time.Time) ([]model.DailyQuest, error) {
	if userID <= 0 {
		return []model.DailyQuest{}, nil
	}

	pool, err := s.quests.ListActiveQuestPool(ctx)
	if err != nil {
		return []model.DailyQuest{}, fmt.Errorf("failed to get quest pool: %w", err)
	}
	if len(pool) == 0 {
		log.Warn().Msg("Quest pool is empty")
		return []model.DailyQuest{}, nil
	}

	history, err := s.quests.ListDailyQuestsSince(ctx, userID, clock.AddDays(date, -s.cfg.LookbackDays), date)
	if err != nil {
		return []model.DailyQuest{}, fmt.Errorf("failed to get quest history: %w", err)
	}

	picked := SelectQuests(pool, history, s.cfg.PerDay, s.src)
	quests := make([]model.DailyQuest, 0, len(picked))
	for _, q := range picked {
		quests = append(quests, model.DailyQuest{
			ID:          uuid.NewString(),
			UserID:      userID,
			Date:        date,
			QuestPoolID: q.ID,
			Quest:       q,
		})
	}

	if err := s.quests.InsertDailyQuests(ctx, quests); err != nil {
		metrics.QuestGenerationFailures.Inc()
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to store daily quests")
		return []model.DailyQuest{}, fmt.Errorf("%w: %w", ErrQuestGeneration, err)
	}

	metrics.QuestsGenerated.Add(float64(len(quests)))
	log.Info().Int64("user_id", userID).Int("count", len(quests)).Msg("Daily quests generated")
	return quests, nil
}

// CompleteDailyQuest completes one of today's quests exactly once and
// credits its rewards boosted by equipped effects. Returns nil if the quest
// is unknown, belongs to someone else or is already completed.
func (s *QuestService) CompleteDailyQuest(ctx context.Context, userID int64, questID string) (*QuestCompletion, error) {
	if userID <= 0 {
		return nil, nil
	}

	dq, err := s.quests.GetDailyQuest(ctx, userID, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily quest: %w", err)
	}
	if dq.Completed {
		return nil, nil
	}

	effects, err := s.effects.GetEquippedEffects(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ok, err := s.quests.MarkDailyQuestCompleted(ctx, userID, questID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete daily quest: %w", err)
	}
	if !ok {
		return nil, nil
	}
	dq.Completed = true
	dq.CompletedAt = &now

	rewards := reward.Rewards{
		XP:   effect.ApplyXP(dq.Quest.XPReward, effects, dq.Quest.Category),
		Gold: effect.ApplyGold(dq.Quest.GoldReward, effects),
	}

	credit, err := s.profiles.Credit(ctx, userID, rewards.XP, rewards.Gold, model.ReasonRandomQuest, QuestRef(questID))
	if err != nil {
		return nil, fmt.Errorf("failed to credit quest rewards: %w", err)
	}
	metrics.Completions.WithLabelValues(metrics.KindDailyQuest).Inc()

	completion := &QuestCompletion{Quest: *dq, Rewards: rewards, Credit: credit}

	if s.achievements != nil {
		unlocks, err := s.achievements.CheckAchievements(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to check achievements")
		}
		completion.Unlocks = unlocks
	}

	log.Debug().
		Int64("user_id", userID).
		Str("quest_id", questID).
		Int64("xp", rewards.XP).
		Int64("gold", rewards.Gold).
		Msg("Daily quest completed")

	return completion, nil
}

// CanRefreshToday reports whether today's free reroll is still available.
func (s *QuestService) CanRefreshToday(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	refreshed, err := s.quests.IsRefreshed(ctx, userID, s.clock.Today())
	if err != nil {
		return false, fmt.Errorf("failed to check refresh: %w", err)
	}
	return !refreshed, nil
}

// RefreshDailyQuests rerolls today's quests once per day. The replaced set
// is discarded along with its completions, and yesterday is not re-judged.
func (s *QuestService) RefreshDailyQuests(ctx context.Context, userID int64) (*RefreshResult, error) {
	if userID <= 0 {
		return &RefreshResult{}, nil
	}

	result := &RefreshResult{}
	err := s.genLocks.WithLock(ctx, userID, func() error {
		today := s.clock.Today()

		refreshed, err := s.quests.IsRefreshed(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("failed to check refresh: %w", err)
		}
		if refreshed {
			result.AlreadyRefreshed = true
			result.Quests, err = s.quests.ListDailyQuests(ctx, userID, today)
			if err != nil {
				return fmt.Errorf("failed to get daily quests: %w", err)
			}
			return nil
		}

		if err := s.quests.DeleteDailyQuests(ctx, userID, today); err != nil {
			return fmt.Errorf("failed to clear daily quests: %w", err)
		}
		if err := s.quests.MarkRefreshed(ctx, userID, today, s.clock.Now()); err != nil {
			return fmt.Errorf("failed to mark refresh: %w", err)
		}

		metrics.QuestRefreshes.Inc()
		log.Info().Int64("user_id", userID).Msg("Daily quests refreshed")

		result.Quests, err = s.GenerateDailyQuests(ctx, userID, today)
		return err
	})
	return result, err
}
