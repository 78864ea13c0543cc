package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/progression"
	"github.com/radurbae/onepercent/internal/repository"
)

// DefaultLedgerLimit is the number of ledger entries shown when no limit is given.
const DefaultLedgerLimit = 10

// LedgerRef links a ledger entry to the habit or quest that caused it.
type LedgerRef struct {
	HabitID *string
	QuestID *string
}

// HabitRef references a habit.
func HabitRef(id string) LedgerRef { return LedgerRef{HabitID: &id} }

// QuestRef references a daily quest.
func QuestRef(id string) LedgerRef { return LedgerRef{QuestID: &id} }

// CreditResult describes a profile change after a credit or debit.
type CreditResult struct {
	Profile     *model.PlayerProfile
	LevelBefore int
	LevelAfter  int
	XPApplied   int64
	GoldApplied int64
}

// LeveledUp reports whether the credit raised the level.
func (r *CreditResult) LeveledUp() bool {
	return r != nil && r.LevelAfter > r.LevelBefore
}

type starterGranter interface {
	GrantStarterItems(ctx context.Context, userID int64) error
}

// ProfileService handles player profiles and every XP/gold change.
type ProfileService struct {
	profiles ProfileStore
	ledger   LedgerStore
	locks    *lock.UserLock
	clock    *clock.Clock
	starter  starterGranter
}

// NewProfileService creates a new ProfileService instance.
// starter may be nil, in which case new profiles receive no items.
func NewProfileService(
	profiles ProfileStore,
	ledger LedgerStore,
	locks *lock.UserLock,
	clk *clock.Clock,
	starter starterGranter,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		ledger:   ledger,
		locks:    locks,
		clock:    clk,
		starter:  starter,
	}
}

// EnsureProfile gets or creates the user's profile.
// Returns the profile and whether it was newly created.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID int64, username string) (*model.PlayerProfile, bool, error) {
	if userID <= 0 {
		return nil, false, nil
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		if username != "" && p.Username != username {
			if err := s.profiles.UpdateUsername(ctx, userID, username); err != nil {
				log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to update username")
			} else {
				p.Username = username
			}
		}
		return p, false, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, false, fmt.Errorf("failed to get profile: %w", err)
	}

	p, err = s.profiles.CreateProfile(ctx, userID, username)
	if errors.Is(err, repository.ErrProfileExists) {
		// Lost a creation race; the other caller grants the starter items.
		p, err = s.profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get profile: %w", err)
		}
		return p, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create profile: %w", err)
	}

	log.Info().Int64("user_id", userID).Str("username", username).Msg("Profile created")

	if s.starter != nil {
		if err := s.starter.GrantStarterItems(ctx, userID); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to grant starter items")
		}
	}
	return p, true, nil
}

// GetProfile returns the user's profile with level and rank re-derived from
// XP. A stale cache is rewritten. Returns nil if the profile does not exist.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*model.PlayerProfile, error) {
	if userID <= 0 {
		return nil, nil
	}

	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	level, rank := progression.Derive(p.XP)
	if level == p.Level && rank == p.Rank {
		return p, nil
	}

	log.Warn().
		Int64("user_id", userID).
		Int("stored_level", p.Level).
		Int("level", level).
		Str("stored_rank", string(p.Rank)).
		Str("rank", string(rank)).
		Msg("Profile level cache out of date, rewriting")

	fixed, err := s.profiles.UpdateProgress(ctx, userID, model.Progress{XP: p.XP, Gold: p.Gold, Level: level, Rank: rank})
	if err != nil {
		p.Level, p.Rank = level, rank
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to rewrite level cache")
		return p, nil
	}
	return fixed, nil
}

// Credit applies XP and gold deltas to the profile under the user's lock.
// Balances floor at zero and level and rank are re-derived. The profile
// write and the ledger entry recording the applied deltas land together or
// not at all.
func (s *ProfileService) Credit(ctx context.Context, userID int64, xpDelta, goldDelta int64, reason string, ref LedgerRef) (*CreditResult, error) {
	if userID <= 0 {
		return nil, nil
	}

	var result *CreditResult
	err := s.locks.WithLock(ctx, userID, func() error {
		p, err := s.profiles.GetProfile(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}

		xp := max(0, p.XP+xpDelta)
		gold := max(0, p.Gold+goldDelta)
		levelBefore, _ := progression.Derive(p.XP)
		level, rank := progression.Derive(xp)

		entry := model.LedgerEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			HabitID:   ref.HabitID,
			QuestID:   ref.QuestID,
			Date:      s.clock.Today(),
			XPDelta:   xp - p.XP,
			GoldDelta: gold - p.Gold,
			Reason:    reason,
		}
		updated, err := s.ledger.ApplyCredit(ctx, userID, model.Progress{XP: xp, Gold: gold, Level: level, Rank: rank}, entry)
		if err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("failed to apply credit: %w", err)
		}

		result = &CreditResult{
			Profile:     updated,
			LevelBefore: levelBefore,
			LevelAfter:  level,
			XPApplied:   entry.XPDelta,
			GoldApplied: entry.GoldDelta,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCredit(reason, result.XPApplied, result.GoldApplied)
	if result.LeveledUp() {
		metrics.LevelUps.Add(float64(result.LevelAfter - result.LevelBefore))
		log.Info().
			Int64("user_id", userID).
			Int("level", result.LevelAfter).
			Str("rank", string(result.Profile.Rank)).
			Msg("Level up")
	}

	log.Debug().
		Int64("user_id", userID).
		Str("reason", reason).
		Int64("xp", result.XPApplied).
		Int64("gold", result.GoldApplied).
		Msg("Profile credited")

	return result, nil
}

// Ledger returns the user's latest ledger entries.
func (s *ProfileService) Ledger(ctx context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	if userID <= 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	entries, err := s.ledger.ListLedger(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return entries, nil
}
