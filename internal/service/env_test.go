package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/radurbae/onepercent/internal/loot"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/pkg/rng"
	"github.com/radurbae/onepercent/internal/reward"
)

// fixedSource always draws the same values.
type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) IntN(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}
func (fixedSource) Shuffle(int, func(i, j int)) {}

// noDrop never rolls loot.
var noDrop = fixedSource{f: 0.99}

const testUser int64 = 42

type testEnv struct {
	store        *memStore
	now          time.Time
	clock        *clock.Clock
	locks        *lock.UserLock
	profiles     *ProfileService
	effects      *EffectService
	achievements *AchievementService
	quests       *QuestService
	habits       *HabitService
}

func newTestEnv(t *testing.T, lootSrc rng.Source) *testEnv {
	t.Helper()

	env := &testEnv{
		store: newMemStore(),
		now:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		locks: lock.NewUserLock(),
	}
	env.clock = clock.Func(func() time.Time { return env.now }, time.UTC)
	env.store.seedPool(4)

	env.achievements = NewAchievementService(env.store, env.store, env.store, env.store, env.store, env.clock)
	env.profiles = NewProfileService(env.store, env.store, env.locks, env.clock, env.achievements)
	env.effects = NewEffectService(env.store, env.locks)
	env.quests = NewQuestService(env.store, env.profiles, env.effects, env.achievements, env.clock, rng.Seeded(7), DefaultQuestConfig)
	env.habits = NewHabitService(
		env.store, env.store, env.profiles, env.effects, env.achievements,
		loot.NewRoller(lootSrc, nil, nil), reward.DefaultTable, env.clock, env.locks,
	)
	return env
}

// advance moves the clock forward by whole days.
func (e *testEnv) advance(days int) {
	e.now = e.now.AddDate(0, 0, days)
}

func (e *testEnv) today() time.Time {
	return e.clock.Today()
}

func (e *testEnv) newPlayer(t *testing.T, userID int64) *model.PlayerProfile {
	t.Helper()
	p, created, err := e.profiles.EnsureProfile(context.Background(), userID, "hero")
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func (e *testEnv) setProgress(t *testing.T, userID int64, xp, gold int64) {
	t.Helper()
	_, err := e.store.UpdateProgress(context.Background(), userID, model.Progress{XP: xp, Gold: gold, Level: 1, Rank: model.RankE})
	require.NoError(t, err)
}

// giveEffectItem grants and equips an item carrying one effect.
func (e *testEnv) giveEffectItem(t *testing.T, userID int64, itemType model.ItemType, et model.EffectType, value int, category model.Category) model.Item {
	t.Helper()
	item := model.Item{Name: string(et) + "-item", Type: itemType, Rarity: model.RarityEpic, EffectType: &et, EffectValue: &value}
	if category != "" {
		item.EffectCategory = &category
	}
	stored := e.store.addItem(item)
	ctx := context.Background()
	_, err := e.store.GrantItem(ctx, userID, *stored, false)
	require.NoError(t, err)
	ok, err := e.effects.EquipItem(ctx, userID, stored.ID)
	require.NoError(t, err)
	require.True(t, ok)
	return *stored
}
