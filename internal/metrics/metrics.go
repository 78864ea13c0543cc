// Package metrics exposes Prometheus counters for game events and bot traffic.
package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "onepercent"

// Label names.
const (
	LabelKind    = "kind"
	LabelReason  = "reason"
	LabelRarity  = "rarity"
	LabelKey     = "key"
	LabelCommand = "command"
	LabelStatus  = "status"
)

// Completion kinds.
const (
	KindDailyQuest = "daily_quest"
	KindHabit      = "habit"
	KindDungeon    = "dungeon"
)

// Game metrics
var (
	QuestsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_quests_generated_total",
		Help:      "Daily quests assigned to players",
	})

	QuestGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_quest_generation_failures_total",
		Help:      "Daily quest batches that failed to persist",
	})

	QuestRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_quest_refreshes_total",
		Help:      "Daily quest rerolls",
	})

	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completions_total",
		Help:      "Completed quests by kind",
	}, []string{LabelKind})

	XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "xp_awarded_total",
		Help:      "XP credited to players by ledger reason",
	}, []string{LabelReason})

	GoldAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gold_awarded_total",
		Help:      "Gold credited to players by ledger reason",
	}, []string{LabelReason})

	PenaltiesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missed_quest_penalties_total",
		Help:      "Missed-quest penalties applied",
	})

	LootDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loot_drops_total",
		Help:      "Loot drops by rarity",
	}, []string{LabelRarity})

	AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "achievements_unlocked_total",
		Help:      "Achievements unlocked by key",
	}, []string{LabelKey})

	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "level_ups_total",
		Help:      "Level increases across all players",
	})
)

// Bot metrics
var (
	BotCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_commands_total",
		Help:      "Bot commands handled by command and outcome",
	}, []string{LabelCommand, LabelStatus})

	BotCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bot_command_duration_seconds",
		Help:      "Bot command latency in seconds",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{LabelCommand})
)

// RecordCredit adds positive ledger deltas to the award counters.
func RecordCredit(reason string, xp, gold int64) {
	if xp > 0 {
		XPAwarded.WithLabelValues(reason).Add(float64(xp))
	}
	if gold > 0 {
		GoldAwarded.WithLabelValues(reason).Add(float64(gold))
	}
}

// RegisterPoolStats exposes connection pool gauges for pool on reg.
func RegisterPoolStats(reg prometheus.Registerer, pool *pgxpool.Pool) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_total_conns",
			Help:      "Connections currently in the pool",
		}, func() float64 { return float64(pool.Stat().TotalConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_acquired_conns",
			Help:      "Connections currently in use",
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_idle_conns",
			Help:      "Idle connections in the pool",
		}, func() float64 { return float64(pool.Stat().IdleConns()) }),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
