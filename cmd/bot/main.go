// Package main is the entry point for the One Percent habit bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/radurbae/onepercent/internal/bot"
	"github.com/radurbae/onepercent/internal/config"
	"github.com/radurbae/onepercent/internal/loot"
	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/pkg/clock"
	"github.com/radurbae/onepercent/internal/pkg/db"
	"github.com/radurbae/onepercent/internal/pkg/lock"
	"github.com/radurbae/onepercent/internal/pkg/rng"
	"github.com/radurbae/onepercent/internal/repository"
	"github.com/radurbae/onepercent/internal/server"
	"github.com/radurbae/onepercent/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(&cfg.Log)

	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Bot exited with error")
	}
	log.Info().Msg("Bot stopped gracefully")
}

func setupLogging(cfg *config.LogConfig) {
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool.Pool); err != nil {
		return err
	}

	if err := metrics.RegisterPoolStats(prometheus.DefaultRegisterer, pool.Pool); err != nil {
		return err
	}

	loc, err := cfg.Game.Location()
	if err != nil {
		return err
	}
	clk := clock.New(loc)
	src := rng.Global()
	locks := lock.NewUserLock()

	profileRepo := repository.NewProfileRepository(pool.Pool)
	ledgerRepo := repository.NewLedgerRepository(pool.Pool)
	habitRepo := repository.NewHabitRepository(pool.Pool)
	inventoryRepo := repository.NewInventoryRepository(pool.Pool)
	achievementRepo := repository.NewAchievementRepository(pool.Pool)
	questRepo := repository.NewQuestRepository(pool.Pool)

	achievements := service.NewAchievementService(
		profileRepo, habitRepo, questRepo, inventoryRepo, achievementRepo, clk,
	)
	profiles := service.NewProfileService(profileRepo, ledgerRepo, locks, clk, achievements)
	effects := service.NewEffectService(inventoryRepo, locks)
	quests := service.NewQuestService(
		questRepo, profiles, effects, achievements, clk, src,
		service.QuestConfig{PerDay: cfg.Game.QuestsPerDay, LookbackDays: cfg.Game.LookbackDays},
	)
	habits := service.NewHabitService(
		habitRepo, inventoryRepo, profiles, effects, achievements,
		loot.NewRoller(src, nil, nil), cfg.Game.Rewards, clk, locks,
	)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:       cfg,
		Profiles:     profiles,
		Effects:      effects,
		Achievements: achievements,
		Quests:       quests,
		Habits:       habits,
	})
	if err != nil {
		return err
	}

	ops := server.New(cfg.Server.Addr, pool, prometheus.DefaultGatherer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("timezone", loc.String()).Msg("Bot is starting...")
		telegramBot.Start()
		return nil
	})
	g.Go(ops.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		telegramBot.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return ops.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
