// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/radurbae/onepercent/internal/reward"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	PollerTimeout time.Duration `mapstructure:"poller_timeout" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

// ServerConfig holds the ops HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// GameConfig holds reward and quest scheduling configuration.
type GameConfig struct {
	Timezone     string       `mapstructure:"timezone" validate:"required"`
	QuestsPerDay int          `mapstructure:"quests_per_day" validate:"gte=1,lte=20"`
	LookbackDays int          `mapstructure:"lookback_days" validate:"gte=1,lte=90"`
	Rewards      reward.Table `mapstructure:"rewards"`
}

// Location resolves the configured timezone.
func (g *GameConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", g.Timezone, err)
	}
	return loc, nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, DATABASE_HOST, GAME_REWARDS_BASE_XP
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct constraints and the timezone.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Game.Location(); err != nil {
		return err
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.poller_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "onepercent")
	v.SetDefault("database.name", "onepercent")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("game.timezone", "UTC")
	v.SetDefault("game.quests_per_day", 5)
	v.SetDefault("game.lookback_days", 14)
	v.SetDefault("game.rewards.base_xp", reward.DefaultTable.BaseXP)
	v.SetDefault("game.rewards.base_gold", reward.DefaultTable.BaseGold)
	v.SetDefault("game.rewards.streak_xp_cap", reward.DefaultTable.StreakXPCap)
	v.SetDefault("game.rewards.daily_clear_xp", reward.DefaultTable.DailyClearXP)
	v.SetDefault("game.rewards.daily_clear_gold", reward.DefaultTable.DailyClearGold)
	v.SetDefault("game.rewards.dungeon_xp", reward.DefaultTable.DungeonXP)
	v.SetDefault("game.rewards.dungeon_gold", reward.DefaultTable.DungeonGold)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
