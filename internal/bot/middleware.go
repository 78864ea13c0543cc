package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/config"
	"github.com/radurbae/onepercent/internal/handler"
	"github.com/radurbae/onepercent/internal/metrics"
	"github.com/radurbae/onepercent/internal/service"
)

// knownUsers tracks users who have used the bot in a whitelisted group.
// They may also use it in private chat.
type knownUsers struct {
	mu    sync.RWMutex
	users map[int64]bool
}

func newKnownUsers() *knownUsers {
	return &knownUsers{users: make(map[int64]bool)}
}

func (k *knownUsers) add(userID int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.users[userID] = true
}

func (k *knownUsers) has(userID int64) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.users[userID]
}

// WhitelistMiddleware drops updates from chats outside the whitelist.
// Private chats are open when the whitelist is empty, otherwise only to
// users already seen in a whitelisted group.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	known := newKnownUsers()
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()

			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if known.has(sender.ID) || len(cfg.Whitelist.Chats) == 0 {
					return next(c)
				}
				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user not seen in a whitelisted group")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			known.add(sender.ID)
			return next(c)
		}
	}
}

// ProfileMiddleware makes sure the sender has a profile before any game
// command runs, so credits never hit a missing profile.
func ProfileMiddleware(profiles *service.ProfileService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if _, _, err := profiles.EnsureProfile(context.Background(), sender.ID, handler.DisplayName(sender)); err != nil {
				log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure profile")
				return c.Reply("❌ Something went wrong, please try again later")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs every incoming update.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received update")

			return next(c)
		}
	}
}

// RecoveryMiddleware turns a handler panic into an error.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("text", c.Text()).
						Msg("Recovered from panic in handler")
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(c)
		}
	}
}

// MetricsMiddleware counts commands by outcome and times them.
func MetricsMiddleware(commands []string) tele.MiddlewareFunc {
	known := make(map[string]bool, len(commands))
	for _, cmd := range commands {
		known[cmd] = true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			command := commandLabel(c, known)
			start := time.Now()

			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.BotCommands.WithLabelValues(command, status).Inc()
			metrics.BotCommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// commandLabel keeps metric cardinality bounded to registered commands.
func commandLabel(c tele.Context, known map[string]bool) string {
	if c.Callback() != nil {
		return "callback"
	}
	fields := strings.Fields(c.Text())
	if len(fields) == 0 {
		return "other"
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	if known[cmd] {
		return cmd
	}
	return "other"
}
