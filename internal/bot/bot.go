// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/radurbae/onepercent/internal/config"
	"github.com/radurbae/onepercent/internal/handler"
	"github.com/radurbae/onepercent/internal/panel"
	"github.com/radurbae/onepercent/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	profiles *service.ProfileService

	// Handlers
	profileHandler   *handler.ProfileHandler
	questHandler     *handler.QuestHandler
	habitHandler     *handler.HabitHandler
	inventoryHandler *handler.InventoryHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config       *config.Config
	Profiles     *service.ProfileService
	Effects      *service.EffectService
	Achievements *service.AchievementService
	Quests       *service.QuestService
	Habits       *service.HabitService

	// Offline skips the Telegram API handshake.
	Offline bool
}

// Commands lists every command the bot registers.
var Commands = []string{
	"/start", "/profile", "/achievements", "/ledger",
	"/quests", "/done", "/refresh",
	"/habits", "/addhabit", "/check", "/skip", "/dungeon",
	"/bag", "/equip", "/unequip",
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" && !deps.Offline {
		return nil, errors.New("bot token is required")
	}

	pref := tele.Settings{
		Token:   deps.Config.Bot.Token,
		Poller:  &tele.LongPoller{Timeout: deps.Config.Bot.PollerTimeout},
		Offline: deps.Offline,
		OnError: func(err error, c tele.Context) {
			evt := log.Error().Err(err)
			if c != nil && c.Sender() != nil {
				evt = evt.Int64("user_id", c.Sender().ID)
			}
			evt.Msg("Bot handler failed")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		profiles: deps.Profiles,
	}

	// Initialize handlers
	b.profileHandler = handler.NewProfileHandler(deps.Profiles, deps.Effects, deps.Achievements, deps.Habits)
	b.questHandler = handler.NewQuestHandler(deps.Quests)
	b.habitHandler = handler.NewHabitHandler(deps.Habits)
	b.inventoryHandler = handler.NewInventoryHandler(deps.Effects)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(MetricsMiddleware(Commands))
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	// /start creates the profile itself and reports whether it is new
	b.bot.Handle("/start", b.profileHandler.HandleStart)

	// Everything else runs with a guaranteed profile
	game := b.bot.Group()
	game.Use(ProfileMiddleware(b.profiles))

	game.Handle("/profile", b.profileHandler.HandleProfile)
	game.Handle("/achievements", b.profileHandler.HandleAchievements)
	game.Handle("/ledger", b.profileHandler.HandleLedger)

	game.Handle("/quests", b.questHandler.HandleQuests)
	game.Handle("/done", b.questHandler.HandleDone)
	game.Handle("/refresh", b.questHandler.HandleRefresh)

	game.Handle("/habits", b.habitHandler.HandleHabits)
	game.Handle("/addhabit", b.habitHandler.HandleAddHabit)
	game.Handle("/check", b.habitHandler.HandleCheck)
	game.Handle("/skip", b.habitHandler.HandleSkip)
	game.Handle("/dungeon", b.habitHandler.HandleDungeon)

	game.Handle("/bag", b.inventoryHandler.HandleBag)
	game.Handle("/equip", b.inventoryHandler.HandleEquip)
	game.Handle("/unequip", b.inventoryHandler.HandleUnequip)

	// Inline keyboard buttons
	game.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to the handler owning the prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	data := handler.CallbackData(c)
	log.Debug().Str("data", data).Msg("Callback received")

	switch {
	case strings.HasPrefix(data, "quest_"):
		return b.questHandler.HandleCallback(c)
	case strings.HasPrefix(data, "habit_"):
		return b.habitHandler.HandleCallback(c)
	case strings.HasPrefix(data, panel.CallbackItemEquip), strings.HasPrefix(data, panel.CallbackItemUnequip):
		return b.inventoryHandler.HandleCallback(c)
	}
	return c.Respond()
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// Telebot returns the underlying telebot instance.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}
