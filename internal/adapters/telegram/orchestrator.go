package telegram

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/admin"
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/operator"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Orchestrator wires the bot API to the onboarding core and runs it.
type Orchestrator struct {
	cfg        *config.Config
	onboarding *onboarding.Service
	operator   *operator.Service
	bus        ports.EventBus
	baseLogger *zerolog.Logger
}

// NewOrchestrator creates a new bot orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	onboardingSvc *onboarding.Service,
	operatorSvc *operator.Service,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		onboarding: onboardingSvc,
		operator:   operatorSvc,
		bus:        bus,
		baseLogger: baseLogger,
	}
}

// Start connects to the bot API and serves updates until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	log := o.baseLogger.With().Str("bot", "onboarding").Logger()

	// 1. Create API
	api, err := tgbotapi.NewBotAPI(o.cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect bot api: %w", err)
	}
	api.Debug = o.cfg.IsDev()
	log.Info().Str("username", api.Self.UserName).Msg("Bot API connected")

	// 2. Create Client (Adapter)
	client := NewClient(api, &log)

	// 3. Create Router and register handlers
	router := bot.NewRouter(client, &log)
	deps := &bot.Deps{
		Config:     o.cfg,
		Onboarding: o.onboarding,
		Operator:   o.operator,
		Renderer:   messages.NewRenderer(o.cfg.Links),
		Bot:        client,
	}
	bot.RegisterAllHandlers(deps, router, &log)

	// 4. Operators hear about finished applications
	if o.bus != nil && len(o.cfg.Operator.AdminIDs) > 0 {
		admin.NewNotificationHandler(client, o.cfg.Operator.AdminIDs, &log).Subscribe(o.bus)
	}

	// 5. Set Menu
	if err := client.SetMenuCommands(ctx, bot.MenuCommands); err != nil {
		log.Warn().Err(err).Msg("Continuing without menu commands")
	}

	// 6. Create and Start Server
	server := NewBotServer(api, router, &o.cfg.Bot, &log)
	return server.Start(ctx)
}
