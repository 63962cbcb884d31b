package bot

import (
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/operator"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"context"

	"github.com/rs/zerolog"
)

// IntentProcessor is the part of the onboarding service the handlers use.
type IntentProcessor interface {
	OnIntent(ctx context.Context, in onboarding.Intent) (onboarding.Prompt, error)
}

// Deps is everything a handler constructor may need.
// This allows us to pass dependencies from main.go
type Deps struct {
	Config     *config.Config
	Onboarding IntentProcessor
	Operator   *operator.Service
	Renderer   *messages.Renderer
	Bot        ports.BotClientPort
}

// --- Define types for handler "constructors" ---

type CommandHandlerConstructor func(deps *Deps, baseLogger *zerolog.Logger) ports.CommandHandler

type CallbackHandlerConstructor func(deps *Deps, baseLogger *zerolog.Logger) ports.CallbackHandler

type MessageHandlerConstructor func(deps *Deps, baseLogger *zerolog.Logger) ports.MessageHandler

// --- Create the global registries ---
var (
	commandRegistry  []CommandHandlerConstructor
	callbackRegistry []CallbackHandlerConstructor
	messageHandler   MessageHandlerConstructor
)

// RegisterCommand is called by handlers in their init() function
func RegisterCommand(constructor CommandHandlerConstructor) {
	commandRegistry = append(commandRegistry, constructor)
}

// RegisterCallback is called by callback handlers in their init()
func RegisterCallback(constructor CallbackHandlerConstructor) {
	callbackRegistry = append(callbackRegistry, constructor)
}

// RegisterMessage registers the single handler for plain messages.
func RegisterMessage(constructor MessageHandlerConstructor) {
	messageHandler = constructor
}

// RegisterAllHandlers is the single function called by main.go
// It builds all registered handlers and passes them to the router.
func RegisterAllHandlers(deps *Deps, router *Router, baseLogger *zerolog.Logger) {
	log := baseLogger.With().Str("component", "handler_registry").Logger()

	for _, constructor := range commandRegistry {
		router.RegisterCommandHandler(constructor(deps, baseLogger))
	}

	for _, constructor := range callbackRegistry {
		router.RegisterCallbackHandler(constructor(deps, baseLogger))
	}

	if messageHandler != nil {
		router.SetMessageHandler(messageHandler(deps, baseLogger))
		log.Info().Msg("Registered main message handler")
	}
}

// MenuCommands are shown to every applicant in the client's command menu.
var MenuCommands = []ports.MenuCommand{
	{Command: "start", Description: "Start the application"},
	{Command: "restart", Description: "Start over"},
	{Command: "language", Description: "Change language / Сменить язык"},
}
