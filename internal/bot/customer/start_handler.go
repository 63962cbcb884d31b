package customer

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"context"

	"github.com/rs/zerolog"
)

func init() {
	bot.RegisterCommand(NewStartHandler)
	bot.RegisterCommand(NewRestartHandler)
}

// startHandler serves both /start and /restart. For an applicant who
// already exists the two behave the same: the attempt starts over.
type startHandler struct {
	conversation
	command string
	kind    onboarding.IntentKind
}

// NewStartHandler creates a new handler for the /start command.
func NewStartHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &startHandler{
		conversation: newConversation(deps, baseLogger, "start_handler"),
		command:      "start",
		kind:         onboarding.IntentStart,
	}
}

// NewRestartHandler creates a new handler for the /restart command.
func NewRestartHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &startHandler{
		conversation: newConversation(deps, baseLogger, "restart_handler"),
		command:      "restart",
		kind:         onboarding.IntentRestart,
	}
}

// Command returns the command string (without the "/")
func (h *startHandler) Command() string {
	return h.command
}

func (h *startHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	return h.run(ctx, update, intentFor(update, h.kind))
}
