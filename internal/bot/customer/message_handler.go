package customer

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"context"

	"github.com/rs/zerolog"
)

func init() {
	bot.RegisterMessage(NewMessageHandler)
}

// messageHandler turns plain text into either a reply-keyboard button or
// free text such as a ledger address.
type messageHandler struct {
	conversation
}

func NewMessageHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.MessageHandler {
	return &messageHandler{conversation: newConversation(deps, baseLogger, "message_handler")}
}

func (h *messageHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	var in onboarding.Intent
	if tag, ok := messages.MatchButton(update.Text); ok {
		in = intentFor(update, onboarding.IntentButton)
		in.Button = tag
	} else {
		in = intentFor(update, onboarding.IntentText)
		in.Text = update.Text
	}
	return h.run(ctx, update, in)
}
