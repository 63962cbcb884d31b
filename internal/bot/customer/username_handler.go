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
	bot.RegisterCallback(NewUsernameHandler)
}

// usernameHandler re-runs the handle check after the applicant says they
// have set a public username.
type usernameHandler struct {
	conversation
}

func NewUsernameHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CallbackHandler {
	return &usernameHandler{conversation: newConversation(deps, baseLogger, "username_handler")}
}

func (h *usernameHandler) Prefix() string {
	return messages.CallbackUsernameInstalled
}

func (h *usernameHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	// Keep the button only while the handle is still missing.
	if update.Username != "" {
		if err := h.bot.RemoveInlineKeyboard(ctx, update.ChatID, update.MessageID); err != nil {
			h.log.Warn().Err(err).Int64("user_id", update.UserID).Msg("Failed to remove button")
		}
	}
	in := intentFor(update, onboarding.IntentButton)
	in.Button = onboarding.ButtonHandleInstalled
	return h.run(ctx, update, in)
}
