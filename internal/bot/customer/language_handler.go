package customer

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"context"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	bot.RegisterCommand(NewLanguageCommandHandler)
	bot.RegisterCallback(NewLanguageCallbackHandler)
}

type languageHandler struct {
	conversation
}

// NewLanguageCommandHandler handles /language by showing the language menu.
func NewLanguageCommandHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return &languageHandler{conversation: newConversation(deps, baseLogger, "language_handler")}
}

// NewLanguageCallbackHandler handles the lang_<code> buttons of the menu.
func NewLanguageCallbackHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CallbackHandler {
	return &languageHandler{conversation: newConversation(deps, baseLogger, "language_handler")}
}

func (h *languageHandler) Command() string {
	return "language"
}

func (h *languageHandler) Prefix() string {
	return messages.CallbackLanguagePrefix
}

// Handle sends an empty language request for the command, which the
// onboarding service answers with the menu, and the chosen code for a
// button press.
func (h *languageHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	in := intentFor(update, onboarding.IntentSetLanguage)
	if update.CallbackData != nil {
		in.Language = strings.TrimPrefix(*update.CallbackData, messages.CallbackLanguagePrefix)
		if err := h.bot.RemoveInlineKeyboard(ctx, update.ChatID, update.MessageID); err != nil {
			h.log.Warn().Err(err).Int64("user_id", update.UserID).Msg("Failed to remove language menu")
		}
	}
	return h.run(ctx, update, in)
}
