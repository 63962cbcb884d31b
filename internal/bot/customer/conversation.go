// Package customer holds the applicant-facing bot handlers. They translate
// updates into onboarding intents and render the resulting prompts.
package customer

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// conversation is embedded by every customer handler.
type conversation struct {
	log      zerolog.Logger
	service  bot.IntentProcessor
	renderer *messages.Renderer
	bot      ports.BotClientPort
}

func newConversation(deps *bot.Deps, baseLogger *zerolog.Logger, component string) conversation {
	return conversation{
		log:      baseLogger.With().Str("component", component).Logger(),
		service:  deps.Onboarding,
		renderer: deps.Renderer,
		bot:      deps.Bot,
	}
}

// intentFor fills the fields every intent carries.
func intentFor(update *ports.BotUpdate, kind onboarding.IntentKind) onboarding.Intent {
	return onboarding.Intent{
		ApplicantID: update.UserID,
		Kind:        kind,
		Handle:      update.Username,
		Locale:      messages.MatchLocale(update.LanguageCode),
	}
}

// run hands the intent to the onboarding service and sends the replies.
func (c *conversation) run(ctx context.Context, update *ports.BotUpdate, in onboarding.Intent) error {
	log := c.log.With().Int64("user_id", update.UserID).Str("intent", string(in.Kind)).Logger()

	prompt, err := c.service.OnIntent(ctx, in)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process intent")
		if _, sendErr := c.bot.SendMessage(ctx, c.renderer.TryLater(update.ChatID, in.Locale)); sendErr != nil {
			log.Error().Err(sendErr).Msg("Failed to send error message")
		}
		return err
	}

	for _, msg := range c.renderer.Render(update.ChatID, prompt) {
		if _, err := c.bot.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
	}
	return nil
}
