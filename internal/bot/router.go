package bot

import (
	"MTLAJoin/internal/core/ports"
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Router is the "Bot Facade." It holds all "plugins"
// and routes incoming updates to the correct handler.
type Router struct {
	log              zerolog.Logger
	botClient        ports.BotClientPort
	commandHandlers  map[string]ports.CommandHandler
	callbackHandlers map[string]ports.CallbackHandler
	messageHandler   ports.MessageHandler
}

// NewRouter creates a new bot facade/router.
func NewRouter(botClient ports.BotClientPort, baseLogger *zerolog.Logger) *Router {
	return &Router{
		log:              baseLogger.With().Str("component", "bot_router").Logger(),
		botClient:        botClient,
		commandHandlers:  make(map[string]ports.CommandHandler),
		callbackHandlers: make(map[string]ports.CallbackHandler),
	}
}

// RegisterCommandHandler adds a "plugin" to the router.
func (r *Router) RegisterCommandHandler(handler ports.CommandHandler) {
	cmd := handler.Command()
	r.commandHandlers[cmd] = handler
	r.log.Info().Str("command", cmd).Msg("Registered new command handler")
}

// RegisterCallbackHandler adds a "plugin" to the router.
func (r *Router) RegisterCallbackHandler(handler ports.CallbackHandler) {
	prefix := handler.Prefix()
	r.callbackHandlers[prefix] = handler
	r.log.Info().Str("prefix", prefix).Msg("Registered new callback handler")
}

// SetMessageHandler registers the single, global message handler
func (r *Router) SetMessageHandler(handler ports.MessageHandler) {
	r.messageHandler = handler
}

// HandleUpdate is the main entry point for a new update from Telegram.
// Commands win over callbacks, and plain text goes to the message handler.
func (r *Router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	// 1. Convert to our generic BotUpdate
	botUpdate, isSupported := ParseUpdate(update)
	if !isSupported {
		r.log.Debug().Int("update_id", update.UpdateID).Msg("Received unsupported update type")
		return
	}

	// 2. Add logger context
	ctxLogger := r.log.With().
		Str("request_id", uuid.NewString()).
		Int64("user_id", botUpdate.UserID).
		Int64("chat_id", botUpdate.ChatID).
		Logger()
	ctx = ctxLogger.WithContext(ctx)

	// 3. Route commands first
	if botUpdate.Command != "" {
		handler, ok := r.commandHandlers[botUpdate.Command]
		if !ok {
			ctxLogger.Info().Str("command", botUpdate.Command).Msg("Ignoring unknown command")
			return
		}
		ctxLogger.Info().Str("handler", botUpdate.Command).Msg("Routing to command handler")
		if err := handler.Handle(ctx, botUpdate); err != nil {
			ctxLogger.Error().Err(err).Msg("Command handler failed")
		}
		return
	}

	// 4. Route callbacks
	if botUpdate.CallbackData != nil {
		r.routeCallback(ctx, ctxLogger, botUpdate)
		return
	}

	// 5. Route plain text
	if r.messageHandler != nil && botUpdate.Text != "" {
		ctxLogger.Debug().Msg("Routing text message to message handler")
		if err := r.messageHandler.Handle(ctx, botUpdate); err != nil {
			ctxLogger.Error().Err(err).Msg("Message handler failed")
		}
		return
	}

	ctxLogger.Debug().Msg("Received unhandled message (no handler)")
}

func (r *Router) routeCallback(ctx context.Context, log zerolog.Logger, update *ports.BotUpdate) {
	// Always stop the client's spinner, whatever the handler does.
	defer func() {
		if err := r.botClient.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
			CallbackQueryID: update.CallbackQueryID,
		}); err != nil {
			log.Warn().Err(err).Msg("Failed to answer callback query")
		}
	}()

	data := *update.CallbackData
	for prefix, handler := range r.callbackHandlers {
		if strings.HasPrefix(data, prefix) {
			log.Info().Str("handler", prefix).Str("data", data).Msg("Routing to callback handler")
			if err := handler.Handle(ctx, update); err != nil {
				log.Error().Err(err).Msg("Callback handler failed")
			}
			return
		}
	}
	log.Warn().Str("data", data).Msg("No callback handler found")
}

// ParseUpdate converts a tgbotapi.Update into our internal, simplified struct.
func ParseUpdate(update *tgbotapi.Update) (*ports.BotUpdate, bool) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return nil, false
		}
		return &ports.BotUpdate{
			MessageID:       cb.Message.MessageID,
			ChatID:          cb.Message.Chat.ID,
			UserID:          cb.From.ID,
			Username:        cb.From.UserName,
			LanguageCode:    cb.From.LanguageCode,
			CallbackQueryID: cb.ID,
			CallbackData:    &cb.Data,
		}, true
	}

	if msg := update.Message; msg != nil {
		// Channel posts and service messages carry no sender.
		if msg.From == nil || msg.Chat == nil {
			return nil, false
		}
		return &ports.BotUpdate{
			MessageID:    msg.MessageID,
			ChatID:       msg.Chat.ID,
			UserID:       msg.From.ID,
			Username:     msg.From.UserName,
			LanguageCode: msg.From.LanguageCode,
			Text:         msg.Text,
			Command:      msg.Command(),
			CommandArgs:  strings.TrimSpace(msg.CommandArguments()),
		}, true
	}

	return nil, false // Unsupported update
}
