package telegram

import (
	"MTLAJoin/internal/shared/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// BotServer is responsible for running the bot (polling or webhook)
type BotServer struct {
	api     *tgbotapi.BotAPI
	handler UpdateHandler
	cfg     *config.BotConfig
	log     zerolog.Logger
}

// NewBotServer creates a new server instance
func NewBotServer(
	api *tgbotapi.BotAPI,
	handler UpdateHandler,
	cfg *config.BotConfig,
	baseLogger *zerolog.Logger,
) *BotServer {
	return &BotServer{
		api:     api,
		handler: handler,
		cfg:     cfg,
		log:     baseLogger.With().Str("component", "bot_server").Logger(),
	}
}

// Start begins the bot server based on the config mode. It blocks until
// ctx is cancelled and every accepted update has been handled.
func (s *BotServer) Start(ctx context.Context) error {
	s.log.Info().Str("mode", s.cfg.Mode).Int("workers", s.cfg.Workers).Msg("Starting bot server...")

	switch s.cfg.Mode {
	case "polling":
		return s.startPolling(ctx)
	case "webhook":
		return s.startWebhook(ctx)
	default:
		return fmt.Errorf("unknown bot mode: %s", s.cfg.Mode)
	}
}

// startPolling starts the bot in long polling mode
func (s *BotServer) startPolling(ctx context.Context) error {
	// 1. Clear any existing webhook and drop what queued up while we were down
	deleteWebhookConfig := tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}
	if _, err := s.api.Request(deleteWebhookConfig); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete webhook (continuing anyway)")
	}

	// 2. Create the channel for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	// 3. Start the workers
	d := newDispatcher(ctx, s.handler, s.cfg.Workers, s.log)
	s.log.Info().Msg("Polling update listener started")

	// 4. Main loop: Listen for updates and dispatch jobs
	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			d.stop()
			s.log.Info().Msg("Polling stopped gracefully")
			return nil
		case update := <-updates:
			d.dispatch(update)
		}
	}
}

// startWebhook starts the bot in webhook mode (for production)
func (s *BotServer) startWebhook(ctx context.Context) error {
	// 1. Set the webhook
	path := "/webhook/" + s.api.Token
	wh, err := tgbotapi.NewWebhook(s.cfg.Webhook.URL + path)
	if err != nil {
		return fmt.Errorf("create webhook config: %w", err)
	}
	if _, err := s.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := s.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.LastErrorDate != 0 {
		s.log.Error().Str("error_message", info.LastErrorMessage).Msg("Telegram webhook has a last error")
	}

	// 2. Start the workers and the HTTP endpoint feeding them
	d := newDispatcher(ctx, s.handler, s.cfg.Workers, s.log)

	// We use ListenAndServe, not ListenAndServeTLS,
	// assuming a reverse proxy (Nginx, Caddy) is handling SSL.
	listenAddr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Webhook.ListenPort)
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           s.webhookRouter(path, d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", listenAddr).Msg("Starting HTTP server for webhook")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		s.log.Error().Err(runErr).Msg("Webhook HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	d.stop()
	s.log.Info().Msg("Webhook server stopped gracefully")
	return runErr
}

func (s *BotServer) webhookRouter(path string, d *dispatcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		update, err := s.api.HandleUpdate(req)
		if err != nil {
			s.log.Warn().Err(err).Msg("Rejected malformed webhook update")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		d.dispatch(*update)
		w.WriteHeader(http.StatusOK)
	})
	return r
}
