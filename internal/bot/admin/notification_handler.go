package admin

import (
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// NotificationHandler listens for internal events (from the EventBus)
// and tells the operators about them.
type NotificationHandler struct {
	log      zerolog.Logger
	bot      ports.BotClientPort
	adminIDs []int64
}

// NewNotificationHandler creates a new handler for operator notifications.
// It is NOT a registered router/message handler; it's a system component.
func NewNotificationHandler(bot ports.BotClientPort, adminIDs []int64, baseLogger *zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		log:      baseLogger.With().Str("component", "notification_handler").Logger(),
		bot:      bot,
		adminIDs: adminIDs,
	}
}

// Subscribe attaches the handler to the topics it serves.
func (h *NotificationHandler) Subscribe(bus ports.EventBus) {
	bus.Subscribe(ports.TopicApplicantCompleted, h.HandleApplicantCompleted)
}

// HandleApplicantCompleted is an EventHandler for the "applicant:completed" topic.
func (h *NotificationHandler) HandleApplicantCompleted(ctx context.Context, event ports.Event) error {
	ev, ok := event.Data.(ports.ApplicantCompletedEvent)
	if !ok {
		h.log.Error().Str("topic", event.Topic).Msg("Received invalid data for completion event")
		return nil // Don't retry
	}

	log := h.log.With().Int64("applicant_id", ev.ApplicantID).Logger()
	log.Info().Int("admins", len(h.adminIDs)).Msg("Notifying operators about a completed application")

	text := formatCompletion(ev)
	var errs []error
	for _, id := range h.adminIDs {
		msg := messages.NewBuilder(id).WithText(text).WithoutPreview().Build()
		if _, err := h.bot.SendMessage(ctx, msg); err != nil {
			log.Error().Err(err).Int64("admin_id", id).Msg("Failed to notify operator")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatCompletion(ev ports.ApplicantCompletedEvent) string {
	var b strings.Builder
	b.WriteString("🎉 New application is ready\n\n")
	fmt.Fprintf(&b, "👤 @%s (%d)\n", ev.Handle, ev.ApplicantID)
	fmt.Fprintf(&b, "💎 %s\n", ev.LedgerAddress)
	if ev.Recommender != "" {
		fmt.Fprintf(&b, "👥 Recommended by: %s\n", ev.Recommender)
	}
	if !ev.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "📅 %s", formatTime(ev.CompletedAt))
	}
	return b.String()
}
