// Package admin holds the operator commands. Every command is limited to
// the configured admin ids.
package admin

import (
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/messages"
	"MTLAJoin/internal/core/operator"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	bot.RegisterCommand(NewStatsHandler)
	bot.RegisterCommand(NewIncompleteHandler)
	bot.RegisterCommand(NewRemindersHandler)
	bot.RegisterCommand(NewUserInfoHandler)
	bot.RegisterCommand(NewResetUserHandler)
	bot.RegisterCommand(NewHelpHandler)
}

const (
	textAccessDenied = "❌ You do not have access to this command"
	textFailed       = "❌ Could not build the report, see the logs"
	textNeedNumber   = "❌ The user id must be a number"

	helpText = `🔧 Operator commands:

📊 /stats - applicant statistics
📋 /incomplete - applicants who have not finished
🔔 /reminders [days] - applicants idle longer than days (default %d)
👤 /user_info <user_id> - one applicant in detail
🗑 /reset_user <user_id> - forget an applicant so they start from scratch
❓ /help_admin - this help

Examples:
/reminders 3
/user_info 123456789`
)

// reportFunc builds the reply text for one command.
type reportFunc func(h *command, ctx context.Context, update *ports.BotUpdate) (string, error)

// command is one operator command.
type command struct {
	log      zerolog.Logger
	cfg      *config.Config
	operator *operator.Service
	bot      ports.BotClientPort
	name     string
	report   reportFunc
}

func newCommand(deps *bot.Deps, baseLogger *zerolog.Logger, name string, report reportFunc) ports.CommandHandler {
	return &command{
		log:      baseLogger.With().Str("component", "admin_"+name).Logger(),
		cfg:      deps.Config,
		operator: deps.Operator,
		bot:      deps.Bot,
		name:     name,
		report:   report,
	}
}

func NewStatsHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "stats", (*command).stats)
}

func NewIncompleteHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "incomplete", (*command).incomplete)
}

func NewRemindersHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "reminders", (*command).reminders)
}

func NewUserInfoHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "user_info", (*command).userInfo)
}

func NewResetUserHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "reset_user", (*command).resetUser)
}

func NewHelpHandler(deps *bot.Deps, baseLogger *zerolog.Logger) ports.CommandHandler {
	return newCommand(deps, baseLogger, "help_admin", (*command).help)
}

// Command returns the command string (without the "/")
func (h *command) Command() string {
	return h.name
}

func (h *command) Handle(ctx context.Context, update *ports.BotUpdate) error {
	log := h.log.With().Int64("user_id", update.UserID).Logger()

	if !h.cfg.Operator.IsAdmin(update.UserID) {
		log.Warn().Msg("Operator command from a non-admin")
		return h.send(ctx, update.ChatID, textAccessDenied)
	}

	text, err := h.report(h, ctx, update)
	if err != nil {
		log.Error().Err(err).Msg("Operator command failed")
		return h.send(ctx, update.ChatID, textFailed)
	}
	log.Info().Msg("Operator command served")
	return h.send(ctx, update.ChatID, text)
}

func (h *command) send(ctx context.Context, chatID int64, text string) error {
	for _, part := range Chunk(text, MaxMessageLen) {
		msg := messages.NewBuilder(chatID).WithText(part).WithoutPreview().Build()
		if _, err := h.bot.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("send %s report: %w", h.name, err)
		}
	}
	return nil
}

func (h *command) stats(ctx context.Context, _ *ports.BotUpdate) (string, error) {
	stats, err := h.operator.Statistics(ctx)
	if err != nil {
		return "", err
	}
	return FormatStats(stats), nil
}

func (h *command) incomplete(ctx context.Context, _ *ports.BotUpdate) (string, error) {
	l, err := h.operator.Incomplete(ctx)
	if err != nil {
		return "", err
	}
	return FormatIncomplete(l), nil
}

// reminders takes an optional day count; anything unparsable means the default.
func (h *command) reminders(ctx context.Context, update *ports.BotUpdate) (string, error) {
	days, _ := strconv.Atoi(firstArg(update.CommandArgs))
	l, err := h.operator.ReminderCandidates(ctx, days)
	if err != nil {
		return "", err
	}
	return FormatReminders(l), nil
}

func (h *command) userInfo(ctx context.Context, update *ports.BotUpdate) (string, error) {
	id, msg, ok := parseUserID(update.CommandArgs, "user_info")
	if !ok {
		return msg, nil
	}
	d, err := h.operator.Details(ctx, id)
	if errors.Is(err, ports.ErrApplicantNotFound) {
		return fmt.Sprintf("Applicant %d not found", id), nil
	}
	if err != nil {
		return "", err
	}
	return FormatDetails(d), nil
}

func (h *command) resetUser(ctx context.Context, update *ports.BotUpdate) (string, error) {
	id, msg, ok := parseUserID(update.CommandArgs, "reset_user")
	if !ok {
		return msg, nil
	}
	err := h.operator.Reset(ctx, id)
	if errors.Is(err, ports.ErrApplicantNotFound) {
		return fmt.Sprintf("Applicant %d not found", id), nil
	}
	if err != nil {
		return "", err
	}
	h.log.Info().Int64("applicant_id", id).Msg("Applicant reset by operator")
	return fmt.Sprintf("✅ Applicant %d was reset. Their next /start begins from scratch.", id), nil
}

func (h *command) help(_ context.Context, _ *ports.BotUpdate) (string, error) {
	days := h.cfg.Operator.ReminderDays
	if days <= 0 {
		days = operator.DefaultReminderDays
	}
	return fmt.Sprintf(helpText, days), nil
}

func firstArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parseUserID returns the id, or the message to show instead.
func parseUserID(args, cmd string) (int64, string, bool) {
	arg := firstArg(args)
	if arg == "" {
		return 0, fmt.Sprintf("❌ Usage: /%s <user_id>", cmd), false
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, textNeedNumber, false
	}
	return id, "", true
}
