package ports

import (
	"context"
)

// --- Bot Message Structures ---

// Button represents a single button in a keyboard.
type Button struct {
	Text string
	Data string // For callbacks
	URL  string // For URL buttons
}

// ReplyMarkup represents any kind of keyboard markup.
type ReplyMarkup struct {
	Buttons  [][]Button
	IsInline bool // Differentiates between Inline and Reply keyboards
}

// SendMessageParams holds all possible options for sending a message.
type SendMessageParams struct {
	ChatID                int64
	Text                  string
	ParseMode             string // e.g., "MarkdownV2" or "HTML"
	ReplyMarkup           *ReplyMarkup
	RemoveKeyboard        bool
	DisableWebPagePreview bool
}

// EditMessageParams edits the text of a message we sent earlier.
type EditMessageParams struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   string
	ReplyMarkup *ReplyMarkup // Only inline markup can be attached on edit
}

// AnswerCallbackParams stops the spinner on an inline button.
type AnswerCallbackParams struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// MenuCommand is one entry in the bot's command menu.
type MenuCommand struct {
	Command     string
	Description string
}

// --- Bot Client Port (Outbound) ---

// BotClientPort defines the interface for *sending* messages.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
	EditMessageText(ctx context.Context, params EditMessageParams) error
	RemoveInlineKeyboard(ctx context.Context, chatID int64, messageID int) error
	AnswerCallbackQuery(ctx context.Context, params AnswerCallbackParams) error
	SetMenuCommands(ctx context.Context, commands []MenuCommand) error
}

// --- Bot Handler Port (Inbound) ---

// BotUpdate represents a simplified, generic update.
type BotUpdate struct {
	MessageID       int
	ChatID          int64
	UserID          int64
	Username        string // Public handle, empty when the user has none
	LanguageCode    string // IETF tag reported by the client
	Text            string
	Command         string
	CommandArgs     string
	CallbackQueryID string
	CallbackData    *string
}

// CommandHandler defines the "plugin" interface for handling bot commands.
type CommandHandler interface {
	// Command returns the command string without the slash (e.g., "start")
	Command() string
	// Handle processes the update.
	Handle(ctx context.Context, update *BotUpdate) error
}

// CallbackHandler defines the interface for handling callback queries.
type CallbackHandler interface {
	// Prefix returns the prefix for the callback (e.g., "lang_")
	Prefix() string
	// Handle processes the callback.
	Handle(ctx context.Context, update *BotUpdate) error
}

// MessageHandler handles every plain message that is not a command.
type MessageHandler interface {
	Handle(ctx context.Context, update *BotUpdate) error
}
