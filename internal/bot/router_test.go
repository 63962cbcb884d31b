package bot

import (
	"MTLAJoin/internal/bot/bottest"
	"MTLAJoin/internal/core/ports"
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockCommandHandler
type MockCommandHandler struct {
	mock.Mock
}

func (m *MockCommandHandler) Command() string {
	args := m.Called()
	return args.String(0)
}
func (m *MockCommandHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// MockCallbackHandler
type MockCallbackHandler struct {
	mock.Mock
}

func (m *MockCallbackHandler) Prefix() string {
	args := m.Called()
	return args.String(0)
}
func (m *MockCallbackHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// MockMessageHandler is a mock "plugin" for text
type MockMessageHandler struct {
	mock.Mock
}

func (m *MockMessageHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func commandUpdate(text string, length int) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 123,
		Message: &tgbotapi.Message{
			MessageID: 456,
			From:      &tgbotapi.User{ID: 789, UserName: "testuser", LanguageCode: "ru"},
			Chat:      &tgbotapi.Chat{ID: 1000},
			Text:      text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: length},
			},
		},
	}
}

func textUpdate(text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 124,
		Message: &tgbotapi.Message{
			MessageID: 457,
			From:      &tgbotapi.User{ID: 789},
			Chat:      &tgbotapi.Chat{ID: 1000},
			Text:      text,
		},
	}
}

// --- Tests ---

func TestRouter_HandleUpdate_Command(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	mockBotClient := new(bottest.MockBotClient)
	router := NewRouter(mockBotClient, &nopLogger)

	startHandler := new(MockCommandHandler)
	startHandler.On("Command").Return("start")
	startHandler.On("Handle", mock.Anything, mock.MatchedBy(func(u *ports.BotUpdate) bool {
		return u.UserID == 789 && u.Username == "testuser" && u.LanguageCode == "ru"
	})).Return(nil).Once()

	helpHandler := new(MockCommandHandler)
	helpHandler.On("Command").Return("help")

	router.RegisterCommandHandler(startHandler)
	router.RegisterCommandHandler(helpHandler)

	router.HandleUpdate(ctx, commandUpdate("/start", 6))

	startHandler.AssertExpectations(t)
	helpHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestRouter_HandleUpdate_CommandArgs(t *testing.T) {
	nopLogger := zerolog.Nop()
	router := NewRouter(new(bottest.MockBotClient), &nopLogger)

	handler := new(MockCommandHandler)
	handler.On("Command").Return("reminders")
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(u *ports.BotUpdate) bool {
		return u.Command == "reminders" && u.CommandArgs == "3"
	})).Return(nil).Once()
	router.RegisterCommandHandler(handler)

	router.HandleUpdate(context.Background(), commandUpdate("/reminders  3", 10))

	handler.AssertExpectations(t)
}

func TestRouter_HandleUpdate_UnknownCommandIsNotText(t *testing.T) {
	nopLogger := zerolog.Nop()
	router := NewRouter(new(bottest.MockBotClient), &nopLogger)

	messageHandler := new(MockMessageHandler)
	router.SetMessageHandler(messageHandler)

	router.HandleUpdate(context.Background(), commandUpdate("/nope", 5))

	messageHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestRouter_HandleUpdate_Callback(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	mockBotClient := new(bottest.MockBotClient)
	router := NewRouter(mockBotClient, &nopLogger)

	langHandler := new(MockCallbackHandler)
	langHandler.On("Prefix").Return("lang_")
	langHandler.On("Handle", mock.Anything, mock.AnythingOfType("*ports.BotUpdate")).Return(nil).Once()
	router.RegisterCallbackHandler(langHandler)

	// The router answers every callback so the client stops its spinner.
	mockBotClient.On("AnswerCallbackQuery", mock.Anything, ports.AnswerCallbackParams{CallbackQueryID: "cb_id_1"}).
		Return(nil).Once()

	fakeUpdate := &tgbotapi.Update{
		UpdateID: 124,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb_id_1",
			From: &tgbotapi.User{ID: 789, UserName: "testuser"},
			Message: &tgbotapi.Message{
				MessageID: 456,
				Chat:      &tgbotapi.Chat{ID: 1000},
			},
			Data: "lang_ru",
		},
	}

	router.HandleUpdate(ctx, fakeUpdate)

	langHandler.AssertExpectations(t)
	mockBotClient.AssertExpectations(t)
}

func TestRouter_HandleUpdate_UnknownCallbackStillAnswered(t *testing.T) {
	nopLogger := zerolog.Nop()
	mockBotClient := new(bottest.MockBotClient)
	router := NewRouter(mockBotClient, &nopLogger)
	mockBotClient.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil).Once()

	router.HandleUpdate(context.Background(), &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 1},
			Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 1}},
			Data:    "stale_button",
		},
	})

	mockBotClient.AssertExpectations(t)
}

func TestRouter_HandleUpdate_Text(t *testing.T) {
	nopLogger := zerolog.Nop()
	mockBotClient := new(bottest.MockBotClient)
	router := NewRouter(mockBotClient, &nopLogger)

	messageHandler := new(MockMessageHandler)
	messageHandler.On("Handle", mock.Anything, mock.MatchedBy(func(u *ports.BotUpdate) bool {
		return u.Text == "GABC" && u.Command == ""
	})).Return(nil).Once()
	router.SetMessageHandler(messageHandler)

	router.HandleUpdate(context.Background(), textUpdate("GABC"))

	messageHandler.AssertExpectations(t)
	mockBotClient.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestRouter_HandleUpdate_NonTextIgnored(t *testing.T) {
	nopLogger := zerolog.Nop()
	router := NewRouter(new(bottest.MockBotClient), &nopLogger)

	messageHandler := new(MockMessageHandler)
	router.SetMessageHandler(messageHandler)

	router.HandleUpdate(context.Background(), textUpdate(""))

	messageHandler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestParseUpdate_Unsupported(t *testing.T) {
	_, ok := ParseUpdate(&tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = ParseUpdate(&tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	assert.False(t, ok, "messages without a sender are ignored")

	_, ok = ParseUpdate(&tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 1}}})
	assert.False(t, ok, "inline-mode callbacks carry no message")
}

func TestParseUpdate_Message(t *testing.T) {
	u, ok := ParseUpdate(commandUpdate("/user_info 42", 10))
	require.True(t, ok)
	assert.Equal(t, "user_info", u.Command)
	assert.Equal(t, "42", u.CommandArgs)
	assert.Equal(t, int64(1000), u.ChatID)
	assert.Nil(t, u.CallbackData)
}
