// Package bottest holds testify mocks shared by the bot handler tests.
package bottest

import (
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockBotClient is a mock for the BotClientPort
type MockBotClient struct {
	mock.Mock
}

var _ ports.BotClientPort = (*MockBotClient)(nil)

func (m *MockBotClient) SendMessage(ctx context.Context, params ports.SendMessageParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}

func (m *MockBotClient) EditMessageText(ctx context.Context, params ports.EditMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBotClient) RemoveInlineKeyboard(ctx context.Context, chatID int64, messageID int) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *MockBotClient) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBotClient) SetMenuCommands(ctx context.Context, commands []ports.MenuCommand) error {
	args := m.Called(ctx, commands)
	return args.Error(0)
}

// MockIntentProcessor stands in for the onboarding service.
type MockIntentProcessor struct {
	mock.Mock
}

func (m *MockIntentProcessor) OnIntent(ctx context.Context, in onboarding.Intent) (onboarding.Prompt, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(onboarding.Prompt), args.Error(1)
}

// RecordingBot collects every message sent through it.
type RecordingBot struct {
	MockBotClient

	mu   sync.Mutex
	sent []ports.SendMessageParams
}

// NewRecordingBot accepts any call and records sent messages.
func NewRecordingBot() *RecordingBot {
	b := &RecordingBot{}
	b.On("EditMessageText", mock.Anything, mock.Anything).Return(nil).Maybe()
	b.On("RemoveInlineKeyboard", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	b.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil).Maybe()
	b.On("SetMenuCommands", mock.Anything, mock.Anything).Return(nil).Maybe()
	return b
}

func (b *RecordingBot) SendMessage(_ context.Context, params ports.SendMessageParams) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, params)
	return len(b.sent), nil
}

// Sent returns a copy of the messages sent so far.
func (b *RecordingBot) Sent() []ports.SendMessageParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.SendMessageParams(nil), b.sent...)
}

// Texts returns the text of every sent message.
func (b *RecordingBot) Texts() []string {
	var out []string
	for _, m := range b.Sent() {
		out = append(out, m.Text)
	}
	return out
}
