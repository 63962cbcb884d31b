package admin

import (
	"MTLAJoin/internal/adapters/memory"
	"MTLAJoin/internal/bot"
	"MTLAJoin/internal/bot/bottest"
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/operator"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminID = int64(1)

type fixture struct {
	repo   ports.ApplicantRepository
	client *bottest.RecordingBot
	deps   *bot.Deps
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	nopLogger := zerolog.Nop()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := memory.NewApplicantRepositoryWithClock(func() time.Time { return now }, &nopLogger)
	client := bottest.NewRecordingBot()
	cfg := &config.Config{Operator: config.OperatorConfig{AdminIDs: []int64{adminID}, ReminderDays: 7}}
	applicants := onboarding.NewService(repo, onboarding.NewEvaluator(nil, &nopLogger), nil, nil, &nopLogger)
	return &fixture{
		repo:   repo,
		client: client,
		now:    now,
		deps: &bot.Deps{
			Config:   cfg,
			Operator: operator.NewService(repo, applicants, operator.Config{}, &nopLogger),
			Bot:      client,
		},
	}
}

func (f *fixture) run(t *testing.T, ctor bot.CommandHandlerConstructor, from int64, args string) []string {
	t.Helper()
	nopLogger := zerolog.Nop()
	h := ctor(f.deps, &nopLogger)
	update := &ports.BotUpdate{ChatID: from, UserID: from, Command: h.Command(), CommandArgs: args}
	require.NoError(t, h.Handle(context.Background(), update))
	return f.client.Texts()
}

func (f *fixture) seed(t *testing.T, id int64, handle string, state domain.ApplicantState) {
	t.Helper()
	_, err := f.repo.Create(context.Background(), id, handle, domain.LocaleEN)
	require.NoError(t, err)
	if state != domain.StateCheckingHandle {
		_, err = f.repo.ApplyPatch(context.Background(), id, domain.ApplicantPatch{State: &state})
		require.NoError(t, err)
	}
}

func TestCommands_RequireAdmin(t *testing.T) {
	ctors := []bot.CommandHandlerConstructor{
		NewStatsHandler, NewIncompleteHandler, NewRemindersHandler,
		NewUserInfoHandler, NewResetUserHandler, NewHelpHandler,
	}
	for _, ctor := range ctors {
		f := newFixture(t)
		f.seed(t, 10, "bob", domain.StateAgreement)

		texts := f.run(t, ctor, 99, "10")
		assert.Equal(t, []string{textAccessDenied}, texts)

		a, err := f.repo.Get(context.Background(), 10)
		require.NoError(t, err)
		assert.NotNil(t, a, "non-admin must not change anything")
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 10, "a", domain.StateAgreement)
	f.seed(t, 11, "b", domain.StateCompleted)
	f.seed(t, 12, "c", domain.StateCompleted)

	texts := f.run(t, NewStatsHandler, adminID, "")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Total: 3")
	assert.Contains(t, texts[0], "Completed: 2")
	assert.Contains(t, texts[0], "Agreement: 1")
	assert.Contains(t, texts[0], "Checking username: 0")
}

func TestIncomplete(t *testing.T) {
	f := newFixture(t)
	texts := f.run(t, NewIncompleteHandler, adminID, "")
	assert.Equal(t, []string{"Every applicant has finished! 🎉"}, texts)

	f = newFixture(t)
	for i := int64(0); i < 22; i++ {
		f.seed(t, 100+i, fmt.Sprintf("user%d", i), domain.StateEnteringAddress)
	}
	texts = f.run(t, NewIncompleteHandler, adminID, "")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Incomplete applicants (22)")
	assert.Equal(t, operator.DefaultIncompleteLimit, strings.Count(texts[0], "👤"))
	assert.Contains(t, texts[0], "... and 2 more")
}

func TestReminders_BadArgumentUsesDefault(t *testing.T) {
	f := newFixture(t)
	texts := f.run(t, NewRemindersHandler, adminID, "soon")
	assert.Equal(t, []string{"No applicants inactive for more than 7 days"}, texts)

	f = newFixture(t)
	texts = f.run(t, NewRemindersHandler, adminID, "3")
	assert.Equal(t, []string{"No applicants inactive for more than 3 days"}, texts)
}

func TestUserInfo(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 10, "bob", domain.StateAgreement)

	texts := f.run(t, NewUserInfoHandler, adminID, "10")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "@bob")
	assert.Contains(t, texts[0], "State: Agreement")
	assert.Contains(t, texts[0], "Address entered: no")
	assert.NotContains(t, texts[0], "Stellar address")
}

func TestUserInfo_BadInput(t *testing.T) {
	tests := map[string]string{
		"":    "❌ Usage: /user_info <user_id>",
		"abc": textNeedNumber,
		"404": "Applicant 404 not found",
	}
	for args, want := range tests {
		t.Run(args, func(t *testing.T) {
			f := newFixture(t)
			assert.Equal(t, []string{want}, f.run(t, NewUserInfoHandler, adminID, args))
		})
	}
}

func TestResetUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 10, "bob", domain.StateCheckingAddress)

	texts := f.run(t, NewResetUserHandler, adminID, "10")
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Applicant 10 was reset")

	a, err := f.repo.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, a)

	f.run(t, NewResetUserHandler, adminID, "10")
	assert.Equal(t, "Applicant 10 not found", f.client.Texts()[1])
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	texts := f.run(t, NewHelpHandler, adminID, "")
	require.Len(t, texts, 1)
	for _, cmd := range []string{"/stats", "/incomplete", "/reminders", "/user_info", "/reset_user", "/help_admin"} {
		assert.Contains(t, texts[0], cmd)
	}
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunk("short", 100))

	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "line %02d ................\n", i)
	}
	parts := Chunk(b.String(), 100)
	require.Greater(t, len(parts), 1)
	for i, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 100)
		assert.True(t, strings.HasPrefix(p, fmt.Sprintf("Part %d/%d:", i+1, len(parts))))
	}

	long := strings.Repeat("я", 250)
	parts = Chunk(long, 100)
	total := 0
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 100)
		total += strings.Count(p, "я")
	}
	assert.Equal(t, 250, total)
}

func TestNotificationHandler(t *testing.T) {
	nopLogger := zerolog.Nop()
	client := new(bottest.MockBotClient)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.ChatID == 1 && strings.Contains(p.Text, "@alice") && strings.Contains(p.Text, "GADDR")
	})).Return(1, nil).Once()
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.ChatID == 2
	})).Return(0, errors.New("blocked")).Once()

	h := NewNotificationHandler(client, []int64{1, 2}, &nopLogger)
	err := h.HandleApplicantCompleted(context.Background(), ports.Event{
		Topic: ports.TopicApplicantCompleted,
		Data: ports.ApplicantCompletedEvent{
			ApplicantID:   7,
			Handle:        "alice",
			LedgerAddress: "GADDR",
			Recommender:   "GREC",
		},
	})

	assert.Error(t, err, "one failed delivery is reported")
	client.AssertExpectations(t)
}

func TestNotificationHandler_IgnoresForeignPayload(t *testing.T) {
	nopLogger := zerolog.Nop()
	client := new(bottest.MockBotClient)
	h := NewNotificationHandler(client, []int64{1}, &nopLogger)

	assert.NoError(t, h.HandleApplicantCompleted(context.Background(), ports.Event{Data: "nope"}))
	client.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}
