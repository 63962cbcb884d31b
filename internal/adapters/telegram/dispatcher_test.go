package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// recordingHandler remembers the text order per sender.
type recordingHandler struct {
	mu     sync.Mutex
	seen   map[int64][]string
	active map[int64]bool
	racing bool
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: map[int64][]string{}, active: map[int64]bool{}}
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update *tgbotapi.Update) {
	id := update.Message.From.ID

	h.mu.Lock()
	if h.active[id] {
		h.racing = true
	}
	h.active[id] = true
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.active[id] = false
	h.seen[id] = append(h.seen[id], update.Message.Text)
	h.mu.Unlock()
}

func msgFrom(id int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{From: &tgbotapi.User{ID: id}, Text: text}}
}

func TestDispatcher_PerSenderOrder(t *testing.T) {
	h := newRecordingHandler()
	d := newDispatcher(context.Background(), h, 4, zerolog.Nop())

	want := []string{"a", "b", "c", "d", "e"}
	for _, text := range want {
		for id := int64(1); id <= 6; id++ {
			d.dispatch(msgFrom(id, text))
		}
	}
	d.stop()

	assert.False(t, h.racing, "one sender must never be handled concurrently")
	for id := int64(1); id <= 6; id++ {
		assert.Equal(t, want, h.seen[id], "sender %d", id)
	}
}

func TestDispatcher_StopDrainsAfterCancel(t *testing.T) {
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	d := newDispatcher(ctx, h, 1, zerolog.Nop())

	d.dispatch(msgFrom(1, "queued"))
	cancel()
	d.stop()

	assert.Equal(t, []string{"queued"}, h.seen[1])
}

func TestShardOf(t *testing.T) {
	assert.Equal(t, 3, shardOf(msgFrom(13, ""), 5))
	assert.Equal(t, 3, shardOf(msgFrom(-13, ""), 5))
	assert.Equal(t, 2, shardOf(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 7}}}, 5))
	assert.Equal(t, 0, shardOf(tgbotapi.Update{}, 5))
}
