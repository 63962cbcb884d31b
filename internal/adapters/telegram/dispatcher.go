package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UpdateHandler processes one update. The bot router implements it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

const workerQueueSize = 100

// dispatcher shards updates onto a fixed set of workers by sender id, so
// updates from one applicant are handled one at a time and in order.
type dispatcher struct {
	handler UpdateHandler
	queues  []chan tgbotapi.Update
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func newDispatcher(ctx context.Context, handler UpdateHandler, workers int, log zerolog.Logger) *dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &dispatcher{
		handler: handler,
		queues:  make([]chan tgbotapi.Update, workers),
		log:     log,
	}
	// In-flight updates finish even after shutdown starts.
	workCtx := context.WithoutCancel(ctx)
	for i := range d.queues {
		d.queues[i] = make(chan tgbotapi.Update, workerQueueSize)
		d.wg.Add(1)
		go d.work(workCtx, i, d.queues[i])
	}
	return d
}

func (d *dispatcher) work(ctx context.Context, id int, jobs <-chan tgbotapi.Update) {
	defer d.wg.Done()
	log := d.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Starting worker")
	for job := range jobs {
		d.handler.HandleUpdate(ctx, &job)
	}
	log.Debug().Msg("Stopping worker (channel closed)")
}

// dispatch queues the update on its sender's worker. It blocks while that
// worker's queue is full.
func (d *dispatcher) dispatch(update tgbotapi.Update) {
	d.queues[shardOf(update, len(d.queues))] <- update
}

// stop closes the queues and waits until every queued update is handled.
func (d *dispatcher) stop() {
	for _, q := range d.queues {
		close(q)
	}
	d.wg.Wait()
}

// shardOf maps the sender to a worker. Updates without a sender share
// worker zero.
func shardOf(update tgbotapi.Update, workers int) int {
	var id int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		id = update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		id = update.CallbackQuery.From.ID
	}
	if id < 0 {
		id = -id
	}
	return int(id % int64(workers))
}
