package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs updates of one chat in arrival order while different chats
// proceed in parallel, at most limit chats at a time.
type Dispatcher struct {
	handle func(context.Context, tgbotapi.Update)
	log    *zap.Logger
	g      errgroup.Group

	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update // present while a worker owns the chat
}

func NewDispatcher(handle func(context.Context, tgbotapi.Update), limit int, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		handle: handle,
		log:    log,
		queues: make(map[int64][]tgbotapi.Update),
	}
	if limit > 0 {
		d.g.SetLimit(limit)
	}
	return d
}

// Dispatch queues upd behind earlier updates of the same chat. It blocks only
// when limit chats are already being worked on.
func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	id := chatOf(upd)
	d.mu.Lock()
	q, busy := d.queues[id]
	d.queues[id] = append(q, upd)
	d.mu.Unlock()
	if busy {
		return
	}
	d.g.Go(func() error {
		d.drain(ctx, id)
		return nil
	})
}

// Wait blocks until every queued update has been handled.
func (d *Dispatcher) Wait() { _ = d.g.Wait() }

func (d *Dispatcher) drain(ctx context.Context, id int64) {
	for {
		d.mu.Lock()
		q := d.queues[id]
		if len(q) == 0 {
			delete(d.queues, id)
			d.mu.Unlock()
			return
		}
		upd := q[0]
		d.queues[id] = q[1:]
		d.mu.Unlock()

		d.run(ctx, upd)
	}
}

func (d *Dispatcher) run(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("update handler panic",
				zap.Int("update_id", upd.UpdateID), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	d.handle(ctx, upd)
}

// chatOf keys an update by chat; updates without a chat share key 0.
func chatOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		return upd.CallbackQuery.Message.Chat.ID
	default:
		return 0
	}
}
