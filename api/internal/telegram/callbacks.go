package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vibeshift/api/internal/store"
)

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID

	// Acknowledge first so the client stops its spinner.
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.logger().Debug("callback ack failed", zap.Error(err))
	}

	switch {
	case cb.Data == cbRetry:
		r.retry(ctx, cid)
	case strings.HasPrefix(cb.Data, lensPrefix):
		r.selectLens(ctx, cid, strings.TrimPrefix(cb.Data, lensPrefix))
	default:
		r.logger().Debug("unknown callback", zap.String("data", cb.Data))
	}
}

// selectLens stores the choice and, when this chat already ran a text through
// that lens, shows the cached result instead of calling upstream again.
func (r *Router) selectLens(ctx context.Context, cid int64, id string) {
	p, err := r.Pipe.Registry().Get(id)
	if err != nil {
		r.send(cid, "That lens is no longer available. Use /lens to pick another.")
		return
	}
	if err := r.State.SetSelectedLens(ctx, cid, id); err != nil {
		r.logger().Warn("save selected lens", zap.Int64("chat_id", cid), zap.Error(err))
	}

	last, err := r.State.LastResult(ctx, cid, id)
	switch {
	case err == nil:
		input, ierr := r.State.LastInput(ctx, cid)
		if ierr == nil && input == last.Input {
			r.sendResult(cid, p, last.Transformed)
			return
		}
	case !errors.Is(err, store.ErrNotFound):
		r.logger().Warn("load last result", zap.Int64("chat_id", cid), zap.Error(err))
	}
	r.send(cid, "Lens set to "+p.Label+". Send me some text, or /again to re-run your last one.")
}
