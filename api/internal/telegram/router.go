package telegram

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vibeshift/api/internal/lens"
	"vibeshift/api/internal/store"
	"vibeshift/api/internal/transform"
	"vibeshift/api/internal/util"
)

// maxMessageRunes keeps replies under Telegram's 4096-character limit.
const maxMessageRunes = 3900

const (
	msgServerError = "Server error. Please try again in a few moments."
	msgNoInput     = "Nothing to retry yet. Send me some text first."
)

// Sender is the subset of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Limits struct {
	MaxInputLength int
	WarnLength     int
}

type Router struct {
	Bot    Sender
	Pipe   *transform.Pipeline
	State  store.ChatState
	Limits Limits
	Log    *zap.Logger

	// pick chooses the progress line; replaced in tests.
	pick func(n int) int
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		r.HandleCommand(ctx, cid, upd.Message.Command())
		return
	}
	if upd.Message.Text != "" {
		r.onText(ctx, cid, upd.Message.Text)
	}
}

func (r *Router) HandleCommand(ctx context.Context, cid int64, cmd string) {
	switch cmd {
	case "start":
		r.sendWithKeyboard(cid, "Send me some text and I'll show it to you through a different lens.\n"+
			"Pick a lens below, or use /lens any time. /again re-runs your last text.",
			r.lensKeyboard(r.selectedLens(ctx, cid)))
	case "lens":
		cur := r.selectedLens(ctx, cid)
		p, _ := r.Pipe.Registry().Get(cur)
		r.sendWithKeyboard(cid, "Current lens: "+p.Label+". Choose another:", r.lensKeyboard(cur))
	case "again":
		r.retry(ctx, cid)
	case "help":
		r.send(cid, "Commands: /lens, /again. Anything else you send is transformed with the selected lens.")
	default:
		r.send(cid, "Unknown command. Try /lens or /again.")
	}
}

// selectedLens falls back to the first lens when the chat has not chosen one
// or the stored id is no longer registered.
func (r *Router) selectedLens(ctx context.Context, cid int64) string {
	reg := r.Pipe.Registry()
	id, err := r.State.SelectedLens(ctx, cid)
	if err != nil && !store.IsNotFound(err) {
		r.logger().Warn("load selected lens", zap.Int64("chat_id", cid), zap.Error(err))
	}
	if err != nil || !reg.Has(id) {
		return reg.IDs()[0]
	}
	return id
}

func (r *Router) onText(ctx context.Context, cid int64, text string) {
	// The input is kept before anything can fail so /again always has it.
	if err := r.State.SetLastInput(ctx, cid, text); err != nil {
		r.logger().Warn("save last input", zap.Int64("chat_id", cid), zap.Error(err))
	}
	r.run(ctx, cid, text)
}

func (r *Router) retry(ctx context.Context, cid int64) {
	text, err := r.State.LastInput(ctx, cid)
	if err != nil {
		if !store.IsNotFound(err) {
			r.logger().Warn("load last input", zap.Int64("chat_id", cid), zap.Error(err))
		}
		r.send(cid, msgNoInput)
		return
	}
	r.run(ctx, cid, text)
}

func (r *Router) run(ctx context.Context, cid int64, text string) {
	n := utf8.RuneCountInString(text)
	if strings.TrimSpace(text) == "" {
		r.send(cid, transform.MsgTextRequired)
		return
	}
	if r.Limits.MaxInputLength > 0 && n > r.Limits.MaxInputLength {
		r.send(cid, formatTooLong(n, r.Limits.MaxInputLength))
		return
	}
	if r.Limits.WarnLength > 0 && n > r.Limits.WarnLength {
		r.send(cid, formatGettingLong(n, r.Limits.MaxInputLength))
	}

	lensID := r.selectedLens(ctx, cid)
	preset, _ := r.Pipe.Registry().Get(lensID)
	if len(preset.Progress) > 0 {
		r.send(cid, preset.Progress[r.pickIndex(len(preset.Progress))])
	}

	res, err := r.Pipe.Transform(ctx, transform.Request{Text: text, Lens: lensID})
	if err != nil {
		r.sendWithKeyboard(cid, userMessage(err), retryKeyboard())
		return
	}

	if err := r.State.SaveResult(ctx, cid, store.LastResult{
		Lens:        lensID,
		Input:       text,
		Transformed: res.Transformed,
	}); err != nil {
		r.logger().Warn("save result", zap.Int64("chat_id", cid), zap.Error(err))
	}
	r.sendResult(cid, preset, res.Transformed)
}

func (r *Router) pickIndex(n int) int {
	if r.pick != nil {
		return r.pick(n)
	}
	return rand.IntN(n)
}

// userMessage maps a pipeline failure to chat copy by status class, the
// same way the web client does.
func userMessage(err error) string {
	switch status := transform.KindOf(err).HTTPStatus(); {
	case status == http.StatusTooManyRequests:
		return transform.MsgRateLimited
	case status == http.StatusBadRequest:
		return transform.MessageOf(err)
	case status >= http.StatusInternalServerError:
		return msgServerError
	default:
		return transform.MsgGeneric
	}
}

func (r *Router) sendResult(cid int64, p lens.Preset, text string) {
	r.send(cid, "🔍 "+p.Label+":\n\n"+util.Truncate(text, maxMessageRunes))
}

func (r *Router) send(chatID int64, text string) {
	r.deliver(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	r.deliver(msg)
}

// deliver logs send failures as network errors; there is nobody to tell.
func (r *Router) deliver(c tgbotapi.Chattable) {
	if _, err := r.Bot.Send(c); err != nil {
		r.logger().Warn("telegram send failed",
			zap.String("kind", string(transform.KindNetwork)), zap.Error(err))
	}
}
