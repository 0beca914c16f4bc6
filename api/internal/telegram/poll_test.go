package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil", nil, 0},
		{"api retry after", &tgbotapi.Error{Code: 429, Message: "Too Many Requests",
			ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7}}, 7 * time.Second},
		{"text retry after", errors.New("Too Many Requests: retry after 5"), 5 * time.Second},
		{"429 without hint", errors.New("Too Many Requests"), 3 * time.Second},
		{"timeout", timeoutErr{}, 2 * time.Second},
		{"other", errors.New("bad gateway"), time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RetryDelay(tc.err))
		})
	}
}

func TestClampDelay(t *testing.T) {
	assert.Equal(t, pollBaseDelay, clampDelay(0))
	assert.Equal(t, pollMaxDelay, clampDelay(time.Minute))
	assert.Equal(t, 3*time.Second, clampDelay(3*time.Second))
}

type fakeUpdater struct {
	mu      sync.Mutex
	batches [][]tgbotapi.Update
	offsets []int
	cancel  context.CancelFunc
}

func (f *fakeUpdater) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, cfg.Offset)
	if len(f.batches) == 0 {
		f.cancel()
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestPollAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	up := &fakeUpdater{
		batches: [][]tgbotapi.Update{
			{{UpdateID: 10}, {UpdateID: 11}},
			{{UpdateID: 12}},
		},
		cancel: cancel,
	}

	var seen []int
	Poll(ctx, up, nil, func(u tgbotapi.Update) { seen = append(seen, u.UpdateID) })

	assert.Equal(t, []int{10, 11, 12}, seen)
	assert.Equal(t, []int{0, 12, 13}, up.offsets)
}

func TestPollStopsWhileBackingOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	up := updaterFunc(func(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
		calls++
		cancel()
		return nil, errors.New("bad gateway")
	})

	done := make(chan struct{})
	go func() {
		Poll(ctx, up, nil, func(tgbotapi.Update) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll kept sleeping after cancel")
	}
	assert.Equal(t, 1, calls)
}

type updaterFunc func(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)

func (f updaterFunc) GetUpdates(c tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) { return f(c) }

func TestWebhookHandler(t *testing.T) {
	h, ch := WebhookHandler(1)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, WebhookPath("abc"),
		strings.NewReader(`{"update_id":5,"message":{"message_id":1,"chat":{"id":42},"text":"hi"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	upd := <-ch
	assert.Equal(t, 5, upd.UpdateID)
	require.NotNil(t, upd.Message)
	assert.Equal(t, "hi", upd.Message.Text)
	assert.Equal(t, int64(42), upd.Message.Chat.ID)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/webhook/abc", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/webhook/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookPath(t *testing.T) {
	assert.Equal(t, "/webhook/abc", WebhookPath("abc"))
}
