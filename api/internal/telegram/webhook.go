package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is the secret path Telegram posts updates to.
func WebhookPath(hash string) string { return "/webhook/" + hash }

// WebhookHandler accepts Telegram update POSTs and queues them on the
// returned channel. It answers 200 straight away so Telegram does not
// redeliver while a slow transform is running.
func WebhookHandler(buffer int) (http.HandlerFunc, tgbotapi.UpdatesChannel) {
	ch := make(chan tgbotapi.Update, buffer)
	h := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var upd tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&upd); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		select {
		case ch <- upd:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	return h, ch
}
