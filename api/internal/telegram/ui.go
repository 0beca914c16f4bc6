package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	lensPrefix = "lens:"
	cbRetry    = "retry"
)

// lensKeyboard lists every registered lens, one per row, marking the current one.
func (r *Router) lensKeyboard(current string) tgbotapi.InlineKeyboardMarkup {
	presets := r.Pipe.Registry().List()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(presets))
	for _, p := range presets {
		label := p.Label
		if p.ID == current {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, lensPrefix+p.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func retryKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Try again", cbRetry)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func formatTooLong(n, limit int) string {
	return fmt.Sprintf("Your text is %d characters. Please keep it under %d.", n, limit)
}

func formatGettingLong(n, limit int) string {
	return fmt.Sprintf("Heads up: %d/%d characters. Shorter text works best.", n, limit)
}
