package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"github.com/iztleu/scrum-master-bot/internal/service"
)

// TelebotNotifier delivers service notifications through the bot.
type TelebotNotifier struct {
	bot *tele.Bot
}

// NewTelebotNotifier creates a notifier backed by the bot
func NewTelebotNotifier(bot *tele.Bot) *TelebotNotifier {
	return &TelebotNotifier{bot: bot}
}

// Send implements service.Notifier. Buttons become an inline keyboard
// whose Data comes back through the callback handler.
func (n *TelebotNotifier) Send(ctx context.Context, chatID int64, text string, buttons [][]service.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var opts []interface{}
	if len(buttons) > 0 {
		keyboard := make([][]tele.InlineButton, 0, len(buttons))
		for _, row := range buttons {
			teleRow := make([]tele.InlineButton, 0, len(row))
			for _, btn := range row {
				teleRow = append(teleRow, tele.InlineButton{Text: btn.Text, Data: btn.Data})
			}
			keyboard = append(keyboard, teleRow)
		}
		opts = append(opts, &tele.ReplyMarkup{InlineKeyboard: keyboard})
	}

	_, err := n.bot.Send(&tele.Chat{ID: chatID}, text, opts...)
	return err
}
