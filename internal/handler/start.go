package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart registers the user and shows the main menu. Any pending
// conversation is dropped.
func (h *Handler) handleStart(c tele.Context) error {
	sender := c.Sender()

	ctx, cancel := opContext()
	defer cancel()

	if _, err := h.authService.EnsureUser(ctx, sender.ID, c.Chat().ID, sender.Username); err != nil {
		return h.replyError(c, err)
	}

	h.clearAction(ctx, sender.ID)

	h.logger.Info("User started bot",
		zap.Int64("user_id", sender.ID),
		zap.String("user_name", sender.Username),
	)

	return c.Send(
		"Привет! Я помогаю скрам-командам оценивать задачи.\n\nВыберите действие:",
		mainMenuMarkup(),
	)
}
