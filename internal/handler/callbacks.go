package handler

import (
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/iztleu/scrum-master-bot/internal/service"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleCallback handles ALL callback queries. Data is a semicolon
// separated token: "vote;<votingID>;<value>", "accept;<memberID>",
// "decline;<memberID>".
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	parts := strings.Split(data, ";")

	h.logger.Info("Processing callback",
		zap.String("data", data),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch parts[0] {
	case service.CallbackVote:
		if len(parts) == 3 {
			return h.handleVoteCallback(c, parts[1], parts[2])
		}
	case service.CallbackAcceptInvite:
		if len(parts) == 2 {
			return h.handleInviteCallback(c, parts[1], true)
		}
	case service.CallbackDeclineInvite:
		if len(parts) == 2 {
			return h.handleInviteCallback(c, parts[1], false)
		}
	}

	h.logger.Warn("Unhandled callback", zap.String("data", data))
	return c.Respond()
}

// handleVoteCallback records the pressed estimate button.
func (h *Handler) handleVoteCallback(c tele.Context, votingIDStr, value string) error {
	votingID, err := strconv.ParseInt(votingIDStr, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Некорректные данные кнопки"})
	}

	ctx, cancel := opContext()
	defer cancel()

	if err := h.votingService.CastVote(ctx, c.Sender().ID, votingID, value); err != nil {
		return h.respondError(c, err)
	}

	return c.Respond(&tele.CallbackResponse{Text: "Голос принят: " + value})
}

// handleInviteCallback handles the scrum master's accept/decline press.
func (h *Handler) handleInviteCallback(c tele.Context, memberIDStr string, accept bool) error {
	memberID, err := strconv.ParseInt(memberIDStr, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Некорректные данные кнопки"})
	}

	ctx, cancel := opContext()
	defer cancel()

	if accept {
		if err := h.teamService.AcceptInvite(ctx, c.Sender().ID, memberID); err != nil {
			return h.respondError(c, err)
		}
		return c.Respond(&tele.CallbackResponse{Text: "Заявка принята"})
	}

	if err := h.teamService.DeclineInvite(ctx, c.Sender().ID, memberID); err != nil {
		return h.respondError(c, err)
	}
	return c.Respond(&tele.CallbackResponse{Text: "Заявка отклонена"})
}

// respondError acknowledges the callback with a short error popup.
func (h *Handler) respondError(c tele.Context, err error) error {
	text := callbackErrorText(err)
	h.logger.Warn("Callback operation failed",
		zap.Int64("user_id", c.Sender().ID),
		zap.Error(err),
	)
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}
