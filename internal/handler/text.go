package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// handleText drives the conversation state machine: a pending action
// consumes the message as its next input, otherwise the text is
// matched against the menu buttons.
func (h *Handler) handleText(c tele.Context) error {
	sender := c.Sender()
	text := strings.TrimSpace(c.Text())

	// Commands are handled by their own handlers
	if strings.HasPrefix(text, "/") {
		return nil
	}

	ctx, cancel := opContext()
	defer cancel()

	if _, err := h.authService.EnsureUser(ctx, sender.ID, c.Chat().ID, sender.Username); err != nil {
		return h.replyError(c, err)
	}

	// Cancel always wins, whatever step the user is on.
	if text == btnCancel {
		h.clearAction(ctx, sender.ID)
		return c.Send("Действие отменено.", mainMenuMarkup())
	}

	action, err := h.actions.Get(ctx, sender.ID)
	if err != nil {
		return h.replyError(c, err)
	}

	if action != nil {
		step, ok := h.actionSteps[action.Type]
		if !ok {
			h.clearAction(ctx, sender.ID)
			return c.Send("Выберите действие:", mainMenuMarkup())
		}
		return step(c, action, text)
	}

	if cmd, ok := h.menuCommands[text]; ok {
		return cmd(c)
	}

	return c.Send("Выберите действие:", mainMenuMarkup())
}

func (h *Handler) handleCreateTeamCommand(c tele.Context) error {
	ctx, cancel := opContext()
	defer cancel()

	if err := h.setAction(ctx, c.Sender().ID, domain.ActionCreateTeam, domain.ActionContext{}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send("Введите название команды:", cancelMarkup())
}

func (h *Handler) handleMyTeamsCommand(c tele.Context) error {
	ctx, cancel := opContext()
	defer cancel()

	teams, err := h.teamService.MyTeams(ctx, c.Sender().ID)
	if err != nil {
		return h.replyError(c, err)
	}
	if len(teams) == 0 {
		return c.Send("У вас пока нет команд.", mainMenuMarkup())
	}

	var b strings.Builder
	b.WriteString("Ваши команды:\n")
	for _, team := range teams {
		fmt.Fprintf(&b, "• %s\n", team.Name)
	}
	b.WriteString("\nОтправьте название команды, чтобы открыть её меню.")

	if err := h.setAction(ctx, c.Sender().ID, domain.ActionShowTeams, domain.ActionContext{}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send(b.String(), cancelMarkup())
}

func (h *Handler) handleJoinTeamCommand(c tele.Context) error {
	ctx, cancel := opContext()
	defer cancel()

	if err := h.setAction(ctx, c.Sender().ID, domain.ActionJoinTeam, domain.ActionContext{}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send("Введите название команды, в которую хотите вступить:", cancelMarkup())
}

func (h *Handler) stepCreateTeam(c tele.Context, _ *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	team, err := h.teamService.CreateTeam(ctx, c.Sender().ID, text)
	if err != nil {
		return h.replyError(c, err)
	}

	h.clearAction(ctx, c.Sender().ID)
	return c.Send(
		fmt.Sprintf("Команда «%s» создана. Вы — её скрам-мастер.", team.Name),
		mainMenuMarkup(),
	)
}

func (h *Handler) stepChooseTeam(c tele.Context, _ *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	team, err := h.teamService.GetTeamByName(ctx, c.Sender().ID, text)
	if err != nil {
		return h.replyError(c, err)
	}

	if err := h.setAction(ctx, c.Sender().ID, domain.ActionChooseTeamAction, domain.ActionContext{TeamName: team.Name}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send(
		fmt.Sprintf("Команда «%s». Выберите действие:", team.Name),
		teamMenuMarkup(),
	)
}

func (h *Handler) stepJoinTeam(c tele.Context, _ *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	if err := h.teamService.SendInviteRequest(ctx, c.Sender().ID, text); err != nil {
		return h.replyError(c, err)
	}

	h.clearAction(ctx, c.Sender().ID)
	return c.Send("Заявка отправлена скрам-мастеру команды.", mainMenuMarkup())
}

// stepTeamAction routes the team menu buttons. The pending action
// keeps the chosen team's name between messages.
func (h *Handler) stepTeamAction(c tele.Context, action *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	userID := c.Sender().ID
	teamName := action.Context.TeamName

	switch text {
	case btnRenameTeam:
		if err := h.setAction(ctx, userID, domain.ActionRenameTeam, domain.ActionContext{TeamName: teamName}); err != nil {
			return h.replyError(c, err)
		}
		return c.Send("Введите новое название команды:", cancelMarkup())

	case btnStartVoting:
		if err := h.setAction(ctx, userID, domain.ActionStartVoting, domain.ActionContext{TeamName: teamName}); err != nil {
			return h.replyError(c, err)
		}
		return c.Send("Введите название задачи для оценки:", cancelMarkup())

	case btnFinishVoting:
		voting, err := h.votingService.GetActiveVoting(ctx, userID, teamName)
		if err != nil {
			return h.replyError(c, err)
		}
		if err := h.votingService.FinishVoting(ctx, userID, voting.ID); err != nil {
			return h.replyError(c, err)
		}
		return c.Send("Голосование завершено. Результаты отправлены команде.", teamMenuMarkup())

	case btnResendVoting:
		voting, err := h.votingService.GetActiveVoting(ctx, userID, teamName)
		if err != nil {
			return h.replyError(c, err)
		}
		if err := h.votingService.ResendVotingMessage(ctx, userID, voting.ID); err != nil {
			return h.replyError(c, err)
		}
		return c.Send("Опрос отправлен участникам повторно.", teamMenuMarkup())

	case btnLeaveTeam:
		if err := h.teamService.LeaveTeam(ctx, userID, teamName); err != nil {
			return h.replyError(c, err)
		}
		h.clearAction(ctx, userID)
		return c.Send(fmt.Sprintf("Вы покинули команду «%s».", teamName), mainMenuMarkup())
	}

	return c.Send("Выберите действие из меню команды:", teamMenuMarkup())
}

func (h *Handler) stepRenameTeam(c tele.Context, action *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	userID := c.Sender().ID
	if err := h.teamService.RenameTeam(ctx, userID, action.Context.TeamName, text); err != nil {
		return h.replyError(c, err)
	}

	if err := h.setAction(ctx, userID, domain.ActionChooseTeamAction, domain.ActionContext{TeamName: text}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Команда переименована в «%s».", text), teamMenuMarkup())
}

func (h *Handler) stepStartVoting(c tele.Context, action *domain.Action, text string) error {
	ctx, cancel := opContext()
	defer cancel()

	userID := c.Sender().ID
	voting, err := h.votingService.StartVoting(ctx, userID, action.Context.TeamName, text)
	if err != nil {
		return h.replyError(c, err)
	}

	if err := h.setAction(ctx, userID, domain.ActionChooseTeamAction, domain.ActionContext{TeamName: action.Context.TeamName}); err != nil {
		return h.replyError(c, err)
	}
	return c.Send(
		fmt.Sprintf("Голосование «%s» запущено. Участники получили опрос.", voting.Title),
		teamMenuMarkup(),
	)
}
