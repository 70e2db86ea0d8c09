package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
	"github.com/iztleu/scrum-master-bot/internal/service"
)

// requestTimeout bounds every user-triggered operation.
const requestTimeout = 10 * time.Second

// Handler manages all bot interactions
type Handler struct {
	bot           *tele.Bot
	authService   *service.AuthService
	teamService   *service.TeamService
	votingService *service.VotingService
	actions       repository.ActionRepository
	logger        *zap.Logger

	// Pending multi-step conversations, keyed by menu button text.
	menuCommands map[string]func(tele.Context) error
	actionSteps  map[domain.ActionType]func(tele.Context, *domain.Action, string) error
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	teamService *service.TeamService,
	votingService *service.VotingService,
	actions repository.ActionRepository,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		bot:           bot,
		authService:   authService,
		teamService:   teamService,
		votingService: votingService,
		actions:       actions,
		logger:        logger,
	}

	h.menuCommands = map[string]func(tele.Context) error{
		btnCreateTeam: h.handleCreateTeamCommand,
		btnMyTeams:    h.handleMyTeamsCommand,
		btnJoinTeam:   h.handleJoinTeamCommand,
	}

	h.actionSteps = map[domain.ActionType]func(tele.Context, *domain.Action, string) error{
		domain.ActionCreateTeam:       h.stepCreateTeam,
		domain.ActionShowTeams:        h.stepChooseTeam,
		domain.ActionJoinTeam:         h.stepJoinTeam,
		domain.ActionChooseTeamAction: h.stepTeamAction,
		domain.ActionRenameTeam:       h.stepRenameTeam,
		domain.ActionStartVoting:      h.stepStartVoting,
	}

	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)

	// Text messages drive the conversation state machine
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// opContext creates the bounded context every handler operation uses.
func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Main menu and team menu buttons. The reply keyboard sends the button
// text back as a plain message.
const (
	btnCreateTeam   = "Создать команду"
	btnMyTeams      = "Мои команды"
	btnJoinTeam     = "Вступить в команду"
	btnCancel       = "Отменить"
	btnRenameTeam   = "Переименовать команду"
	btnStartVoting  = "Начать голосование"
	btnFinishVoting = "Завершить голосование"
	btnResendVoting = "Повторить опрос"
	btnLeaveTeam    = "Покинуть команду"
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnCreateTeam)),
		menu.Row(menu.Text(btnMyTeams)),
		menu.Row(menu.Text(btnJoinTeam)),
	)
	return menu
}

// teamMenuMarkup returns the per-team action keyboard
func teamMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnStartVoting), menu.Text(btnFinishVoting)),
		menu.Row(menu.Text(btnResendVoting)),
		menu.Row(menu.Text(btnRenameTeam), menu.Text(btnLeaveTeam)),
		menu.Row(menu.Text(btnCancel)),
	)
	return menu
}

// cancelMarkup returns a keyboard with only the cancel button
func cancelMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnCancel)))
	return menu
}

// setAction persists the user's pending conversation step.
func (h *Handler) setAction(ctx context.Context, userID int64, actionType domain.ActionType, actionCtx domain.ActionContext) error {
	return h.actions.Upsert(ctx, &domain.Action{
		TelegramUserID: userID,
		Type:           actionType,
		Context:        actionCtx,
	})
}

// clearAction drops the user's pending conversation step.
func (h *Handler) clearAction(ctx context.Context, userID int64) {
	if err := h.actions.Delete(ctx, userID); err != nil {
		h.logger.Warn("Failed to clear pending action",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// replyError turns a service error into a user-facing message. The
// pending action is dropped so the user lands back on the main menu.
func (h *Handler) replyError(c tele.Context, err error) error {
	userID := c.Sender().ID

	ctx, cancel := opContext()
	defer cancel()
	h.clearAction(ctx, userID)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return c.Send(validationMessage(validationErr), mainMenuMarkup())
	}

	var logicErr *domain.LogicError
	if errors.As(err, &logicErr) {
		return c.Send(logicMessage(logicErr), mainMenuMarkup())
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		h.logger.Warn("Operation timed out", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Сервис отвечает слишком долго. Попробуйте позже.", mainMenuMarkup())
	}

	h.logger.Error("Handler operation failed", zap.Int64("user_id", userID), zap.Error(err))
	return c.Send("Произошла ошибка. Попробуйте позже.", mainMenuMarkup())
}

// validationMessage maps the first failed field to a human message.
func validationMessage(err *domain.ValidationError) string {
	if len(err.Fields) == 0 {
		return "Некорректный запрос."
	}
	if msg, ok := codeMessages[err.Fields[0].Code]; ok {
		return msg
	}
	return "Некорректный запрос."
}

// logicMessage maps a conflict code to a human message.
func logicMessage(err *domain.LogicError) string {
	if msg, ok := codeMessages[err.Code]; ok {
		return msg
	}
	return "Действие сейчас невозможно."
}

// callbackErrorText picks a short message for a callback popup.
func callbackErrorText(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationMessage(validationErr)
	}
	var logicErr *domain.LogicError
	if errors.As(err, &logicErr) {
		return logicMessage(logicErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "Сервис отвечает слишком долго. Попробуйте позже."
	}
	return "Произошла ошибка. Попробуйте позже."
}

var codeMessages = map[string]string{
	domain.CodeNameRequired:          "Название не может быть пустым.",
	domain.CodeNameTooLong:           "Название слишком длинное.",
	domain.CodeUserNameRequired:      "У вашего Telegram-аккаунта должен быть username.",
	domain.CodeUserNotFound:          "Пользователь не найден. Отправьте /start.",
	domain.CodeTeamNotFound:          "Команда не найдена.",
	domain.CodeTeamAlreadyExists:     "Команда с таким названием уже существует.",
	domain.CodeUserAlreadyHasTeam:    "У вас уже есть своя команда.",
	domain.CodeNameAlreadyTaken:      "Это название уже занято.",
	domain.CodeVotingNotFound:        "Активное голосование не найдено.",
	domain.CodeVotingAlreadyExists:   "В команде уже идёт голосование.",
	domain.CodeVotingAlreadyFinished: "Голосование уже завершено.",
	domain.CodeUserAlreadyVoted:      "Вы уже проголосовали.",
	domain.CodeUserIsNotMember:       "Вы не состоите в этой команде.",
	domain.CodeUserIsNotScrumMaster:  "Это действие доступно только скрам-мастеру.",
	domain.CodeMemberNotFound:        "Заявка не найдена.",
	domain.CodeUserAlreadyInTeam:     "Вы уже состоите в этой команде.",
	domain.CodeOwnerCannotLeaveTeam:  "Владелец не может покинуть свою команду.",
	domain.CodeWrongCredentials:      "Неверный код подтверждения.",
}
