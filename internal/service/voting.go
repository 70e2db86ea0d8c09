package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
)

// Callback token prefixes embedded in inline keyboard buttons. The
// transport echoes them back, the handler routes on them.
const (
	CallbackVote          = "vote"
	CallbackAcceptInvite  = "accept"
	CallbackDeclineInvite = "decline"
)

// announceTimeout bounds the background "voting started" fan-out.
const announceTimeout = 30 * time.Second

// VotingService drives the lifecycle of planning-poker sessions:
// start, collect votes, finish (manual or automatic), announce results.
type VotingService struct {
	users    repository.UserRepository
	teams    repository.TeamRepository
	votings  repository.VotingRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewVotingService creates a new voting service
func NewVotingService(
	users repository.UserRepository,
	teams repository.TeamRepository,
	votings repository.VotingRepository,
	notifier Notifier,
	logger *zap.Logger,
) *VotingService {
	return &VotingService{
		users:    users,
		teams:    teams,
		votings:  votings,
		notifier: notifier,
		logger:   logger,
	}
}

// StartVoting creates a voting session for the team and prompts every
// member for an estimate. Only the team's scrum master may start one,
// and only while no other voting of the team is active.
func (s *VotingService) StartVoting(ctx context.Context, requesterID int64, teamName, title string) (*domain.Voting, error) {
	if title == "" {
		return nil, domain.NewValidationError("title", domain.CodeNameRequired)
	}

	team, member, err := s.resolveMember(ctx, requesterID, teamName)
	if err != nil {
		return nil, err
	}
	if member.Role != domain.RoleScrumMaster {
		return nil, domain.NewLogicError("user is not a scrum master of the team", domain.CodeUserIsNotScrumMaster)
	}

	voting, err := s.votings.CreateVoting(ctx, team.ID, title)
	if errors.Is(err, repository.ErrActiveVotingExists) {
		return nil, domain.NewLogicError("active voting already exists", domain.CodeVotingAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("create voting: %w", err)
	}

	s.logger.Info("Voting started",
		zap.Int64("voting_id", voting.ID),
		zap.String("team", team.Name),
		zap.String("title", title),
	)

	// Prompts go out in the background so the start reply is not held
	// hostage by slow chat deliveries.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()
		s.announce(ctx, voting, team)
	}()

	return voting, nil
}

// ResendVotingMessage re-sends the estimate prompt to members who have
// not voted yet. Scrum master only.
func (s *VotingService) ResendVotingMessage(ctx context.Context, requesterID, votingID int64) error {
	voting, team, member, err := s.resolveVoting(ctx, requesterID, votingID)
	if err != nil {
		return err
	}
	if member == nil || member.Role != domain.RoleScrumMaster {
		return domain.NewLogicError("user is not a scrum master of the team", domain.CodeUserIsNotScrumMaster)
	}
	if voting.Status == domain.VotingFinished {
		return domain.NewLogicError("voting is already finished", domain.CodeVotingAlreadyFinished)
	}

	s.announce(ctx, voting, team)
	return nil
}

// announce prompts every member without a vote and flips the voting
// from created to started.
func (s *VotingService) announce(ctx context.Context, voting *domain.Voting, team *domain.Team) {
	votes, err := s.votings.GetVotes(ctx, voting.ID)
	if err != nil {
		s.logger.Error("Failed to load votes for announcement",
			zap.Int64("voting_id", voting.ID),
			zap.Error(err),
		)
		return
	}

	voted := make(map[int64]bool, len(votes))
	for _, v := range votes {
		voted[v.MemberID] = true
	}

	var messages []Message
	for _, m := range team.Members {
		if voted[m.ID] || m.User == nil {
			continue
		}
		messages = append(messages, Message{
			ChatID:  m.User.ChatID,
			Text:    fmt.Sprintf("Началось голосование «%s». Выберите оценку:", voting.Title),
			Buttons: voteKeyboard(voting.ID),
		})
	}

	fanOut(ctx, s.notifier, s.logger, messages)

	if err := s.votings.MarkStarted(ctx, voting.ID); err != nil {
		s.logger.Error("Failed to mark voting started",
			zap.Int64("voting_id", voting.ID),
			zap.Error(err),
		)
	}
}

// voteKeyboard builds the fixed-scale estimate buttons plus pass,
// tagged so the callback resolves back to this voting.
func voteKeyboard(votingID int64) [][]Button {
	row := make([]Button, 0, len(domain.Scale))
	for _, v := range domain.Scale {
		row = append(row, Button{
			Text: v,
			Data: fmt.Sprintf("%s;%d;%s", CallbackVote, votingID, v),
		})
	}
	pass := Button{
		Text: domain.PassValue,
		Data: fmt.Sprintf("%s;%d;%s", CallbackVote, votingID, domain.PassValue),
	}
	return [][]Button{row, {pass}}
}

// CastVote records the member's estimate. When the vote completes the
// set (one vote per member), the voting finishes automatically.
func (s *VotingService) CastVote(ctx context.Context, requesterID, votingID int64, value string) error {
	voting, team, member, err := s.resolveVoting(ctx, requesterID, votingID)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.NewLogicError("user is not a member of the team", domain.CodeUserIsNotMember)
	}
	if voting.Status == domain.VotingFinished {
		return domain.NewLogicError("voting is already finished", domain.CodeVotingAlreadyFinished)
	}

	inserted, err := s.votings.AddVote(ctx, votingID, member.ID, value)
	if err != nil {
		return fmt.Errorf("add vote: %w", err)
	}
	if !inserted {
		return domain.NewLogicError("user has already voted", domain.CodeUserAlreadyVoted)
	}

	count, err := s.votings.CountVotes(ctx, votingID)
	if err != nil {
		return fmt.Errorf("count votes: %w", err)
	}
	members, err := s.teams.CountMembers(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}

	if count >= members {
		return s.finish(ctx, voting, team)
	}
	return nil
}

// FinishVoting closes the voting on the scrum master's request. A
// voting that is already finished is left untouched.
func (s *VotingService) FinishVoting(ctx context.Context, requesterID, votingID int64) error {
	voting, team, member, err := s.resolveVoting(ctx, requesterID, votingID)
	if err != nil {
		return err
	}
	if member == nil || member.Role != domain.RoleScrumMaster {
		return domain.NewLogicError("user is not a scrum master of the team", domain.CodeUserIsNotScrumMaster)
	}

	return s.finish(ctx, voting, team)
}

// GetActiveVoting returns the single non-finished voting of the team.
func (s *VotingService) GetActiveVoting(ctx context.Context, requesterID int64, teamName string) (*domain.Voting, error) {
	team, _, err := s.resolveMember(ctx, requesterID, teamName)
	if err != nil {
		return nil, err
	}

	voting, err := s.votings.GetActiveVoting(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("get active voting: %w", err)
	}
	if voting == nil {
		return nil, domain.NewLogicError("no active voting for team", domain.CodeVotingNotFound)
	}
	return voting, nil
}

// finish is the shared path of the manual and automatic transitions.
// The conditional status flip makes it idempotent: only the caller
// that actually finished the voting evaluates and announces results.
func (s *VotingService) finish(ctx context.Context, voting *domain.Voting, team *domain.Team) error {
	transitioned, err := s.votings.FinishVoting(ctx, voting.ID)
	if err != nil {
		return fmt.Errorf("finish voting: %w", err)
	}
	if !transitioned {
		return nil
	}

	votes, err := s.votings.GetVotes(ctx, voting.ID)
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}

	summary := domain.Summarize(votes)
	text := resultMessage(voting.Title, summary)

	s.logger.Info("Voting finished",
		zap.Int64("voting_id", voting.ID),
		zap.String("team", team.Name),
		zap.Int("numeric_votes", len(summary.Numeric)),
		zap.Int("passes", len(summary.Passed)),
		zap.Bool("warn", summary.Warn),
	)

	messages := make([]Message, 0, len(team.Members))
	for _, m := range team.Members {
		if m.User == nil {
			continue
		}
		messages = append(messages, Message{ChatID: m.User.ChatID, Text: text})
	}
	fanOut(ctx, s.notifier, s.logger, messages)

	return nil
}

// resultMessage renders the finish announcement: stats over numeric
// votes when there are any, the list of pass voters, and a spread
// warning when the evaluator flags one.
func resultMessage(title string, summary domain.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Голосование «%s» завершено.", title)

	if summary.HasStats {
		fmt.Fprintf(&b, "\nСредняя оценка: %.1f, максимум: %d, минимум: %d",
			summary.Average, summary.Max, summary.Min)
	}

	for _, v := range summary.Passed {
		name := fmt.Sprintf("участник %d", v.MemberID)
		if v.Member != nil && v.Member.User != nil {
			name = v.Member.User.UserName
		}
		fmt.Fprintf(&b, "\n%s — %s", name, v.Value)
	}

	if summary.Warn {
		b.WriteString("\n⚠️ Разброс оценок слишком велик — обсудите задачу и переголосуйте.")
	}

	return b.String()
}

// resolveMember loads the team by name and the requester's membership.
func (s *VotingService) resolveMember(ctx context.Context, requesterID int64, teamName string) (*domain.Team, *domain.Member, error) {
	if teamName == "" {
		return nil, nil, domain.NewValidationError("teamName", domain.CodeNameRequired)
	}

	user, err := s.users.GetByTelegramID(ctx, requesterID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil, domain.NewValidationError("requesterId", domain.CodeUserNotFound)
	}

	team, err := s.teams.GetByName(ctx, teamName)
	if err != nil {
		return nil, nil, fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return nil, nil, domain.NewValidationError("teamName", domain.CodeTeamNotFound)
	}

	member := team.MemberByTelegramID(requesterID)
	if member == nil {
		return nil, nil, domain.NewLogicError("user is not a member of the team", domain.CodeUserIsNotMember)
	}
	return team, member, nil
}

// resolveVoting loads the voting, its team and the requester's
// membership (nil when the requester is not on the team).
func (s *VotingService) resolveVoting(ctx context.Context, requesterID, votingID int64) (*domain.Voting, *domain.Team, *domain.Member, error) {
	voting, err := s.votings.GetVoting(ctx, votingID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get voting: %w", err)
	}
	if voting == nil {
		return nil, nil, nil, domain.NewValidationError("votingId", domain.CodeVotingNotFound)
	}

	team, err := s.teams.GetByID(ctx, voting.TeamID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return nil, nil, nil, domain.NewValidationError("votingId", domain.CodeTeamNotFound)
	}

	return voting, team, team.MemberByTelegramID(requesterID), nil
}
