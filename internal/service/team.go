package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
)

// TeamService manages teams and their membership: creation, rename,
// the invite handshake and leaving.
type TeamService struct {
	users    repository.UserRepository
	teams    repository.TeamRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewTeamService creates a new team service
func NewTeamService(
	users repository.UserRepository,
	teams repository.TeamRepository,
	notifier Notifier,
	logger *zap.Logger,
) *TeamService {
	return &TeamService{
		users:    users,
		teams:    teams,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateTeam creates a team owned by the requester, who becomes its
// scrum master. A user owns at most one team.
func (s *TeamService) CreateTeam(ctx context.Context, requesterID int64, name string) (*domain.Team, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", domain.CodeNameRequired)
	}
	if len([]rune(name)) > domain.MaxTeamNameLen {
		return nil, domain.NewValidationError("name", domain.CodeNameTooLong)
	}

	user, err := s.requireUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	owns, err := s.teams.UserOwnsTeam(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	if owns {
		return nil, domain.NewLogicError("user already owns a team", domain.CodeUserAlreadyHasTeam)
	}

	taken, err := s.teams.TeamNameTaken(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check team name: %w", err)
	}
	if taken {
		return nil, domain.NewLogicError("team with this name already exists", domain.CodeTeamAlreadyExists)
	}

	team, err := s.teams.CreateTeam(ctx, name, user)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}

	s.logger.Info("Team created",
		zap.Int64("team_id", team.ID),
		zap.String("name", team.Name),
		zap.Int64("owner_id", user.ID),
	)
	return team, nil
}

// MyTeams returns the teams the requester is an accepted member of.
func (s *TeamService) MyTeams(ctx context.Context, requesterID int64) ([]domain.Team, error) {
	user, err := s.requireUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teams.GetTeamsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get teams: %w", err)
	}
	return teams, nil
}

// GetTeamByName returns the team when the requester is a member of it.
func (s *TeamService) GetTeamByName(ctx context.Context, requesterID int64, name string) (*domain.Team, error) {
	team, _, err := s.requireMembership(ctx, requesterID, name)
	return team, err
}

// RenameTeam renames the team. Scrum master only; the new name must
// not collide with another team.
func (s *TeamService) RenameTeam(ctx context.Context, requesterID int64, teamName, newName string) error {
	if newName == "" {
		return domain.NewValidationError("newName", domain.CodeNameRequired)
	}
	if len([]rune(newName)) > domain.MaxTeamNameLen {
		return domain.NewValidationError("newName", domain.CodeNameTooLong)
	}

	team, member, err := s.requireMembership(ctx, requesterID, teamName)
	if err != nil {
		return err
	}
	if member.Role != domain.RoleScrumMaster {
		return domain.NewLogicError("user is not a scrum master of the team", domain.CodeUserIsNotScrumMaster)
	}

	taken, err := s.teams.TeamNameTaken(ctx, newName)
	if err != nil {
		return fmt.Errorf("check team name: %w", err)
	}
	if taken {
		return domain.NewLogicError("team name is already taken", domain.CodeNameAlreadyTaken)
	}

	if err := s.teams.Rename(ctx, team.ID, newName); err != nil {
		return fmt.Errorf("rename team: %w", err)
	}

	s.logger.Info("Team renamed",
		zap.Int64("team_id", team.ID),
		zap.String("old_name", team.Name),
		zap.String("new_name", newName),
	)
	return nil
}

// SendInviteRequest files a join request: the requester becomes an
// invited developer and the team's scrum master gets an inline
// accept/decline prompt.
func (s *TeamService) SendInviteRequest(ctx context.Context, requesterID int64, teamName string) error {
	if teamName == "" {
		return domain.NewValidationError("teamName", domain.CodeNameRequired)
	}

	user, err := s.requireUser(ctx, requesterID)
	if err != nil {
		return err
	}

	team, err := s.teams.GetByName(ctx, teamName)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return domain.NewValidationError("teamName", domain.CodeTeamNotFound)
	}
	if team.MemberByTelegramID(requesterID) != nil {
		return domain.NewLogicError("user is already in the team", domain.CodeUserAlreadyInTeam)
	}

	member, err := s.teams.AddMember(ctx, team.ID, user.ID, domain.RoleDeveloper, domain.MemberInvited)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	master := team.ScrumMaster()
	if master == nil || master.User == nil {
		s.logger.Warn("Team has no reachable scrum master for invite",
			zap.Int64("team_id", team.ID),
		)
		return nil
	}

	buttons := [][]Button{{
		{Text: "Принять", Data: fmt.Sprintf("%s;%d", CallbackAcceptInvite, member.ID)},
		{Text: "Отклонить", Data: fmt.Sprintf("%s;%d", CallbackDeclineInvite, member.ID)},
	}}
	text := fmt.Sprintf("Пользователь %s хочет вступить в команду «%s».", user.UserName, team.Name)
	if err := s.notifier.Send(ctx, master.User.ChatID, text, buttons); err != nil {
		s.logger.Warn("Failed to notify scrum master about invite",
			zap.Int64("team_id", team.ID),
			zap.Int64("chat_id", master.User.ChatID),
			zap.Error(err),
		)
	}
	return nil
}

// AcceptInvite confirms a pending join request. Only the scrum master
// of the member's team may accept it.
func (s *TeamService) AcceptInvite(ctx context.Context, requesterID, memberID int64) error {
	member, team, err := s.requireInvited(ctx, requesterID, memberID)
	if err != nil {
		return err
	}

	if err := s.teams.AcceptMember(ctx, member.ID); err != nil {
		return fmt.Errorf("accept member: %w", err)
	}

	s.logger.Info("Invite accepted",
		zap.Int64("team_id", team.ID),
		zap.Int64("member_id", member.ID),
	)

	if member.User != nil {
		text := fmt.Sprintf("Вас приняли в команду «%s».", team.Name)
		if err := s.notifier.Send(ctx, member.User.ChatID, text, nil); err != nil {
			s.logger.Warn("Failed to notify accepted member",
				zap.Int64("chat_id", member.User.ChatID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// DeclineInvite rejects a pending join request and removes the row.
func (s *TeamService) DeclineInvite(ctx context.Context, requesterID, memberID int64) error {
	member, team, err := s.requireInvited(ctx, requesterID, memberID)
	if err != nil {
		return err
	}

	if err := s.teams.DeleteMember(ctx, member.ID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	s.logger.Info("Invite declined",
		zap.Int64("team_id", team.ID),
		zap.Int64("member_id", member.ID),
	)

	if member.User != nil {
		text := fmt.Sprintf("Ваша заявка в команду «%s» отклонена.", team.Name)
		if err := s.notifier.Send(ctx, member.User.ChatID, text, nil); err != nil {
			s.logger.Warn("Failed to notify declined member",
				zap.Int64("chat_id", member.User.ChatID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// LeaveTeam removes the requester from the team. The owner cannot
// leave their own team.
func (s *TeamService) LeaveTeam(ctx context.Context, requesterID int64, teamName string) error {
	team, member, err := s.requireMembership(ctx, requesterID, teamName)
	if err != nil {
		return err
	}
	if member.UserID == team.OwnerID {
		return domain.NewLogicError("owner cannot leave the team", domain.CodeOwnerCannotLeaveTeam)
	}

	if err := s.teams.DeleteMember(ctx, member.ID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	s.logger.Info("Member left team",
		zap.Int64("team_id", team.ID),
		zap.Int64("member_id", member.ID),
	)

	master := team.ScrumMaster()
	if master != nil && master.User != nil && member.User != nil {
		text := fmt.Sprintf("Пользователь %s покинул команду «%s».", member.User.UserName, team.Name)
		if err := s.notifier.Send(ctx, master.User.ChatID, text, nil); err != nil {
			s.logger.Warn("Failed to notify scrum master about leave",
				zap.Int64("chat_id", master.User.ChatID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *TeamService) requireUser(ctx context.Context, requesterID int64) (*domain.User, error) {
	user, err := s.users.GetByTelegramID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewValidationError("requesterId", domain.CodeUserNotFound)
	}
	return user, nil
}

func (s *TeamService) requireMembership(ctx context.Context, requesterID int64, teamName string) (*domain.Team, *domain.Member, error) {
	if teamName == "" {
		return nil, nil, domain.NewValidationError("teamName", domain.CodeNameRequired)
	}

	if _, err := s.requireUser(ctx, requesterID); err != nil {
		return nil, nil, err
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

// requireInvited loads a pending member and checks the requester is
// the scrum master of that member's team.
func (s *TeamService) requireInvited(ctx context.Context, requesterID, memberID int64) (*domain.Member, *domain.Team, error) {
	member, err := s.teams.GetInvitedMember(ctx, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("get invited member: %w", err)
	}
	if member == nil {
		return nil, nil, domain.NewValidationError("memberId", domain.CodeMemberNotFound)
	}

	team, err := s.teams.GetByID(ctx, member.TeamID)
	if err != nil {
		return nil, nil, fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return nil, nil, domain.NewValidationError("memberId", domain.CodeTeamNotFound)
	}

	requester := team.MemberByTelegramID(requesterID)
	if requester == nil || requester.Role != domain.RoleScrumMaster {
		return nil, nil, domain.NewLogicError("user is not a scrum master of the team", domain.CodeUserIsNotScrumMaster)
	}
	return member, team, nil
}
