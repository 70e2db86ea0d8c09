package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// MockUserRepository is a mock for repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, telegramUserID, chatID int64, userName string) (*domain.User, error) {
	args := m.Called(ctx, telegramUserID, chatID, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUserName(ctx context.Context, userName string) (*domain.User, error) {
	args := m.Called(ctx, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetVerifyCode(ctx context.Context, userID int64, code string) error {
	args := m.Called(ctx, userID, code)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeVerifyCode(ctx context.Context, userName, code string) (*domain.User, error) {
	args := m.Called(ctx, userName, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockTeamRepository is a mock for repository.TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) CreateTeam(ctx context.Context, name string, owner *domain.User) (*domain.Team, error) {
	args := m.Called(ctx, name, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, teamID int64) (*domain.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockTeamRepository) GetTeamsByUser(ctx context.Context, userID int64) ([]domain.Team, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Team), args.Error(1)
}

func (m *MockTeamRepository) UserOwnsTeam(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) TeamNameTaken(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) Rename(ctx context.Context, teamID int64, newName string) error {
	args := m.Called(ctx, teamID, newName)
	return args.Error(0)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, teamID, userID int64, role domain.Role, status domain.MemberStatus) (*domain.Member, error) {
	args := m.Called(ctx, teamID, userID, role, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockTeamRepository) GetInvitedMember(ctx context.Context, memberID int64) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockTeamRepository) AcceptMember(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockTeamRepository) DeleteMember(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockTeamRepository) CountMembers(ctx context.Context, teamID int64) (int, error) {
	args := m.Called(ctx, teamID)
	return args.Int(0), args.Error(1)
}

// MockVotingRepository is a mock for repository.VotingRepository
type MockVotingRepository struct {
	mock.Mock
}

func (m *MockVotingRepository) CreateVoting(ctx context.Context, teamID int64, title string) (*domain.Voting, error) {
	args := m.Called(ctx, teamID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voting), args.Error(1)
}

func (m *MockVotingRepository) GetVoting(ctx context.Context, votingID int64) (*domain.Voting, error) {
	args := m.Called(ctx, votingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voting), args.Error(1)
}

func (m *MockVotingRepository) GetActiveVoting(ctx context.Context, teamID int64) (*domain.Voting, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voting), args.Error(1)
}

func (m *MockVotingRepository) MarkStarted(ctx context.Context, votingID int64) error {
	args := m.Called(ctx, votingID)
	return args.Error(0)
}

func (m *MockVotingRepository) AddVote(ctx context.Context, votingID, memberID int64, value string) (bool, error) {
	args := m.Called(ctx, votingID, memberID, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockVotingRepository) CountVotes(ctx context.Context, votingID int64) (int, error) {
	args := m.Called(ctx, votingID)
	return args.Int(0), args.Error(1)
}

func (m *MockVotingRepository) GetVotes(ctx context.Context, votingID int64) ([]domain.Vote, error) {
	args := m.Called(ctx, votingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Vote), args.Error(1)
}

func (m *MockVotingRepository) FinishVoting(ctx context.Context, votingID int64) (bool, error) {
	args := m.Called(ctx, votingID)
	return args.Bool(0), args.Error(1)
}

// MockActionRepository is a mock for repository.ActionRepository
type MockActionRepository struct {
	mock.Mock
}

func (m *MockActionRepository) Upsert(ctx context.Context, action *domain.Action) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockActionRepository) Get(ctx context.Context, telegramUserID int64) (*domain.Action, error) {
	args := m.Called(ctx, telegramUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Action), args.Error(1)
}

func (m *MockActionRepository) Delete(ctx context.Context, telegramUserID int64) error {
	args := m.Called(ctx, telegramUserID)
	return args.Error(0)
}
