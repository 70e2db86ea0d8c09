package repository

import (
	"context"
	"errors"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// ErrActiveVotingExists is returned by CreateVoting when the team
// already has a non-finished voting.
var ErrActiveVotingExists = errors.New("active voting already exists for team")

// UserRepository defines chat-user data operations
type UserRepository interface {
	// EnsureUser upserts the user by telegram id and keeps the chat id
	// and username fresh, returning the stored row.
	EnsureUser(ctx context.Context, telegramUserID, chatID int64, userName string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
	GetByUserName(ctx context.Context, userName string) (*domain.User, error)
	SetVerifyCode(ctx context.Context, userID int64, code string) error
	// ConsumeVerifyCode atomically matches and clears the code,
	// returning the user. Returns nil when credentials do not match.
	ConsumeVerifyCode(ctx context.Context, userName, code string) (*domain.User, error)
}

// TeamRepository defines team and member data operations
type TeamRepository interface {
	// CreateTeam creates the team with the owner as its accepted
	// scrum master in a single transaction.
	CreateTeam(ctx context.Context, name string, owner *domain.User) (*domain.Team, error)
	GetByName(ctx context.Context, name string) (*domain.Team, error)
	GetByID(ctx context.Context, teamID int64) (*domain.Team, error)
	GetTeamsByUser(ctx context.Context, userID int64) ([]domain.Team, error)
	UserOwnsTeam(ctx context.Context, userID int64) (bool, error)
	TeamNameTaken(ctx context.Context, name string) (bool, error)
	Rename(ctx context.Context, teamID int64, newName string) error
	AddMember(ctx context.Context, teamID, userID int64, role domain.Role, status domain.MemberStatus) (*domain.Member, error)
	// GetInvitedMember returns the member with its user loaded, only
	// while the member is still in the invited state.
	GetInvitedMember(ctx context.Context, memberID int64) (*domain.Member, error)
	AcceptMember(ctx context.Context, memberID int64) error
	DeleteMember(ctx context.Context, memberID int64) error
	CountMembers(ctx context.Context, teamID int64) (int, error)
}

// VotingRepository defines voting session data operations
type VotingRepository interface {
	// CreateVoting inserts a voting only if the team has no active
	// one; the check and the insert are atomic. Returns
	// ErrActiveVotingExists otherwise.
	CreateVoting(ctx context.Context, teamID int64, title string) (*domain.Voting, error)
	GetVoting(ctx context.Context, votingID int64) (*domain.Voting, error)
	GetActiveVoting(ctx context.Context, teamID int64) (*domain.Voting, error)
	MarkStarted(ctx context.Context, votingID int64) error
	// AddVote appends the member's vote. Returns false without error
	// when the member has already voted.
	AddVote(ctx context.Context, votingID, memberID int64, value string) (bool, error)
	CountVotes(ctx context.Context, votingID int64) (int, error)
	GetVotes(ctx context.Context, votingID int64) ([]domain.Vote, error)
	// FinishVoting flips the status to finished. Returns true only
	// for the caller that performed the transition.
	FinishVoting(ctx context.Context, votingID int64) (bool, error)
}

// ActionRepository stores the single pending dialog step per chat user
type ActionRepository interface {
	// Upsert atomically replaces any pending action of the user.
	Upsert(ctx context.Context, action *domain.Action) error
	Get(ctx context.Context, telegramUserID int64) (*domain.Action, error)
	Delete(ctx context.Context, telegramUserID int64) error
}
