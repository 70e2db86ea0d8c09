package postgres

import (
	"context"
	"database/sql"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for unique-constraint conflicts
const uniqueViolation = "23505"

// VotingRepo implements repository.VotingRepository
type VotingRepo struct {
	db *sql.DB
}

// NewVotingRepo creates a new voting repository
func NewVotingRepo(db *sql.DB) *VotingRepo {
	return &VotingRepo{db: db}
}

// CreateVoting inserts a voting unless the team already has an active
// one. The existence check and the insert run in a single statement,
// and the partial unique index on (team_id) WHERE status <> 'finished'
// closes the race between two concurrent starts.
func (r *VotingRepo) CreateVoting(ctx context.Context, teamID int64, title string) (*domain.Voting, error) {
	query := `
		INSERT INTO votings (team_id, title, status)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (
			SELECT 1 FROM votings WHERE team_id = $1 AND status <> $4
		)
		RETURNING id, created_at
	`
	v := &domain.Voting{TeamID: teamID, Title: title, Status: domain.VotingCreated}
	err := r.db.QueryRowContext(ctx, query,
		teamID, title, domain.VotingCreated, domain.VotingFinished,
	).Scan(&v.ID, &v.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, repository.ErrActiveVotingExists
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return nil, repository.ErrActiveVotingExists
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVoting returns the voting with the given id, or nil
func (r *VotingRepo) GetVoting(ctx context.Context, votingID int64) (*domain.Voting, error) {
	query := `SELECT id, team_id, title, status, created_at FROM votings WHERE id = $1`
	return r.scanVoting(r.db.QueryRowContext(ctx, query, votingID))
}

// GetActiveVoting returns the single non-finished voting of the team, or nil
func (r *VotingRepo) GetActiveVoting(ctx context.Context, teamID int64) (*domain.Voting, error) {
	query := `
		SELECT id, team_id, title, status, created_at
		FROM votings
		WHERE team_id = $1 AND status <> $2
	`
	return r.scanVoting(r.db.QueryRowContext(ctx, query, teamID, domain.VotingFinished))
}

// MarkStarted flips a created voting to started once the prompts went out
func (r *VotingRepo) MarkStarted(ctx context.Context, votingID int64) error {
	query := `UPDATE votings SET status = $2 WHERE id = $1 AND status = $3`
	_, err := r.db.ExecContext(ctx, query, votingID, domain.VotingStarted, domain.VotingCreated)
	return err
}

// AddVote appends the member's vote. The unique index on
// (voting_id, member_id) makes the second vote of a member a no-op,
// reported as inserted=false.
func (r *VotingRepo) AddVote(ctx context.Context, votingID, memberID int64, value string) (bool, error) {
	query := `
		INSERT INTO votes (voting_id, member_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (voting_id, member_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, votingID, memberID, value)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// CountVotes returns the number of votes cast on the voting
func (r *VotingRepo) CountVotes(ctx context.Context, votingID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM votes WHERE voting_id = $1`
	err := r.db.QueryRowContext(ctx, query, votingID).Scan(&count)
	return count, err
}

// GetVotes returns all votes with their members and users loaded
func (r *VotingRepo) GetVotes(ctx context.Context, votingID int64) ([]domain.Vote, error) {
	query := `
		SELECT v.id, v.voting_id, v.member_id, v.value, v.created_at,
		       m.id, m.team_id, m.user_id, m.role, m.status,
		       u.id, u.telegram_user_id, u.chat_id, u.user_name, u.verify_code, u.created_at
		FROM votes v
		JOIN members m ON m.id = v.member_id
		JOIN users u ON u.id = m.user_id
		WHERE v.voting_id = $1
		ORDER BY v.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, votingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		var m domain.Member
		var u domain.User
		if err := rows.Scan(
			&v.ID, &v.VotingID, &v.MemberID, &v.Value, &v.CreatedAt,
			&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.Status,
			&u.ID, &u.TelegramUserID, &u.ChatID, &u.UserName, &u.VerifyCode, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.User = &u
		v.Member = &m
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// FinishVoting flips the status to finished. Only the caller whose
// update actually changed the row gets true, which makes the
// auto-finish trigger exactly-once under concurrent last votes.
func (r *VotingRepo) FinishVoting(ctx context.Context, votingID int64) (bool, error) {
	query := `UPDATE votings SET status = $2 WHERE id = $1 AND status <> $2`
	res, err := r.db.ExecContext(ctx, query, votingID, domain.VotingFinished)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *VotingRepo) scanVoting(row *sql.Row) (*domain.Voting, error) {
	var v domain.Voting
	err := row.Scan(&v.ID, &v.TeamID, &v.Title, &v.Status, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
