package postgres

import (
	"context"
	"database/sql"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// TeamRepo implements repository.TeamRepository
type TeamRepo struct {
	db *sql.DB
}

// NewTeamRepo creates a new team repository
func NewTeamRepo(db *sql.DB) *TeamRepo {
	return &TeamRepo{db: db}
}

// CreateTeam creates the team with the owner as its accepted scrum
// master in one transaction
func (r *TeamRepo) CreateTeam(ctx context.Context, name string, owner *domain.User) (*domain.Team, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	team := &domain.Team{Name: name, OwnerID: owner.ID}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO teams (name, owner_id) VALUES ($1, $2) RETURNING id, created_at`,
		name, owner.ID,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return nil, err
	}

	member := domain.Member{
		TeamID: team.ID,
		UserID: owner.ID,
		Role:   domain.RoleScrumMaster,
		Status: domain.MemberAccepted,
		User:   owner,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO members (team_id, user_id, role, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		team.ID, owner.ID, member.Role, member.Status,
	).Scan(&member.ID)
	if err != nil {
		return nil, err
	}
	team.Members = []domain.Member{member}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return team, nil
}

// GetByName returns the team with all members and their users, or nil
func (r *TeamRepo) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	query := `SELECT id, name, owner_id, created_at FROM teams WHERE name = $1`
	return r.getTeam(ctx, r.db.QueryRowContext(ctx, query, name))
}

// GetByID returns the team with all members and their users, or nil
func (r *TeamRepo) GetByID(ctx context.Context, teamID int64) (*domain.Team, error) {
	query := `SELECT id, name, owner_id, created_at FROM teams WHERE id = $1`
	return r.getTeam(ctx, r.db.QueryRowContext(ctx, query, teamID))
}

func (r *TeamRepo) getTeam(ctx context.Context, row *sql.Row) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := r.loadMembers(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Members = members
	return &t, nil
}

func (r *TeamRepo) loadMembers(ctx context.Context, teamID int64) ([]domain.Member, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.role, m.status,
		       u.id, u.telegram_user_id, u.chat_id, u.user_name, u.verify_code, u.created_at
		FROM members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.id
	`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		var u domain.User
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.Status,
			&u.ID, &u.TelegramUserID, &u.ChatID, &u.UserName, &u.VerifyCode, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.User = &u
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetTeamsByUser returns teams where the user is an accepted member
func (r *TeamRepo) GetTeamsByUser(ctx context.Context, userID int64) ([]domain.Team, error) {
	query := `
		SELECT t.id, t.name, t.owner_id, t.created_at
		FROM teams t
		JOIN members m ON m.team_id = t.id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID, domain.MemberAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UserOwnsTeam reports whether the user already owns a team
func (r *TeamRepo) UserOwnsTeam(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE owner_id = $1)`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists)
	return exists, err
}

// TeamNameTaken reports whether a team with this name exists
func (r *TeamRepo) TeamNameTaken(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE name = $1)`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

// Rename updates the team name
func (r *TeamRepo) Rename(ctx context.Context, teamID int64, newName string) error {
	query := `UPDATE teams SET name = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, teamID, newName)
	return err
}

// AddMember adds a user to the team
func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID int64, role domain.Role, status domain.MemberStatus) (*domain.Member, error) {
	m := &domain.Member{TeamID: teamID, UserID: userID, Role: role, Status: status}
	query := `
		INSERT INTO members (team_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, teamID, userID, role, status).Scan(&m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetInvitedMember returns the member with its user while still invited, or nil
func (r *TeamRepo) GetInvitedMember(ctx context.Context, memberID int64) (*domain.Member, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.role, m.status,
		       u.id, u.telegram_user_id, u.chat_id, u.user_name, u.verify_code, u.created_at
		FROM members m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1 AND m.status = $2
	`
	var m domain.Member
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, memberID, domain.MemberInvited).Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.Status,
		&u.ID, &u.TelegramUserID, &u.ChatID, &u.UserName, &u.VerifyCode, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.User = &u
	return &m, nil
}

// AcceptMember flips an invited member to accepted
func (r *TeamRepo) AcceptMember(ctx context.Context, memberID int64) error {
	query := `UPDATE members SET status = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, memberID, domain.MemberAccepted)
	return err
}

// DeleteMember removes the member row (decline and leave are hard deletes)
func (r *TeamRepo) DeleteMember(ctx context.Context, memberID int64) error {
	query := `DELETE FROM members WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, memberID)
	return err
}

// CountMembers returns the number of member rows of the team
func (r *TeamRepo) CountMembers(ctx context.Context, teamID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM members WHERE team_id = $1`
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&count)
	return count, err
}
