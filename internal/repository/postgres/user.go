package postgres

import (
	"context"
	"database/sql"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUser upserts a user by telegram id, refreshing chat id and username
func (r *UserRepo) EnsureUser(ctx context.Context, telegramUserID, chatID int64, userName string) (*domain.User, error) {
	query := `
		INSERT INTO users (telegram_user_id, chat_id, user_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_user_id)
		DO UPDATE SET chat_id = $2, user_name = $3
		RETURNING id, telegram_user_id, chat_id, user_name, verify_code, created_at
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, telegramUserID, chatID, userName).Scan(
		&u.ID, &u.TelegramUserID, &u.ChatID, &u.UserName, &u.VerifyCode, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByTelegramID returns the user with the given telegram id, or nil
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	query := `
		SELECT id, telegram_user_id, chat_id, user_name, verify_code, created_at
		FROM users
		WHERE telegram_user_id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, telegramUserID))
}

// GetByUserName returns the user with the given username, or nil
func (r *UserRepo) GetByUserName(ctx context.Context, userName string) (*domain.User, error) {
	query := `
		SELECT id, telegram_user_id, chat_id, user_name, verify_code, created_at
		FROM users
		WHERE user_name = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, userName))
}

// SetVerifyCode stores a fresh one-time code for the user
func (r *UserRepo) SetVerifyCode(ctx context.Context, userID int64, code string) error {
	query := `UPDATE users SET verify_code = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, code)
	return err
}

// ConsumeVerifyCode matches and clears the code in one statement, so a
// code cannot be redeemed twice
func (r *UserRepo) ConsumeVerifyCode(ctx context.Context, userName, code string) (*domain.User, error) {
	query := `
		UPDATE users SET verify_code = ''
		WHERE user_name = $1 AND verify_code = $2 AND verify_code <> ''
		RETURNING id, telegram_user_id, chat_id, user_name, verify_code, created_at
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, userName, code))
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.TelegramUserID, &u.ChatID, &u.UserName, &u.VerifyCode, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
