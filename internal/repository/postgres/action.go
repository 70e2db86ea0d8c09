package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// ActionRepo implements repository.ActionRepository. The primary key
// on telegram_user_id enforces the one-pending-action-per-user rule.
type ActionRepo struct {
	db *sql.DB
}

// NewActionRepo creates a new action repository
func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

// Upsert replaces whatever action the user had with the new one
func (r *ActionRepo) Upsert(ctx context.Context, action *domain.Action) error {
	raw, err := json.Marshal(action.Context)
	if err != nil {
		return fmt.Errorf("marshal action context: %w", err)
	}

	query := `
		INSERT INTO actions (telegram_user_id, type, context)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_user_id)
		DO UPDATE SET type = $2, context = $3, created_at = NOW()
	`
	_, err = r.db.ExecContext(ctx, query, action.TelegramUserID, action.Type, raw)
	return err
}

// Get returns the user's pending action, or nil
func (r *ActionRepo) Get(ctx context.Context, telegramUserID int64) (*domain.Action, error) {
	query := `
		SELECT telegram_user_id, type, context, created_at
		FROM actions
		WHERE telegram_user_id = $1
	`
	var a domain.Action
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, telegramUserID).Scan(
		&a.TelegramUserID, &a.Type, &raw, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Context); err != nil {
			return nil, fmt.Errorf("unmarshal action context: %w", err)
		}
	}
	return &a, nil
}

// Delete removes the user's pending action if any
func (r *ActionRepo) Delete(ctx context.Context, telegramUserID int64) error {
	query := `DELETE FROM actions WHERE telegram_user_id = $1`
	_, err := r.db.ExecContext(ctx, query, telegramUserID)
	return err
}
