package testutil

import (
	"time"

	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user whose chat id mirrors the telegram id
func NewTestUser(id, telegramUserID int64, userName string) *domain.User {
	return &domain.User{
		ID:             id,
		TelegramUserID: telegramUserID,
		ChatID:         telegramUserID,
		UserName:       userName,
		CreatedAt:      time.Now(),
	}
}

// NewTestTeam creates a team with the given members
func NewTestTeam(id int64, name string, ownerID int64, members ...domain.Member) *domain.Team {
	return &domain.Team{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		Members:   members,
	}
}

// NewTestMember creates an accepted member backed by the given user
func NewTestMember(id, teamID int64, role domain.Role, user *domain.User) domain.Member {
	return domain.Member{
		ID:     id,
		TeamID: teamID,
		UserID: user.ID,
		Role:   role,
		Status: domain.MemberAccepted,
		User:   user,
	}
}
