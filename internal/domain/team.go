package domain

import "time"

// MaxTeamNameLen limits team names at creation and rename.
const MaxTeamNameLen = 50

// Role of a member inside a team. Exactly one member per team holds
// RoleScrumMaster.
type Role string

const (
	RoleScrumMaster Role = "scrum_master"
	RoleDeveloper   Role = "developer"
)

// MemberStatus tracks the invitation lifecycle. Declined and removed
// members are hard-deleted, so persisted rows are invited or accepted.
type MemberStatus string

const (
	MemberInvited  MemberStatus = "invited"
	MemberAccepted MemberStatus = "accepted"
	MemberDeclined MemberStatus = "declined"
	MemberRemoved  MemberStatus = "removed"
)

// Team represents a scrum team
type Team struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
	Members   []Member
}

// Member ties a user to a team with a role and invitation status
type Member struct {
	ID     int64
	TeamID int64
	UserID int64
	Role   Role
	Status MemberStatus
	User   *User
}

// ScrumMaster returns the team's scrum master member, or nil
func (t *Team) ScrumMaster() *Member {
	for i := range t.Members {
		if t.Members[i].Role == RoleScrumMaster {
			return &t.Members[i]
		}
	}
	return nil
}

// MemberByTelegramID returns the member backed by the given telegram
// user, or nil if the user is not on the team
func (t *Team) MemberByTelegramID(telegramUserID int64) *Member {
	for i := range t.Members {
		if t.Members[i].User != nil && t.Members[i].User.TelegramUserID == telegramUserID {
			return &t.Members[i]
		}
	}
	return nil
}
