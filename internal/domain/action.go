package domain

import "time"

// ActionType enumerates the multi-step dialogs a chat user can be in.
type ActionType string

const (
	ActionCreateTeam       ActionType = "create_team"
	ActionShowTeams        ActionType = "show_teams"
	ActionJoinTeam         ActionType = "join_team"
	ActionChooseTeamAction ActionType = "choose_team_action"
	ActionRenameTeam       ActionType = "rename_team"
	ActionStartVoting      ActionType = "start_voting"
)

// ActionContext carries cross-step parameters of a pending dialog,
// e.g. which team a rename or voting targets.
type ActionContext struct {
	TeamName string `json:"team_name,omitempty"`
	VotingID int64  `json:"voting_id,omitempty"`
}

// Action is the single pending dialog step of a chat user. At most one
// action exists per telegram user; starting a new dialog replaces it.
type Action struct {
	TelegramUserID int64
	Type           ActionType
	Context        ActionContext
	CreatedAt      time.Time
}
