package domain

import (
	"fmt"
	"strings"
)

// Error codes shared by the REST surface and the bot. Callers branch
// on codes, messages are for humans.
const (
	CodeNameRequired          = "name_required"
	CodeNameTooLong           = "name_too_long"
	CodeUserNameRequired      = "user_name_required"
	CodeUserNotFound          = "user_not_found"
	CodeTeamNotFound          = "team_not_found"
	CodeTeamAlreadyExists     = "team_already_exists"
	CodeUserAlreadyHasTeam    = "user_already_has_team"
	CodeNameAlreadyTaken      = "name_already_taken"
	CodeVotingNotFound        = "voting_not_found"
	CodeVotingAlreadyExists   = "voting_already_exists"
	CodeVotingAlreadyFinished = "voting_already_finished"
	CodeUserAlreadyVoted      = "user_already_voted"
	CodeUserIsNotMember       = "user_is_not_member"
	CodeUserIsNotScrumMaster  = "user_is_not_scrum_master"
	CodeMemberNotFound        = "member_not_found"
	CodeUserAlreadyInTeam     = "user_already_in_team"
	CodeOwnerCannotLeaveTeam  = "owner_cannot_leave_team"
	CodeWrongCredentials      = "wrong_credentials"
)

// FieldError is one failed validation rule
type FieldError struct {
	Field string
	Code  string
}

// ValidationError is raised before any mutation when request inputs
// are malformed or reference missing entities
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Code)
			continue
		}
		parts = append(parts, f.Field+": "+f.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a single-field validation error
func NewValidationError(field, code string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Code: code}}}
}

// LogicError is a state-invariant violation detected during a mutation
type LogicError struct {
	Message string
	Code    string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// NewLogicError builds a logic-conflict error
func NewLogicError(message, code string) *LogicError {
	return &LogicError{Message: message, Code: code}
}
