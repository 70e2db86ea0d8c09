package domain

import "time"

// VotingStatus is the lifecycle of a planning-poker session.
// Created and started votings accept votes; only the transition to
// finished is guarded.
type VotingStatus string

const (
	VotingCreated  VotingStatus = "created"
	VotingStarted  VotingStatus = "started"
	VotingFinished VotingStatus = "finished"
)

// PassValue is the non-numeric vote a member casts to abstain.
const PassValue = "pass"

// Scale is the fixed planning-poker estimate set, in ascending order.
var Scale = []string{"1", "2", "3", "5", "8", "13"}

// Voting is a story-point estimation session for a team. At most one
// non-finished voting exists per team at any time.
type Voting struct {
	ID        int64
	TeamID    int64
	Title     string
	Status    VotingStatus
	CreatedAt time.Time
}

// Vote is a single member's estimate, immutable once cast. At most
// one vote exists per (voting, member) pair.
type Vote struct {
	ID        int64
	VotingID  int64
	MemberID  int64
	Value     string
	CreatedAt time.Time
	Member    *Member
}
