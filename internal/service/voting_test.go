package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
	"github.com/iztleu/scrum-master-bot/internal/testutil"
)

func newVotingFixture() (*testutil.MockUserRepository, *testutil.MockTeamRepository, *testutil.MockVotingRepository, *MockNotifier, *VotingService) {
	users := new(testutil.MockUserRepository)
	teams := new(testutil.MockTeamRepository)
	votings := new(testutil.MockVotingRepository)
	notifier := new(MockNotifier)
	svc := NewVotingService(users, teams, votings, notifier, testutil.NewTestLogger())
	return users, teams, votings, notifier, svc
}

// threeMemberTeam builds a team with a scrum master (telegram id 100)
// and two developers (telegram ids 200, 300).
func threeMemberTeam() *domain.Team {
	master := testutil.NewTestUser(1, 100, "master")
	dev1 := testutil.NewTestUser(2, 200, "dev1")
	dev2 := testutil.NewTestUser(3, 300, "dev2")
	return testutil.NewTestTeam(1, "alpha", 1,
		testutil.NewTestMember(11, 1, domain.RoleScrumMaster, master),
		testutil.NewTestMember(12, 1, domain.RoleDeveloper, dev1),
		testutil.NewTestMember(13, 1, domain.RoleDeveloper, dev2),
	)
}

func TestStartVoting_NotScrumMaster(t *testing.T) {
	users, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()

	users.On("GetByTelegramID", mock.Anything, int64(200)).Return(team.Members[1].User, nil)
	teams.On("GetByName", mock.Anything, "alpha").Return(team, nil)

	_, err := svc.StartVoting(context.Background(), 200, "alpha", "API design")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeUserIsNotScrumMaster, logicErr.Code)
	votings.AssertNotCalled(t, "CreateVoting", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartVoting_EmptyTitle(t *testing.T) {
	_, _, votings, _, svc := newVotingFixture()

	_, err := svc.StartVoting(context.Background(), 100, "alpha", "")

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	votings.AssertNotCalled(t, "CreateVoting", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartVoting_ActiveVotingExists(t *testing.T) {
	users, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()

	users.On("GetByTelegramID", mock.Anything, int64(100)).Return(team.Members[0].User, nil)
	teams.On("GetByName", mock.Anything, "alpha").Return(team, nil)
	votings.On("CreateVoting", mock.Anything, int64(1), "API design").
		Return(nil, repository.ErrActiveVotingExists)

	_, err := svc.StartVoting(context.Background(), 100, "alpha", "API design")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeVotingAlreadyExists, logicErr.Code)
}

func TestStartVoting_ConcurrentOnlyOneSucceeds(t *testing.T) {
	users, teams, votings, notifier, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingCreated}

	users.On("GetByTelegramID", mock.Anything, int64(100)).Return(team.Members[0].User, nil)
	teams.On("GetByName", mock.Anything, "alpha").Return(team, nil)
	// First racer wins the conditional insert, the second hits the guard.
	votings.On("CreateVoting", mock.Anything, int64(1), "API design").
		Return(voting, nil).Once()
	votings.On("CreateVoting", mock.Anything, int64(1), "API design").
		Return(nil, repository.ErrActiveVotingExists)

	// The winner's background announcement may or may not run before
	// the test ends.
	votings.On("GetVotes", mock.Anything, int64(5)).Return([]domain.Vote{}, nil).Maybe()
	votings.On("MarkStarted", mock.Anything, int64(5)).Return(nil).Maybe()
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.StartVoting(context.Background(), 100, "alpha", "API design"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestCastVote_Duplicate(t *testing.T) {
	_, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	votings.On("AddVote", mock.Anything, int64(5), int64(12), "3").Return(false, nil)

	err := svc.CastVote(context.Background(), 200, 5, "3")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeUserAlreadyVoted, logicErr.Code)
	votings.AssertNotCalled(t, "CountVotes", mock.Anything, mock.Anything)
}

func TestCastVote_FinishedVoting(t *testing.T) {
	_, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingFinished}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)

	err := svc.CastVote(context.Background(), 200, 5, "3")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeVotingAlreadyFinished, logicErr.Code)
	votings.AssertNotCalled(t, "AddVote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCastVote_NotMember(t *testing.T) {
	_, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)

	err := svc.CastVote(context.Background(), 999, 5, "3")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeUserIsNotMember, logicErr.Code)
}

func TestCastVote_LastVoteFinishesVoting(t *testing.T) {
	_, teams, votings, notifier, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	allVotes := []domain.Vote{
		{ID: 1, VotingID: 5, MemberID: 11, Value: "3", Member: &team.Members[0]},
		{ID: 2, VotingID: 5, MemberID: 12, Value: "5", Member: &team.Members[1]},
		{ID: 3, VotingID: 5, MemberID: 13, Value: "5", Member: &team.Members[2]},
	}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	votings.On("AddVote", mock.Anything, int64(5), int64(13), "5").Return(true, nil)
	votings.On("CountVotes", mock.Anything, int64(5)).Return(3, nil)
	teams.On("CountMembers", mock.Anything, int64(1)).Return(3, nil)
	votings.On("FinishVoting", mock.Anything, int64(5)).Return(true, nil)
	votings.On("GetVotes", mock.Anything, int64(5)).Return(allVotes, nil)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.CastVote(context.Background(), 300, 5, "5")

	assert.NoError(t, err)
	notifier.AssertNumberOfCalls(t, "Send", 3)
}

func TestCastVote_NotLastVoteDoesNotFinish(t *testing.T) {
	_, teams, votings, notifier, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	votings.On("AddVote", mock.Anything, int64(5), int64(12), "3").Return(true, nil)
	votings.On("CountVotes", mock.Anything, int64(5)).Return(1, nil)
	teams.On("CountMembers", mock.Anything, int64(1)).Return(3, nil)

	err := svc.CastVote(context.Background(), 200, 5, "3")

	assert.NoError(t, err)
	votings.AssertNotCalled(t, "FinishVoting", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinishVoting_AlreadyFinishedIsNoOp(t *testing.T) {
	_, teams, votings, notifier, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	votings.On("FinishVoting", mock.Anything, int64(5)).Return(false, nil)

	err := svc.FinishVoting(context.Background(), 100, 5)

	assert.NoError(t, err)
	votings.AssertNotCalled(t, "GetVotes", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinishVoting_NotScrumMaster(t *testing.T) {
	_, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)

	err := svc.FinishVoting(context.Background(), 200, 5)

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeUserIsNotScrumMaster, logicErr.Code)
	votings.AssertNotCalled(t, "FinishVoting", mock.Anything, mock.Anything)
}

func TestGetActiveVoting_None(t *testing.T) {
	users, teams, votings, _, svc := newVotingFixture()
	team := threeMemberTeam()

	users.On("GetByTelegramID", mock.Anything, int64(100)).Return(team.Members[0].User, nil)
	teams.On("GetByName", mock.Anything, "alpha").Return(team, nil)
	votings.On("GetActiveVoting", mock.Anything, int64(1)).Return(nil, nil)

	_, err := svc.GetActiveVoting(context.Background(), 100, "alpha")

	var logicErr *domain.LogicError
	assert.ErrorAs(t, err, &logicErr)
	assert.Equal(t, domain.CodeVotingNotFound, logicErr.Code)
}

func TestResendVotingMessage_OnlyMembersWithoutVotes(t *testing.T) {
	_, teams, votings, notifier, svc := newVotingFixture()
	team := threeMemberTeam()
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingStarted}

	votings.On("GetVoting", mock.Anything, int64(5)).Return(voting, nil)
	teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	// dev1 (member 12) already voted, so only the master and dev2 get a prompt.
	votings.On("GetVotes", mock.Anything, int64(5)).Return([]domain.Vote{
		{ID: 1, VotingID: 5, MemberID: 12, Value: "3"},
	}, nil)
	votings.On("MarkStarted", mock.Anything, int64(5)).Return(nil)
	notifier.On("Send", mock.Anything, int64(100), mock.Anything, mock.Anything).Return(nil)
	notifier.On("Send", mock.Anything, int64(300), mock.Anything, mock.Anything).Return(nil)

	err := svc.ResendVotingMessage(context.Background(), 100, 5)

	assert.NoError(t, err)
	notifier.AssertNumberOfCalls(t, "Send", 2)
}

func TestResultMessage(t *testing.T) {
	passer := testutil.NewTestUser(2, 200, "dev1")
	member := testutil.NewTestMember(12, 1, domain.RoleDeveloper, passer)

	tests := []struct {
		name     string
		summary  domain.Summary
		contains []string
		excludes []string
	}{
		{
			name: "with stats",
			summary: domain.Summarize([]domain.Vote{
				{Value: "3"}, {Value: "5"},
			}),
			contains: []string{"завершено", "4.0", "максимум: 5", "минимум: 3"},
			excludes: []string{"⚠️"},
		},
		{
			name: "wide spread warns",
			summary: domain.Summarize([]domain.Vote{
				{Value: "1"}, {Value: "13"},
			}),
			contains: []string{"⚠️"},
		},
		{
			name: "all passed omits stats",
			summary: domain.Summarize([]domain.Vote{
				{MemberID: 12, Value: domain.PassValue, Member: &member},
			}),
			contains: []string{"dev1 — pass"},
			excludes: []string{"Средняя"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := resultMessage("API design", tt.summary)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(text, want), "missing %q in %q", want, text)
			}
			for _, unwanted := range tt.excludes {
				assert.False(t, strings.Contains(text, unwanted), "unexpected %q in %q", unwanted, text)
			}
		})
	}
}

func TestVoteKeyboard(t *testing.T) {
	rows := voteKeyboard(5)

	assert.Len(t, rows, 2)
	assert.Len(t, rows[0], len(domain.Scale))
	assert.Equal(t, "vote;5;1", rows[0][0].Data)
	assert.Equal(t, "vote;5;13", rows[0][len(rows[0])-1].Data)
	assert.Equal(t, "vote;5;pass", rows[1][0].Data)
}
