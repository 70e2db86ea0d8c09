package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/service"
	"github.com/iztleu/scrum-master-bot/internal/testutil"
)

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, int64, string, [][]service.Button) error { return nil }

type fixture struct {
	users   *testutil.MockUserRepository
	teams   *testutil.MockTeamRepository
	votings *testutil.MockVotingRepository
	auth    *service.AuthService
	server  http.Handler
}

func newFixture() *fixture {
	users := new(testutil.MockUserRepository)
	teams := new(testutil.MockTeamRepository)
	votings := new(testutil.MockVotingRepository)
	logger := testutil.NewTestLogger()

	auth := service.NewAuthService(users, nopNotifier{}, logger, []byte("test-key"), time.Hour)
	teamSvc := service.NewTeamService(users, teams, nopNotifier{}, logger)
	votingSvc := service.NewVotingService(users, teams, votings, nopNotifier{}, logger)

	return &fixture{
		users:   users,
		teams:   teams,
		votings: votings,
		auth:    auth,
		server:  NewServer(auth, teamSvc, votingSvc, logger).Routes(),
	}
}

// token issues a valid bearer token for telegram user 100.
func (f *fixture) token(t *testing.T) string {
	t.Helper()
	user := testutil.NewTestUser(1, 100, "alice")
	f.users.On("ConsumeVerifyCode", mock.Anything, "alice", "0042").Return(user, nil).Once()

	token, err := f.auth.Authenticate(context.Background(), "alice", "0042")
	assert.NoError(t, err)
	return token
}

func (f *fixture) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestServer_Unauthorized(t *testing.T) {
	f := newFixture()

	rec := f.request(t, http.MethodGet, "/teams/my", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodGet, "/teams/my", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Authenticate(t *testing.T) {
	f := newFixture()
	user := testutil.NewTestUser(1, 100, "alice")

	f.users.On("ConsumeVerifyCode", mock.Anything, "alice", "0042").Return(user, nil)

	rec := f.request(t, http.MethodPost, "/auth/authenticate", "", `{"userName":"alice","code":"0042"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestServer_AuthenticateWrongCode(t *testing.T) {
	f := newFixture()

	f.users.On("ConsumeVerifyCode", mock.Anything, "alice", "0000").Return(nil, nil)

	rec := f.request(t, http.MethodPost, "/auth/authenticate", "", `{"userName":"alice","code":"0000"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"fields"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Equal(t, domain.CodeWrongCredentials, resp.Fields[0].Code)
}

func TestServer_MyTeams(t *testing.T) {
	f := newFixture()
	token := f.token(t)
	user := testutil.NewTestUser(1, 100, "alice")

	f.users.On("GetByTelegramID", mock.Anything, int64(100)).Return(user, nil)
	f.teams.On("GetTeamsByUser", mock.Anything, int64(1)).Return([]domain.Team{
		{ID: 1, Name: "alpha"},
	}, nil)

	rec := f.request(t, http.MethodGet, "/teams/my", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "alpha", resp[0].Name)
}

func TestServer_CreateTeamConflict(t *testing.T) {
	f := newFixture()
	token := f.token(t)
	user := testutil.NewTestUser(1, 100, "alice")

	f.users.On("GetByTelegramID", mock.Anything, int64(100)).Return(user, nil)
	f.teams.On("UserOwnsTeam", mock.Anything, int64(1)).Return(true, nil)

	rec := f.request(t, http.MethodPost, "/teams/create", token, `{"name":"alpha"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.CodeUserAlreadyHasTeam, resp.Error)
}

func TestServer_StartVoting(t *testing.T) {
	f := newFixture()
	token := f.token(t)
	master := testutil.NewTestUser(1, 100, "alice")
	team := testutil.NewTestTeam(1, "alpha", 1,
		testutil.NewTestMember(11, 1, domain.RoleScrumMaster, master),
	)
	voting := &domain.Voting{ID: 5, TeamID: 1, Title: "API design", Status: domain.VotingCreated}

	f.users.On("GetByTelegramID", mock.Anything, int64(100)).Return(master, nil)
	f.teams.On("GetByName", mock.Anything, "alpha").Return(team, nil)
	f.votings.On("CreateVoting", mock.Anything, int64(1), "API design").Return(voting, nil)
	f.votings.On("GetVotes", mock.Anything, int64(5)).Return([]domain.Vote{}, nil).Maybe()
	f.votings.On("MarkStarted", mock.Anything, int64(5)).Return(nil).Maybe()

	rec := f.request(t, http.MethodPost, "/voting/start", token, `{"teamName":"alpha","title":"API design"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, string(domain.VotingCreated), resp.Status)
}

func TestServer_InvalidJSON(t *testing.T) {
	f := newFixture()

	rec := f.request(t, http.MethodPost, "/auth/authenticate", "", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_json", resp.Error)
}
