package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/testutil"
)

func newAuthFixture(ttl time.Duration) (*testutil.MockUserRepository, *MockNotifier, *AuthService) {
	users := new(testutil.MockUserRepository)
	notifier := new(MockNotifier)
	svc := NewAuthService(users, notifier, testutil.NewTestLogger(), []byte("test-signing-key"), ttl)
	return users, notifier, svc
}

func TestSendVerifyCode(t *testing.T) {
	users, notifier, svc := newAuthFixture(time.Hour)
	user := testutil.NewTestUser(1, 100, "alice")

	codePattern := regexp.MustCompile(`\d{4}`)

	users.On("GetByUserName", mock.Anything, "alice").Return(user, nil)
	users.On("SetVerifyCode", mock.Anything, int64(1), mock.MatchedBy(func(code string) bool {
		return len(code) == 4 && codePattern.MatchString(code)
	})).Return(nil)
	notifier.On("Send", mock.Anything, int64(100), mock.MatchedBy(func(text string) bool {
		return codePattern.MatchString(text)
	}), mock.Anything).Return(nil)

	err := svc.SendVerifyCode(context.Background(), "alice")

	assert.NoError(t, err)
	users.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestAuthenticate_WrongCode(t *testing.T) {
	users, _, svc := newAuthFixture(time.Hour)

	users.On("ConsumeVerifyCode", mock.Anything, "alice", "0000").Return(nil, nil)

	_, err := svc.Authenticate(context.Background(), "alice", "0000")

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.CodeWrongCredentials, validationErr.Fields[0].Code)
}

func TestAuthenticate_TokenRoundTrip(t *testing.T) {
	users, _, svc := newAuthFixture(time.Hour)
	user := testutil.NewTestUser(1, 100, "alice")

	users.On("ConsumeVerifyCode", mock.Anything, "alice", "0042").Return(user, nil)

	token, err := svc.Authenticate(context.Background(), "alice", "0042")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	telegramUserID, err := svc.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), telegramUserID)
}

func TestParseToken_Invalid(t *testing.T) {
	_, _, svc := newAuthFixture(time.Hour)

	_, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	users, _, svc := newAuthFixture(-time.Minute)
	user := testutil.NewTestUser(1, 100, "alice")

	users.On("ConsumeVerifyCode", mock.Anything, "alice", "0042").Return(user, nil)

	token, err := svc.Authenticate(context.Background(), "alice", "0042")
	assert.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongKey(t *testing.T) {
	users, _, issuer := newAuthFixture(time.Hour)
	user := testutil.NewTestUser(1, 100, "alice")

	users.On("ConsumeVerifyCode", mock.Anything, "alice", "0042").Return(user, nil)

	token, err := issuer.Authenticate(context.Background(), "alice", "0042")
	assert.NoError(t, err)

	other := NewAuthService(new(testutil.MockUserRepository), new(MockNotifier),
		testutil.NewTestLogger(), []byte("different-key"), time.Hour)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
