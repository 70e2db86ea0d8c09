package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/domain"
	"github.com/iztleu/scrum-master-bot/internal/repository"
)

const claimTelegramUserID = "telegram-user-id"

// ErrInvalidToken is returned for expired, malformed or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// AuthService registers chat users and links REST clients to them
// through single-use verify codes exchanged for JWTs.
type AuthService struct {
	users      repository.UserRepository
	notifier   Notifier
	logger     *zap.Logger
	signingKey []byte
	tokenTTL   time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
	signingKey []byte,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		notifier:   notifier,
		logger:     logger,
		signingKey: signingKey,
		tokenTTL:   tokenTTL,
	}
}

// EnsureUser registers the chat user on first contact and refreshes
// the stored chat id and username on every later one.
func (s *AuthService) EnsureUser(ctx context.Context, telegramUserID, chatID int64, userName string) (*domain.User, error) {
	if userName == "" {
		return nil, domain.NewValidationError("userName", domain.CodeUserNameRequired)
	}

	user, err := s.users.EnsureUser(ctx, telegramUserID, chatID, userName)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

// SendVerifyCode issues a fresh single-use code and delivers it to the
// user's chat. A new code replaces any previous one.
func (s *AuthService) SendVerifyCode(ctx context.Context, userName string) error {
	if userName == "" {
		return domain.NewValidationError("userName", domain.CodeUserNameRequired)
	}

	user, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return domain.NewValidationError("userName", domain.CodeUserNotFound)
	}

	code := fmt.Sprintf("%04d", rand.Intn(10000))
	if err := s.users.SetVerifyCode(ctx, user.ID, code); err != nil {
		return fmt.Errorf("set verify code: %w", err)
	}

	text := fmt.Sprintf("Ваш код подтверждения: %s", code)
	if err := s.notifier.Send(ctx, user.ChatID, text, nil); err != nil {
		return fmt.Errorf("send verify code: %w", err)
	}

	s.logger.Info("Verify code sent", zap.Int64("user_id", user.ID))
	return nil
}

// Authenticate exchanges a username and its verify code for a signed
// token. The code is consumed atomically: a second attempt with the
// same code fails.
func (s *AuthService) Authenticate(ctx context.Context, userName, code string) (string, error) {
	if userName == "" || code == "" {
		return "", domain.NewValidationError("userName", domain.CodeWrongCredentials)
	}

	user, err := s.users.ConsumeVerifyCode(ctx, userName, code)
	if err != nil {
		return "", fmt.Errorf("consume verify code: %w", err)
	}
	if user == nil {
		return "", domain.NewValidationError("code", domain.CodeWrongCredentials)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimTelegramUserID: user.TelegramUserID,
		"iat":               now.Unix(),
		"exp":               now.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("User authenticated", zap.Int64("user_id", user.ID))
	return signed, nil
}

// ParseToken validates the token signature and expiry and returns the
// telegram user id it was issued for.
func (s *AuthService) ParseToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, ok := claims[claimTelegramUserID].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return int64(id), nil
}
