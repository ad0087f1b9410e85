package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
	"github.com/craftlink/identity-service/internal/core/token"
)

// SessionService implements login, refresh-token rotation and logout.
type SessionService struct {
	users    ports.UserRepository
	sessions ports.RefreshTokenRepository
	issuer   *token.Issuer
	log      zerolog.Logger
}

func NewSessionService(
	users ports.UserRepository,
	sessions ports.RefreshTokenRepository,
	issuer *token.Issuer,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{users: users, sessions: sessions, issuer: issuer, log: log}
}

// Login authenticates a user by email and password. An unknown email and a
// wrong password produce the same error so the endpoint cannot be used to
// enumerate accounts.
func (s *SessionService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.Status.LoginEligible() {
		return nil, domain.ErrAccountDisabled
	}
	if !user.IsEmailVerified {
		return nil, domain.ErrNotVerified
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.IssueFor(ctx, user)
}

// IssueFor mints an access token and a persisted refresh token for an already
// authenticated user. The disabled-account gate still applies.
func (s *SessionService) IssueFor(ctx context.Context, user *domain.User) (*ports.Session, error) {
	if !user.Status.LoginEligible() {
		return nil, domain.ErrAccountDisabled
	}

	access, err := s.issuer.AccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, expiresAt, err := s.issuer.RefreshToken()
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if _, err := s.sessions.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: token.Hash(refresh),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session issued")

	return &ports.Session{
		Tokens: ports.TokenPair{AccessToken: access, RefreshToken: refresh},
		User:   user,
	}, nil
}

// Logout revokes the presented refresh token. Revoking a token that is already
// gone is a success: retried logouts are harmless and the response does not
// disclose whether the token was ever valid.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	existed, err := s.sessions.DeleteByHash(ctx, token.Hash(refreshToken))
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !existed {
		s.log.Debug().Msg("logout for unknown refresh token")
	}
	return nil
}

// Refresh rotates the presented refresh token and mints a fresh access token.
// Rotation is a single conditional update keyed on the old token hash, so of
// two concurrent refreshes of the same token exactly one succeeds; the loser
// and any later replay see ErrInvalidToken.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*ports.Session, error) {
	oldHash := token.Hash(refreshToken)

	record, err := s.sessions.FindByHash(ctx, oldHash)
	if err != nil {
		return nil, err
	}

	if record.Expired(time.Now().UTC()) {
		if _, delErr := s.sessions.DeleteByHash(ctx, oldHash); delErr != nil {
			s.log.Warn().Err(delErr).Str("user_id", record.UserID).Msg("failed to delete expired refresh token")
		}
		return nil, domain.ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Status.LoginEligible() {
		return nil, domain.ErrAccountDisabled
	}

	access, err := s.issuer.AccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: access token: %w", err)
	}
	newRefresh, expiresAt, err := s.issuer.RefreshToken()
	if err != nil {
		return nil, fmt.Errorf("refresh: refresh token: %w", err)
	}

	if err := s.sessions.Rotate(ctx, oldHash, token.Hash(newRefresh), expiresAt); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("refresh token rotated")

	return &ports.Session{
		Tokens: ports.TokenPair{AccessToken: access, RefreshToken: newRefresh},
		User:   user,
	}, nil
}
