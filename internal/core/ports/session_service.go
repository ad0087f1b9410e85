package ports

import (
	"context"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// TokenPair is the credential set handed to a client after authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session couples issued tokens with a safe projection of the account.
type Session struct {
	Tokens TokenPair    `json:"tokens"`
	User   *domain.User `json:"user"`
}

// SessionService orchestrates login, token rotation and logout.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Logout revokes the refresh token. Revoking an unknown token succeeds;
	// the operation is idempotent and does not disclose token validity.
	Logout(ctx context.Context, refreshToken string) error
	// Refresh rotates the refresh token and mints a new access token. The
	// presented token is invalid afterwards, whether or not rotation wins a
	// race against a concurrent refresh of the same token.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// IssueFor mints and persists a token pair for an already authenticated
	// user (OAuth hand-off).
	IssueFor(ctx context.Context, user *domain.User) (*Session, error)
}
