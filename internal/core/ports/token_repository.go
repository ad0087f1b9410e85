package ports

import (
	"context"
	"time"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// VerificationTokenRepository persists OTP and password-reset token records.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *domain.VerificationToken) (*domain.VerificationToken, error)
	// FindLiveByUser returns the newest token for the user whose expiry is
	// after now, or domain.ErrCodeExpired when none exists.
	FindLiveByUser(ctx context.Context, userID string, now time.Time) (*domain.VerificationToken, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	// DeleteExpired removes tokens past expiry and reports how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshTokenRepository persists refresh-token records, keyed by the SHA-256
// hash of the opaque value. The token hash carries a unique index.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error)
	FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Rotate atomically replaces the record matching oldHash with the new
	// hash and expiry. It returns domain.ErrInvalidToken when no record
	// matches oldHash, which is what makes a refresh token single-use under
	// concurrent refresh calls.
	Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) error
	// DeleteByHash removes the record and reports whether one existed.
	DeleteByHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
