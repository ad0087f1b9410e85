package domain

import "time"

// VerificationToken is a short-lived credential proof: either a bcrypt-hashed
// email OTP or a hashed password-reset token. At most one live token per user
// per purpose is expected; issuing a new one invalidates prior ones.
type VerificationToken struct {
	ID        string
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *VerificationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// RefreshToken is a session-continuation credential. Only the SHA-256 hash of
// the opaque value is stored; the raw value never touches the database.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
