// Package token generates and verifies the three credential kinds the service
// issues: signed HS256 access tokens, opaque random refresh tokens (stored
// only as SHA-256 hashes), and numeric one-time verification codes.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/craftlink/identity-service/internal/core/domain"
)

const (
	// OTPLength is the number of digits in a verification code.
	OTPLength = 6

	refreshTokenBytes = 48

	purposeReset = "password_reset"
)

// Issuer holds the signing secrets and lifetimes for all issued credentials.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	otpTTL     time.Duration
	now        func() time.Time
}

// Config carries Issuer settings; zero durations fall back to the defaults
// used by the production deployment.
type Config struct {
	Secret     string
	AccessTTL  time.Duration // default 1h
	RefreshTTL time.Duration // default 30 days
	ResetTTL   time.Duration // default 10m
	OTPTTL     time.Duration // default 10m
}

// NewIssuer builds an Issuer from config.
func NewIssuer(cfg Config) *Issuer {
	iss := &Issuer{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		otpTTL:     cfg.OTPTTL,
		now:        time.Now,
	}
	if iss.accessTTL <= 0 {
		iss.accessTTL = time.Hour
	}
	if iss.refreshTTL <= 0 {
		iss.refreshTTL = 30 * 24 * time.Hour
	}
	if iss.resetTTL <= 0 {
		iss.resetTTL = 10 * time.Minute
	}
	if iss.otpTTL <= 0 {
		iss.otpTTL = 10 * time.Minute
	}
	return iss
}

// AccessToken signs an HS256 JWT embedding the user's identity and role.
func (i *Issuer) AccessToken(user *domain.User) (string, error) {
	now := i.now().UTC()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(i.accessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// RefreshToken returns a cryptographically random opaque token together with
// its expiry. Only Hash(raw) is ever persisted.
func (i *Issuer) RefreshToken() (raw string, expiresAt time.Time, err error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("refresh token entropy: %w", err)
	}
	return hex.EncodeToString(buf), i.now().UTC().Add(i.refreshTTL), nil
}

// RefreshTTL exposes the refresh lifetime for rotation.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Hash returns the hex-encoded SHA-256 digest of an opaque token value.
// Storing only the hash keeps a leaked database from minting sessions.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// OTP generates a verification code: OTPLength ASCII digits drawn uniformly,
// leading zeros preserved.
func (i *Issuer) OTP() (code string, expiresAt time.Time, err error) {
	max := big.NewInt(1)
	for n := 0; n < OTPLength; n++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp entropy: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, v), i.now().UTC().Add(i.otpTTL), nil
}

// ResetToken signs a short-lived password-reset JWT for the user. The caller
// persists its hash so the token is single-use even while the signature is
// still valid.
func (i *Issuer) ResetToken(user *domain.User) (raw string, expiresAt time.Time, err error) {
	now := i.now().UTC()
	expiresAt = now.Add(i.resetTTL)
	claims := jwt.MapClaims{
		"sub":     user.ID,
		"purpose": purposeReset,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err = t.SignedString(i.secret)
	return raw, expiresAt, err
}

// VerifyResetToken checks signature, expiry and purpose, returning the user ID
// the token was minted for.
func (i *Issuer) VerifyResetToken(raw string) (userID string, err error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposeReset {
		return "", domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}
