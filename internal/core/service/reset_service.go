package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
	"github.com/craftlink/identity-service/internal/core/token"
)

// PasswordResetService implements the forgot/reset flow. Reset tokens are
// signed JWTs that are additionally persisted as hashed verification tokens,
// making them single-use: a consumed or superseded token fails validation even
// while its signature is still within the validity window.
type PasswordResetService struct {
	users       ports.UserRepository
	tokens      ports.VerificationTokenRepository
	mailer      ports.EmailDispatcher
	issuer      *token.Issuer
	frontendURL string
	log         zerolog.Logger
}

func NewPasswordResetService(
	users ports.UserRepository,
	tokens ports.VerificationTokenRepository,
	mailer ports.EmailDispatcher,
	issuer *token.Issuer,
	frontendURL string,
	log zerolog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		issuer:      issuer,
		frontendURL: frontendURL,
		log:         log,
	}
}

// ForgotPassword issues a reset token and emails the reset link. A second
// request while a live token exists is rejected rather than invalidating the
// first link.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}

	if _, tokenErr := s.tokens.FindLiveByUser(ctx, user.ID, time.Now().UTC()); tokenErr == nil {
		return domain.ErrCodePending
	}

	resetToken, expiresAt, err := s.issuer.ResetToken(user)
	if err != nil {
		return fmt.Errorf("forgot password: sign token: %w", err)
	}

	tokenHash, err := bcrypt.GenerateFromPassword([]byte(token.Hash(resetToken)), bcryptCost)
	if err != nil {
		return fmt.Errorf("forgot password: hash token: %w", err)
	}

	if _, err := s.tokens.Create(ctx, &domain.VerificationToken{
		UserID:    user.ID,
		CodeHash:  string(tokenHash),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("forgot password: store token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, resetToken)
	if err := s.mailer.Send(ctx, ports.EmailMessage{
		To:      user.Email,
		Subject: "Password Reset Request",
		Body:    forgotPasswordBody(resetURL, user.FullName()),
	}); err != nil {
		// Remove the stored token so the user can retry immediately.
		if delErr := s.tokens.DeleteAllForUser(ctx, user.ID); delErr != nil {
			s.log.Warn().Err(delErr).Str("user_id", user.ID).Msg("failed to clear reset token after email failure")
		}
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset link sent")
	return nil
}

// ResetPassword validates the token signature and the persisted record, then
// updates the password hash and retires every reset token for the user.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	userID, err := s.issuer.VerifyResetToken(rawToken)
	if err != nil {
		return err
	}

	record, err := s.tokens.FindLiveByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return domain.ErrInvalidToken
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(token.Hash(rawToken))) != nil {
		return domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("reset password: update user: %w", err)
	}

	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to delete consumed reset tokens")
	}

	// Password already changed; the confirmation email is best effort.
	if err := s.mailer.Send(ctx, ports.EmailMessage{
		To:      user.Email,
		Subject: "Password Changed Successfully",
		Body:    passwordChangedBody(s.frontendURL, user.FullName()),
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("password change confirmation email failed")
	}

	s.log.Info().Str("user_id", userID).Msg("password reset")
	return nil
}
