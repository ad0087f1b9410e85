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

const bcryptCost = 10

// VerificationService implements registration and email verification.
type VerificationService struct {
	users       ports.UserRepository
	tokens      ports.VerificationTokenRepository
	sessions    ports.RefreshTokenRepository
	mailer      ports.EmailDispatcher
	locker      ports.UserLocker
	issuer      *token.Issuer
	frontendURL string
	log         zerolog.Logger
}

func NewVerificationService(
	users ports.UserRepository,
	tokens ports.VerificationTokenRepository,
	sessions ports.RefreshTokenRepository,
	mailer ports.EmailDispatcher,
	locker ports.UserLocker,
	issuer *token.Issuer,
	frontendURL string,
	log zerolog.Logger,
) *VerificationService {
	return &VerificationService{
		users:       users,
		tokens:      tokens,
		sessions:    sessions,
		mailer:      mailer,
		locker:      locker,
		issuer:      issuer,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Register creates a PENDING account and emails a verification code. When the
// email cannot be delivered the partially created state is rolled back and the
// registration fails as a whole.
func (s *VerificationService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	user, err := s.createPendingUser(ctx, &domain.User{
		Email:       domain.NormalizeEmail(in.Email),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
	}, in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.issueCode(ctx, user, "Verify Your Email"); err != nil {
		return nil, err
	}

	return &ports.RegisterResult{UserID: user.ID, Email: user.Email}, nil
}

// RegisterArtisan creates a PENDING artisan account; the artisan record is
// persisted atomically with the owning user.
func (s *VerificationService) RegisterArtisan(ctx context.Context, in ports.ArtisanRegisterInput) (*ports.RegisterResult, error) {
	maxDistance := in.MaxJobDistance
	if maxDistance <= 0 {
		maxDistance = 50
	}
	artisan := &domain.Artisan{
		BusinessName:      in.BusinessName,
		BusinessLicense:   in.BusinessLicense,
		TaxID:             in.TaxID,
		ServiceCategories: in.ServiceCategories,
		ServiceAreas:      in.ServiceAreas,
		Description:       in.Description,
		HourlyRate:        in.HourlyRate,
		YearsOfExperience: in.YearsOfExperience,
		Qualifications:    in.Qualifications,
		MaxJobDistance:    maxDistance,
		Status:            domain.ArtisanPendingVerification,
	}
	if artisan.Qualifications == nil {
		artisan.Qualifications = []string{}
	}

	user, err := s.createPendingUser(ctx, &domain.User{
		Email:       domain.NormalizeEmail(in.Email),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Role:        domain.RoleArtisan,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		ZipCode:     in.ZipCode,
		Artisan:     artisan,
	}, in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.issueCode(ctx, user, "Verify Your Artisan Account"); err != nil {
		return nil, err
	}

	result := &ports.RegisterResult{UserID: user.ID, Email: user.Email}
	if user.Artisan != nil {
		result.ArtisanID = user.Artisan.ID
	}
	return result, nil
}

func (s *VerificationService) createPendingUser(ctx context.Context, candidate *domain.User, password string) (*domain.User, error) {
	existing, err := s.users.FindByEmail(ctx, candidate.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}
	if existing != nil {
		// A pending account with a live code keeps its claim on the email;
		// without one the conflict still stands and the cleanup sweep will
		// eventually free the address.
		if _, tokenErr := s.tokens.FindLiveByUser(ctx, existing.ID, time.Now().UTC()); tokenErr == nil {
			return nil, domain.ErrCodePending
		}
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	candidate.PasswordHash = string(hash)
	candidate.Status = domain.StatusPending
	candidate.IsEmailVerified = false
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	created, err := s.users.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// issueCode generates, hashes and stores an OTP, then emails the plaintext
// code. Any failure triggers the compensating rollback of the pending account.
func (s *VerificationService) issueCode(ctx context.Context, user *domain.User, subject string) error {
	code, expiresAt, err := s.issuer.OTP()
	if err != nil {
		s.rollback(ctx, user.ID)
		return fmt.Errorf("issue code: %w", err)
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		s.rollback(ctx, user.ID)
		return fmt.Errorf("issue code: hash: %w", err)
	}

	if _, err := s.tokens.Create(ctx, &domain.VerificationToken{
		UserID:    user.ID,
		CodeHash:  string(codeHash),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.rollback(ctx, user.ID)
		return fmt.Errorf("issue code: store: %w", err)
	}

	if err := s.mailer.Send(ctx, ports.EmailMessage{
		To:      user.Email,
		Subject: subject,
		Body:    verificationCodeBody(code),
	}); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("verification email failed, rolling back registration")
		s.rollback(ctx, user.ID)
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	return nil
}

// rollback removes the tokens and, if still unverified, the user created by a
// registration whose email dispatch failed. Best effort: the cleanup sweep is
// the backstop when any of these deletes fail.
func (s *VerificationService) rollback(ctx context.Context, userID string) {
	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rollback: delete verification tokens failed")
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rollback: delete refresh tokens failed")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rollback: lookup failed")
		return
	}
	if !user.IsEmailVerified {
		if err := s.users.Delete(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("rollback: delete user failed")
		}
	}
}

// Verify consumes a live verification code: on match the account becomes
// ACTIVE and verified and the token is deleted. A wrong code leaves the token
// in place so the user may retry until it expires.
func (s *VerificationService) Verify(ctx context.Context, userID, code string) error {
	authToken, err := s.tokens.FindLiveByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(authToken.CodeHash), []byte(code)) != nil {
		return domain.ErrInvalidCode
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsEmailVerified = true
	user.Status = domain.StatusActive
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("verify: update user: %w", err)
	}

	if err := s.tokens.Delete(ctx, authToken.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to delete consumed verification token")
	}

	// Verification already succeeded; the confirmation email is best effort.
	if err := s.mailer.Send(ctx, ports.EmailMessage{
		To:      user.Email,
		Subject: "Email Verification Successful",
		Body:    verificationSuccessBody(s.frontendURL),
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("confirmation email failed")
	}

	s.log.Info().Str("user_id", userID).Msg("email verified")
	return nil
}

// ResendCode invalidates all outstanding codes for the user and issues a new
// one. The delete-then-create sequence runs under a per-user lease so two
// concurrent resends cannot wipe each other's fresh token.
func (s *VerificationService) ResendCode(ctx context.Context, userID string) (*ports.RegisterResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("resend: clear tokens: %w", err)
	}

	code, expiresAt, err := s.issuer.OTP()
	if err != nil {
		return nil, fmt.Errorf("resend: %w", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("resend: hash: %w", err)
	}
	if _, err := s.tokens.Create(ctx, &domain.VerificationToken{
		UserID:    userID,
		CodeHash:  string(codeHash),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("resend: store: %w", err)
	}

	if err := s.mailer.Send(ctx, ports.EmailMessage{
		To:      user.Email,
		Subject: "Verify Your Email",
		Body:    verificationCodeBody(code),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	result := &ports.RegisterResult{UserID: user.ID, Email: user.Email}
	if user.Artisan != nil {
		result.ArtisanID = user.Artisan.ID
	}
	return result, nil
}
