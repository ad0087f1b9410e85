package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// OAuthService links an external provider profile to a local account.
type OAuthService struct {
	users    ports.UserRepository
	sessions ports.SessionService
	log      zerolog.Logger
}

func NewOAuthService(users ports.UserRepository, sessions ports.SessionService, log zerolog.Logger) *OAuthService {
	return &OAuthService{users: users, sessions: sessions, log: log}
}

// LinkOrCreate finds the account matching the profile's email, creating an
// already-verified one when absent, then hands off to the session issuer.
// Existing accounts are left untouched except for filling an empty profile
// picture; the role is never overwritten.
func (s *OAuthService) LinkOrCreate(ctx context.Context, profile ports.OAuthProfile, role domain.UserRole) (*ports.Session, error) {
	if profile.Email == "" {
		return nil, domain.ErrMissingEmail
	}
	if role == "" {
		role = domain.RoleCustomer
	}

	email := domain.NormalizeEmail(profile.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("oauth lookup: %w", err)
	}

	if user == nil {
		user, err = s.createFromProfile(ctx, email, profile, role)
		if err != nil {
			return nil, err
		}
		s.log.Info().Str("user_id", user.ID).Str("provider", profile.Provider).Msg("oauth account created")
	} else if user.ProfilePicture == "" && profile.PhotoURL != "" {
		user.ProfilePicture = profile.PhotoURL
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("oauth update picture: %w", err)
		}
	}

	return s.sessions.IssueFor(ctx, user)
}

func (s *OAuthService) createFromProfile(ctx context.Context, email string, profile ports.OAuthProfile, role domain.UserRole) (*domain.User, error) {
	firstName, lastName := profile.GivenName, profile.FamilyName
	if firstName == "" {
		firstName, lastName = splitDisplayName(profile.DisplayName)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:           email,
		PasswordHash:    "", // OAuth accounts have no local password
		FirstName:       firstName,
		LastName:        lastName,
		Role:            role,
		Status:          domain.StatusActive,
		IsEmailVerified: true,
		ProfilePicture:  profile.PhotoURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if role == domain.RoleArtisan {
		// Placeholder business record pending completion by the owner.
		user.Artisan = &domain.Artisan{
			BusinessName:      profile.DisplayName + "'s Business",
			BusinessLicense:   "PENDING_VERIFICATION",
			ServiceCategories: []string{"General"},
			ServiceAreas:      []string{"Local"},
			Description:       "OAuth registered artisan",
			Qualifications:    []string{},
			MaxJobDistance:    50,
			Status:            domain.ArtisanPendingVerification,
		}
	}

	return s.users.Create(ctx, user)
}

// splitDisplayName derives first/last name from a provider display name.
// "First M. Last" is treated as first + last with the middle initial dropped;
// otherwise the first token is the first name and the remainder the last.
func splitDisplayName(displayName string) (first, last string) {
	parts := strings.Fields(displayName)
	switch {
	case len(parts) == 0:
		return "", ""
	case len(parts) == 3 && strings.HasSuffix(parts[1], "."):
		return parts[0], parts[2]
	case len(parts) >= 2:
		return parts[0], strings.Join(parts[1:], " ")
	default:
		return parts[0], ""
	}
}
