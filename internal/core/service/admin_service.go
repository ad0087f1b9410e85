package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

const maxListLimit = 100

// AdminService performs administrative account mutations. Every status change
// goes through the domain transition maps.
type AdminService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewAdminService(users ports.UserRepository, log zerolog.Logger) *AdminService {
	return &AdminService{users: users, log: log}
}

func (s *AdminService) SuspendUser(ctx context.Context, userID string) error {
	return s.transition(ctx, userID, domain.StatusSuspended)
}

func (s *AdminService) ActivateUser(ctx context.Context, userID string) error {
	return s.transition(ctx, userID, domain.StatusActive)
}

func (s *AdminService) BanUser(ctx context.Context, userID string) error {
	return s.transition(ctx, userID, domain.StatusBanned)
}

func (s *AdminService) transition(ctx context.Context, userID string, next domain.UserStatus) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, user.Status, next)
	}

	user.Status = next
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("transition user: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("status", string(next)).Msg("account status changed")
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.users.List(ctx, filter)
}

// ReviewArtisan concludes the business-verification review for an artisan
// account. The review is independent of the user status machine.
func (s *AdminService) ReviewArtisan(ctx context.Context, userID string, approved bool) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Artisan == nil {
		return domain.ErrUserNotFound
	}

	next := domain.ArtisanRejected
	if approved {
		next = domain.ArtisanVerified
	}
	if !user.Artisan.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, user.Artisan.Status, next)
	}

	user.Artisan.Status = next
	user.Artisan.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = user.Artisan.UpdatedAt
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("review artisan: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("artisan_status", string(next)).Msg("artisan reviewed")
	return nil
}
