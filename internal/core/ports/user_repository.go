package ports

import (
	"context"
	"time"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// ListUsersFilter carries query parameters for the admin user listing.
type ListUsersFilter struct {
	Role   domain.UserRole   // optional: filter by role
	Status domain.UserStatus // optional: filter by status
	Page   int               // 1-based
	Limit  int               // max rows per page (capped by the service)
}

// UserRepository defines persistence operations for users and their embedded
// artisan records. Create must enforce uniqueness on email, phone number and
// artisan business license / tax id, signalling violations with the
// corresponding domain conflict errors.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user document. Owned verification and refresh
	// tokens are the caller's responsibility (cascade in the service layer).
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// FindStalePending returns unverified users created before the cutoff,
	// for the cleanup sweep.
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]*domain.User, error)
}
