package ports

import (
	"context"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// AdminService performs the administrative account-status and artisan-review
// mutations. All transitions go through the domain state machines.
type AdminService interface {
	SuspendUser(ctx context.Context, userID string) error
	ActivateUser(ctx context.Context, userID string) error
	BanUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// ReviewArtisan moves an artisan from PENDING_VERIFICATION to VERIFIED
	// or REJECTED.
	ReviewArtisan(ctx context.Context, userID string, approved bool) error
}
