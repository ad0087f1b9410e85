package ports

import "context"

// UserLocker serializes token maintenance per user. Acquire returns a release
// function on success and domain.ErrResendInProgress when the lease is held.
type UserLocker interface {
	Acquire(ctx context.Context, userID string) (release func(), err error)
}
