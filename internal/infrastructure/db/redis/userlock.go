package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/craftlink/identity-service/internal/core/domain"
)

const lockTTL = 10 * time.Second

// UserLocker serializes verification-token maintenance per user with a Redis
// lease. Key format: userlock:<user_id>. The TTL bounds how long a crashed
// holder can block the user.
type UserLocker struct {
	client *redis.Client
}

// NewUserLocker creates a UserLocker wrapping the given Redis client.
func NewUserLocker(client *redis.Client) *UserLocker {
	return &UserLocker{client: client}
}

// Acquire takes the per-user lease. When the lease is already held it fails
// fast with domain.ErrResendInProgress instead of queueing.
func (l *UserLocker) Acquire(ctx context.Context, userID string) (func(), error) {
	key := l.key(userID)

	ok, err := l.client.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("user lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrResendInProgress
	}

	release := func() {
		// Release is best effort; the TTL reclaims an unreleased lease.
		_ = l.client.Del(context.Background(), key).Err()
	}
	return release, nil
}

func (l *UserLocker) key(userID string) string {
	return fmt.Sprintf("userlock:%s", userID)
}
