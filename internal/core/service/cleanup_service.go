package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/identity-service/internal/api/metrics"
	"github.com/craftlink/identity-service/internal/core/ports"
)

const (
	defaultSweepInterval    = time.Hour
	defaultPendingRetention = 24 * time.Hour
)

// CleanupService is the periodic sweep that reclaims expired verification
// tokens, expired refresh tokens, and accounts that never completed email
// verification. It is the backstop for every best-effort rollback in the
// registration flow.
type CleanupService struct {
	users            ports.UserRepository
	tokens           ports.VerificationTokenRepository
	sessions         ports.RefreshTokenRepository
	interval         time.Duration
	pendingRetention time.Duration
	log              zerolog.Logger
}

func NewCleanupService(
	users ports.UserRepository,
	tokens ports.VerificationTokenRepository,
	sessions ports.RefreshTokenRepository,
	interval time.Duration,
	pendingRetention time.Duration,
	log zerolog.Logger,
) *CleanupService {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if pendingRetention <= 0 {
		pendingRetention = defaultPendingRetention
	}
	return &CleanupService{
		users:            users,
		tokens:           tokens,
		sessions:         sessions,
		interval:         interval,
		pendingRetention: pendingRetention,
		log:              log,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs one cleanup pass. Each step is independent; a failing step is
// logged and the rest still run.
func (s *CleanupService) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.tokens.DeleteExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("cleanup: expired verification tokens")
	} else if n > 0 {
		metrics.CleanupDeletedTotal.WithLabelValues("verification_token").Add(float64(n))
		s.log.Info().Int64("count", n).Msg("cleanup: deleted expired verification tokens")
	}

	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("cleanup: expired refresh tokens")
	} else if n > 0 {
		metrics.CleanupDeletedTotal.WithLabelValues("refresh_token").Add(float64(n))
		s.log.Info().Int64("count", n).Msg("cleanup: deleted expired refresh tokens")
	}

	stale, err := s.users.FindStalePending(ctx, now.Add(-s.pendingRetention))
	if err != nil {
		s.log.Error().Err(err).Msg("cleanup: stale pending lookup")
		return
	}
	for _, user := range stale {
		// Cascade owned records before the user document itself.
		if err := s.tokens.DeleteAllForUser(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("cleanup: cascade verification tokens")
			continue
		}
		if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("cleanup: cascade refresh tokens")
			continue
		}
		if err := s.users.Delete(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("cleanup: delete stale user")
			continue
		}
		metrics.CleanupDeletedTotal.WithLabelValues("stale_user").Inc()
		s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("cleanup: removed unverified account")
	}
}
