package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

// In-memory doubles shared by the service tests.

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User // by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Artisan != nil {
		a := *u.Artisan
		clone.Artisan = &a
	}
	return &clone
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrUserExists
		}
		if user.PhoneNumber != "" && existing.PhoneNumber == user.PhoneNumber {
			return nil, domain.ErrPhoneExists
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", r.seq)
	if copy.Artisan != nil {
		copy.Artisan.ID = fmt.Sprintf("artisan_%d", r.seq)
		copy.Artisan.UserID = copy.ID
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) FindStalePending(_ context.Context, createdBefore time.Time) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if !u.IsEmailVerified && u.Status == domain.StatusPending && u.CreatedAt.Before(createdBefore) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

type memVerificationTokenRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*domain.VerificationToken
}

func newMemVerificationTokenRepo() *memVerificationTokenRepo {
	return &memVerificationTokenRepo{tokens: make(map[string]*domain.VerificationToken)}
}

func (r *memVerificationTokenRepo) Create(_ context.Context, token *domain.VerificationToken) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := *token
	copy.ID = fmt.Sprintf("vt_%d", r.seq)
	r.tokens[copy.ID] = &copy
	stored := copy
	return &stored, nil
}

func (r *memVerificationTokenRepo) FindLiveByUser(_ context.Context, userID string, now time.Time) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *domain.VerificationToken
	for _, t := range r.tokens {
		if t.UserID != userID || !t.ExpiresAt.After(now) {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, domain.ErrCodeExpired
	}
	copy := *newest
	return &copy, nil
}

func (r *memVerificationTokenRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)
	return nil
}

func (r *memVerificationTokenRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *memVerificationTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memVerificationTokenRepo) countForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*domain.RefreshToken // by hash
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *memRefreshTokenRepo) Create(_ context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.TokenHash]; ok {
		return nil, domain.ErrInvalidToken
	}
	r.seq++
	copy := *token
	copy.ID = fmt.Sprintf("rt_%d", r.seq)
	r.tokens[copy.TokenHash] = &copy
	stored := copy
	return &stored, nil
}

func (r *memRefreshTokenRepo) FindByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, domain.ErrInvalidToken
}

func (r *memRefreshTokenRepo) Rotate(_ context.Context, oldHash, newHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[oldHash]
	if !ok {
		return domain.ErrInvalidToken
	}
	delete(r.tokens, oldHash)
	t.TokenHash = newHash
	t.ExpiresAt = expiresAt
	r.tokens[newHash] = t
	return nil
}

func (r *memRefreshTokenRepo) DeleteByHash(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[tokenHash]; !ok {
		return false, nil
	}
	delete(r.tokens, tokenHash)
	return true, nil
}

func (r *memRefreshTokenRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

// stubMailer records every message and can be told to fail.
type stubMailer struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
	fail bool
}

func (m *stubMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) last(t *testing.T) ports.EmailMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected at least one email sent")
	}
	return m.sent[len(m.sent)-1]
}

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

// lastCode pulls the verification code out of the most recent email body.
func (m *stubMailer) lastCode(t *testing.T) string {
	t.Helper()
	body := m.last(t).Body
	match := otpPattern.FindStringSubmatch(body)
	if match == nil {
		t.Fatalf("no verification code in email body:\n%s", body)
	}
	return match[1]
}

// stubLocker grants the lease unless busy is set.
type stubLocker struct {
	busy     bool
	acquires int
}

func (l *stubLocker) Acquire(_ context.Context, _ string) (func(), error) {
	if l.busy {
		return nil, domain.ErrResendInProgress
	}
	l.acquires++
	return func() {}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
