package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
	"github.com/craftlink/identity-service/internal/core/token"
)

type verificationFixture struct {
	svc      *VerificationService
	users    *memUserRepo
	tokens   *memVerificationTokenRepo
	sessions *memRefreshTokenRepo
	mailer   *stubMailer
	locker   *stubLocker
}

func newVerificationFixture() *verificationFixture {
	f := &verificationFixture{
		users:    newMemUserRepo(),
		tokens:   newMemVerificationTokenRepo(),
		sessions: newMemRefreshTokenRepo(),
		mailer:   &stubMailer{},
		locker:   &stubLocker{},
	}
	issuer := token.NewIssuer(token.Config{Secret: "test-secret"})
	f.svc = NewVerificationService(f.users, f.tokens, f.sessions, f.mailer, f.locker, issuer, "http://localhost:5173", testLogger())
	return f
}

func registerInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:       "Jane.Doe@Example.com",
		Password:    "s3cret-password",
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "+15551234567",
	}
}

func TestRegisterCreatesPendingUserAndEmailsCode(t *testing.T) {
	f := newVerificationFixture()

	result, err := f.svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.UserID == "" {
		t.Fatal("expected a user id in the result")
	}
	if result.Email != "jane.doe@example.com" {
		t.Errorf("email not normalized, got %q", result.Email)
	}

	user, err := f.users.FindByID(context.Background(), result.UserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", user.Status)
	}
	if user.IsEmailVerified {
		t.Error("new account must not be verified")
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("role = %s, want default CUSTOMER", user.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-password")) != nil {
		t.Error("stored password hash does not match the password")
	}

	code := f.mailer.lastCode(t)
	stored, err := f.tokens.FindLiveByUser(context.Background(), result.UserID, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected a live verification token: %v", err)
	}
	if stored.CodeHash == code {
		t.Error("verification code stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)) != nil {
		t.Error("stored code hash does not match the emailed code")
	}
}

func TestRegisterRollsBackWhenEmailFails(t *testing.T) {
	f := newVerificationFixture()
	f.mailer.fail = true

	_, err := f.svc.Register(context.Background(), registerInput())
	if !errors.Is(err, domain.ErrEmailDelivery) {
		t.Fatalf("err = %v, want ErrEmailDelivery", err)
	}

	if _, err := f.users.FindByEmail(context.Background(), "jane.doe@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("user survived the rollback: %v", err)
	}

	// The address is free again: the next registration attempt succeeds.
	f.mailer.fail = false
	if _, err := f.svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("re-register after rollback: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	first, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// While the first registration's code is live the email is claimed.
	if _, err := f.svc.Register(ctx, registerInput()); !errors.Is(err, domain.ErrCodePending) {
		t.Fatalf("err = %v, want ErrCodePending", err)
	}

	// After the code expires the conflict remains but is reported as an
	// existing account; the cleanup sweep frees the address later.
	_ = f.tokens.DeleteAllForUser(ctx, first.UserID)
	if _, err := f.svc.Register(ctx, registerInput()); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
}

func TestVerifyActivatesAccount(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	result, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := f.mailer.lastCode(t)

	if err := f.svc.Verify(ctx, result.UserID, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	user, err := f.users.FindByID(ctx, result.UserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !user.IsEmailVerified || user.Status != domain.StatusActive {
		t.Errorf("verified=%v status=%s, want verified ACTIVE", user.IsEmailVerified, user.Status)
	}

	// The code is single use.
	if err := f.svc.Verify(ctx, result.UserID, code); !errors.Is(err, domain.ErrCodeExpired) {
		t.Errorf("second verify err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyWrongCodeKeepsToken(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	result, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := f.mailer.lastCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if err := f.svc.Verify(ctx, result.UserID, wrong); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}

	// The right code still works after a failed attempt.
	if err := f.svc.Verify(ctx, result.UserID, code); err != nil {
		t.Fatalf("retry with correct code: %v", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcryptCost)
	seed := func(expiresAt time.Time, userID string) {
		user := &domain.User{Email: userID + "@example.com", Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now}
		created, err := f.users.Create(ctx, user)
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
		_, err = f.tokens.Create(ctx, &domain.VerificationToken{
			UserID:    created.ID,
			CodeHash:  string(hash),
			ExpiresAt: expiresAt,
			CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("seed token: %v", err)
		}
		if expiresAt.After(now) {
			if err := f.svc.Verify(ctx, created.ID, "123456"); err != nil {
				t.Errorf("token expiring at %v rejected: %v", expiresAt, err)
			}
		} else {
			if err := f.svc.Verify(ctx, created.ID, "123456"); !errors.Is(err, domain.ErrCodeExpired) {
				t.Errorf("token expired at %v accepted, err = %v", expiresAt, err)
			}
		}
	}

	seed(now.Add(5*time.Second), "alive")
	seed(now.Add(-time.Second), "dead")
}

func TestResendCodeReplacesOutstandingCodes(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	result, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	firstCode := f.mailer.lastCode(t)

	if _, err := f.svc.ResendCode(ctx, result.UserID); err != nil {
		t.Fatalf("ResendCode: %v", err)
	}
	secondCode := f.mailer.lastCode(t)

	if got := f.tokens.countForUser(result.UserID); got != 1 {
		t.Errorf("token count = %d, want exactly 1 after resend", got)
	}
	if f.locker.acquires != 1 {
		t.Errorf("lease acquired %d times, want 1", f.locker.acquires)
	}

	// The old code is dead even if it happens to equal the new one's format.
	if firstCode != secondCode {
		if err := f.svc.Verify(ctx, result.UserID, firstCode); !errors.Is(err, domain.ErrInvalidCode) {
			t.Errorf("old code err = %v, want ErrInvalidCode", err)
		}
	}
	if err := f.svc.Verify(ctx, result.UserID, secondCode); err != nil {
		t.Errorf("new code rejected: %v", err)
	}
}

func TestResendCodeBusyLease(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	result, err := f.svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.locker.busy = true
	if _, err := f.svc.ResendCode(ctx, result.UserID); !errors.Is(err, domain.ErrResendInProgress) {
		t.Fatalf("err = %v, want ErrResendInProgress", err)
	}
	// The original code survives a refused resend.
	if got := f.tokens.countForUser(result.UserID); got != 1 {
		t.Errorf("token count = %d, want 1", got)
	}
}

func TestResendCodeUnknownUser(t *testing.T) {
	f := newVerificationFixture()
	if _, err := f.svc.ResendCode(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRegisterArtisanPersistsBusinessRecord(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	in := ports.ArtisanRegisterInput{
		RegisterInput: ports.RegisterInput{
			Email:       "smith@example.com",
			Password:    "hammer-and-anvil",
			FirstName:   "John",
			LastName:    "Smith",
			PhoneNumber: "+15557654321",
		},
		Address:           "1 Forge Lane",
		City:              "Springfield",
		State:             "IL",
		ZipCode:           "62701",
		BusinessName:      "Smith Metalworks",
		BusinessLicense:   "LIC-1234",
		TaxID:             "TAX-5678",
		ServiceCategories: []string{"Welding"},
		ServiceAreas:      []string{"Springfield"},
		Description:       "Custom metalwork",
		HourlyRate:        85,
		YearsOfExperience: 12,
	}

	result, err := f.svc.RegisterArtisan(ctx, in)
	if err != nil {
		t.Fatalf("RegisterArtisan: %v", err)
	}
	if result.ArtisanID == "" {
		t.Error("expected an artisan id in the result")
	}

	user, err := f.users.FindByID(ctx, result.UserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user.Role != domain.RoleArtisan {
		t.Errorf("role = %s, want ARTISAN", user.Role)
	}
	if user.City != "Springfield" || user.Address != "1 Forge Lane" {
		t.Errorf("address fields not persisted: %+v", user)
	}
	if user.Artisan == nil {
		t.Fatal("artisan record missing")
	}
	if user.Artisan.Status != domain.ArtisanPendingVerification {
		t.Errorf("artisan status = %s, want PENDING_VERIFICATION", user.Artisan.Status)
	}
	if user.Artisan.MaxJobDistance != 50 {
		t.Errorf("max job distance = %d, want default 50", user.Artisan.MaxJobDistance)
	}
	if user.Artisan.BusinessName != "Smith Metalworks" {
		t.Errorf("business name = %q", user.Artisan.BusinessName)
	}

	subject := f.mailer.last(t).Subject
	if !strings.Contains(subject, "Artisan") {
		t.Errorf("subject = %q, want the artisan variant", subject)
	}
}
