package ports

import (
	"context"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// RegisterInput carries the fields accepted at customer/admin registration.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        domain.UserRole
}

// ArtisanRegisterInput extends RegisterInput with business details; the artisan
// record is created atomically with the owning user.
type ArtisanRegisterInput struct {
	RegisterInput
	Address           string
	City              string
	State             string
	ZipCode           string
	BusinessName      string
	BusinessLicense   string
	TaxID             string
	ServiceCategories []string
	ServiceAreas      []string
	Description       string
	HourlyRate        float64
	YearsOfExperience int
	Qualifications    []string
	MaxJobDistance    int
}

// RegisterResult identifies the freshly created, still unverified account.
type RegisterResult struct {
	UserID    string `json:"user_id"`
	ArtisanID string `json:"artisan_id,omitempty"` // empty for non-artisan registrations
	Email     string `json:"email"`
}

// VerificationService orchestrates registration, OTP issuance and consumption.
type VerificationService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	RegisterArtisan(ctx context.Context, in ArtisanRegisterInput) (*RegisterResult, error)
	Verify(ctx context.Context, userID, code string) error
	ResendCode(ctx context.Context, userID string) (*RegisterResult, error)
}
