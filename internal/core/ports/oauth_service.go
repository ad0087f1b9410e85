package ports

import (
	"context"

	"github.com/craftlink/identity-service/internal/core/domain"
)

// OAuthProfile is the provider payload validated at the boundary before it
// reaches the identity linker.
type OAuthProfile struct {
	Provider    string
	Email       string
	GivenName   string
	FamilyName  string
	DisplayName string
	PhotoURL    string
}

// OAuthService maps an external provider profile onto a local account and
// hands it to the session issuer.
type OAuthService interface {
	LinkOrCreate(ctx context.Context, profile OAuthProfile, role domain.UserRole) (*Session, error)
}
