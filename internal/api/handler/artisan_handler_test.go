package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/identity-service/internal/core/domain"
	"github.com/craftlink/identity-service/internal/core/ports"
)

const artisanBody = `{
	"email": "smith@example.com",
	"password": "hammer-and-anvil",
	"first_name": "John",
	"last_name": "Smith",
	"business_name": "Smith Metalworks",
	"business_license": "LIC-1234",
	"service_categories": ["Welding"],
	"service_areas": ["Springfield"],
	"hourly_rate": 85
}`

func TestArtisanHandler_Register_Success(t *testing.T) {
	stub := &stubVerificationService{
		registerArtisanFn: func(ctx context.Context, in ports.ArtisanRegisterInput) (*ports.RegisterResult, error) {
			if in.Role != domain.RoleArtisan {
				t.Fatalf("role = %s, want ARTISAN", in.Role)
			}
			if in.BusinessName != "Smith Metalworks" || in.BusinessLicense != "LIC-1234" {
				t.Fatalf("business fields not bound: %+v", in)
			}
			return &ports.RegisterResult{UserID: "user_1", ArtisanID: "artisan_1", Email: in.Email}, nil
		},
	}
	handler := NewArtisanHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/artisan/register", artisanBody)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestArtisanHandler_Register_MissingBusinessFields(t *testing.T) {
	stub := &stubVerificationService{
		registerArtisanFn: func(ctx context.Context, in ports.ArtisanRegisterInput) (*ports.RegisterResult, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	handler := NewArtisanHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/artisan/register",
		`{"email":"smith@example.com","password":"hammer-and-anvil","first_name":"John","last_name":"Smith"}`)
	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 HTTPError", err)
	}
}

func TestArtisanHandler_Register_LicenseConflict(t *testing.T) {
	stub := &stubVerificationService{
		registerArtisanFn: func(ctx context.Context, in ports.ArtisanRegisterInput) (*ports.RegisterResult, error) {
			return nil, domain.ErrLicenseExists
		},
	}
	handler := NewArtisanHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/artisan/register", artisanBody)
	if err := handler.Register(c); !errors.Is(err, domain.ErrLicenseExists) {
		t.Fatalf("err = %v, want ErrLicenseExists", err)
	}
}
