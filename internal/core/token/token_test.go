package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/craftlink/identity-service/internal/core/domain"
)

func testIssuer() *Issuer {
	return NewIssuer(Config{Secret: "test-secret", AccessTTL: time.Hour, ResetTTL: 10 * time.Minute})
}

func TestOTP_Format(t *testing.T) {
	iss := testIssuer()
	for n := 0; n < 200; n++ {
		code, expiresAt, err := iss.OTP()
		if err != nil {
			t.Fatalf("OTP returned error: %v", err)
		}
		if len(code) != OTPLength {
			t.Fatalf("expected %d digits, got %q", OTPLength, code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
		if !expiresAt.After(time.Now()) {
			t.Fatalf("expiry not in the future: %v", expiresAt)
		}
	}
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash("some-opaque-value")
	b := Hash("some-opaque-value")
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if a == Hash("other-value") {
		t.Fatalf("distinct inputs produced identical hashes")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestRefreshToken_Opaque(t *testing.T) {
	iss := testIssuer()
	raw, exp, err := iss.RefreshToken()
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if len(raw) != refreshTokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", refreshTokenBytes*2, len(raw))
	}
	if !exp.After(time.Now().Add(29 * 24 * time.Hour)) {
		t.Fatalf("default refresh expiry too short: %v", exp)
	}

	raw2, _, _ := iss.RefreshToken()
	if raw == raw2 {
		t.Fatalf("two refresh tokens were identical")
	}
}

func TestAccessToken_Claims(t *testing.T) {
	iss := testIssuer()
	user := &domain.User{ID: "u1", Email: "a@x.com", Role: domain.RoleCustomer}

	signed, err := iss.AccessToken(user)
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != "u1" || claims["email"] != "a@x.com" || claims["role"] != "CUSTOMER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestResetToken_RoundTrip(t *testing.T) {
	iss := testIssuer()
	user := &domain.User{ID: "u42", Email: "r@x.com"}

	raw, _, err := iss.ResetToken(user)
	if err != nil {
		t.Fatalf("ResetToken returned error: %v", err)
	}

	userID, err := iss.VerifyResetToken(raw)
	if err != nil {
		t.Fatalf("VerifyResetToken failed: %v", err)
	}
	if userID != "u42" {
		t.Fatalf("expected u42, got %s", userID)
	}
}

func TestVerifyResetToken_RejectsAccessToken(t *testing.T) {
	iss := testIssuer()
	user := &domain.User{ID: "u1", Email: "a@x.com", Role: domain.RoleCustomer}

	// An access token is signed with the same secret but lacks the reset
	// purpose claim; it must not open the reset flow.
	signed, err := iss.AccessToken(user)
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}
	if _, err := iss.VerifyResetToken(signed); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyResetToken_RejectsTampered(t *testing.T) {
	iss := testIssuer()
	other := NewIssuer(Config{Secret: "different-secret"})

	raw, _, err := other.ResetToken(&domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("ResetToken returned error: %v", err)
	}
	if _, err := iss.VerifyResetToken(raw); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}
