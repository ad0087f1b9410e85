package domain

import "errors"

// Sentinel errors returned by services and repositories. The API layer maps
// each to a deterministic HTTP status in internal/api/error_handler.go.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with this email already exists")
	ErrPhoneExists  = errors.New("phone number already in use")

	// ErrCodePending is returned when a live verification or reset token
	// already exists and a new one may not be issued yet.
	ErrCodePending = errors.New("a valid code already exists, use it or wait for it to expire")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrAccountDisabled    = errors.New("account not available")

	ErrInvalidCode = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code is expired or invalid")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingEmail      = errors.New("no email found in oauth profile")
	ErrLicenseExists     = errors.New("business license or tax id already registered")
	ErrResendInProgress  = errors.New("a code request is already in progress")
	ErrEmailDelivery     = errors.New("failed to send email")
)
