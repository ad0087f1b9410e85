package ports

import "context"

// PasswordResetService orchestrates the forgot/reset password flow with
// persisted, single-use reset tokens.
type PasswordResetService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
