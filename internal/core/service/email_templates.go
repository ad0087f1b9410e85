package service

import "fmt"

// Plaintext transactional email bodies. Kept deliberately simple; rendering
// HTML mail is a storefront concern, not an identity one.

func verificationCodeBody(code string) string {
	return fmt.Sprintf(`Hello!

Your verification code is: %s

This code will expire in 10 minutes.

If you didn't request this code, please ignore this email.
`, code)
}

func verificationSuccessBody(loginURL string) string {
	return fmt.Sprintf(`Congratulations!

Your email has been successfully verified. You can now log in to your account.

Login here: %s
`, loginURL)
}

func forgotPasswordBody(resetURL, fullName string) string {
	return fmt.Sprintf(`Hello %s,

You recently requested to reset your password. Click the link below to reset it:

%s

This link will expire in 10 minutes.

If you didn't request this, please ignore this email.
`, fullName, resetURL)
}

func passwordChangedBody(loginURL, fullName string) string {
	return fmt.Sprintf(`Hello %s,

Your password has been successfully changed.

You can now login with your new password here: %s

If you didn't make this change, please contact support immediately.
`, fullName, loginURL)
}
