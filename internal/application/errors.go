package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")

	// Password reset outcomes.
	ErrNoPendingReset   = errors.New("no pending password reset")
	ErrResetExpired     = errors.New("reset code expired")
	ErrInvalidResetCode = errors.New("invalid reset code")
	ErrDeliveryFailed   = errors.New("reset code could not be delivered")

	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidJob     = errors.New("invalid job")
	ErrStorageMissing = errors.New("attachment storage not configured")
)
