package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTP helpers

const (
	OTPDigits = 6
	// DefaultResetOTPTTL is how long a password reset code stays valid.
	DefaultResetOTPTTL = 10 * time.Minute
)

var otpSpace = big.NewInt(1_000_000)

// ResetOTP is a freshly issued password reset code.
type ResetOTP struct {
	Code      string
	ExpiresAt time.Time
}

// KeyResetLock is the Redis key serialising reset operations for one user
func KeyResetLock(uid string) string {
	return "pwd:reset:lock:" + uid
}

// GenOTPCode generates a uniformly distributed 6-digit code as a zero-padded string (000000-999999).
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// NewResetOTP issues a code that expires ttl after now. A non-positive ttl falls back to DefaultResetOTPTTL.
func NewResetOTP(now time.Time, ttl time.Duration) (ResetOTP, error) {
	if ttl <= 0 {
		ttl = DefaultResetOTPTTL
	}
	code, err := GenOTPCode()
	if err != nil {
		return ResetOTP{}, err
	}
	return ResetOTP{Code: code, ExpiresAt: now.Add(ttl)}, nil
}
