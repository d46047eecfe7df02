package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
//
// ResetCode and ResetCodeExpiry describe a pending password reset and are
// always set together or both nil.
type User struct {
	ID              string
	Email           string
	Password        string
	Name            string
	ResetCode       *string
	ResetCodeExpiry *time.Time
	ResetAttempts   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeEmail lower-cases and trims an address so it can be used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPendingReset reports whether the user currently holds an issued reset code.
func (u *User) HasPendingReset() bool {
	return u.ResetCode != nil && u.ResetCodeExpiry != nil
}

// ResetExpired reports whether the pending code is past its expiry at now.
// The expiry instant itself is still valid.
func (u *User) ResetExpired(now time.Time) bool {
	return u.ResetCodeExpiry != nil && now.After(*u.ResetCodeExpiry)
}

// SetPendingReset replaces any pending code with a fresh one.
func (u *User) SetPendingReset(code string, expiry time.Time) {
	u.ResetCode = &code
	u.ResetCodeExpiry = &expiry
	u.ResetAttempts = 0
}

// ClearPendingReset drops the pending code and its expiry.
func (u *User) ClearPendingReset() {
	u.ResetCode = nil
	u.ResetCodeExpiry = nil
	u.ResetAttempts = 0
}
