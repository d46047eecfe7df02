package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserPendingResetLifecycle(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasPendingReset())

	exp := time.Date(2026, 1, 1, 12, 10, 0, 0, time.UTC)
	u.SetPendingReset("482913", exp)
	u.ResetAttempts = 2
	u.SetPendingReset("000417", exp)

	assert.True(t, u.HasPendingReset())
	assert.Equal(t, "000417", *u.ResetCode)
	assert.Zero(t, u.ResetAttempts)

	u.ClearPendingReset()
	assert.False(t, u.HasPendingReset())
	assert.Nil(t, u.ResetCode)
	assert.Nil(t, u.ResetCodeExpiry)
}

func TestUserResetExpiredBoundary(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 10, 0, 0, time.UTC)
	u := &User{}
	u.SetPendingReset("482913", exp)

	assert.False(t, u.ResetExpired(exp.Add(-time.Second)))
	assert.False(t, u.ResetExpired(exp))
	assert.True(t, u.ResetExpired(exp.Add(time.Second)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestJobStatusValid(t *testing.T) {
	assert.True(t, JobStatusOffer.Valid())
	assert.False(t, JobStatus("Ghosted").Valid())
}
