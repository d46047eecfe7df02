package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
)

var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user-related database operations.
//
// The reset methods are conditional on the code currently stored, so a caller
// holding a stale code can never overwrite or clear a newer one. They report
// false when the stored code no longer matches.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error

	SetResetCode(ctx context.Context, userID, code string, expiry time.Time) error
	ClearResetCode(ctx context.Context, userID, code string) (bool, error)
	IncrementResetAttempts(ctx context.Context, userID, code string) (int, error)
	CompleteReset(ctx context.Context, userID, code, passwordHash string) (bool, error)
}
