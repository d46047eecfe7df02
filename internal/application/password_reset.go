package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"expvar"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	repo "github.com/oksasatya/job-tracker/internal/domain/repository"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

// resetStats is published on /api/debug/vars.
var resetStats = expvar.NewMap("password_reset")

// Locker serialises work on a key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ResetCodeSender delivers a reset code to the account owner. An error means
// the code must be treated as never sent.
type ResetCodeSender interface {
	SendResetCode(ctx context.Context, to, name, code string, expiresAt time.Time, ip, userAgent string) error
}

// RequestMeta is request context included in the reset email.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ResetIssued describes a code that was stored and delivered.
type ResetIssued struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type PasswordResetService struct {
	Users       repo.UserRepository
	Sender      ResetCodeSender
	Locker      Locker
	Logger      *logrus.Logger
	TTL         time.Duration
	MaxAttempts int

	Now     func() time.Time
	NewCode func() (string, error)
	Hash    func(string) (string, error)
}

func NewPasswordResetService(users repo.UserRepository, sender ResetCodeSender, locker Locker, logger *logrus.Logger, ttl time.Duration, maxAttempts int) *PasswordResetService {
	if ttl <= 0 {
		ttl = helpers.DefaultResetOTPTTL
	}
	if locker == nil {
		locker = helpers.NewKeyedMutex()
	}
	return &PasswordResetService{
		Users:       users,
		Sender:      sender,
		Locker:      locker,
		Logger:      logger,
		TTL:         ttl,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
		NewCode:     helpers.GenOTPCode,
		Hash:        helpers.HashPassword,
	}
}

func (s *PasswordResetService) lookup(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// RequestReset issues a fresh code for the account, replacing any pending one,
// and emails it. When delivery fails the stored code is cleared again and the
// error wraps ErrDeliveryFailed.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string, meta RequestMeta) (ResetIssued, error) {
	email = entity.NormalizeEmail(email)
	u, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			resetStats.Add("request_unknown_email", 1)
			helpers.LogInfo(s.Logger, "password reset requested for unknown email", logrus.Fields{"email": email, "ip": meta.IP})
		}
		return ResetIssued{}, err
	}

	unlock, err := s.Locker.Lock(ctx, helpers.KeyResetLock(u.ID))
	if err != nil {
		return ResetIssued{}, fmt.Errorf("acquire reset lock: %w", err)
	}
	defer unlock()

	code, err := s.NewCode()
	if err != nil {
		return ResetIssued{}, err
	}
	expiresAt := s.Now().Add(s.TTL)

	if err := s.Users.SetResetCode(ctx, u.ID, code, expiresAt); err != nil {
		return ResetIssued{}, fmt.Errorf("store reset code: %w", err)
	}

	if err := s.Sender.SendResetCode(ctx, u.Email, u.Name, code, expiresAt, meta.IP, meta.UserAgent); err != nil {
		resetStats.Add("delivery_failed", 1)
		// Only our own code is cleared; a newer one issued meanwhile stays.
		if _, cErr := s.Users.ClearResetCode(context.WithoutCancel(ctx), u.ID, code); cErr != nil {
			helpers.LogError(s.Logger, "rollback reset code failed", cErr, logrus.Fields{"user_id": u.ID})
		}
		helpers.LogError(s.Logger, "reset code delivery failed", err, logrus.Fields{"user_id": u.ID})
		return ResetIssued{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	resetStats.Add("issued", 1)
	helpers.LogInfo(s.Logger, "password reset code issued", logrus.Fields{"user_id": u.ID, "expires_at": expiresAt})
	return ResetIssued{UserID: u.ID, Email: u.Email, ExpiresAt: expiresAt}, nil
}

// VerifyReset consumes the pending code and sets the new password. Every call
// ends in exactly one of ErrUserNotFound, ErrNoPendingReset, ErrResetExpired,
// ErrInvalidResetCode or success.
func (s *PasswordResetService) VerifyReset(ctx context.Context, email, code, newPassword string) error {
	u, err := s.lookup(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return err
	}

	unlock, err := s.Locker.Lock(ctx, helpers.KeyResetLock(u.ID))
	if err != nil {
		return fmt.Errorf("acquire reset lock: %w", err)
	}
	defer unlock()

	// re-read under the lock
	u, err = s.Users.GetByID(ctx, u.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if !u.HasPendingReset() {
		resetStats.Add("verify_no_pending", 1)
		return ErrNoPendingReset
	}
	stored := *u.ResetCode

	if u.ResetExpired(s.Now()) {
		resetStats.Add("verify_expired", 1)
		if _, err := s.Users.ClearResetCode(ctx, u.ID, stored); err != nil {
			return fmt.Errorf("clear expired code: %w", err)
		}
		return ErrResetExpired
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(stored)) != 1 {
		resetStats.Add("verify_invalid_code", 1)
		s.countFailedAttempt(ctx, u.ID, stored)
		return ErrInvalidResetCode
	}

	hash, err := s.Hash(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.Users.CompleteReset(ctx, u.ID, stored, hash)
	if err != nil {
		return fmt.Errorf("complete reset: %w", err)
	}
	if !ok {
		resetStats.Add("verify_no_pending", 1)
		return ErrNoPendingReset
	}

	resetStats.Add("verified", 1)
	helpers.LogInfo(s.Logger, "password reset completed", logrus.Fields{"user_id": u.ID})
	return nil
}

func (s *PasswordResetService) countFailedAttempt(ctx context.Context, userID, stored string) {
	attempts, err := s.Users.IncrementResetAttempts(ctx, userID, stored)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			helpers.LogError(s.Logger, "count reset attempt failed", err, logrus.Fields{"user_id": userID})
		}
		return
	}
	if s.MaxAttempts <= 0 || attempts < s.MaxAttempts {
		return
	}
	resetStats.Add("locked_out", 1)
	if _, err := s.Users.ClearResetCode(ctx, userID, stored); err != nil {
		helpers.LogError(s.Logger, "clear exhausted reset code failed", err, logrus.Fields{"user_id": userID})
		return
	}
	helpers.LogInfo(s.Logger, "reset code invalidated after too many attempts", logrus.Fields{"user_id": userID, "attempts": attempts})
}
