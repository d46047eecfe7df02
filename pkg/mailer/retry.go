package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// ErrDeliveryFailed matches any *DeliveryError via errors.Is.
var ErrDeliveryFailed = errors.New("email delivery failed")

// DeliveryError is returned once every attempt has failed.
type DeliveryError struct {
	To       string
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email to %s after %d attempts: %v", e.To, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

// RetrySender retries a Sender with linear backoff: after the n-th failed
// attempt it waits n*BaseDelay before trying again.
type RetrySender struct {
	Next           Sender
	Attempts       int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	Logger         *logrus.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrySender(next Sender, attempts int, baseDelay, attemptTimeout time.Duration, logger *logrus.Logger) *RetrySender {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	return &RetrySender{
		Next:           next,
		Attempts:       attempts,
		BaseDelay:      baseDelay,
		AttemptTimeout: attemptTimeout,
		Logger:         logger,
		sleep:          sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *RetrySender) Send(ctx context.Context, to, subject, text, html string) error {
	var lastErr error
	attempt := 0
	for attempt < r.Attempts {
		attempt++
		lastErr = r.once(ctx, to, subject, text, html)
		if lastErr == nil {
			if r.Logger != nil {
				r.Logger.WithFields(logrus.Fields{"to": to, "attempt": attempt}).Debug("email sent")
			}
			return nil
		}
		if r.Logger != nil {
			r.Logger.WithError(lastErr).WithFields(logrus.Fields{"to": to, "attempt": attempt}).Warn("email attempt failed")
		}
		if attempt == r.Attempts {
			break
		}
		if err := r.sleep(ctx, time.Duration(attempt)*r.BaseDelay); err != nil {
			lastErr = err
			break
		}
	}
	return &DeliveryError{To: to, Attempts: attempt, Err: lastErr}
}

func (r *RetrySender) once(ctx context.Context, to, subject, text, html string) error {
	if r.AttemptTimeout <= 0 {
		return r.Next.Send(ctx, to, subject, text, html)
	}
	c, cancel := context.WithTimeout(ctx, r.AttemptTimeout)
	defer cancel()
	return r.Next.Send(c, to, subject, text, html)
}
