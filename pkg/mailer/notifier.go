package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/oksasatya/job-tracker/config"
	"github.com/oksasatya/job-tracker/pkg/mailer/templates"
)

// Notifier renders templated mail and hands it to a Sender.
type Notifier struct {
	Sender Sender
	Cfg    *config.Config
	Now    func() time.Time
}

func NewNotifier(sender Sender, cfg *config.Config) *Notifier {
	return &Notifier{Sender: sender, Cfg: cfg, Now: time.Now}
}

// Deliver sends a queued job, rendering its template first when one is set.
func (n *Notifier) Deliver(ctx context.Context, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("email job has no recipient")
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !templates.Known(job.Template) {
			return fmt.Errorf("unknown email template %q", job.Template)
		}
		var err error
		subject, text, html, err = templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("render %s: %w", job.Template, err)
		}
	}
	if subject == "" {
		return fmt.Errorf("email job for %s has no subject", job.To)
	}
	return n.Sender.Send(ctx, job.To, subject, text, html)
}

// SendResetCode emails the one-time reset code. The returned error wraps
// ErrDeliveryFailed when the sender gave up.
func (n *Notifier) SendResetCode(ctx context.Context, to, name, code string, expiresAt time.Time, ip, userAgent string) error {
	now := n.Now()
	data := templates.NewResetOTPData(n.Cfg, name, to, code,
		templates.WithExpiresAt(expiresAt, now),
		templates.WithIP(ip),
		templates.WithUserAgent(userAgent),
		templates.WithTime(now),
	)
	subject, text, html, err := templates.Render(templates.ResetOTP, data)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	return n.Sender.Send(ctx, to, subject, text, html)
}
