package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/config"
)

// Sender delivers one message. Implementations make a single attempt.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// LogSender writes messages to the log instead of sending them. Used for local development.
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, text, _ string) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail (log provider): " + text)
	}
	return nil
}

// NewSender builds the configured provider wrapped in a RetrySender.
func NewSender(cfg *config.Config, logger *logrus.Logger) (*RetrySender, error) {
	var base Sender
	switch cfg.MailProvider {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return nil, fmt.Errorf("mailgun not configured")
		}
		base = NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	case "smtp":
		s, err := NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			TLS:      cfg.SMTPTLS,
		})
		if err != nil {
			return nil, err
		}
		base = s
	case "log", "":
		base = LogSender{Logger: logger}
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
	return NewRetrySender(base, cfg.MailRetryAttempts, cfg.MailRetryBaseDelay, cfg.MailAttemptTimeout, logger), nil
}
