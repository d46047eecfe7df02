package router

import (
	"github.com/oksasatya/job-tracker/internal/application"
	"github.com/oksasatya/job-tracker/internal/container"
	pginfra "github.com/oksasatya/job-tracker/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/job-tracker/internal/interface/http"
	"github.com/oksasatya/job-tracker/internal/router/modules"
	"github.com/oksasatya/job-tracker/pkg/helpers"
	"github.com/oksasatya/job-tracker/pkg/mailer"
	"github.com/oksasatya/job-tracker/pkg/mailer/templates"
)

type AuthModuleDeps struct {
	Auth    *application.AuthService
	Reset   *application.PasswordResetService
	Handler *handlers.AuthHandler
	ResetH  *handlers.PasswordResetHandler
}

// publisher returns nil unless queued email is enabled, so services skip publishing.
func publisher() application.Publisher {
	cfg := container.GetConfig()
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		return pub
	}
	return nil
}

func welcomeBuilder() application.WelcomeBuilder {
	cfg := container.GetConfig()
	return func(name, email string) mailer.EmailJob {
		return mailer.EmailJob{To: email, Template: templates.Welcome, Data: templates.NewWelcomeData(cfg, name, email)}
	}
}

func resetLocker() application.Locker {
	cfg := container.GetConfig()
	if rdb := container.GetRedis(); rdb != nil {
		return helpers.NewRedisLocker(rdb, cfg.ResetLockTTL, cfg.ResetLockWait)
	}
	return helpers.NewKeyedMutex()
}

func buildAuthDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	users := pginfra.NewUserRepository(container.GetPGPool())

	auth := application.NewAuthService(users, container.GetJWT(), container.GetRedis(), logger, publisher(), welcomeBuilder())

	notifier := mailer.NewNotifier(container.GetMailSender(), cfg)
	reset := application.NewPasswordResetService(users, notifier, resetLocker(), logger, cfg.ResetCodeTTL, cfg.ResetMaxAttempts)

	return AuthModuleDeps{
		Auth:    auth,
		Reset:   reset,
		Handler: handlers.NewAuthHandler(auth, logger, cfg.CookieDomain, cfg.CookieSecure),
		ResetH:  handlers.NewPasswordResetHandler(reset, logger, cfg.ResetHideUnknownEmail),
	}
}

func buildJobHandler() *handlers.JobHandler {
	cfg := container.GetConfig()
	jobs := pginfra.NewJobRepository(container.GetPGPool())
	svc := application.NewJobService(jobs, container.GetBlobStore(), container.GetES(), cfg.ESJobsIndex, container.GetLogger())
	return handlers.NewJobHandler(svc, container.GetLogger(), cfg.UploadMaxBytes)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	authDeps := buildAuthDeps()

	r.Add(modules.NewAuthModule(authDeps.Handler, authDeps.ResetH, container.GetJWT()))
	r.Add(modules.NewJobModule(buildJobHandler(), container.GetJWT()))
	r.Add(modules.NewEmailModule(handlers.NewEmailHandler(publisher(), welcomeBuilder(), cfg.MailSendEnabled, container.GetLogger()), container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
