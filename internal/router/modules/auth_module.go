package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/job-tracker/internal/container"
	handlers "github.com/oksasatya/job-tracker/internal/interface/http"
	"github.com/oksasatya/job-tracker/internal/interface/middleware"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

// AuthModule wires account and password reset routes.
// Public: register, login, refresh, forgot-password, reset-password
// Protected: logout, profile
type AuthModule struct {
	Handler *handlers.AuthHandler
	Reset   *handlers.PasswordResetHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, reset *handlers.PasswordResetHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Reset: reset, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public with rate limiting
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", loginLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/forgot-password", forgotLimiter, m.Reset.ForgotPassword)
	rg.POST("/auth/reset-password", resetLimiter, m.Reset.ResetPassword)

	// Protected
	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(rdb, m.JWT))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.Profile)
	}
}
