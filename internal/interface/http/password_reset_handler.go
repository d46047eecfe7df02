package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/internal/application"
	"github.com/oksasatya/job-tracker/internal/interface/middleware"
	"github.com/oksasatya/job-tracker/pkg/helpers"
	"github.com/oksasatya/job-tracker/pkg/response"
	"github.com/oksasatya/job-tracker/pkg/validation"
)

type PasswordResetter interface {
	RequestReset(ctx context.Context, email string, meta application.RequestMeta) (application.ResetIssued, error)
	VerifyReset(ctx context.Context, email, code, newPassword string) error
}

type PasswordResetHandler struct {
	Svc    PasswordResetter
	Logger *logrus.Logger
	// HideUnknownEmail answers unknown addresses like known ones.
	HideUnknownEmail bool
}

func NewPasswordResetHandler(svc PasswordResetter, logger *logrus.Logger, hideUnknownEmail bool) *PasswordResetHandler {
	return &PasswordResetHandler{Svc: svc, Logger: logger, HideUnknownEmail: hideUnknownEmail}
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,otp"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

const msgResetSent = "OTP sent to your email"

// ForgotPassword POST /api/auth/forgot-password {email}
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}

	issued, err := h.Svc.RequestReset(c.Request.Context(), req.Email, application.RequestMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"expires_at": issued.ExpiresAt.UTC().Format(time.RFC3339)}, msgResetSent, nil)
	case errors.Is(err, application.ErrUserNotFound):
		if h.HideUnknownEmail {
			response.Success[any](c, http.StatusOK, nil, msgResetSent, nil)
			return
		}
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, application.ErrDeliveryFailed):
		response.Error[any](c, http.StatusInternalServerError, "Failed to send OTP email, please try again", nil)
	default:
		helpers.LogError(h.Logger, "forgot password failed", err, logrus.Fields{"email": req.Email})
		response.Error[any](c, http.StatusInternalServerError, "Server error", nil)
	}
}

// ResetPassword POST /api/auth/reset-password {email, otp, newPassword}
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}

	err := h.Svc.VerifyReset(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	switch {
	case err == nil:
		response.Success[any](c, http.StatusOK, nil, "Password reset successful", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, application.ErrNoPendingReset):
		response.Error[any](c, http.StatusBadRequest, "No OTP request found", nil)
	case errors.Is(err, application.ErrResetExpired):
		response.Error[any](c, http.StatusBadRequest, "OTP expired", nil)
	case errors.Is(err, application.ErrInvalidResetCode):
		response.Error[any](c, http.StatusBadRequest, "Invalid OTP", nil)
	default:
		helpers.LogError(h.Logger, "reset password failed", err, logrus.Fields{"email": req.Email})
		response.Error[any](c, http.StatusInternalServerError, "Server error", nil)
	}
}
