package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/internal/application"
	"github.com/oksasatya/job-tracker/pkg/helpers"
	"github.com/oksasatya/job-tracker/pkg/response"
)

type EmailHandler struct {
	Pub     application.Publisher
	Welcome application.WelcomeBuilder
	Enabled bool
	Logger  *logrus.Logger
}

func NewEmailHandler(pub application.Publisher, welcome application.WelcomeBuilder, enabled bool, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{Pub: pub, Welcome: welcome, Enabled: enabled, Logger: logger}
}

// Test POST /api/email/test enqueues a welcome email to the signed-in user.
func (h *EmailHandler) Test(c *gin.Context) {
	to := c.GetString("userEmail")
	if to == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if !h.Enabled || h.Pub == nil {
		response.Success[any](c, http.StatusAccepted, map[string]any{"enqueued": false, "disabled": true}, "email sending disabled", nil)
		return
	}

	job := h.Welcome(c.GetString("userName"), to)
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		helpers.LogError(h.Logger, "failed to publish email job", err, logrus.Fields{"to": to})
		response.Error[any](c, http.StatusInternalServerError, "Email sending failed", nil)
		return
	}
	response.Success[any](c, http.StatusAccepted, map[string]any{"enqueued": true}, "Test email sent successfully", nil)
}
