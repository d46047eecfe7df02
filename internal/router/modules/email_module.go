package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/job-tracker/internal/container"
	handlers "github.com/oksasatya/job-tracker/internal/interface/http"
	"github.com/oksasatya/job-tracker/internal/interface/middleware"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

type EmailModule struct {
	Handler *handlers.EmailHandler
	JWT     *helpers.JWTManager
}

func NewEmailModule(h *handlers.EmailHandler, jwt *helpers.JWTManager) *EmailModule {
	return &EmailModule{Handler: h, JWT: jwt}
}

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/email")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/test", m.Handler.Test)
	}
}
