package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/job-tracker/internal/container"
	handlers "github.com/oksasatya/job-tracker/internal/interface/http"
	"github.com/oksasatya/job-tracker/internal/interface/middleware"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

type JobModule struct {
	Handler *handlers.JobHandler
	JWT     *helpers.JWTManager
}

func NewJobModule(h *handlers.JobHandler, jwt *helpers.JWTManager) *JobModule {
	return &JobModule{Handler: h, JWT: jwt}
}

func (m *JobModule) Register(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	jobs.Use(middleware.Auth(container.GetRedis(), m.JWT))
	jobs.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		jobs.POST("", m.Handler.Create)
		jobs.GET("", m.Handler.List)
		jobs.GET("/stats", m.Handler.Stats)
		jobs.GET("/search", m.Handler.Search)
		jobs.GET("/:id", m.Handler.Get)
		jobs.PUT("/:id", m.Handler.Update)
		jobs.DELETE("/:id", m.Handler.Delete)
	}
}
