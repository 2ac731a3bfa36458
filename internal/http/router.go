package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-completion/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-completion/internal/http/middleware"
	"github.com/yungbote/neurobridge-completion/internal/observability"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	CompletionHandler *httpH.CompletionHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/completion/v1")
	{
		// Completion
		if cfg.CompletionHandler != nil {
			api.POST("/submit", cfg.CompletionHandler.Submit)
			api.POST("/batch", cfg.CompletionHandler.SubmitBatch)
			api.GET("/users/:user_id/courses/:course_key", cfg.CompletionHandler.CourseCompletions)
		}
	}

	return r
}
