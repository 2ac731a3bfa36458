package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-completion/internal/http"
	"github.com/yungbote/neurobridge-completion/internal/observability"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		HealthHandler:     handlers.Health,
		CompletionHandler: handlers.Completion,
	})
}
