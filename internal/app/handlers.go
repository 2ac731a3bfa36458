package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/neurobridge-completion/internal/http/handlers"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Completion *httpH.CompletionHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Completion: httpH.NewCompletionHandler(services.Completion),
	}
}
