package app

import (
	"gorm.io/gorm"

	dataagg "github.com/yungbote/neurobridge-completion/internal/data/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/observability"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
	"github.com/yungbote/neurobridge-completion/internal/platform/switches"
	"github.com/yungbote/neurobridge-completion/internal/services"
)

type Services struct {
	Gate       *switches.Gate
	Completion services.CompletionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	gate := switches.NewGate(completion.TrackingSwitch, clients.Switches, cfg.TrackingDefault, log)

	batches := dataagg.NewBlockCompletionAggregate(dataagg.BlockCompletionAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: dataagg.NewObservabilityHooks(metrics),
		},
		Completions: reposet.BlockCompletion,
	})

	return Services{
		Gate: gate,
		Completion: services.NewCompletionService(services.CompletionServiceDeps{
			Log:         log,
			Gate:        gate,
			Completions: reposet.BlockCompletion,
			Enrollments: reposet.CourseEnrollment,
			Batches:     batches,
			Metrics:     metrics,
		}),
	}
}
