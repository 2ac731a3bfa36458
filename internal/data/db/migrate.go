package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/enrollment"
	"github.com/yungbote/neurobridge-completion/internal/platform/switches"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Completion
		// =========================
		&completion.BlockCompletion{},

		// =========================
		// Read-only mirrors + runtime switches
		// =========================
		&enrollment.CourseEnrollment{},
		&switches.Switch{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
