package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/data/repos"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type Repos struct {
	BlockCompletion  repos.BlockCompletionRepo
	CourseEnrollment repos.CourseEnrollmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		BlockCompletion:  repos.NewBlockCompletionRepo(db, log),
		CourseEnrollment: repos.NewCourseEnrollmentRepo(db, log),
	}
}
