package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/data/repos/completion"
	"github.com/yungbote/neurobridge-completion/internal/data/repos/enrollment"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type BlockCompletionRepo = completion.BlockCompletionRepo
type CourseEnrollmentRepo = enrollment.CourseEnrollmentRepo

func NewBlockCompletionRepo(db *gorm.DB, baseLog *logger.Logger, opts ...completion.Option) BlockCompletionRepo {
	return completion.NewBlockCompletionRepo(db, baseLog, opts...)
}
func NewCourseEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) CourseEnrollmentRepo {
	return enrollment.NewCourseEnrollmentRepo(db, baseLog)
}
