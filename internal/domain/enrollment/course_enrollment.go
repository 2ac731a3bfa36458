package enrollment

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
)

const ModeAudit = "audit"

// CourseEnrollment mirrors the enrollment table owned by the student service.
// Completion tracking only reads it.
type CourseEnrollment struct {
	ID       int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID   uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:enrollment_user_course_uniq,priority:1" json:"user_id"`
	CourseID keys.CourseKey `gorm:"column:course_id;type:varchar(255);not null;uniqueIndex:enrollment_user_course_uniq,priority:2;index" json:"course_id"`
	Mode     string         `gorm:"column:mode;type:varchar(100);not null;default:'audit'" json:"mode"`
	IsActive bool           `gorm:"column:is_active;not null" json:"is_active"`
	Created  time.Time      `gorm:"column:created;not null" json:"created"`
}

func (CourseEnrollment) TableName() string { return "student_courseenrollment" }
