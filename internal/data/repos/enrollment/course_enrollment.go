package enrollment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-completion/internal/domain/enrollment"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type CourseEnrollmentRepo interface {
	IsEnrolled(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (bool, error)
	Get(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (*types.CourseEnrollment, error)
	Enroll(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey, mode string) (*types.CourseEnrollment, error)
	Deactivate(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) error
}

type courseEnrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) CourseEnrollmentRepo {
	return &courseEnrollmentRepo{db: db, log: baseLog.With("repo", "CourseEnrollmentRepo")}
}

// IsEnrolled is true only for an active enrollment.
func (r *courseEnrollmentRepo) IsEnrolled(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (bool, error) {
	if userID == uuid.Nil || courseKey.IsZero() {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND is_active = ?", userID, courseKey, true).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *courseEnrollmentRepo) Get(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (*types.CourseEnrollment, error) {
	if userID == uuid.Nil || courseKey.IsZero() {
		return nil, nil
	}
	var rows []*types.CourseEnrollment
	if err := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseKey).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Enroll activates (or re-activates) the enrollment.
func (r *courseEnrollmentRepo) Enroll(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey, mode string) (*types.CourseEnrollment, error) {
	if mode == "" {
		mode = types.ModeAudit
	}
	row := &types.CourseEnrollment{
		UserID:   userID,
		CourseID: courseKey,
		Mode:     mode,
		IsActive: true,
		Created:  time.Now().UTC(),
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "is_active"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, userID, courseKey)
}

func (r *courseEnrollmentRepo) Deactivate(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) error {
	return dbc.DB(r.db).
		Model(&types.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseKey).
		UpdateColumn("is_active", false).Error
}
