// Package completion holds the persisted completion record and the rules for the
// fraction it carries.
package completion

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
)

// TrackingSwitch is the name of the runtime switch gating every completion write.
const TrackingSwitch = "completion.enable_completion_tracking"

// BlockCompletion is the progress of one user on one block.
//
// CourseKey and BlockType are denormalized from BlockKey for query efficiency;
// they are always derived at write time, never taken from callers.
type BlockCompletion struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:completion_user_block_uniq,priority:1;index:completion_course_type_user_idx,priority:3;index:completion_user_course_modified_idx,priority:1" json:"user_id"`
	CourseKey  keys.CourseKey `gorm:"column:course_key;type:varchar(255);not null;index:completion_course_type_user_idx,priority:1;index:completion_user_course_modified_idx,priority:2" json:"course_key"`
	BlockType  string         `gorm:"column:block_type;type:varchar(64);not null;index:completion_course_type_user_idx,priority:2" json:"block_type"`
	BlockKey   keys.UsageKey  `gorm:"column:block_key;type:varchar(255);not null;uniqueIndex:completion_user_block_uniq,priority:2" json:"block_key"`
	Completion float64        `gorm:"column:completion;type:double precision;not null" json:"completion"`
	Modified   time.Time      `gorm:"column:modified;not null;index:completion_user_course_modified_idx,priority:3" json:"modified"`
	Created    time.Time      `gorm:"column:created;not null" json:"created"`
}

func (BlockCompletion) TableName() string { return "completion_blockcompletion" }

// New builds an unsaved record for (user, block), deriving the denormalized columns.
func New(userID uuid.UUID, blockKey keys.UsageKey, value float64, now time.Time) *BlockCompletion {
	now = now.UTC()
	return &BlockCompletion{
		UserID:     userID,
		CourseKey:  blockKey.CourseKey(),
		BlockType:  blockKey.BlockType(),
		BlockKey:   blockKey,
		Completion: value,
		Modified:   now,
		Created:    now,
	}
}

// Consistent reports whether the denormalized columns still match BlockKey.
func (b *BlockCompletion) Consistent() bool {
	if b == nil {
		return false
	}
	return b.CourseKey == b.BlockKey.CourseKey() && b.BlockType == b.BlockKey.BlockType()
}
