package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/enrollment"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
)

// TestCourse is the course every fixture block belongs to unless stated.
var TestCourse = keys.MustParseCourseKey("course-v1:edX+DemoX+Demo_Course")

// Block returns a usage key in course for an html block with the given id.
func Block(course keys.CourseKey, id string) keys.UsageKey {
	return keys.UsageKey{Course: course, Type: "html", BlockID: id}
}

// Blocks returns n distinct html blocks in course.
func Blocks(course keys.CourseKey, n int) []keys.UsageKey {
	out := make([]keys.UsageKey, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Block(course, fmt.Sprintf("block%d", i)))
	}
	return out
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, course keys.CourseKey) *enrollment.CourseEnrollment {
	tb.Helper()
	row := &enrollment.CourseEnrollment{
		UserID:   userID,
		CourseID: course,
		Mode:     enrollment.ModeAudit,
		IsActive: true,
		Created:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return row
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, block keys.UsageKey, value float64) *completion.BlockCompletion {
	tb.Helper()
	row := completion.New(userID, block, value, time.Now().UTC())
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return row
}

// Completions loads every stored record for user, keyed by block.
func Completions(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) map[keys.UsageKey]*completion.BlockCompletion {
	tb.Helper()
	var rows []*completion.BlockCompletion
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		tb.Fatalf("load completions: %v", err)
	}
	out := make(map[keys.UsageKey]*completion.BlockCompletion, len(rows))
	for _, row := range rows {
		out[row.BlockKey] = row
	}
	return out
}
