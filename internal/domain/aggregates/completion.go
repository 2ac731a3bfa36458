package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
)

var BlockCompletionAggregateContract = Contract{
	Name:             "Completion.BlockCompletionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns all-or-nothing application of a completion batch for one (user, course).",
}

// BlockCompletionAggregate owns batch completion writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeConflict, CodeRetryable, CodeInternal.
type BlockCompletionAggregate interface {
	Aggregate

	// ApplyBatch upserts every item inside one transaction. Either every item
	// commits or none does.
	ApplyBatch(ctx context.Context, in ApplyCompletionBatchInput) (ApplyCompletionBatchResult, error)
}

type CompletionBatchItem struct {
	BlockKey   keys.UsageKey
	Completion float64
}

type ApplyCompletionBatchInput struct {
	UserID    uuid.UUID
	CourseKey keys.CourseKey
	Items     []CompletionBatchItem
}

type ApplyCompletionBatchResult struct {
	Created   int
	Updated   int
	Unchanged int
	AppliedAt time.Time
}
