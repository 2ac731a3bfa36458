package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	completionrepo "github.com/yungbote/neurobridge-completion/internal/data/repos/completion"
	domainagg "github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
)

type BlockCompletionAggregateDeps struct {
	Base BaseDeps

	Completions completionrepo.BlockCompletionRepo
}

type blockCompletionAggregate struct {
	deps BlockCompletionAggregateDeps
}

func NewBlockCompletionAggregate(deps BlockCompletionAggregateDeps) domainagg.BlockCompletionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &blockCompletionAggregate{deps: deps}
}

func (a *blockCompletionAggregate) Contract() domainagg.Contract {
	return domainagg.BlockCompletionAggregateContract
}

// ApplyBatch re-checks every item before the transaction opens, so a bad item
// never costs a BEGIN. Any failure inside the transaction rolls back all items.
func (a *blockCompletionAggregate) ApplyBatch(ctx context.Context, in domainagg.ApplyCompletionBatchInput) (domainagg.ApplyCompletionBatchResult, error) {
	const op = "Completion.BlockCompletion.ApplyBatch"
	var out domainagg.ApplyCompletionBatchResult

	if err := checkBatch(in); err != nil {
		return out, MapError(op, err)
	}
	if len(in.Items) == 0 {
		out.AppliedAt = time.Now().UTC()
		return out, nil
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var res domainagg.ApplyCompletionBatchResult
		for _, item := range in.Items {
			_, outcome, err := a.deps.Completions.Apply(dbc, in.UserID, item.BlockKey, item.Completion)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", item.BlockKey, err)
			}
			switch outcome {
			case completionrepo.OutcomeCreated:
				res.Created++
			case completionrepo.OutcomeUpdated:
				res.Updated++
			default:
				res.Unchanged++
			}
		}
		res.AppliedAt = time.Now().UTC()
		out = res
		return nil
	})
	if err != nil {
		return domainagg.ApplyCompletionBatchResult{}, err
	}
	return out, nil
}

func checkBatch(in domainagg.ApplyCompletionBatchInput) error {
	if in.UserID == uuid.Nil {
		return ValidationError("user is required")
	}
	if in.CourseKey.IsZero() {
		return ValidationError("course key is required")
	}
	for _, item := range in.Items {
		if item.BlockKey.IsZero() {
			return ValidationError("block key is required")
		}
		if item.BlockKey.CourseKey() != in.CourseKey {
			return ValidationError(fmt.Sprintf("block %s is not part of course %s", item.BlockKey, in.CourseKey))
		}
		if err := completion.Validate(item.Completion); err != nil {
			return err
		}
	}
	return nil
}
