package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-completion/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/observability"
	"github.com/yungbote/neurobridge-completion/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

// FeatureGate is the switch every completion write checks first.
type FeatureGate interface {
	IsEnabled(ctx context.Context) bool
	RequireEnabled(ctx context.Context) error
}

// EnrollmentChecker answers whether a user holds an active enrollment.
type EnrollmentChecker interface {
	IsEnrolled(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (bool, error)
}

type BatchItem struct {
	BlockKey   keys.UsageKey
	Completion float64
}

type CompletionService interface {
	SubmitCompletion(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, blockKey keys.UsageKey, value float64) (*completion.BlockCompletion, bool, error)
	SubmitBatchCompletion(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, items []BatchItem) error

	CourseCompletions(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey) (map[keys.UsageKey]float64, error)
	LatestCompleted(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey) (*completion.BlockCompletion, error)
	TrackingEnabled(ctx context.Context) bool
}

type CompletionServiceDeps struct {
	Log         *logger.Logger
	Gate        FeatureGate
	Completions repos.BlockCompletionRepo
	Enrollments EnrollmentChecker
	Batches     domainagg.BlockCompletionAggregate
	Metrics     *observability.Metrics
}

type completionService struct {
	log         *logger.Logger
	gate        FeatureGate
	completions repos.BlockCompletionRepo
	enrollments EnrollmentChecker
	batches     domainagg.BlockCompletionAggregate
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

func NewCompletionService(deps CompletionServiceDeps) CompletionService {
	baseLog := deps.Log
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &completionService{
		log:         baseLog.With("service", "CompletionService"),
		gate:        deps.Gate,
		completions: deps.Completions,
		enrollments: deps.Enrollments,
		batches:     deps.Batches,
		metrics:     deps.Metrics,
		tracer:      observability.Tracer(),
	}
}

func (s *completionService) TrackingEnabled(ctx context.Context) bool {
	return s.gate != nil && s.gate.IsEnabled(ctxutil.Default(ctx))
}

func (s *completionService) requireEnabled(ctx context.Context) error {
	if s.gate == nil {
		return domainagg.NewError(domainagg.CodeConfiguration, "completion.gate", "completion tracking disabled: no gate configured", nil)
	}
	return s.gate.RequireEnabled(ctx)
}

// SubmitCompletion records one block's completion. Gate and value are checked
// before storage is touched, so a rejected call never alters an existing record.
func (s *completionService) SubmitCompletion(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, blockKey keys.UsageKey, value float64) (*completion.BlockCompletion, bool, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := s.tracer.Start(ctx, "completion.submit", trace.WithAttributes(
		attribute.String("completion.block_key", blockKey.String()),
		attribute.String("completion.course_key", courseKey.String()),
	))
	defer span.End()

	row, created, err := s.submit(ctx, userID, courseKey, blockKey, value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
		s.metrics.IncSubmission(ctx, "single", errorOutcome(err))
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("completion.created", created))
	outcome := "written"
	if created {
		outcome = "created"
	}
	s.metrics.IncSubmission(ctx, "single", outcome)
	return row, created, nil
}

func (s *completionService) submit(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, blockKey keys.UsageKey, value float64) (*completion.BlockCompletion, bool, error) {
	if err := s.requireEnabled(ctx); err != nil {
		return nil, false, err
	}
	if err := completion.Validate(value); err != nil {
		return nil, false, err
	}
	if err := checkBlockInCourse(courseKey, blockKey); err != nil {
		return nil, false, err
	}
	if userID == uuid.Nil {
		return nil, false, domainagg.NewError(domainagg.CodeValidation, "completion.submit", "user is required", nil)
	}

	row, created, err := s.completions.Upsert(dbctx.Context{Ctx: ctx}, userID, blockKey, value)
	if err != nil {
		s.log.Error("submit completion failed", "user_id", userID.String(), "block_key", blockKey.String(), "error", err)
		return nil, false, err
	}
	return row, created, nil
}

// SubmitBatchCompletion applies every item or none. Duplicate block keys keep
// the last value given.
func (s *completionService) SubmitBatchCompletion(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, items []BatchItem) error {
	ctx = ctxutil.Default(ctx)
	ctx, span := s.tracer.Start(ctx, "completion.submit_batch", trace.WithAttributes(
		attribute.String("completion.course_key", courseKey.String()),
		attribute.Int("completion.items", len(items)),
	))
	defer span.End()

	res, err := s.submitBatch(ctx, userID, courseKey, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
		s.metrics.IncSubmission(ctx, "batch", errorOutcome(err))
		return err
	}
	span.SetAttributes(
		attribute.Int("completion.created", res.Created),
		attribute.Int("completion.updated", res.Updated),
		attribute.Int("completion.unchanged", res.Unchanged),
	)
	s.metrics.IncSubmission(ctx, "batch", "ok")
	return nil
}

func (s *completionService) submitBatch(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey, items []BatchItem) (domainagg.ApplyCompletionBatchResult, error) {
	var res domainagg.ApplyCompletionBatchResult
	if err := s.requireEnabled(ctx); err != nil {
		return res, err
	}
	if userID == uuid.Nil || courseKey.IsZero() {
		return res, domainagg.NewError(domainagg.CodeValidation, "completion.submit_batch", "user and course key are required", nil)
	}

	enrolled, err := s.enrollments.IsEnrolled(dbctx.Context{Ctx: ctx}, userID, courseKey)
	if err != nil {
		return res, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return res, domainagg.NewError(domainagg.CodeNotEnrolled, "completion.submit_batch",
			fmt.Sprintf("user is not enrolled in %s", courseKey), nil)
	}

	for _, item := range items {
		if err := completion.Validate(item.Completion); err != nil {
			return res, err
		}
		if err := checkBlockInCourse(courseKey, item.BlockKey); err != nil {
			return res, err
		}
	}

	res, err = s.batches.ApplyBatch(ctx, domainagg.ApplyCompletionBatchInput{
		UserID:    userID,
		CourseKey: courseKey,
		Items:     dedupeBatch(items),
	})
	if err != nil {
		s.log.Error("submit batch completion failed", "user_id", userID.String(), "course_key", courseKey.String(), "error", err)
		return res, err
	}
	s.log.Debug("batch completion applied",
		"user_id", userID.String(),
		"course_key", courseKey.String(),
		"created", res.Created,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
	)
	return res, nil
}

func (s *completionService) CourseCompletions(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey) (map[keys.UsageKey]float64, error) {
	return s.completions.CourseCompletions(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, courseKey)
}

func (s *completionService) LatestCompleted(ctx context.Context, userID uuid.UUID, courseKey keys.CourseKey) (*completion.BlockCompletion, error) {
	return s.completions.LatestInCourse(dbctx.Context{Ctx: ctxutil.Default(ctx)}, userID, courseKey)
}

// checkBlockInCourse keeps the stored course_key derivable from block_key.
func checkBlockInCourse(courseKey keys.CourseKey, blockKey keys.UsageKey) error {
	if blockKey.IsZero() {
		return domainagg.NewError(domainagg.CodeValidation, "completion.submit", "block key is required", nil)
	}
	if blockKey.CourseKey() != courseKey {
		return domainagg.NewError(domainagg.CodeValidation, "completion.submit",
			fmt.Sprintf("block %s does not belong to course %s", blockKey, courseKey), nil)
	}
	return nil
}

// dedupeBatch keeps first-seen order and the last value per block.
func dedupeBatch(items []BatchItem) []domainagg.CompletionBatchItem {
	index := make(map[keys.UsageKey]int, len(items))
	out := make([]domainagg.CompletionBatchItem, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.BlockKey]; ok {
			out[i].Completion = item.Completion
			continue
		}
		index[item.BlockKey] = len(out)
		out = append(out, domainagg.CompletionBatchItem{BlockKey: item.BlockKey, Completion: item.Completion})
	}
	return out
}

func errorOutcome(err error) string {
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return string(domainagg.CodeInternal)
}
