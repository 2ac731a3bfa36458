package completion

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-completion/internal/data/dberr"
	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type BlockCompletionRepo interface {
	Find(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey) (*types.BlockCompletion, error)
	Upsert(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey, completion float64) (*types.BlockCompletion, bool, error)
	Apply(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey, completion float64) (*types.BlockCompletion, Outcome, error)
	ListByUserCourse(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) ([]*types.BlockCompletion, error)
	CourseCompletions(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (map[keys.UsageKey]float64, error)
	LatestInCourse(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (*types.BlockCompletion, error)
	Count(dbc dbctx.Context) (int64, error)
}

// Outcome is what an upsert did to storage.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeUpdated
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

type Option func(*blockCompletionRepo)

// WithClock overrides the timestamp source for created/modified.
func WithClock(now func() time.Time) Option {
	return func(r *blockCompletionRepo) {
		if now != nil {
			r.now = now
		}
	}
}

type blockCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewBlockCompletionRepo(db *gorm.DB, baseLog *logger.Logger, opts ...Option) BlockCompletionRepo {
	r := &blockCompletionRepo{
		db:  db,
		log: baseLog.With("repo", "BlockCompletionRepo"),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *blockCompletionRepo) Find(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey) (*types.BlockCompletion, error) {
	if userID == uuid.Nil || blockKey.IsZero() {
		return nil, nil
	}
	var rows []*types.BlockCompletion
	if err := dbc.DB(r.db).
		Where("user_id = ? AND block_key = ?", userID, blockKey).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert creates the (user, block) record, updates it when the value differs,
// or leaves it untouched when the value is already stored. created is true only
// when this call inserted the row.
func (r *blockCompletionRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey, completion float64) (*types.BlockCompletion, bool, error) {
	row, outcome, err := r.Apply(dbc, userID, blockKey, completion)
	if err != nil {
		return nil, false, err
	}
	return row, outcome == OutcomeCreated, nil
}

// Apply is Upsert reporting the exact outcome.
//
// Query shapes:
//   - unchanged:  1 read
//   - changed:    1 read, 1 update
//   - new:        1 read, 1 insert
//   - lost race:  1 read, 1 insert (0 rows), 1 read, at most 1 update
func (r *blockCompletionRepo) Apply(dbc dbctx.Context, userID uuid.UUID, blockKey keys.UsageKey, completion float64) (*types.BlockCompletion, Outcome, error) {
	if userID == uuid.Nil || blockKey.IsZero() {
		return nil, OutcomeUnchanged, aggregates.NewError(aggregates.CodeValidation, "completion.upsert", "user and block key are required", nil)
	}

	existing, err := r.Find(dbc, userID, blockKey)
	if err != nil {
		return nil, OutcomeUnchanged, fmt.Errorf("find completion: %w", err)
	}
	if existing != nil {
		outcome, err := r.applyValue(dbc, existing, completion)
		if err != nil {
			return nil, OutcomeUnchanged, err
		}
		return existing, outcome, nil
	}

	row := types.New(userID, blockKey, completion, r.now())
	inserted, err := r.insertIfAbsent(dbc, row)
	if err != nil {
		return nil, OutcomeUnchanged, err
	}
	if inserted {
		return row, OutcomeCreated, nil
	}

	// Another writer created the row between our read and insert. Its row is
	// authoritative; resolve this submission as an update against it.
	winner, err := r.Find(dbc, userID, blockKey)
	if err != nil {
		return nil, OutcomeUnchanged, fmt.Errorf("reload conflicting completion: %w", err)
	}
	if winner == nil {
		return nil, OutcomeUnchanged, aggregates.NewError(aggregates.CodeConflict, "completion.upsert",
			"insert conflicted but no row is visible", nil)
	}
	r.log.Debug("completion create raced, resolving as update",
		"user_id", userID.String(), "block_key", blockKey.String())
	outcome, err := r.applyValue(dbc, winner, completion)
	if err != nil {
		return nil, OutcomeUnchanged, err
	}
	return winner, outcome, nil
}

// insertIfAbsent reports false when the unique (user_id, block_key) index
// already holds a row.
func (r *blockCompletionRepo) insertIfAbsent(dbc dbctx.Context, row *types.BlockCompletion) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "block_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		if dberr.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, fmt.Errorf("insert completion: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// applyValue writes only when the stored fraction differs.
func (r *blockCompletionRepo) applyValue(dbc dbctx.Context, row *types.BlockCompletion, completion float64) (Outcome, error) {
	if row.Completion == completion {
		return OutcomeUnchanged, nil
	}
	now := r.now()
	if err := dbc.DB(r.db).
		Model(&types.BlockCompletion{}).
		Where("id = ?", row.ID).
		UpdateColumns(map[string]interface{}{
			"completion": completion,
			"modified":   now,
		}).Error; err != nil {
		return OutcomeUnchanged, fmt.Errorf("update completion: %w", err)
	}
	row.Completion = completion
	row.Modified = now
	return OutcomeUpdated, nil
}

func (r *blockCompletionRepo) ListByUserCourse(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) ([]*types.BlockCompletion, error) {
	var out []*types.BlockCompletion
	if userID == uuid.Nil || courseKey.IsZero() {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND course_key = ?", userID, courseKey).
		Order("modified DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *blockCompletionRepo) CourseCompletions(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (map[keys.UsageKey]float64, error) {
	rows, err := r.ListByUserCourse(dbc, userID, courseKey)
	if err != nil {
		return nil, err
	}
	out := make(map[keys.UsageKey]float64, len(rows))
	for _, row := range rows {
		out[row.BlockKey] = row.Completion
	}
	return out, nil
}

// LatestInCourse returns the most recently modified record, or nil.
func (r *blockCompletionRepo) LatestInCourse(dbc dbctx.Context, userID uuid.UUID, courseKey keys.CourseKey) (*types.BlockCompletion, error) {
	if userID == uuid.Nil || courseKey.IsZero() {
		return nil, nil
	}
	var rows []*types.BlockCompletion
	if err := dbc.DB(r.db).
		Where("user_id = ? AND course_key = ?", userID, courseKey).
		Order("modified DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *blockCompletionRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.BlockCompletion{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
