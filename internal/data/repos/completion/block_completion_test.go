package completion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/domain/keys"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
)

func fixedClock(ts ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestBlockCompletionRepo_UpsertCreatesRecord(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewBlockCompletionRepo(db, testutil.Logger(t), WithClock(fixedClock(t0)))
	counter := testutil.CountStatements(t, db)

	userID := uuid.New()
	block := keys.MustParseUsageKey("block-v1:edX+DemoX+Demo_Course+type@problem+block@p1")

	counter.Reset()
	row, created, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, 0.5)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}
	if counter.Reads() != 1 || counter.Writes() != 1 {
		t.Fatalf("query shape: want 1 read 1 write, got reads=%d writes=%d", counter.Reads(), counter.Writes())
	}
	if row.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	stored := testutil.Completions(t, ctx, db, userID)[block]
	if stored == nil {
		t.Fatalf("expected stored row")
	}
	if stored.Completion != 0.5 {
		t.Fatalf("completion: want 0.5 got %v", stored.Completion)
	}
	if stored.CourseKey != block.CourseKey() || stored.BlockType != "problem" {
		t.Fatalf("denormalized columns: course=%s type=%s", stored.CourseKey, stored.BlockType)
	}
	if !stored.Consistent() {
		t.Fatalf("expected consistent row")
	}
	if !stored.Created.Equal(t0) || !stored.Modified.Equal(t0) {
		t.Fatalf("timestamps: created=%s modified=%s", stored.Created, stored.Modified)
	}
}

func TestBlockCompletionRepo_UpsertUnchangedIsReadOnly(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	repo := NewBlockCompletionRepo(db, testutil.Logger(t), WithClock(fixedClock(t0, t1)))
	counter := testutil.CountStatements(t, db)

	userID := uuid.New()
	block := testutil.Block(testutil.TestCourse, "intro")
	if _, _, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, 1.0); err != nil {
		t.Fatalf("seed Upsert: %v", err)
	}

	counter.Reset()
	_, created, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, 1.0)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Fatalf("expected created=false")
	}
	if counter.Reads() != 1 || counter.Writes() != 0 {
		t.Fatalf("query shape: want 1 read 0 writes, got reads=%d writes=%d", counter.Reads(), counter.Writes())
	}

	stored := testutil.Completions(t, ctx, db, userID)[block]
	if !stored.Modified.Equal(t0) {
		t.Fatalf("modified refreshed on no-op: %s", stored.Modified)
	}
}

func TestBlockCompletionRepo_UpsertChangedUpdatesInPlace(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	repo := NewBlockCompletionRepo(db, testutil.Logger(t), WithClock(fixedClock(t0, t1)))
	counter := testutil.CountStatements(t, db)

	userID := uuid.New()
	block := testutil.Block(testutil.TestCourse, "intro")
	first, _, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, 0.25)
	if err != nil {
		t.Fatalf("seed Upsert: %v", err)
	}

	counter.Reset()
	row, outcome, err := repo.Apply(dbctx.Context{Ctx: ctx}, userID, block, 0.75)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome: want updated got %s", outcome)
	}
	if counter.Reads() != 1 || counter.Writes() != 1 {
		t.Fatalf("query shape: want 1 read 1 write, got reads=%d writes=%d", counter.Reads(), counter.Writes())
	}
	if row.ID != first.ID {
		t.Fatalf("expected same row id: %d vs %d", row.ID, first.ID)
	}

	all := testutil.Completions(t, ctx, db, userID)
	if len(all) != 1 {
		t.Fatalf("expected one row, got %d", len(all))
	}
	stored := all[block]
	if stored.Completion != 0.75 {
		t.Fatalf("completion: want 0.75 got %v", stored.Completion)
	}
	if !stored.Modified.Equal(t1) || !stored.Created.Equal(t0) {
		t.Fatalf("timestamps: created=%s modified=%s", stored.Created, stored.Modified)
	}
}

func TestBlockCompletionRepo_LostInsertRaceResolvesAsUpdate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewBlockCompletionRepo(db, testutil.Logger(t))

	userID := uuid.New()
	block := testutil.Block(testutil.TestCourse, "contested")

	// A competing writer commits its row after our read and before our insert.
	var once sync.Once
	if err := db.Callback().Create().Before("gorm:begin_transaction").Register("test:competing_insert", func(tx *gorm.DB) {
		once.Do(func() {
			winner := types.New(userID, block, 0.2, time.Now())
			if err := db.Exec(
				"INSERT INTO completion_blockcompletion (user_id, course_key, block_type, block_key, completion, modified, created) VALUES (?, ?, ?, ?, ?, ?, ?)",
				winner.UserID, winner.CourseKey, winner.BlockType, winner.BlockKey, winner.Completion, winner.Modified, winner.Created,
			).Error; err != nil {
				t.Errorf("competing insert: %v", err)
			}
		})
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	row, created, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, 0.9)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Fatalf("expected created=false after losing the race")
	}
	if row == nil || row.Completion != 0.9 {
		t.Fatalf("expected submitted value applied, got %+v", row)
	}

	all := testutil.Completions(t, ctx, db, userID)
	if len(all) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(all))
	}
	if all[block].Completion != 0.9 {
		t.Fatalf("stored completion: want 0.9 got %v", all[block].Completion)
	}
}

func TestBlockCompletionRepo_ConcurrentFirstSubmissions(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewBlockCompletionRepo(db, testutil.Logger(t))

	userID := uuid.New()
	block := testutil.Block(testutil.TestCourse, "busy")

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, c, err := repo.Upsert(dbctx.Context{Ctx: ctx}, userID, block, float64(i)/writers)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if c {
				created++
			}
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if created != 1 {
		t.Fatalf("expected exactly one created=true, got %d", created)
	}
	n, err := repo.Count(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}
}

func TestBlockCompletionRepo_UsesCallerTransaction(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewBlockCompletionRepo(db, testutil.Logger(t))
	userID := uuid.New()
	block := testutil.Block(testutil.TestCourse, "tx")

	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	if _, _, err := repo.Upsert(dbctx.Context{Ctx: ctx, Tx: tx}, userID, block, 1.0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := testutil.Completions(t, ctx, db, userID); len(got) != 0 {
		t.Fatalf("expected rollback to discard row, found %d", len(got))
	}
}

func TestBlockCompletionRepo_RejectsMissingIdentity(t *testing.T) {
	db := testutil.DB(t)
	repo := NewBlockCompletionRepo(db, testutil.Logger(t))
	_, _, err := repo.Upsert(dbctx.Context{Ctx: context.Background()}, uuid.Nil, testutil.Block(testutil.TestCourse, "x"), 1.0)
	if !aggregates.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBlockCompletionRepo_CourseReads(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewBlockCompletionRepo(db, testutil.Logger(t),
		WithClock(fixedClock(t0, t0.Add(time.Minute), t0.Add(2*time.Minute))))

	userID := uuid.New()
	other := keys.MustParseCourseKey("course-v1:edX+Other+2024")
	blocks := testutil.Blocks(testutil.TestCourse, 2)
	dbc := dbctx.Context{Ctx: ctx}

	for i, b := range blocks {
		if _, _, err := repo.Upsert(dbc, userID, b, float64(i+1)/2); err != nil {
			t.Fatalf("Upsert %s: %v", b, err)
		}
	}
	if _, _, err := repo.Upsert(dbc, userID, testutil.Block(other, "elsewhere"), 1.0); err != nil {
		t.Fatalf("Upsert other course: %v", err)
	}

	byBlock, err := repo.CourseCompletions(dbc, userID, testutil.TestCourse)
	if err != nil {
		t.Fatalf("CourseCompletions: %v", err)
	}
	if len(byBlock) != 2 || byBlock[blocks[0]] != 0.5 || byBlock[blocks[1]] != 1.0 {
		t.Fatalf("unexpected course completions: %+v", byBlock)
	}

	latest, err := repo.LatestInCourse(dbc, userID, testutil.TestCourse)
	if err != nil {
		t.Fatalf("LatestInCourse: %v", err)
	}
	if latest == nil || latest.BlockKey != blocks[1] {
		t.Fatalf("latest: want %s got %+v", blocks[1], latest)
	}

	none, err := repo.LatestInCourse(dbc, uuid.New(), testutil.TestCourse)
	if err != nil || none != nil {
		t.Fatalf("expected nil latest for unknown user, got %+v err=%v", none, err)
	}
}
