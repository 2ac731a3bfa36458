package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"gorm.io/gorm"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}

func TestMapError_DatabaseCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{name: "pg unique", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: domainagg.CodeConflict},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, want: domainagg.CodeRetryable},
		{name: "pg deadlock", err: &pgconn.PgError{Code: "40P01"}, want: domainagg.CodeRetryable},
		{name: "pg foreign key", err: &pgconn.PgError{Code: "23503"}, want: domainagg.CodeInvariantViolation},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: completion_blockcompletion.user_id"), want: domainagg.CodeConflict},
		{name: "sqlite locked", err: errors.New("database is locked"), want: domainagg.CodeRetryable},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, want: domainagg.CodeConflict},
		{name: "canceled", err: context.Canceled, want: domainagg.CodeRetryable},
		{name: "other", err: errors.New("boom"), want: domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("Completion.test", tc.err)
			if !domainagg.IsCode(got, tc.want) {
				t.Fatalf("want %q got %q (%v)", tc.want, domainagg.CodeOf(got), got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("expected cause to stay reachable")
			}
		})
	}
}
