package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		unique    bool
		fk        bool
		retryable bool
	}{
		{name: "nil"},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505"}, unique: true},
		{name: "wrapped pg unique", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), unique: true},
		{name: "pg fk", err: &pgconn.PgError{Code: "23503"}, fk: true},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, retryable: true},
		{name: "pg deadlock", err: &pgconn.PgError{Code: "40P01"}, retryable: true},
		{name: "pg other", err: &pgconn.PgError{Code: "22001"}},
		{name: "gorm duplicated", err: gorm.ErrDuplicatedKey, unique: true},
		{name: "gorm fk", err: gorm.ErrForeignKeyViolated, fk: true},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: completion_blockcompletion.user_id, completion_blockcompletion.block_key"), unique: true},
		{name: "sqlite fk", err: errors.New("FOREIGN KEY constraint failed"), fk: true},
		{name: "sqlite locked", err: errors.New("database is locked"), retryable: true},
		{name: "plain", err: errors.New("boom")},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.unique {
			t.Fatalf("%s: IsUniqueViolation=%v want %v", tc.name, got, tc.unique)
		}
		if got := IsForeignKeyViolation(tc.err); got != tc.fk {
			t.Fatalf("%s: IsForeignKeyViolation=%v want %v", tc.name, got, tc.fk)
		}
		if got := IsRetryable(tc.err); got != tc.retryable {
			t.Fatalf("%s: IsRetryable=%v want %v", tc.name, got, tc.retryable)
		}
	}
}
