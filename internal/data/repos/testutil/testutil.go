package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/yungbote/neurobridge-completion/internal/data/db"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated, file-backed SQLite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "completion.db")
	db, err := dbpkg.OpenSQLite(dbpkg.SQLiteDSN(path), nil)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := dbpkg.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// PostgresDB connects to TEST_POSTGRES_DSN, skipping when it is unset.
func PostgresDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if pgErr != nil {
			return
		}
		pgErr = dbpkg.AutoMigrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

var counterSeq atomic.Int64

// StatementCounter counts statements gorm issues, split into reads and writes.
type StatementCounter struct {
	reads  atomic.Int64
	writes atomic.Int64
}

func (c *StatementCounter) Reads() int64  { return c.reads.Load() }
func (c *StatementCounter) Writes() int64 { return c.writes.Load() }

func (c *StatementCounter) Reset() {
	c.reads.Store(0)
	c.writes.Store(0)
}

// CountStatements registers counting callbacks on db. Raw Exec is counted as a
// write, raw Row as a read.
func CountStatements(tb testing.TB, db *gorm.DB) *StatementCounter {
	tb.Helper()
	c := &StatementCounter{}
	id := counterSeq.Add(1)
	read := func(*gorm.DB) { c.reads.Add(1) }
	write := func(*gorm.DB) { c.writes.Add(1) }

	cb := db.Callback()
	register := func(err error) {
		if err != nil {
			tb.Fatalf("register statement counter: %v", err)
		}
	}
	register(cb.Query().After("gorm:query").Register(fmt.Sprintf("testutil:count_query_%d", id), read))
	register(cb.Row().After("gorm:row").Register(fmt.Sprintf("testutil:count_row_%d", id), read))
	register(cb.Create().After("gorm:create").Register(fmt.Sprintf("testutil:count_create_%d", id), write))
	register(cb.Update().After("gorm:update").Register(fmt.Sprintf("testutil:count_update_%d", id), write))
	register(cb.Delete().After("gorm:delete").Register(fmt.Sprintf("testutil:count_delete_%d", id), write))
	register(cb.Raw().After("gorm:raw").Register(fmt.Sprintf("testutil:count_raw_%d", id), write))
	return c
}
