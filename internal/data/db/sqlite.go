package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
)

type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// SQLiteDSN appends the pragmas the completion store relies on: a busy timeout
// so concurrent writers wait instead of failing, and IMMEDIATE transactions so
// a batch takes the write lock at BEGIN.
func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "completion.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate&_foreign_keys=1"
}

func NewSQLiteService(logg *logger.Logger, path string) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")
	db, err := OpenSQLite(SQLiteDSN(path), newGormLogger())
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Opened SQLite", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

// OpenSQLite opens dsn as-is. A nil gorm logger silences SQL logging.
func OpenSQLite(dsn string, gl gormLogger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	return db, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) AutoMigrateAll() error { return AutoMigrateAll(s.db) }
