package aggregates

import (
	"context"
	"database/sql"

	domainagg "github.com/yungbote/neurobridge-completion/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"gorm.io/gorm"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions at
// the driver's default isolation (read committed on postgres).
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// NewGormTxRunnerWithOptions pins the isolation level for every transaction.
func NewGormTxRunnerWithOptions(db *gorm.DB, opts *sql.TxOptions) TxRunner {
	return &gormTxRunner{db: db, opts: opts}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	body := func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}
	if r.opts != nil {
		return r.db.WithContext(ctx).Transaction(body, r.opts)
	}
	return r.db.WithContext(ctx).Transaction(body)
}
