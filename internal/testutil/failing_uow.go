package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/focusbuddy/internal/db"
)

// FailingExecUoW is a UnitOfWork that makes one write statement fail so
// rollback paths can be tested by what they write rather than by call order.
//
// Statement is matched as a prefix of the trimmed SQL (e.g. "INSERT INTO events");
// an empty Statement matches every ExecContext. Occurrence picks which match
// fails, starting at 1; zero means the first. Reads are never intercepted.
type FailingExecUoW struct {
	DB         *sql.DB
	Statement  string
	Occurrence int32
	Err        error

	fired atomic.Bool
}

// Fired reports whether the injected error has been returned.
func (u *FailingExecUoW) Fired() bool {
	return u.fired.Load()
}

func (u *FailingExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failingExec{DBTX: tx, uow: u}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	uow     *FailingExecUoW
	matches atomic.Int32
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.HasPrefix(strings.TrimSpace(query), f.uow.Statement) {
		want := max(f.uow.Occurrence, 1)
		if f.matches.Add(1) == want {
			f.uow.fired.Store(true)
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
