package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/focusbuddy/internal/db"
)

type SQLiteMaintenanceRepo struct {
	db db.DBTX
}

func NewSQLiteMaintenanceRepo(db db.DBTX) *SQLiteMaintenanceRepo {
	return &SQLiteMaintenanceRepo{db: db}
}

// ResetAll removes every category (cascading to all user data) and every
// training record. Run it inside a unit of work.
func (r *SQLiteMaintenanceRepo) ResetAll(ctx context.Context) error {
	for _, table := range []string{"categories", "model_versions"} {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
