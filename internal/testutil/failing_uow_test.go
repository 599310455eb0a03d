package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/focusbuddy/internal/db"
)

const insertCategory = `INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`

func countCategories(t *testing.T, uow *FailingExecUoW) int {
	t.Helper()
	var n int
	require.NoError(t, uow.DB.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n))
	return n
}

func TestFailingExecUoW_FailsChosenOccurrence(t *testing.T) {
	uow := &FailingExecUoW{DB: NewTestDB(t), Statement: "INSERT INTO categories", Occurrence: 2, Err: assert.AnError}
	ctx := context.Background()

	var reached []string
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		for _, name := range []string{"Coding", "Music", "Reading"} {
			if _, err := tx.ExecContext(ctx, insertCategory, name, name, "2025-01-01T00:00:00Z"); err != nil {
				return err
			}
			reached = append(reached, name)
		}
		return nil
	})

	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, uow.Fired())
	assert.Equal(t, []string{"Coding"}, reached)
	assert.Zero(t, countCategories(t, uow), "first insert should be rolled back")
}

func TestFailingExecUoW_IgnoresOtherStatements(t *testing.T) {
	uow := &FailingExecUoW{DB: NewTestDB(t), Statement: "DELETE FROM categories", Err: assert.AnError}
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, "\n\t\t"+insertCategory, "c1", "Coding", "2025-01-01T00:00:00Z")
		return err
	})

	require.NoError(t, err)
	assert.False(t, uow.Fired())
	assert.Equal(t, 1, countCategories(t, uow))
}
