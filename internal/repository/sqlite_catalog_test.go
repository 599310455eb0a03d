package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/focusbuddy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLiteCategoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	c := testutil.NewTestCategory("Coding")
	require.NoError(t, repo.Create(ctx, c))

	byID, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coding", byID.Name)
	assert.WithinDuration(t, c.CreatedAt, byID.CreatedAt, 0)

	byName, err := repo.GetByName(ctx, "cODING")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)
}

func TestCategoryRepo_NotFound(t *testing.T) {
	repo := NewSQLiteCategoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryRepo_DuplicateNameRejected(t *testing.T) {
	repo := NewSQLiteCategoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestCategory("Writing")))
	err := repo.Create(ctx, testutil.NewTestCategory("writing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting category")
}

func TestCategoryRepo_ListAndSearch(t *testing.T) {
	repo := NewSQLiteCategoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"writing", "Coding", "Reading"} {
		require.NoError(t, repo.Create(ctx, testutil.NewTestCategory(name)))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Coding", "Reading", "writing"}, []string{all[0].Name, all[1].Name, all[2].Name})

	hits, err := repo.Search(ctx, "DING")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Coding", hits[0].Name)
	assert.Equal(t, "Reading", hits[1].Name)
}

func TestTaskRepo_CreateGetAndList(t *testing.T) {
	database := testutil.NewTestDB(t)
	cats := NewSQLiteCategoryRepo(database)
	tasks := NewSQLiteTaskRepo(database)
	ctx := context.Background()

	coding := testutil.NewTestCategory("Coding")
	writing := testutil.NewTestCategory("Writing")
	require.NoError(t, cats.Create(ctx, coding))
	require.NoError(t, cats.Create(ctx, writing))

	api := testutil.NewTestTask(coding.ID, "API")
	blog := testutil.NewTestTask(writing.ID, "Blog")
	cli := testutil.NewTestTask(coding.ID, "CLI")
	require.NoError(t, tasks.Create(ctx, api))
	require.NoError(t, tasks.Create(ctx, blog))
	require.NoError(t, tasks.Create(ctx, cli))

	got, err := tasks.GetByName(ctx, coding.ID, "api")
	require.NoError(t, err)
	assert.Equal(t, api.ID, got.ID)
	assert.Equal(t, coding.ID, got.CategoryID)

	_, err = tasks.GetByName(ctx, writing.ID, "API")
	assert.ErrorIs(t, err, ErrNotFound)

	inCoding, err := tasks.ListByCategory(ctx, coding.ID)
	require.NoError(t, err)
	assert.Len(t, inCoding, 2)

	all, err := tasks.ListByCategory(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by category name, then task name.
	assert.Equal(t, []string{"API", "CLI", "Blog"}, []string{all[0].Name, all[1].Name, all[2].Name})

	hits, err := tasks.Search(ctx, "l")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestTaskRepo_SameNameInDifferentCategories(t *testing.T) {
	database := testutil.NewTestDB(t)
	cats := NewSQLiteCategoryRepo(database)
	tasks := NewSQLiteTaskRepo(database)
	ctx := context.Background()

	a := testutil.NewTestCategory("A")
	b := testutil.NewTestCategory("B")
	require.NoError(t, cats.Create(ctx, a))
	require.NoError(t, cats.Create(ctx, b))

	require.NoError(t, tasks.Create(ctx, testutil.NewTestTask(a.ID, "Review")))
	require.NoError(t, tasks.Create(ctx, testutil.NewTestTask(b.ID, "Review")))
	assert.Error(t, tasks.Create(ctx, testutil.NewTestTask(a.ID, "REVIEW")))
}

func TestTaskRepo_UnknownCategoryRejected(t *testing.T) {
	tasks := NewSQLiteTaskRepo(testutil.NewTestDB(t))
	err := tasks.Create(context.Background(), testutil.NewTestTask("missing", "Orphan"))
	assert.Error(t, err)
}
