package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
	"github.com/alexanderramin/focusbuddy/internal/testutil"
)

func newCatalog(t *testing.T) (CatalogService, *repository.SQLiteCategoryRepo, *fixture) {
	t.Helper()
	f := newFixture(t)
	cats := repository.NewSQLiteCategoryRepo(f.db)
	return NewCatalogService(cats, f.tasks, f.uow), cats, f
}

func TestCatalog_EnsureCategoryIsGetOrCreate(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	created, err := svc.EnsureCategory(ctx, "  Reading ")
	require.NoError(t, err)
	assert.Equal(t, "Reading", created.Name)

	again, err := svc.EnsureCategory(ctx, "reading")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	existing, err := svc.EnsureCategory(ctx, "CODING")
	require.NoError(t, err)
	assert.Equal(t, "Coding", existing.Name, "seeded category is reused")
}

func TestCatalog_RejectsBlankNames(t *testing.T) {
	svc, _, f := newCatalog(t)
	ctx := context.Background()

	_, err := svc.EnsureCategory(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.EnsureTask(ctx, f.categoryID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCatalog_EnsureTask(t *testing.T) {
	svc, _, f := newCatalog(t)
	ctx := context.Background()

	task, err := svc.EnsureTask(ctx, f.categoryID, "Write tests")
	require.NoError(t, err)
	assert.Equal(t, f.categoryID, task.CategoryID)

	again, err := svc.EnsureTask(ctx, f.categoryID, "write TESTS")
	require.NoError(t, err)
	assert.Equal(t, task.ID, again.ID)

	_, err = svc.EnsureTask(ctx, uuid.New().String(), "Orphan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog_SameTaskNameInDifferentCategories(t *testing.T) {
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	_, a, err := svc.Resolve(ctx, "Writing", "Review")
	require.NoError(t, err)
	_, b, err := svc.Resolve(ctx, "Coding", "Review")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCatalog_ResolveRollsBackCategoryOnTaskFailure(t *testing.T) {
	f := newFixture(t)
	cats := repository.NewSQLiteCategoryRepo(f.db)
	failUoW := &testutil.FailingExecUoW{DB: f.db, Statement: "INSERT INTO tasks", Err: fmt.Errorf("injected task insert failure")}
	svc := NewCatalogService(cats, f.tasks, failUoW)
	ctx := context.Background()

	_, _, err := svc.Resolve(ctx, "Music", "Scales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected task insert failure")

	_, err = cats.GetByName(ctx, "Music")
	assert.ErrorIs(t, err, repository.ErrNotFound, "category insert should be rolled back")
}

func TestCatalog_ListAndSearch(t *testing.T) {
	svc, _, f := newCatalog(t)
	ctx := context.Background()

	_, _, err := svc.Resolve(ctx, "Writing", "Essay draft")
	require.NoError(t, err)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Coding", cats[0].Name)
	assert.Equal(t, "Writing", cats[1].Name)

	tasks, err := svc.ListTasks(ctx, f.categoryID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Refactor", tasks[0].Name)

	all, err := svc.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	foundCats, foundTasks, err := svc.Search(ctx, "writ")
	require.NoError(t, err)
	assert.Len(t, foundCats, 1)
	assert.Empty(t, foundTasks)

	foundCats, foundTasks, err = svc.Search(ctx, "draft")
	require.NoError(t, err)
	assert.Empty(t, foundCats)
	require.Len(t, foundTasks, 1)
	assert.Equal(t, "Essay draft", foundTasks[0].Name)

	task, err := svc.GetTask(ctx, f.taskID)
	require.NoError(t, err)
	assert.Equal(t, "Refactor", task.Name)
	cat, err := svc.GetCategory(ctx, f.categoryID)
	require.NoError(t, err)
	assert.Equal(t, "Coding", cat.Name)
}
