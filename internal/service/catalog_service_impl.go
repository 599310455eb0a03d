package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

type catalogService struct {
	categories repository.CategoryRepo
	tasks      repository.TaskRepo
	uow        db.UnitOfWork
	opts       options
}

func NewCatalogService(categories repository.CategoryRepo, tasks repository.TaskRepo, uow db.UnitOfWork, opts ...Option) CatalogService {
	return &catalogService{categories: categories, tasks: tasks, uow: uow, opts: buildOptions(opts)}
}

// EnsureCategory returns the category with the given name, creating it if needed.
// Names match case-insensitively.
func (s *catalogService) EnsureCategory(ctx context.Context, name string) (*domain.Category, error) {
	var out *domain.Category
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		c, err := s.ensureCategory(ctx, repository.NewSQLiteCategoryRepo(tx), name)
		out = c
		return err
	})
	return out, err
}

func (s *catalogService) EnsureTask(ctx context.Context, categoryID, name string) (*domain.Task, error) {
	var out *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteCategoryRepo(tx).GetByID(ctx, categoryID); err != nil {
			return fmt.Errorf("looking up category: %w", err)
		}
		t, err := s.ensureTask(ctx, repository.NewSQLiteTaskRepo(tx), categoryID, name)
		out = t
		return err
	})
	return out, err
}

func (s *catalogService) Resolve(ctx context.Context, categoryName, taskName string) (*domain.Category, *domain.Task, error) {
	var (
		cat  *domain.Category
		task *domain.Task
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		cat, err = s.ensureCategory(ctx, repository.NewSQLiteCategoryRepo(tx), categoryName)
		if err != nil {
			return err
		}
		task, err = s.ensureTask(ctx, repository.NewSQLiteTaskRepo(tx), cat.ID, taskName)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return cat, task, nil
}

func (s *catalogService) ensureCategory(ctx context.Context, repo repository.CategoryRepo, name string) (*domain.Category, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}
	existing, err := repo.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	c := &domain.Category{ID: uuid.New().String(), Name: name, CreatedAt: s.opts.now()}
	if err := repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) ensureTask(ctx context.Context, repo repository.TaskRepo, categoryID, name string) (*domain.Task, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	existing, err := repo.GetByName(ctx, categoryID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	t := &domain.Task{ID: uuid.New().String(), Name: name, CategoryID: categoryID, CreatedAt: s.opts.now()}
	if err := repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *catalogService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) ListTasks(ctx context.Context, categoryID string) ([]*domain.Task, error) {
	return s.tasks.ListByCategory(ctx, categoryID)
}

func (s *catalogService) Search(ctx context.Context, query string) ([]*domain.Category, []*domain.Task, error) {
	cats, err := s.categories.Search(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.tasks.Search(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	return cats, tasks, nil
}
