package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SessionFilter narrows session listings. Zero values mean "no constraint".
type SessionFilter struct {
	TaskID      string
	CategoryID  string
	StartAfter  *time.Time
	StartBefore *time.Time
	Limit       int
}

// SessionDetail is a completed session joined with its task and category names,
// used by exports and listings.
type SessionDetail struct {
	Session      domain.Session
	TaskName     string
	CategoryID   string
	CategoryName string
}

type CategoryRepo interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Search(ctx context.Context, query string) ([]*domain.Category, error)
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetByName(ctx context.Context, categoryID, name string) (*domain.Task, error)
	ListByCategory(ctx context.Context, categoryID string) ([]*domain.Task, error)
	Search(ctx context.Context, query string) ([]*domain.Task, error)
}

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	Finalize(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetActive(ctx context.Context) (*domain.Session, error)
	List(ctx context.Context, f SessionFilter) ([]*domain.Session, error)
	ListDetailed(ctx context.Context, f SessionFilter) ([]SessionDetail, error)
	CountCompleted(ctx context.Context, f SessionFilter) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteRange(ctx context.Context, from, to *time.Time) (int64, error)
}

type EventRepo interface {
	Append(ctx context.Context, e *domain.Event) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Event, error)
	ListBySessions(ctx context.Context, sessionIDs []string) (map[string][]domain.Event, error)
	FirstOffsets(ctx context.Context, sessionID string) (map[domain.EventKind]float64, error)
}

type ReminderRepo interface {
	Create(ctx context.Context, r *domain.ReminderLog) error
	Respond(ctx context.Context, id string, resp domain.ReminderResponse, at time.Time) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.ReminderLog, error)
}

type ModelVersionRepo interface {
	SaveNext(ctx context.Context, mv *domain.ModelVersion) error
	Latest(ctx context.Context, target string) (*domain.ModelVersion, error)
	ListLatest(ctx context.Context) ([]*domain.ModelVersion, error)
}

type MaintenanceRepo interface {
	ResetAll(ctx context.Context) error
}
