package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

const taskColumns = `t.id, t.name, t.category_id, t.created_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, category_id, name, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.CategoryID, t.Name, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	return scanTask(row)
}

func (r *SQLiteTaskRepo) GetByName(ctx context.Context, categoryID, name string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.category_id = ? AND t.name = ? COLLATE NOCASE`,
		categoryID, name)
	return scanTask(row)
}

// ListByCategory lists tasks in one category, or every task when categoryID is empty.
func (r *SQLiteTaskRepo) ListByCategory(ctx context.Context, categoryID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		JOIN categories c ON c.id = t.category_id
		WHERE (? = '' OR t.category_id = ?)
		ORDER BY c.name COLLATE NOCASE, t.name COLLATE NOCASE`
	rows, err := r.db.QueryContext(ctx, query, categoryID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) Search(ctx context.Context, query string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t
		WHERE t.name LIKE '%' || ? || '%'
		ORDER BY t.name COLLATE NOCASE`, query)
	if err != nil {
		return nil, fmt.Errorf("searching tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &t.CategoryID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return out, nil
}
