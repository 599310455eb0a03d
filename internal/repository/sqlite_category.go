package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SQLiteCategoryRepo implements CategoryRepo using a SQLite database.
type SQLiteCategoryRepo struct {
	db db.DBTX
}

func NewSQLiteCategoryRepo(db db.DBTX) *SQLiteCategoryRepo {
	return &SQLiteCategoryRepo{db: db}
}

const categoryColumns = `id, name, created_at`

func (r *SQLiteCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Name, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func (r *SQLiteCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetByName matches case-insensitively.
func (r *SQLiteCategoryRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? COLLATE NOCASE`, name)
	return scanCategory(row)
}

func (r *SQLiteCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// Search returns categories whose name contains query, ignoring case.
func (r *SQLiteCategoryRepo) Search(ctx context.Context, query string) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		WHERE name LIKE '%' || ? || '%'
		ORDER BY name COLLATE NOCASE`, query)
	if err != nil {
		return nil, fmt.Errorf("searching categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCategories(rows *sql.Rows) ([]*domain.Category, error) {
	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return out, nil
}
