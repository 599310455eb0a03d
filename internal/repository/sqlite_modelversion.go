package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SQLiteModelVersionRepo stores training audit records; stats live in a JSON column.
type SQLiteModelVersionRepo struct {
	db db.DBTX
}

func NewSQLiteModelVersionRepo(db db.DBTX) *SQLiteModelVersionRepo {
	return &SQLiteModelVersionRepo{db: db}
}

// SaveNext inserts mv as the next version of its target and sets mv.Version.
func (r *SQLiteModelVersionRepo) SaveNext(ctx context.Context, mv *domain.ModelVersion) error {
	stats, err := json.Marshal(mv.Stats)
	if err != nil {
		return fmt.Errorf("encoding model stats: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO model_versions (id, target, version, trained_at, metrics_json)
		SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?
		FROM model_versions WHERE target = ?`,
		mv.ID, mv.Target, formatTime(mv.TrainedAt), string(stats), mv.Target)
	if err != nil {
		return fmt.Errorf("inserting model version: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM model_versions WHERE id = ?`, mv.ID).Scan(&mv.Version); err != nil {
		return fmt.Errorf("reading model version: %w", err)
	}
	return nil
}

func (r *SQLiteModelVersionRepo) Latest(ctx context.Context, target string) (*domain.ModelVersion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, target, version, trained_at, metrics_json FROM model_versions
		WHERE target = ? ORDER BY version DESC LIMIT 1`, target)
	return scanModelVersion(row)
}

// ListLatest returns the newest version of every trained target.
func (r *SQLiteModelVersionRepo) ListLatest(ctx context.Context) ([]*domain.ModelVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.target, m.version, m.trained_at, m.metrics_json
		FROM model_versions m
		JOIN (SELECT target, MAX(version) AS v FROM model_versions GROUP BY target) latest
		  ON latest.target = m.target AND latest.v = m.version
		ORDER BY m.target`)
	if err != nil {
		return nil, fmt.Errorf("listing model versions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ModelVersion
	for rows.Next() {
		mv, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model versions: %w", err)
	}
	return out, nil
}

func scanModelVersion(row rowScanner) (*domain.ModelVersion, error) {
	var mv domain.ModelVersion
	var trainedAt, metrics string
	if err := row.Scan(&mv.ID, &mv.Target, &mv.Version, &trainedAt, &metrics); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("model version: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning model version: %w", err)
	}
	var err error
	if mv.TrainedAt, err = parseTime(trainedAt, "trained_at"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metrics), &mv.Stats); err != nil {
		return nil, fmt.Errorf("decoding model stats: %w", err)
	}
	return &mv, nil
}
