package domain

import (
	"fmt"
	"strings"
	"time"
)

const maxNameLen = 120

// Category is a named grouping of work (e.g. "Coding", "Writing").
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Task is a specific piece of work belonging to exactly one category.
type Task struct {
	ID         string
	Name       string
	CategoryID string
	CreatedAt  time.Time
}

// NormalizeName trims surrounding whitespace and validates a category or task name.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("name is required: %w", ErrInvalidName)
	}
	if len(trimmed) > maxNameLen {
		return "", fmt.Errorf("name %q exceeds %d characters: %w", trimmed[:20]+"...", maxNameLen, ErrInvalidName)
	}
	return trimmed, nil
}

// DisplayID returns a truncated identifier for tables.
func DisplayID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
