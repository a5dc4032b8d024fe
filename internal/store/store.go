package store

import (
	"context"
	"errors"

	"todoapp/internal/models"
)

// ErrNotFound is returned when no todo matches the given id.
var ErrNotFound = errors.New("todo not found")

// Store defines the interface for todo persistence.
type Store interface {
	// Insert creates a todo with the given title, completed=false and a fresh id.
	Insert(ctx context.Context, title string) (*models.Todo, error)
	// ListAll returns every todo, most recently created first.
	ListAll(ctx context.Context) ([]models.Todo, error)
	// UpdateByID merges patch into the todo and refreshes its updated_at.
	UpdateByID(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error)
	// DeleteByID removes the todo.
	DeleteByID(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
