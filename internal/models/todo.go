package models

import (
	"errors"
	"strings"
	"time"
)

// ErrTitleRequired is returned when a todo is created without a usable title.
var ErrTitleRequired = errors.New("title required")

// Todo is a single item on the list.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateTitle checks a title supplied for a new todo.
// Updates do not go through this check.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// TodoPatch carries the fields of a partial update. Nil fields are left alone.
type TodoPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply merges the non-nil fields of p into t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// TitlePatch builds a patch that only replaces the title.
func TitlePatch(title string) TodoPatch {
	return TodoPatch{Title: &title}
}

// CompletedPatch builds a patch that only sets the completion flag.
func CompletedPatch(completed bool) TodoPatch {
	return TodoPatch{Completed: &completed}
}
