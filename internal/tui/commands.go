package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"todoapp/internal/models"
)

// API is the subset of the HTTP client the model drives.
type API interface {
	List(ctx context.Context) ([]models.Todo, error)
	Create(ctx context.Context, title string) (*models.Todo, error)
	Update(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Each command issues exactly one request and reports back with an Action.

func loadCmd(ctx context.Context, api API) tea.Cmd {
	return func() tea.Msg {
		todos, err := api.List(ctx)
		if err != nil {
			return RequestFailed{Op: "list", Err: err}
		}
		return ListLoaded{Todos: todos}
	}
}

func createCmd(ctx context.Context, api API, title string) tea.Cmd {
	return func() tea.Msg {
		t, err := api.Create(ctx, title)
		if err != nil {
			return RequestFailed{Op: "create", Err: err}
		}
		return TodoCreated{Todo: *t}
	}
}

func toggleCmd(ctx context.Context, api API, current models.Todo) tea.Cmd {
	return func() tea.Msg {
		t, err := api.Update(ctx, current.ID, models.CompletedPatch(!current.Completed))
		if err != nil {
			return RequestFailed{Op: "toggle", Err: err}
		}
		return TodoUpdated{Todo: *t}
	}
}

func saveEditCmd(ctx context.Context, api API, id, title string) tea.Cmd {
	return func() tea.Msg {
		t, err := api.Update(ctx, id, models.TitlePatch(title))
		if err != nil {
			return RequestFailed{Op: "save edit", Err: err}
		}
		return EditSaved{Todo: *t}
	}
}

func deleteCmd(ctx context.Context, api API, id string) tea.Cmd {
	return func() tea.Msg {
		if err := api.Delete(ctx, id); err != nil {
			return RequestFailed{Op: "delete", Err: err}
		}
		return TodoDeleted{ID: id}
	}
}
