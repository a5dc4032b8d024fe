package tui

import (
	"todoapp/internal/models"
)

// EditTarget is the one todo currently open for editing plus its unsaved title.
type EditTarget struct {
	ID    string
	Draft string
}

// State is the client's view of the list. Reduce never mutates a State in
// place, so older values stay valid.
type State struct {
	Todos   []models.Todo
	Input   string
	Edit    *EditTarget
	Loading bool
}

// NewState is the state before the first list arrives.
func NewState() State {
	return State{Todos: []models.Todo{}, Loading: true}
}

// Action describes one state transition. Actions are also delivered to the
// Bubble Tea model as messages.
type Action interface {
	action()
}

// ListLoaded replaces the list with a fresh fetch.
type ListLoaded struct{ Todos []models.Todo }

// InputChanged tracks the add box.
type InputChanged struct{ Text string }

// TodoCreated prepends a todo returned by Create.
type TodoCreated struct{ Todo models.Todo }

// TodoUpdated replaces a todo returned by Update.
type TodoUpdated struct{ Todo models.Todo }

// EditStarted opens a todo for editing.
type EditStarted struct{ ID string }

// DraftChanged tracks the edit box.
type DraftChanged struct{ Text string }

// EditSaved replaces the edited todo and closes the editor.
type EditSaved struct{ Todo models.Todo }

// EditCanceled closes the editor and drops the draft.
type EditCanceled struct{}

// TodoDeleted removes a todo.
type TodoDeleted struct{ ID string }

// RequestFailed reports a failed call. It leaves state unchanged.
type RequestFailed struct {
	Op  string
	Err error
}

func (ListLoaded) action()    {}
func (InputChanged) action()  {}
func (TodoCreated) action()   {}
func (TodoUpdated) action()   {}
func (EditStarted) action()   {}
func (DraftChanged) action()  {}
func (EditSaved) action()     {}
func (EditCanceled) action()  {}
func (TodoDeleted) action()   {}
func (RequestFailed) action() {}

// Reduce returns the state that follows s after a.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ListLoaded:
		s.Todos = cloneTodos(a.Todos)
		s.Loading = false
		if s.Edit != nil && indexOf(s.Todos, s.Edit.ID) < 0 {
			s.Edit = nil
		}

	case InputChanged:
		s.Input = a.Text

	case TodoCreated:
		todos := make([]models.Todo, 0, len(s.Todos)+1)
		todos = append(todos, a.Todo)
		s.Todos = append(todos, s.Todos...)
		s.Input = ""

	case TodoUpdated:
		s.Todos = replaceTodo(s.Todos, a.Todo)

	case EditStarted:
		i := indexOf(s.Todos, a.ID)
		if i < 0 {
			return s
		}
		s.Edit = &EditTarget{ID: a.ID, Draft: s.Todos[i].Title}

	case DraftChanged:
		if s.Edit != nil {
			s.Edit = &EditTarget{ID: s.Edit.ID, Draft: a.Text}
		}

	case EditSaved:
		s.Todos = replaceTodo(s.Todos, a.Todo)
		if s.Edit != nil && s.Edit.ID == a.Todo.ID {
			s.Edit = nil
		}

	case EditCanceled:
		s.Edit = nil

	case TodoDeleted:
		i := indexOf(s.Todos, a.ID)
		if i >= 0 {
			todos := make([]models.Todo, 0, len(s.Todos)-1)
			todos = append(todos, s.Todos[:i]...)
			s.Todos = append(todos, s.Todos[i+1:]...)
		}
		if s.Edit != nil && s.Edit.ID == a.ID {
			s.Edit = nil
		}

	case RequestFailed:
	}
	return s
}

func indexOf(todos []models.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceTodo swaps in t by id. Unknown ids leave the list as is.
func replaceTodo(todos []models.Todo, t models.Todo) []models.Todo {
	i := indexOf(todos, t.ID)
	if i < 0 {
		return todos
	}
	out := cloneTodos(todos)
	out[i] = t
	return out
}

func cloneTodos(todos []models.Todo) []models.Todo {
	out := make([]models.Todo, len(todos))
	copy(out, todos)
	return out
}
