package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// Model is the Bubble Tea front end over State.
type Model struct {
	ctx    context.Context
	api    API
	logger *zap.Logger

	state  State
	cursor int
	mode   mode

	input textinput.Model
	draft textinput.Model
	keys  keyMap
	help  help.Model
}

// New builds a model that loads the list on Init. Failures go to logger only.
func New(ctx context.Context, api API, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		ctx:    ctx,
		api:    api,
		logger: logger,
		state:  NewState(),
		input:  newTextInput("What needs doing?"),
		draft:  newTextInput(""),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

func newTextInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// Init issues the initial load.
func (m Model) Init() tea.Cmd {
	return loadCmd(m.ctx, m.api)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case Action:
		return m.apply(msg), nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

// apply runs the reducer and brings the widgets in line with the new state.
func (m Model) apply(a Action) Model {
	if f, ok := a.(RequestFailed); ok {
		m.logger.Warn("request failed", zap.String("op", f.Op), zap.Error(f.Err))
	}

	selectedID := ""
	if i, ok := m.selected(); ok {
		selectedID = m.state.Todos[i].ID
	}

	m.state = Reduce(m.state, a)

	if i := indexOf(m.state.Todos, selectedID); selectedID != "" && i >= 0 {
		m.cursor = i
	}

	if m.input.Value() != m.state.Input {
		m.input.SetValue(m.state.Input)
	}
	if m.mode == modeEdit && m.state.Edit == nil {
		m.mode = modeBrowse
		m.draft.Blur()
	}
	m.clampCursor()
	return m
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Todos) {
		m.cursor = len(m.state.Todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Todos) {
		return 0, false
	}
	return m.cursor, true
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m, loadCmd(m.ctx, m.api)
	case key.Matches(msg, m.keys.Toggle):
		if i, ok := m.selected(); ok {
			return m, toggleCmd(m.ctx, m.api, m.state.Todos[i])
		}
	case key.Matches(msg, m.keys.Delete):
		if i, ok := m.selected(); ok {
			return m, deleteCmd(m.ctx, m.api, m.state.Todos[i].ID)
		}
	case key.Matches(msg, m.keys.Edit):
		if i, ok := m.selected(); ok {
			m = m.apply(EditStarted{ID: m.state.Todos[i].ID})
			if m.state.Edit != nil {
				m.mode = modeEdit
				m.draft.SetValue(m.state.Edit.Draft)
				m.draft.CursorEnd()
				m.draft.Focus()
			}
		}
	}
	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		title := strings.TrimSpace(m.state.Input)
		if title == "" {
			return m, nil
		}
		return m, createCmd(m.ctx, m.api, title)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.state.Input {
		m.state = Reduce(m.state, InputChanged{Text: m.input.Value()})
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.apply(EditCanceled{}), nil
	case key.Matches(msg, m.keys.Submit):
		title := strings.TrimSpace(m.state.Edit.Draft)
		if title == "" {
			return m, nil
		}
		return m, saveEditCmd(m.ctx, m.api, m.state.Edit.ID, title)
	}

	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	if m.draft.Value() != m.state.Edit.Draft {
		m.state = Reduce(m.state, DraftChanged{Text: m.draft.Value()})
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	done := 0
	for _, t := range m.state.Todos {
		if t.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d\n\n",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(m.state.Todos)-done,
	)

	switch {
	case m.state.Loading:
		b.WriteString(mutedStyle.Render("Loading…") + "\n")
	case len(m.state.Todos) == 0:
		b.WriteString(mutedStyle.Render("Nothing to do.") + "\n")
	default:
		for i, t := range m.state.Todos {
			prefix := "  "
			if i == m.cursor {
				prefix = selectedStyle.Render(">") + " "
			}

			if m.state.Edit != nil && m.state.Edit.ID == t.ID {
				b.WriteString(prefix + m.draft.View() + "\n")
				continue
			}

			box, text := mutedStyle.Render(boxUnchecked), t.Title
			if t.Completed {
				box, text = successStyle.Render(boxChecked), doneStyle.Render(t.Title)
			}
			b.WriteString(prefix + box + " " + text + "\n")
		}
	}

	b.WriteString("\n")
	if m.mode == modeAdd {
		b.WriteString(panelStyle.Render(m.input.View()) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, api API, logger *zap.Logger) error {
	p := tea.NewProgram(New(ctx, api, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
