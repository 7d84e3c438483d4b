package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-sokoban/internal/game"
)

// Session is what the TUI drives: a local engine or a remote server.
type Session interface {
	Tap(dir game.Direction)
	States() <-chan game.State
}

// stateUpdateMsg carries a new settled state from the session.
type stateUpdateMsg game.State

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// Model is the Bubbletea model for the puzzle.
type Model struct {
	session  Session
	state    *game.State
	title    string
	err      error
	quitting bool
}

// NewModel creates a new TUI model attached to the given session. title is
// shown in the HUD, e.g. the host name in remote play.
func NewModel(session Session, title string) Model {
	return Model{
		session: session,
		title:   title,
	}
}

// Init starts listening for state updates.
func (m Model) Init() tea.Cmd {
	return waitForState(m.session)
}

// Update handles incoming messages (key presses, state updates).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateUpdateMsg:
		state := game.State(msg)
		m.state = &state
		return m, waitForState(m.session)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	if m.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444")).
			Render("Error: "+m.err.Error()) + "\n"
	}

	board := RenderBoard(m.state)
	hud := RenderHUD(m.state, m.title)

	// Layout: board on the left, HUD on the right
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		board,
		"  ",
		hud,
	) + "\n"
}

// handleKey processes keyboard input. Terminals report presses only, so
// every key event is a tap: it moves once and re-arms the movement gate.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "w", "k":
		m.session.Tap(game.DirUp)
	case "down", "s", "j":
		m.session.Tap(game.DirDown)
	case "left", "a", "h":
		m.session.Tap(game.DirLeft)
	case "right", "d", "l":
		m.session.Tap(game.DirRight)
	}

	return m, nil
}

// waitForState returns a Cmd that waits for the next state from the session.
func waitForState(session Session) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-session.States()
		if !ok {
			return errMsg{err: fmt.Errorf("session closed")}
		}
		return stateUpdateMsg(state)
	}
}
