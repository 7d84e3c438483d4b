package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-sokoban/internal/game"
)

type fakeSession struct {
	taps   []game.Direction
	states chan game.State
}

func newFakeSession() *fakeSession {
	return &fakeSession{states: make(chan game.State, 4)}
}

func (f *fakeSession) Tap(d game.Direction)      { f.taps = append(f.taps, d) }
func (f *fakeSession) States() <-chan game.State { return f.states }

func TestKeysBecomeTaps(t *testing.T) {
	s := newFakeSession()
	var m tea.Model = NewModel(s, "")

	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyLeft},
		{Type: tea.KeyRunes, Runes: []rune("w")},
		{Type: tea.KeyRight},
		{Type: tea.KeyRunes, Runes: []rune("s")},
		{Type: tea.KeyRunes, Runes: []rune("x")},
	} {
		m, _ = m.Update(k)
	}
	assert.Equal(t, []game.Direction{game.DirLeft, game.DirUp, game.DirRight, game.DirDown}, s.taps)
}

func TestQuit(t *testing.T) {
	m := NewModel(newFakeSession(), "")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Contains(t, next.View(), "Goodbye")
}

func TestStateUpdateRendersBoard(t *testing.T) {
	s := newFakeSession()
	m := NewModel(s, "attic")

	assert.Contains(t, m.View(), "Waiting for game state")

	e := game.NewEngine(game.DefaultLevel(), game.DefaultConfig())
	s.states <- e.Snapshot()
	msg := m.Init()()
	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "the model keeps listening for states")

	view := next.View()
	assert.Contains(t, view, "SOKOBAN · attic")
	assert.Contains(t, view, "Holes covered: 0/1")
}

func TestRenderBoardOrientation(t *testing.T) {
	state, err := game.ParseLevel("###\n#.#\n#@#\n###")
	require.NoError(t, err)
	e := game.NewEngine(state, game.DefaultConfig())
	snap := e.Snapshot()

	rows := strings.Split(RenderBoard(&snap), "\n")
	require.Len(t, rows, 4)
	// The hole is one row above the player on screen because it has a higher Y.
	assert.Contains(t, rows[1], "()")
	assert.Contains(t, rows[2], "@@")
}

func TestHUDShowsWin(t *testing.T) {
	level, err := game.ParseLevel("####\n#@*#\n####")
	require.NoError(t, err)
	snap := game.NewEngine(level, game.DefaultConfig()).Tick(game.NoKeys)

	hud := RenderHUD(&snap, "")
	assert.Contains(t, hud, "You won")
	assert.Equal(t, 1, snap.Covered())
}
