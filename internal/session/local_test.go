package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.TickRate = 200
	l := NewLocal(game.NewEngine(game.DefaultLevel(), cfg), zap.NewNop())
	t.Cleanup(l.Close)
	return l
}

// waitFor reads states until one satisfies ok.
func waitFor(t *testing.T, l *Local, ok func(game.State) bool) game.State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-l.States():
			if ok(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out, last snapshot:\n%s", l.Snapshot())
		}
	}
}

func TestInitialStateBeforeFirstTick(t *testing.T) {
	l := newLocal(t)
	l.Start(context.Background())

	s := waitFor(t, l, func(game.State) bool { return true })
	assert.Equal(t, game.Position{X: 3, Y: 3}, s.Player)
}

func TestTapMovesPlayer(t *testing.T) {
	l := newLocal(t)
	l.Start(context.Background())

	l.Tap(game.DirLeft)
	waitFor(t, l, func(s game.State) bool { return s.Player == game.Position{X: 2, Y: 3} })

	// The tap's release re-arms the gate, so a second tap moves again.
	l.Tap(game.DirDown)
	waitFor(t, l, func(s game.State) bool { return s.Player == game.Position{X: 2, Y: 2} })
}

func TestSubscribeSeesWin(t *testing.T) {
	l := newLocal(t)
	won := make(chan game.State, 1)
	l.Subscribe(func(s game.State) {
		if s.Won {
			select {
			case won <- s:
			default:
			}
		}
	})
	l.Start(context.Background())

	for _, d := range []game.Direction{game.DirLeft, game.DirUp, game.DirRight, game.DirUp} {
		l.Tap(d)
		// Let the press and the deferred release land on separate ticks.
		before := l.Snapshot().Tick
		waitFor(t, l, func(s game.State) bool { return s.Tick >= before+2 })
	}

	select {
	case s := <-won:
		assert.Equal(t, game.Position{X: 3, Y: 5}, s.Player)
	case <-time.After(2 * time.Second):
		t.Fatalf("no win observed:\n%s", l.Snapshot())
	}
}

func TestCloseStopsTicking(t *testing.T) {
	l := newLocal(t)
	l.Start(context.Background())
	waitFor(t, l, func(s game.State) bool { return s.Tick > 0 })

	l.Close()
	stopped := l.Snapshot().Tick
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, stopped, l.Snapshot().Tick)
}
