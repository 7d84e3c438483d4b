// Package session runs one engine against an input buffer and fans the
// settled state out to viewers.
package session

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/input"
)

// Local owns an engine, the key buffer feeding it and the run loop.
type Local struct {
	engine *game.Engine
	keys   *input.Buffer
	states chan game.State
	log    *zap.Logger

	mu        sync.Mutex
	listeners []func(game.State)
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLocal wraps an engine. The engine's OnTick callback is taken over by
// the session; use Subscribe to observe ticks.
func NewLocal(engine *game.Engine, log *zap.Logger) *Local {
	l := &Local{
		engine: engine,
		keys:   input.NewBuffer(),
		states: make(chan game.State, 1),
		log:    log.With(zap.String("component", "session")),
	}
	engine.OnTick(l.publish)
	return l
}

// Start runs the tick loop in the background until ctx is done or Close is called.
func (l *Local) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	// Viewers get the initial state before the first tick.
	l.offer(l.engine.Snapshot())

	go func() {
		defer close(l.done)
		l.log.Debug("tick loop started", zap.Int("tick_rate", l.engine.Config.TickRate))
		l.engine.Run(ctx, l.keys)
		l.log.Debug("tick loop stopped")
	}()
}

// Engine returns the simulated engine.
func (l *Local) Engine() *game.Engine { return l.engine }

// Press forwards a key-down event.
func (l *Local) Press(dir game.Direction) { l.keys.Press(dir) }

// Release forwards a key-up event.
func (l *Local) Release(dir game.Direction) { l.keys.Release(dir) }

// Tap forwards a key press immediately followed by its release.
func (l *Local) Tap(dir game.Direction) { l.keys.Tap(dir) }

// States returns a channel yielding the latest settled state. Slow readers
// only ever see the newest state.
func (l *Local) States() <-chan game.State { return l.states }

// Snapshot returns the current state.
func (l *Local) Snapshot() game.State { return l.engine.Snapshot() }

// Subscribe registers fn to be called with every settled state.
func (l *Local) Subscribe(fn func(game.State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Close stops the tick loop and waits for it to exit.
func (l *Local) Close() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Local) publish(s game.State) {
	l.offer(s)

	l.mu.Lock()
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// offer replaces any unread state with s.
func (l *Local) offer(s game.State) {
	select {
	case l.states <- s:
	default:
		select {
		case <-l.states:
		default:
		}
		select {
		case l.states <- s:
		default:
		}
	}
}
