package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sampler yields the key state for one tick. It is called exactly once per tick.
type Sampler interface {
	Sample() KeyState
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() KeyState

// Sample calls f.
func (f SamplerFunc) Sample() KeyState { return f() }

// Engine is the authoritative simulation of one level.
type Engine struct {
	Config   GameConfig
	registry *Registry
	mu       sync.Mutex
	tick     uint64
	won      bool
	outcome  Outcome
	onTick   func(State) // Callback after each tick with a COPY of state
	onWin    func(State)
	log      *zap.Logger
	checks   bool
}

// NewEngine creates an engine owning a fresh copy of the level's entities.
func NewEngine(level *Level, config GameConfig) *Engine {
	if len(config.Priority) == 0 {
		config.Priority = DefaultConfig().Priority
	}
	if config.TickRate <= 0 {
		config.TickRate = DefaultConfig().TickRate
	}
	e := &Engine{
		Config:   config,
		registry: level.Registry(),
		log:      zap.NewNop(),
	}
	e.won = Evaluate(e.registry)
	return e
}

// OnTick sets a callback that is invoked after every tick with a copy of the state.
// Used by sessions and the network server to push state to renderers.
func (e *Engine) OnTick(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// OnWin sets a callback invoked once each time the level becomes solved.
func (e *Engine) OnWin(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onWin = fn
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(log *zap.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = log.With(zap.String("component", "engine"))
}

// EnableInvariantChecks makes every tick verify the settled grid and log
// violations at error level.
func (e *Engine) EnableInvariantChecks(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checks = on
}

// Run ticks the engine at the configured rate until ctx is done.
func (e *Engine) Run(ctx context.Context, keys Sampler) {
	ticker := time.NewTicker(time.Second / time.Duration(e.Config.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(keys.Sample())
		}
	}
}

// Tick runs one simulation step and returns the settled state.
//
// The passes run in a fixed order, each reading what the previous one wrote:
// gate, stage pushes, validate pushes, commit boxes, commit player, win check.
// The player's own legality check depends on whether its box moved this tick.
// Callbacks run after the lock is released, with copies of the state.
func (e *Engine) Tick(keys KeyState) State {
	e.mu.Lock()

	e.updateGate(keys)
	intent := e.registry.player.direction
	e.stagePushes()
	e.checkPushes()
	pushed := e.moveBoxes()
	moved := e.movePlayer()

	switch {
	case intent == DirNone:
		e.outcome = OutcomeIdle
	case moved && pushed > 0:
		e.outcome = OutcomePushed
	case moved:
		e.outcome = OutcomeMoved
	default:
		e.outcome = OutcomeBlocked
	}

	wasWon := e.won
	e.won = Evaluate(e.registry)
	e.tick++

	if e.checks {
		if err := CheckInvariants(e.registry); err != nil {
			e.log.Error("invariant violated", zap.Uint64("tick", e.tick), zap.Error(err))
		}
	}

	state := e.snapshotLocked()
	if e.won && !wasWon {
		e.log.Info("level solved", zap.Uint64("tick", e.tick), zap.Int("holes", len(state.Holes)))
	}
	onTick, onWin := e.onTick, e.onWin

	e.mu.Unlock()

	if onWin != nil && e.won && !wasWon {
		onWin(state)
	}
	if onTick != nil {
		onTick(state)
	}
	return state
}

// Won reports the result of the last win check.
func (e *Engine) Won() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.won
}

// Snapshot returns a copy of the current state safe for rendering and serialization.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Registry returns a deep copy of the engine's entities.
func (e *Engine) Registry() *Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Clone()
}

// snapshotLocked MUST be called while e.mu is held.
func (e *Engine) snapshotLocked() State {
	return snapshot(e.registry, e.won, e.outcome, e.tick)
}

func snapshot(r *Registry, won bool, outcome Outcome, tick uint64) State {
	var pl Position
	if p, ok := r.Player(); ok {
		pl = p.Pos
	}
	return State{
		Width:   r.Width(),
		Height:  r.Height(),
		Player:  pl,
		Boxes:   r.positions(KindBox),
		Walls:   r.positions(KindWall),
		Holes:   r.positions(KindHole),
		Won:     won,
		Outcome: outcome,
		Tick:    tick,
	}
}
