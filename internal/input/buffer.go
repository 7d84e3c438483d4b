// Package input collects raw directional key events from any number of
// writers and freezes them into one sample per simulation tick.
package input

import (
	"sync"

	"github.com/amalg/go-sokoban/internal/game"
)

// keyState tracks one directional key between samples.
type keyState struct {
	down     bool // Currently held
	latched  bool // Pressed at least once since the last sample
	released bool // Released at least once since the last sample
	deferred bool // Release of a tap, owed to the next sample
}

// Buffer is a thread-safe key-state store. Writers call Press/Release/Tap;
// the simulation calls Sample once per tick.
type Buffer struct {
	mu   sync.Mutex
	keys map[game.Direction]*keyState
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	b := &Buffer{keys: make(map[game.Direction]*keyState, len(game.Directions))}
	for _, d := range game.Directions {
		b.keys[d] = &keyState{}
	}
	return b
}

// Press records a key going down.
func (b *Buffer) Press(dir game.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.keys[dir]; ok {
		k.down = true
		k.latched = true
	}
}

// Release records a key going up.
func (b *Buffer) Release(dir game.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if k, ok := b.keys[dir]; ok && (k.down || k.latched) {
		k.down = false
		k.released = true
	}
}

// Tap records a press immediately followed by a release. Terminals and
// agents only report key presses, so they drive the buffer with taps.
func (b *Buffer) Tap(dir game.Direction) {
	b.Press(dir)
	b.Release(dir)
}

// Sample freezes the key state for one tick.
//
// A key pressed and released within the same window is reported pressed in
// this sample and released in the next one, so a tap both moves the player
// and re-arms the movement gate. While any tap release is still owed, new
// presses stay latched until the sample after it, so back-to-back taps each
// get their own move.
func (b *Buffer) Sample() game.KeyState {
	b.mu.Lock()
	defer b.mu.Unlock()

	owed := false
	for _, k := range b.keys {
		owed = owed || k.deferred
	}

	s := Keys{}
	for dir, k := range b.keys {
		if owed {
			if k.deferred {
				s.released |= bit(dir)
				k.deferred = false
			}
			if k.released && !k.latched {
				s.released |= bit(dir)
				k.released = false
			}
			if k.down && !k.latched {
				s.pressed |= bit(dir)
			}
			continue
		}
		if k.down || k.latched {
			s.pressed |= bit(dir)
		}
		if k.released {
			if k.latched {
				k.deferred = true
			} else {
				s.released |= bit(dir)
			}
			k.released = false
		}
		k.latched = false
	}
	return s
}

// Keys is one frozen sample. It implements game.KeyState.
type Keys struct {
	pressed  uint8
	released uint8
}

// KeysOf builds a sample directly, mostly useful in tests and adapters that
// poll their own devices.
func KeysOf(pressed, released []game.Direction) Keys {
	var k Keys
	for _, d := range pressed {
		k.pressed |= bit(d)
	}
	for _, d := range released {
		k.released |= bit(d)
	}
	return k
}

// Pressed reports whether dir was down during the sample window.
func (k Keys) Pressed(dir game.Direction) bool { return k.pressed&bit(dir) != 0 }

// JustReleased reports whether dir went up during the sample window.
func (k Keys) JustReleased(dir game.Direction) bool { return k.released&bit(dir) != 0 }

func bit(dir game.Direction) uint8 { return 1 << uint(dir) }
