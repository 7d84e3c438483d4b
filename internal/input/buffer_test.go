package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-sokoban/internal/game"
)

func TestHeldKey(t *testing.T) {
	b := NewBuffer()
	b.Press(game.DirUp)

	for i := 0; i < 3; i++ {
		s := b.Sample()
		assert.True(t, s.Pressed(game.DirUp), "sample %d", i)
		assert.False(t, s.JustReleased(game.DirUp), "sample %d", i)
	}

	b.Release(game.DirUp)
	s := b.Sample()
	assert.False(t, s.Pressed(game.DirUp))
	assert.True(t, s.JustReleased(game.DirUp))

	s = b.Sample()
	assert.False(t, s.JustReleased(game.DirUp), "a release is reported once")
}

func TestTapSpansTwoSamples(t *testing.T) {
	b := NewBuffer()
	b.Tap(game.DirLeft)

	first := b.Sample()
	assert.True(t, first.Pressed(game.DirLeft))
	assert.False(t, first.JustReleased(game.DirLeft))

	second := b.Sample()
	assert.False(t, second.Pressed(game.DirLeft))
	assert.True(t, second.JustReleased(game.DirLeft))
}

func TestReleaseWithoutPressIgnored(t *testing.T) {
	b := NewBuffer()
	b.Release(game.DirDown)
	s := b.Sample()
	assert.False(t, s.JustReleased(game.DirDown))
}

func TestTapsDriveOneMoveEach(t *testing.T) {
	e := game.NewEngine(game.DefaultLevel(), game.DefaultConfig())
	b := NewBuffer()

	b.Tap(game.DirLeft)
	e.Tick(b.Sample())
	e.Tick(b.Sample())
	b.Tap(game.DirDown)
	e.Tick(b.Sample())
	e.Tick(b.Sample())

	assert.Equal(t, game.Position{X: 2, Y: 2}, e.Snapshot().Player)
}

func TestTapBeforeReleaseSampledStillMoves(t *testing.T) {
	e := game.NewEngine(game.DefaultLevel(), game.DefaultConfig())
	b := NewBuffer()

	b.Tap(game.DirLeft)
	e.Tick(b.Sample())
	b.Tap(game.DirDown)
	for i := 0; i < 3; i++ {
		e.Tick(b.Sample())
	}

	assert.Equal(t, game.Position{X: 2, Y: 2}, e.Snapshot().Player)
}

func TestRepeatedTapBeforeReleaseSampledStillMoves(t *testing.T) {
	e := game.NewEngine(game.DefaultLevel(), game.DefaultConfig())
	b := NewBuffer()

	b.Tap(game.DirLeft)
	e.Tick(b.Sample())
	b.Tap(game.DirLeft)
	for i := 0; i < 3; i++ {
		e.Tick(b.Sample())
	}

	assert.Equal(t, game.Position{X: 1, Y: 3}, e.Snapshot().Player)
}

func TestPressHeldBackUntilReleaseReported(t *testing.T) {
	b := NewBuffer()
	b.Tap(game.DirLeft)
	b.Sample()
	b.Tap(game.DirDown)

	release := b.Sample()
	assert.True(t, release.JustReleased(game.DirLeft))
	assert.False(t, release.Pressed(game.DirDown))

	press := b.Sample()
	assert.True(t, press.Pressed(game.DirDown))
	assert.False(t, press.JustReleased(game.DirDown))

	assert.True(t, b.Sample().JustReleased(game.DirDown))
}

func TestConcurrentWriters(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for _, d := range game.Directions {
		wg.Add(1)
		go func(d game.Direction) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Tap(d)
			}
		}(d)
	}
	wg.Wait()

	s := b.Sample()
	for _, d := range game.Directions {
		require.True(t, s.Pressed(d), d.String())
	}
}

func TestKeysOf(t *testing.T) {
	k := KeysOf([]game.Direction{game.DirRight}, []game.Direction{game.DirUp})
	assert.True(t, k.Pressed(game.DirRight))
	assert.False(t, k.Pressed(game.DirUp))
	assert.True(t, k.JustReleased(game.DirUp))
	assert.False(t, k.Pressed(game.DirNone))
}
