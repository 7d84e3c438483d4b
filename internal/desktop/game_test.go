package desktop

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"

	"github.com/amalg/go-sokoban/internal/game"
)

func keySet(keys ...ebiten.Key) func(ebiten.Key) bool {
	set := make(map[ebiten.Key]bool)
	for _, k := range keys {
		set[k] = true
	}
	return func(k ebiten.Key) bool { return set[k] }
}

func TestPollKeys(t *testing.T) {
	k := PollKeys(keySet(ebiten.KeyArrowLeft, ebiten.KeyW), keySet(ebiten.KeyD))

	assert.True(t, k.Pressed(game.DirLeft))
	assert.True(t, k.Pressed(game.DirUp))
	assert.False(t, k.Pressed(game.DirRight))
	assert.False(t, k.Pressed(game.DirDown))

	assert.True(t, k.JustReleased(game.DirRight))
	assert.False(t, k.JustReleased(game.DirLeft))
}

func TestPollKeysDrivesEngine(t *testing.T) {
	e := game.NewEngine(game.DefaultLevel(), game.DefaultConfig())
	none := keySet()

	// Held for several frames: one move.
	for i := 0; i < 3; i++ {
		e.Tick(PollKeys(keySet(ebiten.KeyA), none))
	}
	assert.Equal(t, game.Position{X: 2, Y: 3}, e.Snapshot().Player)

	e.Tick(PollKeys(none, keySet(ebiten.KeyA)))
	e.Tick(PollKeys(keySet(ebiten.KeyArrowDown), none))
	assert.Equal(t, game.Position{X: 2, Y: 2}, e.Snapshot().Player)
}

func TestCellOriginFlipsY(t *testing.T) {
	x, y := CellOrigin(game.Position{X: 0, Y: 7}, 8, 48)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = CellOrigin(game.Position{X: 3, Y: 0}, 8, 48)
	assert.Equal(t, 144.0, x)
	assert.Equal(t, 336.0, y)
}
