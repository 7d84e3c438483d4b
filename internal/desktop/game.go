// Package desktop runs the puzzle in an ebiten window with real key
// press and release polling.
package desktop

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/input"
)

// hudHeight is the strip below the board used for status text.
const hudHeight = 40

var (
	floorColor  = color.RGBA{R: 0x0a, G: 0x0a, B: 0x0a, A: 0xff}
	wallColor   = color.RGBA{R: 0x4b, G: 0x1f, B: 0xb3, A: 0xff}
	holeColor   = color.RGBA{R: 0x33, G: 0x80, B: 0x80, A: 0xff}
	boxColor    = color.RGBA{R: 0xff, G: 0x80, B: 0x80, A: 0xff}
	playerColor = color.RGBA{R: 0xe6, G: 0xe6, B: 0xe6, A: 0xff}
)

// bindings lists the keys that drive each direction.
var bindings = map[game.Direction][]ebiten.Key{
	game.DirLeft:  {ebiten.KeyArrowLeft, ebiten.KeyA},
	game.DirRight: {ebiten.KeyArrowRight, ebiten.KeyD},
	game.DirDown:  {ebiten.KeyArrowDown, ebiten.KeyS},
	game.DirUp:    {ebiten.KeyArrowUp, ebiten.KeyW},
}

// Game implements ebiten.Game. Every Update is one simulation tick.
type Game struct {
	engine   *game.Engine
	cellSize int
	log      *zap.Logger

	state game.State
	pixel *ebiten.Image
}

// New creates a window adapter for engine.
func New(engine *game.Engine, cellSize int, log *zap.Logger) *Game {
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &Game{
		engine:   engine,
		cellSize: cellSize,
		log:      log.With(zap.String("component", "desktop")),
		state:    engine.Snapshot(),
		pixel:    pixel,
	}
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(g.engine.Config.TickRate)

	g.log.Info("window opened", zap.Int("width", w), zap.Int("height", h), zap.Int("tps", g.engine.Config.TickRate))
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}

// Update polls the keyboard and advances the simulation by one tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	g.state = g.engine.Tick(PollKeys(ebiten.IsKeyPressed, inpututil.IsKeyJustReleased))
	return nil
}

// PollKeys builds one key sample from the given device queries. A direction
// is pressed while any of its keys is held.
func PollKeys(pressed, justReleased func(ebiten.Key) bool) input.Keys {
	var down, up []game.Direction
	for dir, keys := range bindings {
		for _, k := range keys {
			if pressed(k) {
				down = append(down, dir)
				break
			}
		}
		for _, k := range keys {
			if justReleased(k) {
				up = append(up, dir)
				break
			}
		}
	}
	return input.KeysOf(down, up)
}

// Draw paints the board and the status line.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(floorColor)

	s := g.state
	for _, p := range s.Holes {
		g.fillCell(screen, p, holeColor, 0)
	}
	for _, p := range s.Walls {
		g.fillCell(screen, p, wallColor, 0)
	}
	for _, p := range s.Boxes {
		g.fillCell(screen, p, boxColor, g.cellSize/8)
	}
	g.fillCell(screen, s.Player, playerColor, g.cellSize/4)

	status := "Push every box into a hole"
	if s.Won {
		status = "You won!"
	}
	_, boardH := g.boardSize()
	ebitenutil.DebugPrintAt(screen, status, 8, boardH+4)
	ebitenutil.DebugPrintAt(screen, "WASD/Arrows: Move | Q: Quit", 8, boardH+20)
}

// fillCell paints a square inset by inset pixels on every side.
func (g *Game) fillCell(screen *ebiten.Image, p game.Position, c color.Color, inset int) {
	x, y := CellOrigin(p, g.state.Height, g.cellSize)
	size := float64(g.cellSize - 2*inset)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x+float64(inset), y+float64(inset))
	op.ColorScale.ScaleWithColor(c)
	screen.DrawImage(g.pixel, op)
}

// CellOrigin returns the top-left screen pixel of a grid cell. Screen Y
// grows downwards while grid Y grows upwards.
func CellOrigin(p game.Position, height, cellSize int) (float64, float64) {
	return float64(p.X * cellSize), float64((height - 1 - p.Y) * cellSize)
}

func (g *Game) boardSize() (int, int) {
	return g.state.Width * g.cellSize, g.state.Height * g.cellSize
}

// Layout returns the logical screen size: the board plus the status strip.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.boardSize()
	return w, h + hudHeight
}
