package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-sokoban/internal/game"
)

// Color palette
var (
	// Tile styles
	wallStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#4b1fb3")).
			Foreground(lipgloss.Color("#5c2ed1"))

	floorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#0a0a0a")).
			Foreground(lipgloss.Color("#0a0a0a"))

	holeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#0a0a0a")).
			Foreground(lipgloss.Color("#338080"))

	boxStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#0a0a0a")).
			Foreground(lipgloss.Color("#ff8080")).
			Bold(true)

	boxOnHoleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#338080")).
			Foreground(lipgloss.Color("#ff8080")).
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#0a0a0a")).
			Foreground(lipgloss.Color("#e6e6e6")).
			Bold(true)

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true).
			Blink(true)
)

// RenderBoard converts the state into a styled terminal string. The top
// screen row is the highest Y.
func RenderBoard(state *game.State) string {
	if state == nil || state.Width == 0 {
		return "Waiting for game state..."
	}

	walls := toSet(state.Walls)
	holes := toSet(state.Holes)
	boxes := toSet(state.Boxes)

	var rows []string
	for y := state.Height - 1; y >= 0; y-- {
		var cells []string
		for x := 0; x < state.Width; x++ {
			pos := game.Position{X: x, Y: y}
			cells = append(cells, renderCell(pos, state.Player, walls, holes, boxes))
		}
		rows = append(rows, strings.Join(cells, ""))
	}

	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell with the appropriate style.
// Each cell is 2 characters wide for a square-ish appearance.
func renderCell(pos, player game.Position, walls, holes, boxes map[game.Position]bool) string {
	// Priority: Player > Box > Wall > Hole > Floor
	switch {
	case pos == player:
		if holes[pos] {
			return playerStyle.Background(lipgloss.Color("#338080")).Render("@@")
		}
		return playerStyle.Render("@@")
	case boxes[pos] && holes[pos]:
		return boxOnHoleStyle.Render("[]")
	case boxes[pos]:
		return boxStyle.Render("[]")
	case walls[pos]:
		return wallStyle.Render("██")
	case holes[pos]:
		return holeStyle.Render("()")
	default:
		return floorStyle.Render("  ")
	}
}

// RenderHUD renders the heads-up display: puzzle status and controls.
func RenderHUD(state *game.State, title string) string {
	if state == nil {
		return ""
	}

	var parts []string

	heading := "📦 SOKOBAN"
	if title != "" {
		heading += " · " + title
	}
	parts = append(parts, titleStyle.Render(heading))
	parts = append(parts, "")

	parts = append(parts, fmt.Sprintf("Holes covered: %d/%d", state.Covered(), len(state.Holes)))
	parts = append(parts, mutedStyle.Render("Last move: "+outcomeLabel(state.Outcome)))
	parts = append(parts, "")

	if state.Won {
		parts = append(parts, winnerStyle.Render("🏆 You won!"))
	} else {
		parts = append(parts, mutedStyle.Render("Push every box into a hole."))
	}

	parts = append(parts, "")
	parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Render("WASD/Arrows: Move | Q: Quit"))

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func outcomeLabel(o game.Outcome) string {
	switch o {
	case game.OutcomeMoved:
		return "moved"
	case game.OutcomePushed:
		return "pushed a box"
	case game.OutcomeBlocked:
		return "did not move"
	}
	return "-"
}

func toSet(ps []game.Position) map[game.Position]bool {
	set := make(map[game.Position]bool, len(ps))
	for _, p := range ps {
		set[p] = true
	}
	return set
}
