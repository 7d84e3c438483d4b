// Package agent exposes the puzzle as MCP tools so a language model can
// play it over stdio.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/input"
)

// Agent drives an engine by hand, one tool call at a time. No ticker runs:
// every move steps the simulation exactly as far as it needs to.
type Agent struct {
	level  *game.Level
	config game.GameConfig
	log    *zap.Logger

	mu     sync.Mutex
	engine *game.Engine
	keys   *input.Buffer

	mcpServer *server.MCPServer
}

// New creates an agent playing level.
func New(level *game.Level, config game.GameConfig, log *zap.Logger) *Agent {
	a := &Agent{
		level:  level,
		config: config,
		log:    log.With(zap.String("component", "agent")),
	}
	a.reset()
	a.initMCPServer()
	return a
}

// MCPServer returns the underlying MCP server for serving.
func (a *Agent) MCPServer() *server.MCPServer {
	return a.mcpServer
}

// Serve runs the MCP server on stdin/stdout until the client disconnects.
func (a *Agent) Serve() error {
	return server.ServeStdio(a.mcpServer)
}

func (a *Agent) initMCPServer() {
	a.mcpServer = server.NewMCPServer(
		"Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban - MCP Interface

GOAL:
Push every box ($) onto a hole (.). A box on a hole shows as *. You are @
(+ when standing on a hole). Walls are #.

RULES:
- You move one cell per move: up, down, left or right. Up is toward the top
  line of the board.
- Walking into a box pushes it one cell, but only if the cell behind it is
  free floor or a hole. You cannot push two boxes at once.
- Walls, boxes and the grid edge block you.

AVAILABLE TOOLS:
- board: Show the current board
- move: Move once in a direction
- bulk_move: Several moves in order
- reset: Restore the starting layout`),
	)

	a.mcpServer.AddTool(mcp.Tool{
		Name:        "board",
		Description: "Show the current board and whether the puzzle is solved",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, a.handleBoard)

	a.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one cell, pushing a box if one is in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Direction to move",
					"enum":        []string{"up", "down", "left", "right"},
				},
			},
			Required: []string{"direction"},
		},
	}, a.handleMove)

	a.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Make several moves in order, stopping at the first move that is blocked",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"moves": map[string]interface{}{
					"type":        "array",
					"description": "Directions to move, in order",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
				},
			},
			Required: []string{"moves"},
		},
	}, a.handleBulkMove)

	a.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Restore the starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, a.handleReset)
}

// Move taps dir and steps the engine until the movement gate re-arms: the
// first tick moves, the second sees the release. It returns the state after
// the moving tick and the settled state after both.
func (a *Agent) Move(dir game.Direction) (game.State, game.State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.keys.Tap(dir)
	moved := a.engine.Tick(a.keys.Sample())
	settled := a.engine.Tick(a.keys.Sample())
	a.log.Debug("move",
		zap.Stringer("direction", dir),
		zap.Stringer("outcome", moved.Outcome),
		zap.Stringer("player", settled.Player))
	return moved, settled
}

// Snapshot returns the current state.
func (a *Agent) Snapshot() game.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Snapshot()
}

func (a *Agent) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine = game.NewEngine(a.level, a.config)
	a.engine.SetLogger(a.log)
	a.keys = input.NewBuffer()
}

func (a *Agent) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatBoard(a.Snapshot())), nil
}

func (a *Agent) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	name, _ := args["direction"].(string)

	dir, err := parseMove(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	moved, settled := a.Move(dir)
	return mcp.NewToolResultText(formatMove(dir, moved.Outcome) + "\n\n" + formatBoard(settled)), nil
}

func (a *Agent) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	movesRaw, _ := args["moves"].([]interface{})
	if len(movesRaw) == 0 {
		return mcp.NewToolResultError("moves must list at least one direction"), nil
	}

	dirs := make([]game.Direction, 0, len(movesRaw))
	for i, m := range movesRaw {
		name, _ := m.(string)
		dir, err := parseMove(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("move %d: %v", i+1, err)), nil
		}
		dirs = append(dirs, dir)
	}

	var lines []string
	var settled game.State
	for i, dir := range dirs {
		var moved game.State
		moved, settled = a.Move(dir)
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, formatMove(dir, moved.Outcome)))
		if moved.Outcome == game.OutcomeBlocked {
			lines = append(lines, fmt.Sprintf("Stopped after move %d of %d.", i+1, len(dirs)))
			break
		}
		if settled.Won {
			break
		}
	}

	return mcp.NewToolResultText(strings.Join(lines, "\n") + "\n\n" + formatBoard(settled)), nil
}

func (a *Agent) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a.reset()
	a.log.Info("puzzle reset")
	return mcp.NewToolResultText("Puzzle reset.\n\n" + formatBoard(a.Snapshot())), nil
}

func parseMove(name string) (game.Direction, error) {
	dir, err := game.ParseDirection(name)
	if err != nil || dir == game.DirNone {
		return game.DirNone, fmt.Errorf("invalid direction %q: use up, down, left or right", name)
	}
	return dir, nil
}

func formatMove(dir game.Direction, outcome game.Outcome) string {
	switch outcome {
	case game.OutcomeMoved:
		return fmt.Sprintf("Moved %s.", dir)
	case game.OutcomePushed:
		return fmt.Sprintf("Moved %s and pushed a box.", dir)
	default:
		return fmt.Sprintf("Could not move %s: blocked.", dir)
	}
}

func formatBoard(s game.State) string {
	var b strings.Builder
	b.WriteString(s.String())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Player: %s\n", s.Player)
	fmt.Fprintf(&b, "Holes covered: %d/%d\n", s.Covered(), len(s.Holes))
	if s.Won {
		b.WriteString("🏆 Solved!")
	} else {
		b.WriteString("Not solved yet.")
	}
	return b.String()
}
