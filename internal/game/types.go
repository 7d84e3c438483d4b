package game

import (
	"fmt"
	"strings"
)

// Direction represents a movement direction. The zero value is DirNone.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirUp
	DirRight
	DirDown
)

// Directions lists the four movable directions in the reference key
// evaluation order.
var Directions = []Direction{DirLeft, DirRight, DirDown, DirUp}

var directionNames = map[Direction]string{
	DirNone:  "none",
	DirLeft:  "left",
	DirUp:    "up",
	DirRight: "right",
	DirDown:  "down",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts a direction name ("left", "up", ...) into a Direction.
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range directionNames {
		if n == name {
			return d, nil
		}
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

// MarshalText encodes the direction by name so snapshots read well as JSON.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Kind tags what an entity on the grid is.
type Kind int

const (
	KindPlayer Kind = iota
	KindBox
	KindWall
	KindHole
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBox:
		return "box"
	case KindWall:
		return "wall"
	case KindHole:
		return "hole"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// blocks reports whether entities of this kind occupy a cell exclusively.
func (k Kind) blocks() bool {
	return k != KindHole
}

// Position represents a coordinate on the board. Y grows upwards.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// EntityID identifies an entity for the lifetime of a level.
type EntityID int

// Entity is one occupant of the grid.
type Entity struct {
	ID      EntityID  `json:"id"`
	Kind    Kind      `json:"kind"`
	Pos     Position  `json:"pos"`
	PushDir Direction `json:"push_dir,omitempty"` // Staged push, boxes only
}

// Outcome is the observable result of one tick.
type Outcome int

const (
	OutcomeIdle    Outcome = iota // No pending intent
	OutcomeMoved                  // Player stepped onto a free cell
	OutcomePushed                 // Player stepped and pushed a box
	OutcomeBlocked                // Intent rejected by a wall, box or the grid edge
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeMoved:
		return "moved"
	case OutcomePushed:
		return "pushed"
	case OutcomeBlocked:
		return "blocked"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{OutcomeIdle, OutcomeMoved, OutcomePushed, OutcomeBlocked} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

// State is a settled, read-only copy of the grid handed to renderers.
type State struct {
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Player  Position   `json:"player"`
	Boxes   []Position `json:"boxes"`
	Walls   []Position `json:"walls"`
	Holes   []Position `json:"holes"`
	Won     bool       `json:"won"`
	Outcome Outcome    `json:"outcome"`
	Tick    uint64     `json:"tick"`
}

// GameConfig holds the tunables of an engine.
type GameConfig struct {
	TickRate int         `json:"tick_rate"` // Ticks per second
	Priority []Direction `json:"priority"`  // Key evaluation order, last pressed wins
}

// DefaultConfig returns the reference engine configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		TickRate: 20,
		Priority: append([]Direction(nil), Directions...),
	}
}
