package game

import (
	"errors"
	"fmt"
	"strings"
)

// Level cell characters.
const (
	CharWall         = '#'
	CharPlayer       = '@'
	CharPlayerOnHole = '+'
	CharBox          = '$'
	CharBoxOnHole    = '*'
	CharHole         = '.'
	CharFloor        = ' '
)

var ErrInvalidLevel = errors.New("invalid level")

// referenceLevel is the 8x8 puzzle: border walls, player at (3,3), boxes at
// (3,4) and (3,5), hole at (3,6). The first line is the top row (y=7).
const referenceLevel = `
########
#  .   #
#  $   #
#  $   #
#  @   #
#      #
#      #
########
`

// Level is an immutable, validated level layout. Every engine built from it
// gets its own copy of the entities.
type Level struct {
	registry *Registry
}

// DefaultLevel returns the reference puzzle.
func DefaultLevel() *Level {
	l, err := ParseLevel(referenceLevel)
	if err != nil {
		panic(fmt.Sprintf("reference level: %v", err))
	}
	return l
}

// ParseLevel builds a level from the textual grid format.
//
// Layout rules:
//   - The first line is the top row (highest Y), the last line is Y=0
//   - '#' wall, '@' player, '+' player on hole, '$' box, '*' box on hole,
//     '.' hole, ' ', '-' or '_' floor
//   - One blank line at the start and end is ignored, short rows are padded
//     with floor
//   - Exactly one player is required
func ParseLevel(text string) (*Level, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLevel)
	}

	rows := strings.Split(text, "\n")
	height := len(rows)
	width := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}

	r := NewRegistry(width, height)
	for i, row := range rows {
		y := height - 1 - i
		for x, ch := range []rune(row) {
			pos := Position{X: x, Y: y}
			kinds, err := kindsFor(ch)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, col %d: %v", ErrInvalidLevel, i+1, x+1, err)
			}
			for _, k := range kinds {
				if _, err := r.Add(k, pos); err != nil {
					return nil, fmt.Errorf("%w: row %d, col %d: %w", ErrInvalidLevel, i+1, x+1, err)
				}
			}
		}
	}

	if _, ok := r.Player(); !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, ErrNoPlayer)
	}
	return &Level{registry: r}, nil
}

// kindsFor maps a layout character to the entities it places.
func kindsFor(ch rune) ([]Kind, error) {
	switch ch {
	case CharWall:
		return []Kind{KindWall}, nil
	case CharPlayer:
		return []Kind{KindPlayer}, nil
	case CharPlayerOnHole:
		return []Kind{KindHole, KindPlayer}, nil
	case CharBox:
		return []Kind{KindBox}, nil
	case CharBoxOnHole:
		return []Kind{KindHole, KindBox}, nil
	case CharHole:
		return []Kind{KindHole}, nil
	case CharFloor, '-', '_':
		return nil, nil
	}
	return nil, fmt.Errorf("unknown character %q", ch)
}

// Width returns the level width in cells.
func (l *Level) Width() int { return l.registry.Width() }

// Height returns the level height in cells.
func (l *Level) Height() int { return l.registry.Height() }

// Registry returns a fresh copy of the level's entities.
func (l *Level) Registry() *Registry {
	return l.registry.Clone()
}

// String renders the level in the textual grid format.
func (l *Level) String() string {
	return snapshot(l.registry, false, OutcomeIdle, 0).String()
}

// String renders the state in the textual grid format, top row first.
func (s State) String() string {
	cells := make(map[Position]rune)
	for _, p := range s.Walls {
		cells[p] = CharWall
	}
	for _, p := range s.Holes {
		cells[p] = CharHole
	}
	for _, p := range s.Boxes {
		if cells[p] == CharHole {
			cells[p] = CharBoxOnHole
		} else {
			cells[p] = CharBox
		}
	}
	if cells[s.Player] == CharHole {
		cells[s.Player] = CharPlayerOnHole
	} else {
		cells[s.Player] = CharPlayer
	}

	var b strings.Builder
	for y := s.Height - 1; y >= 0; y-- {
		for x := 0; x < s.Width; x++ {
			if ch, ok := cells[Position{X: x, Y: y}]; ok {
				b.WriteRune(ch)
			} else {
				b.WriteRune(CharFloor)
			}
		}
		if y > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
