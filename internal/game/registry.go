package game

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds     = errors.New("position out of bounds")
	ErrOccupied        = errors.New("cell already occupied")
	ErrDuplicatePlayer = errors.New("level already has a player")
	ErrHoleOnWall      = errors.New("hole and wall cannot share a cell")
	ErrNoPlayer        = errors.New("level has no player")
)

// player holds the singleton player's mutable intent next to its entity.
type player struct {
	id                  EntityID
	direction           Direction
	hasFinishedMovement bool
}

// Registry is the flat store of every grid occupant.
//
// Blockers (player, boxes, walls) and holes are indexed by position so
// occupancy queries are a single map lookup. Entities are kept in insertion
// order so every listing is deterministic.
type Registry struct {
	width, height int
	entities      []Entity
	blockers      map[Position]EntityID
	holes         map[Position]EntityID
	player        *player
}

// NewRegistry creates an empty registry for a width x height grid.
func NewRegistry(width, height int) *Registry {
	return &Registry{
		width:    width,
		height:   height,
		blockers: make(map[Position]EntityID),
		holes:    make(map[Position]EntityID),
	}
}

// Width returns the grid width.
func (r *Registry) Width() int { return r.width }

// Height returns the grid height.
func (r *Registry) Height() int { return r.height }

// Add places a new entity during level setup.
func (r *Registry) Add(kind Kind, pos Position) (EntityID, error) {
	if !r.InBounds(pos) {
		return 0, fmt.Errorf("add %s at %s: %w", kind, pos, ErrOutOfBounds)
	}
	if kind == KindPlayer && r.player != nil {
		return 0, fmt.Errorf("add player at %s: %w", pos, ErrDuplicatePlayer)
	}
	if kind.blocks() {
		if _, taken := r.blockers[pos]; taken {
			return 0, fmt.Errorf("add %s at %s: %w", kind, pos, ErrOccupied)
		}
	}
	if kind == KindHole {
		if _, taken := r.holes[pos]; taken {
			return 0, fmt.Errorf("add hole at %s: %w", pos, ErrOccupied)
		}
		if _, ok := r.WallAt(pos); ok {
			return 0, fmt.Errorf("add hole at %s: %w", pos, ErrHoleOnWall)
		}
	}
	if kind == KindWall {
		if _, ok := r.holes[pos]; ok {
			return 0, fmt.Errorf("add wall at %s: %w", pos, ErrHoleOnWall)
		}
	}

	id := EntityID(len(r.entities))
	r.entities = append(r.entities, Entity{ID: id, Kind: kind, Pos: pos})

	switch kind {
	case KindHole:
		r.holes[pos] = id
	case KindPlayer:
		r.blockers[pos] = id
		r.player = &player{id: id, hasFinishedMovement: true}
	default:
		r.blockers[pos] = id
	}
	return id, nil
}

// InBounds reports whether pos lies on the grid.
func (r *Registry) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < r.width && pos.Y >= 0 && pos.Y < r.height
}


// At returns the blocker (player, box or wall) occupying pos.
func (r *Registry) At(pos Position) (Entity, bool) {
	id, ok := r.blockers[pos]
	if !ok {
		return Entity{}, false
	}
	return r.entities[id], true
}

// BlockerAt returns the wall or box occupying pos. The player is never
// reported, it does not block itself.
func (r *Registry) BlockerAt(pos Position) (Entity, bool) {
	e, ok := r.At(pos)
	if !ok || e.Kind == KindPlayer {
		return Entity{}, false
	}
	return e, true
}

// BoxAt returns the box occupying pos.
func (r *Registry) BoxAt(pos Position) (Entity, bool) {
	return r.kindAt(pos, KindBox)
}

// WallAt returns the wall occupying pos.
func (r *Registry) WallAt(pos Position) (Entity, bool) {
	return r.kindAt(pos, KindWall)
}

// HoleAt returns the hole at pos.
func (r *Registry) HoleAt(pos Position) (Entity, bool) {
	id, ok := r.holes[pos]
	if !ok {
		return Entity{}, false
	}
	return r.entities[id], true
}

func (r *Registry) kindAt(pos Position, kind Kind) (Entity, bool) {
	e, ok := r.At(pos)
	if !ok || e.Kind != kind {
		return Entity{}, false
	}
	return e, true
}

// Player returns the player entity. ok is false for an empty registry.
func (r *Registry) Player() (e Entity, ok bool) {
	if r.player == nil {
		return Entity{}, false
	}
	return r.entities[r.player.id], true
}

// PlayerDirection returns the player's pending intent.
func (r *Registry) PlayerDirection() Direction {
	if r.player == nil {
		return DirNone
	}
	return r.player.direction
}

// HasFinishedMovement reports whether the movement gate is open.
func (r *Registry) HasFinishedMovement() bool {
	return r.player != nil && r.player.hasFinishedMovement
}

// Boxes returns every box in insertion order.
func (r *Registry) Boxes() []Entity { return r.ofKind(KindBox) }

// Walls returns every wall in insertion order.
func (r *Registry) Walls() []Entity { return r.ofKind(KindWall) }

// Holes returns every hole in insertion order.
func (r *Registry) Holes() []Entity { return r.ofKind(KindHole) }

func (r *Registry) ofKind(kind Kind) []Entity {
	out := make([]Entity, 0)
	for _, e := range r.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// positions returns the positions of every entity of a kind.
func (r *Registry) positions(kind Kind) []Position {
	out := make([]Position, 0)
	for _, e := range r.entities {
		if e.Kind == kind {
			out = append(out, e.Pos)
		}
	}
	return out
}

// relocate moves a blocker and keeps the coordinate index in sync.
// Callers have already checked the destination is free.
func (r *Registry) relocate(id EntityID, to Position) {
	e := &r.entities[id]
	if r.blockers[e.Pos] == id {
		delete(r.blockers, e.Pos)
	}
	e.Pos = to
	r.blockers[to] = id
}

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		width:    r.width,
		height:   r.height,
		entities: append([]Entity(nil), r.entities...),
		blockers: make(map[Position]EntityID, len(r.blockers)),
		holes:    make(map[Position]EntityID, len(r.holes)),
	}
	for k, v := range r.blockers {
		c.blockers[k] = v
	}
	for k, v := range r.holes {
		c.holes[k] = v
	}
	if r.player != nil {
		p := *r.player
		c.player = &p
	}
	return c
}
