package game

// Destination returns the cell one step from pos in dir. Up is y+1.
func Destination(dir Direction, pos Position) Position {
	switch dir {
	case DirLeft:
		pos.X--
	case DirRight:
		pos.X++
	case DirUp:
		pos.Y++
	case DirDown:
		pos.Y--
	}
	return pos
}

// blocked reports whether a box or the player cannot enter pos: a wall or a
// box stands there, or pos is off the grid. Holes never block.
func (r *Registry) blocked(pos Position) bool {
	if !r.InBounds(pos) {
		return true
	}
	_, ok := r.BlockerAt(pos)
	return ok
}

// movePlayer commits the player's pending move if its destination is free
// after push resolution, then consumes the intent. It reports whether the
// player moved.
func (e *Engine) movePlayer() bool {
	p := e.registry.player
	dir := p.direction
	p.direction = DirNone
	if dir == DirNone {
		return false
	}

	pl := e.registry.entities[p.id]
	dest := Destination(dir, pl.Pos)
	if e.registry.blocked(dest) {
		return false
	}
	e.registry.relocate(p.id, dest)
	return true
}
