package game

// stagePushes marks the box standing on the player's candidate destination
// with the player's direction. Only the adjacent box is staged; a box behind
// it stays put and acts as an obstacle.
func (e *Engine) stagePushes() {
	p := e.registry.player
	if p.direction == DirNone {
		return
	}
	dest := Destination(p.direction, e.registry.entities[p.id].Pos)
	for i := range e.registry.entities {
		b := &e.registry.entities[i]
		if b.Kind == KindBox && b.Pos == dest {
			b.PushDir = p.direction
		}
	}
}

// checkPushes cancels every staged push whose target cell holds a wall,
// another box, or lies off the grid.
func (e *Engine) checkPushes() {
	for i := range e.registry.entities {
		b := &e.registry.entities[i]
		if b.Kind != KindBox || b.PushDir == DirNone {
			continue
		}
		if e.registry.blocked(Destination(b.PushDir, b.Pos)) {
			b.PushDir = DirNone
		}
	}
}

// moveBoxes commits validated pushes and clears every staged direction.
// It returns the number of boxes moved.
func (e *Engine) moveBoxes() int {
	moved := 0
	for i := range e.registry.entities {
		b := &e.registry.entities[i]
		if b.Kind != KindBox || b.PushDir == DirNone {
			continue
		}
		e.registry.relocate(b.ID, Destination(b.PushDir, b.Pos))
		b.PushDir = DirNone
		moved++
	}
	return moved
}
