package game

// Evaluate reports whether every hole is covered by a box. A level without
// holes is trivially solved.
func Evaluate(r *Registry) bool {
	for _, hole := range r.Holes() {
		if _, covered := r.BoxAt(hole.Pos); !covered {
			return false
		}
	}
	return true
}

// Covered returns how many holes in the snapshot hold a box.
func (s State) Covered() int {
	boxes := make(map[Position]bool, len(s.Boxes))
	for _, b := range s.Boxes {
		boxes[b] = true
	}
	n := 0
	for _, h := range s.Holes {
		if boxes[h] {
			n++
		}
	}
	return n
}
