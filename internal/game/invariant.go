package game

import (
	"errors"
	"fmt"
)

// CheckInvariants verifies a settled registry. Every violation is reported;
// any error here is a logic bug in the resolvers.
func CheckInvariants(r *Registry) error {
	var errs []error

	players := 0
	occupied := make(map[Position]Entity)
	for _, e := range r.entities {
		if e.Kind == KindPlayer {
			players++
		}
		if e.Kind == KindBox && e.PushDir != DirNone {
			errs = append(errs, fmt.Errorf("box %d at %s keeps staged push %s", e.ID, e.Pos, e.PushDir))
		}
		if (e.Kind == KindPlayer || e.Kind == KindBox) && !r.InBounds(e.Pos) {
			errs = append(errs, fmt.Errorf("%s %d out of bounds at %s", e.Kind, e.ID, e.Pos))
		}
		if !e.Kind.blocks() {
			continue
		}
		if other, ok := occupied[e.Pos]; ok {
			errs = append(errs, fmt.Errorf("%s %d and %s %d share %s", other.Kind, other.ID, e.Kind, e.ID, e.Pos))
			continue
		}
		occupied[e.Pos] = e
		if id, ok := r.blockers[e.Pos]; !ok || id != e.ID {
			errs = append(errs, fmt.Errorf("index out of sync for %s %d at %s", e.Kind, e.ID, e.Pos))
		}
	}
	if players != 1 {
		errs = append(errs, fmt.Errorf("expected exactly one player, found %d", players))
	}
	if len(r.blockers) != len(occupied) {
		errs = append(errs, fmt.Errorf("index holds %d cells, entities occupy %d", len(r.blockers), len(occupied)))
	}

	for _, h := range r.Holes() {
		if w, ok := occupied[h.Pos]; ok && w.Kind == KindWall {
			errs = append(errs, fmt.Errorf("hole %d shares %s with wall %d", h.ID, h.Pos, w.ID))
		}
	}

	if r.player != nil && r.player.direction != DirNone {
		errs = append(errs, fmt.Errorf("player keeps pending direction %s", r.player.direction))
	}

	return errors.Join(errs...)
}
