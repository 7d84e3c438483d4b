package game

// KeyState is the raw directional input sampled once per tick.
type KeyState interface {
	Pressed(dir Direction) bool
	JustReleased(dir Direction) bool
}

// NoKeys is a KeyState with nothing pressed.
var NoKeys KeyState = noKeys{}

type noKeys struct{}

func (noKeys) Pressed(Direction) bool      { return false }
func (noKeys) JustReleased(Direction) bool { return false }

// updateGate turns held keys into one pending move per press/release cycle.
//
// While the gate is open every pressed key in priority order overwrites the
// pending direction, so the last pressed key in the order wins. Once closed,
// the gate only re-opens when any directional key is released.
func (e *Engine) updateGate(keys KeyState) {
	p := e.registry.player
	if p.hasFinishedMovement {
		for _, dir := range e.Config.Priority {
			if keys.Pressed(dir) {
				p.direction = dir
				p.hasFinishedMovement = false
			}
		}
		return
	}

	for _, dir := range Directions {
		if keys.JustReleased(dir) {
			p.hasFinishedMovement = true
			return
		}
	}
}
