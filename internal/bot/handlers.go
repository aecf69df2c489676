package bot

import (
	"fmt"
	"sort"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

// Built-in handlers, usable directly or served over the wire with the
// `photonai bot` command so a scenario can spawn this binary as a
// subprocess opponent.

// Idle never does anything; useful as a target.
type Idle struct{}

func (Idle) Act(w *world.World, ship *world.Body) world.Control {
	return world.Control{}
}

// Gunner sits still and fires as fast as the weapon allows.
type Gunner struct{}

func (Gunner) Act(w *world.World, ship *world.Body) world.Control {
	return world.Control{Fire: true}
}

// Orbiter thrusts gently while turning and firing, tracing a rough
// spiral around whatever gravity well it falls into.
type Orbiter struct {
	Turn float64
}

func (o Orbiter) Act(w *world.World, ship *world.Body) world.Control {
	turn := o.Turn
	if turn == 0 {
		turn = 0.3
	}
	return world.Control{Fire: true, Rotate: turn, Thrust: 0.5}
}

var handlers = map[string]func() Handler{
	"idle":    func() Handler { return Idle{} },
	"gunner":  func() Handler { return Gunner{} },
	"orbiter": func() Handler { return Orbiter{} },
}

// NewHandler looks up a built-in handler by name.
func NewHandler(name string) (Handler, error) {
	mk, ok := handlers[name]
	if !ok {
		return nil, fmt.Errorf("bot: unknown handler %q (have %v)", name, HandlerNames())
	}
	return mk(), nil
}

func HandlerNames() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
