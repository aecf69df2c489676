package world

import "fmt"

// World is the authoritative mutable game state. It is advanced only by
// Apply; the physics layer reads it as a snapshot and emits deltas.
//
// Clock starts at -1 so that the first applied step advances it to 0.
type World struct {
	Space   Space
	Clock   int
	Time    float64
	Objects map[ObjectID]*Body
}

func New() *World {
	return &World{
		Clock:   -1,
		Objects: make(map[ObjectID]*Body),
	}
}

// Apply advances the world by one step. It returns an error only for
// data faults (duplicate create, update/destroy of a missing body,
// malformed delta); these are fatal to the game.
func (w *World) Apply(step *Step) error {
	if step.Space != nil {
		w.Space = *step.Space
	}
	for i := range step.Deltas {
		if err := w.applyDelta(&step.Deltas[i]); err != nil {
			return fmt.Errorf("step %d: %w", step.Clock, err)
		}
	}
	w.Clock = step.Clock
	w.Time += step.Duration
	return nil
}

func (w *World) applyDelta(d *Delta) error {
	switch d.Op {
	case OpCreate:
		if d.Create == nil {
			return fmt.Errorf("create delta for object %d has no payload", d.ID)
		}
		if _, ok := w.Objects[d.ID]; ok {
			return fmt.Errorf("create delta reuses object id %d", d.ID)
		}
		body, err := newBody(d.ID, d.Create)
		if err != nil {
			return err
		}
		w.Objects[d.ID] = body

	case OpUpdate:
		body, ok := w.Objects[d.ID]
		if !ok {
			return fmt.Errorf("update delta for unknown object %d", d.ID)
		}
		if d.Update == nil {
			return fmt.Errorf("update delta for object %d has no payload", d.ID)
		}
		applyUpdate(body, d.Update)

	case OpDestroy:
		if _, ok := w.Objects[d.ID]; !ok {
			return fmt.Errorf("destroy delta for unknown object %d", d.ID)
		}
		delete(w.Objects, d.ID)

	default:
		return fmt.Errorf("object %d: unknown delta op %d", d.ID, d.Op)
	}
	return nil
}

func newBody(id ObjectID, c *CreateData) (*Body, error) {
	b := &Body{
		ID:          id,
		Kind:        c.Kind,
		Mass:        c.Mass,
		Radius:      c.Radius,
		Position:    c.State.Position,
		Velocity:    c.State.Velocity,
		Orientation: c.State.Orientation,
	}
	switch c.Kind {
	case KindShip:
		if c.Ship == nil {
			return nil, fmt.Errorf("ship create for object %d has no ship payload", id)
		}
		ship := *c.Ship
		b.Ship = &ship
	case KindPellet:
		if c.Pellet == nil {
			return nil, fmt.Errorf("pellet create for object %d has no pellet payload", id)
		}
		pellet := *c.Pellet
		b.Pellet = &pellet
	case KindPlanet:
		// nothing beyond the base body
	default:
		return nil, fmt.Errorf("object %d has unknown kind %d", id, c.Kind)
	}
	return b, nil
}

func applyUpdate(b *Body, u *UpdateData) {
	b.Position = u.State.Position
	b.Velocity = u.State.Velocity
	b.Orientation = u.State.Orientation
	if b.Ship != nil {
		if u.Control != nil {
			b.Ship.Control = *u.Control
		}
		if u.Weapon != nil {
			b.Ship.Weapon.Reload = u.Weapon.Reload
			b.Ship.Weapon.Temperature = u.Weapon.Temperature
		}
	}
	if b.Pellet != nil && u.TimeToLive != nil {
		b.Pellet.TimeToLive = *u.TimeToLive
	}
}
