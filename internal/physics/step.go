// Package physics computes per-tick state transitions: gravity,
// thrust, collision, weapon handling and pellet lifetime, expressed as
// deltas against an immutable world snapshot.
package physics

import (
	"sort"

	"github.com/lachiemurray/PhotonAi/internal/geom"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

// Stepper computes one tick of deltas from a world snapshot. It never
// mutates the world; applying the deltas is the caller's job.
type Stepper struct {
	dt  float64
	ids *world.IDGen
}

func NewStepper(dt float64, ids *world.IDGen) *Stepper {
	return &Stepper{dt: dt, ids: ids}
}

func (s *Stepper) Dt() float64 { return s.dt }

// outcome is the tagged result of per-body processing: either the body
// survived with an update (and possibly spawned a pellet), or it is
// destroyed this tick.
type outcome struct {
	destroyed bool
	update    *world.UpdateData
	spawn     *world.CreateData
}

// Step produces one delta per live body, plus a create delta for every
// pellet fired this tick. Bodies are processed in ID order so the log
// is deterministic, though per-body deltas are independent.
func (s *Stepper) Step(w *world.World, controls map[world.ObjectID]world.Control) []world.Delta {
	ids := make([]world.ObjectID, 0, len(w.Objects))
	for id := range w.Objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	deltas := make([]world.Delta, 0, len(ids))
	for _, id := range ids {
		body := w.Objects[id]
		ctrl, hasCtrl := controls[id]

		out := s.updateBody(body, w, ctrl, hasCtrl)
		if out.destroyed {
			deltas = append(deltas, world.Delta{ID: id, Op: world.OpDestroy})
			continue
		}
		deltas = append(deltas, world.Delta{ID: id, Op: world.OpUpdate, Update: out.update})
		if out.spawn != nil {
			deltas = append(deltas, world.Delta{
				ID:     s.ids.Next(),
				Op:     world.OpCreate,
				Create: out.spawn,
			})
		}
	}
	return deltas
}

func (s *Stepper) updateBody(b *world.Body, w *world.World, ctrl world.Control, hasCtrl bool) outcome {
	switch b.Kind {
	case world.KindPlanet:
		// Planets are pure gravity sources: emit their unchanged state
		// every tick so the log stays uniform.
		return outcome{update: &world.UpdateData{State: world.BodyState{
			Position:    b.Position,
			Velocity:    b.Velocity,
			Orientation: b.Orientation,
		}}}
	case world.KindShip:
		return s.updateShip(b, w, ctrl, hasCtrl)
	case world.KindPellet:
		return s.updatePellet(b, w)
	}
	// Unknown kinds are rejected at apply time; nothing reaches here.
	return outcome{destroyed: true}
}

func (s *Stepper) updateShip(b *world.Body, w *world.World, ctrl world.Control, hasCtrl bool) outcome {
	if collides(b, w) {
		return outcome{destroyed: true}
	}
	state := s.moveBody(b, w, ctrl, hasCtrl)

	var fire bool
	if hasCtrl {
		fire = ctrl.Fire
	}
	weapon, fired := updateWeapon(&b.Ship.Weapon, fire, s.dt)

	out := outcome{update: &world.UpdateData{
		State:   state,
		Control: &ctrl,
		Weapon:  &weapon,
	}}
	if fired {
		out.spawn = firePellet(b, state)
	}
	return out
}

func (s *Stepper) updatePellet(b *world.Body, w *world.World) outcome {
	if collides(b, w) {
		return outcome{destroyed: true}
	}
	state := s.moveBody(b, w, world.Control{}, false)
	if !state.Position.In(w.Space.Dimensions) {
		// Stray projectiles are culled at the boundary rather than
		// simulated forever off-screen.
		return outcome{destroyed: true}
	}
	ttl := b.Pellet.TimeToLive - s.dt
	if ttl <= 0 {
		return outcome{destroyed: true}
	}
	return outcome{update: &world.UpdateData{State: state, TimeToLive: &ttl}}
}

// collides reports whether b overlaps any other live body. Planets are
// never tested as the subject but do act as obstacles.
func collides(b *world.Body, w *world.World) bool {
	for _, other := range w.Objects {
		if other == b {
			continue
		}
		dSq := other.Position.Sub(b.Position).LenSq()
		r := b.Radius + other.Radius
		if dSq < r*r {
			return true
		}
	}
	return false
}

// moveBody integrates one tick of motion: thrust plus pairwise gravity,
// explicit Euler on velocity, averaged velocity on position, and the
// per-kind boundary policy for ships (pellets handle theirs after the
// move, see updatePellet).
func (s *Stepper) moveBody(b *world.Body, w *world.World, ctrl world.Control, hasCtrl bool) world.BodyState {
	var accel geom.Vec

	if hasCtrl {
		thrust := b.Ship.MaxThrust * geom.Clamp(ctrl.Thrust, 0, 1)
		accel = accel.Add(geom.FromAngle(b.Orientation).Scale(thrust))
	}

	// Massless bodies experience no gravity. There is no minimum
	// separation guard: coincident massive bodies are undefined.
	if b.Mass != 0 {
		for _, other := range w.Objects {
			if other == b {
				continue
			}
			rel := other.Position.Sub(b.Position)
			dSq := rel.LenSq()
			accel = accel.Add(rel.Scale(w.Space.Gravity * other.Mass / (dSq * rel.Len())))
		}
	}

	velocity := b.Velocity.Add(accel.Scale(s.dt))
	position := b.Position.
		Add(b.Velocity.Scale(s.dt / 2)).
		Add(velocity.Scale(s.dt / 2))

	if b.Kind == world.KindShip {
		position = position.Mod(w.Space.Dimensions)
	}

	orientation := b.Orientation
	if hasCtrl {
		rotate := b.Ship.MaxRotate * geom.Clamp(ctrl.Rotate, -1, 1)
		orientation = geom.WrapAngle(orientation + s.dt*rotate)
	}

	return world.BodyState{Position: position, Velocity: velocity, Orientation: orientation}
}
