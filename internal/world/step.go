package world

import "github.com/lachiemurray/PhotonAi/internal/geom"

// Op tags a delta as a create, update or destroy.
type Op uint8

const (
	OpCreate Op = iota
	OpUpdate
	OpDestroy
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDestroy:
		return "destroy"
	}
	return "op(?)"
}

// Space is the world-level configuration, carried on the first setup
// step of every game.
type Space struct {
	Dimensions geom.Vec `json:"dimensions" msgpack:"dimensions"`
	Gravity    float64  `json:"gravity" msgpack:"gravity"`
	Lifetime   float64  `json:"lifetime" msgpack:"lifetime"`
}

// BodyState is the per-tick mutable part of a body.
type BodyState struct {
	Position    geom.Vec `json:"position" msgpack:"position"`
	Velocity    geom.Vec `json:"velocity" msgpack:"velocity"`
	Orientation float64  `json:"orientation" msgpack:"orientation"`
}

// WeaponState is the per-tick mutable part of a weapon.
type WeaponState struct {
	Reload      float64 `json:"reload" msgpack:"reload"`
	Temperature float64 `json:"temperature" msgpack:"temperature"`
}

// CreateData is the payload of a create delta: everything needed to
// build the body from scratch.
type CreateData struct {
	Kind   Kind        `json:"kind" msgpack:"kind"`
	Mass   float64     `json:"mass" msgpack:"mass"`
	Radius float64     `json:"radius" msgpack:"radius"`
	State  BodyState   `json:"state" msgpack:"state"`
	Ship   *ShipData   `json:"ship,omitempty" msgpack:"ship,omitempty"`
	Pellet *PelletData `json:"pellet,omitempty" msgpack:"pellet,omitempty"`
}

// UpdateData is the payload of an update delta. Control and Weapon are
// set for ships, TimeToLive for pellets; a planet update carries only
// the (unchanged) body state.
type UpdateData struct {
	State      BodyState    `json:"state" msgpack:"state"`
	Control    *Control     `json:"control,omitempty" msgpack:"control,omitempty"`
	Weapon     *WeaponState `json:"weapon,omitempty" msgpack:"weapon,omitempty"`
	TimeToLive *float64     `json:"time_to_live,omitempty" msgpack:"time_to_live,omitempty"`
}

// Delta records how one body changed in one tick. Exactly one payload
// field matches Op; destroy deltas have no payload.
type Delta struct {
	ID     ObjectID    `json:"id" msgpack:"id"`
	Op     Op          `json:"op" msgpack:"op"`
	Create *CreateData `json:"create,omitempty" msgpack:"create,omitempty"`
	Update *UpdateData `json:"update,omitempty" msgpack:"update,omitempty"`
}

// Step is one tick of the game log: the authoritative, immutable record
// of everything that changed. Space is set only on the first setup step.
type Step struct {
	Clock    int     `json:"clock" msgpack:"clock"`
	Duration float64 `json:"duration" msgpack:"duration"`
	Space    *Space  `json:"space,omitempty" msgpack:"space,omitempty"`
	Deltas   []Delta `json:"deltas" msgpack:"deltas"`
}
