package world

import (
	"fmt"

	"github.com/lachiemurray/PhotonAi/internal/geom"
)

// ObjectID identifies a body within a single game. IDs are allocated
// monotonically and never reused.
type ObjectID uint64

// IDGen hands out object identifiers. Not safe for concurrent use; the
// driver loop is the only allocator.
type IDGen struct {
	next ObjectID
}

func (g *IDGen) Next() ObjectID {
	id := g.next
	g.next++
	return id
}

// Kind discriminates the body variants.
type Kind uint8

const (
	KindShip Kind = iota
	KindPellet
	KindPlanet
)

func (k Kind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindPellet:
		return "pellet"
	case KindPlanet:
		return "planet"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Control is the command a bot issues for its ship each tick. The zero
// value is the default command (no thrust, no rotation, not firing).
type Control struct {
	Fire   bool    `json:"fire" msgpack:"fire"`
	Rotate float64 `json:"rotate" msgpack:"rotate"`
	Thrust float64 `json:"thrust" msgpack:"thrust"`
}

// Weapon holds a ship's weapon state and configuration. Reload and
// Temperature change every tick; the remaining fields are fixed at
// creation.
type Weapon struct {
	Reload           float64 `json:"reload" msgpack:"reload"`
	Temperature      float64 `json:"temperature" msgpack:"temperature"`
	MaxReload        float64 `json:"max_reload" msgpack:"max_reload"`
	MaxTemperature   float64 `json:"max_temperature" msgpack:"max_temperature"`
	TemperatureDecay float64 `json:"temperature_decay" msgpack:"temperature_decay"`
	Speed            float64 `json:"speed" msgpack:"speed"`
	TimeToLive       float64 `json:"time_to_live" msgpack:"time_to_live"`
}

// ShipData carries the ship-only attributes of a body.
type ShipData struct {
	MaxThrust float64 `json:"max_thrust" msgpack:"max_thrust"`
	MaxRotate float64 `json:"max_rotate" msgpack:"max_rotate"`
	Weapon    Weapon  `json:"weapon" msgpack:"weapon"`
	Control   Control `json:"control" msgpack:"control"`
}

// PelletData carries the pellet-only attributes of a body.
type PelletData struct {
	TimeToLive float64 `json:"time_to_live" msgpack:"time_to_live"`
}

// Body is one simulated object. Exactly one of Ship/Pellet is non-nil,
// matching Kind; planets carry neither.
type Body struct {
	ID          ObjectID
	Kind        Kind
	Mass        float64
	Radius      float64
	Position    geom.Vec
	Velocity    geom.Vec
	Orientation float64

	Ship   *ShipData
	Pellet *PelletData
}
