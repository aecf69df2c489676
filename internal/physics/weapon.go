package physics

import (
	"math"

	"github.com/lachiemurray/PhotonAi/internal/geom"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

// updateWeapon advances reload and temperature by one tick and reports
// whether a requested shot actually fired.
//
// The decay ratio is chosen so that a weapon held at max_temperature by
// a steady fire rate spends temperature_decay seconds above the limit:
// ratio = (maxT/(maxT+1)) ^ (dt/temperature_decay).
func updateWeapon(w *world.Weapon, fire bool, dt float64) (world.WeaponState, bool) {
	reload := math.Max(0, w.Reload-dt)

	mr := w.MaxTemperature / (w.MaxTemperature + 1)
	temperature := w.Temperature * math.Pow(mr, dt/w.TemperatureDecay)

	fired := fire && reload == 0 && temperature < w.MaxTemperature
	if fired {
		reload = w.MaxReload
		temperature++
	}
	return world.WeaponState{Reload: reload, Temperature: temperature}, fired
}

// spawnOffset pushes a new pellet slightly beyond the ship's hull so it
// does not collide with its own ship on the next tick.
const spawnOffset = 1.01

// firePellet builds the create payload for a pellet leaving a ship. It
// works from the ship's next state so the pellet spawns ahead of where
// the ship will actually be.
func firePellet(ship *world.Body, next world.BodyState) *world.CreateData {
	dir := geom.FromAngle(next.Orientation)
	weapon := ship.Ship.Weapon
	return &world.CreateData{
		Kind:   world.KindPellet,
		Mass:   0,
		Radius: 0,
		State: world.BodyState{
			Position:    next.Position.Add(dir.Scale(spawnOffset * ship.Radius)),
			Velocity:    next.Velocity.Add(dir.Scale(weapon.Speed)),
			Orientation: next.Orientation,
		},
		Pellet: &world.PelletData{TimeToLive: weapon.TimeToLive},
	}
}
