// Package game orchestrates a single run: world bring-up, the bot poll
// loop, the physics step, and the emitted step log.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/lachiemurray/PhotonAi/internal/bot"
	"github.com/lachiemurray/PhotonAi/internal/control"
	"github.com/lachiemurray/PhotonAi/internal/physics"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

// ErrComplete is returned by Next once the game lifetime is exhausted.
var ErrComplete = errors.New("game: complete")

type phase int

const (
	phaseInitializing phase = iota
	phaseRunning
	phaseComplete
)

// ShipSetup pairs a ship's initial state with its bot channel.
type ShipSetup struct {
	Create  world.CreateData
	Channel bot.Channel
}

// Setup is everything needed to start a game, normally built by the
// scenario package.
type Setup struct {
	Space        world.Space
	StepDuration float64
	Planets      []world.CreateData
	Ships        []ShipSetup
}

// Driver produces the step sequence for one game. It is single-use: a
// finished (or failed) driver cannot be restarted.
type Driver struct {
	w       *world.World
	ids     world.IDGen
	stepper *physics.Stepper
	bank    *control.Bank
	space   world.Space
	dt      float64
	phase   phase

	// deltas for the second setup step, introducing planets and ships
	initial []world.Delta
}

func NewDriver(setup Setup) (*Driver, error) {
	if setup.StepDuration <= 0 {
		return nil, fmt.Errorf("game: step duration must be positive, got %f", setup.StepDuration)
	}
	if setup.Space.Lifetime <= 0 {
		return nil, fmt.Errorf("game: lifetime must be positive, got %f", setup.Space.Lifetime)
	}

	d := &Driver{
		w:     world.New(),
		space: setup.Space,
		dt:    setup.StepDuration,
	}
	d.stepper = physics.NewStepper(setup.StepDuration, &d.ids)

	for i := range setup.Planets {
		planet := setup.Planets[i]
		planet.Kind = world.KindPlanet
		d.initial = append(d.initial, world.Delta{
			ID:     d.ids.Next(),
			Op:     world.OpCreate,
			Create: &planet,
		})
	}

	channels := make(map[world.ObjectID]bot.Channel, len(setup.Ships))
	for i := range setup.Ships {
		ship := setup.Ships[i].Create
		ship.Kind = world.KindShip
		if ship.Ship == nil {
			return nil, fmt.Errorf("game: ship %d has no ship data", i)
		}
		id := d.ids.Next()
		d.initial = append(d.initial, world.Delta{
			ID:     id,
			Op:     world.OpCreate,
			Create: &ship,
		})
		channels[id] = setup.Ships[i].Channel
	}
	d.bank = control.NewBank(channels)
	return d, nil
}

// Next computes, applies and returns the next step. The first two
// calls emit the setup steps (space only, then planet and ship
// creation); after that each call advances the simulation one tick
// until the configured lifetime is reached, when Next returns
// ErrComplete and releases all bot channels. A cancelled context ends
// the run early with the context's error, with the same teardown.
func (d *Driver) Next(ctx context.Context) (*world.Step, error) {
	if err := ctx.Err(); err != nil {
		d.Close()
		return nil, err
	}

	var step *world.Step

	switch d.phase {
	case phaseComplete:
		return nil, ErrComplete

	case phaseInitializing:
		if d.w.Clock < 0 {
			space := d.space
			step = &world.Step{Clock: 0, Duration: d.dt, Space: &space}
		} else {
			step = &world.Step{Clock: 1, Duration: d.dt, Deltas: d.initial}
			d.initial = nil
			d.phase = phaseRunning
		}

	case phaseRunning:
		if d.w.Time >= d.w.Space.Lifetime {
			d.Close()
			return nil, ErrComplete
		}
		deltas := d.stepper.Step(d.w, d.bank.Controls())
		step = &world.Step{Clock: d.w.Clock + 1, Duration: d.dt, Deltas: deltas}
	}

	if err := d.w.Apply(step); err != nil {
		d.Close()
		return nil, fmt.Errorf("game: %w", err)
	}
	d.bank.Poll(ctx, step, d.w)
	return step, nil
}

// Run drains the driver, passing each step to fn, and guarantees bot
// teardown on every exit path. A nil fn just runs the game out.
func (d *Driver) Run(ctx context.Context, fn func(*world.Step) error) error {
	defer d.Close()
	for {
		step, err := d.Next(ctx)
		if errors.Is(err, ErrComplete) {
			return nil
		}
		if err != nil {
			return err
		}
		if fn != nil {
			if err := fn(step); err != nil {
				return err
			}
		}
	}
}

// World exposes the authoritative state, mainly for observers.
func (d *Driver) World() *world.World { return d.w }

// Close releases all bot channels and marks the driver complete. Safe
// to call more than once.
func (d *Driver) Close() {
	d.phase = phaseComplete
	d.bank.Close()
}
