package game

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/lachiemurray/PhotonAi/internal/bot"
	"github.com/lachiemurray/PhotonAi/internal/geom"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

// scriptChannel drives a fixed control forever and counts closes.
type scriptChannel struct {
	mu     sync.Mutex
	ctrl   world.Control
	fail   bool
	closed int
}

func (s *scriptChannel) Invoke(ctx context.Context, req bot.Request) (*world.Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, bot.ErrTimeout
	}
	if req.ShipID == nil {
		return nil, nil
	}
	ctrl := s.ctrl
	return &ctrl, nil
}

func (s *scriptChannel) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *scriptChannel) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func shipSetup(pos geom.Vec, orientation float64, ch bot.Channel) ShipSetup {
	return ShipSetup{
		Create: world.CreateData{
			Kind:   world.KindShip,
			Mass:   1,
			Radius: 1,
			State:  world.BodyState{Position: pos, Orientation: orientation},
			Ship: &world.ShipData{
				MaxThrust: 5,
				MaxRotate: math.Pi,
				Weapon: world.Weapon{
					MaxReload:        0.2,
					MaxTemperature:   5,
					TemperatureDecay: 2,
					Speed:            20,
					TimeToLive:       0.5,
				},
			},
		},
		Channel: ch,
	}
}

func testSetup(lifetime float64, ships ...ShipSetup) Setup {
	return Setup{
		Space: world.Space{
			Dimensions: geom.Vec{X: 100, Y: 100},
			Gravity:    0,
			Lifetime:   lifetime,
		},
		StepDuration: 0.05,
		Ships:        ships,
	}
}

func drain(t *testing.T, d *Driver) []*world.Step {
	t.Helper()
	var steps []*world.Step
	err := d.Run(context.Background(), func(step *world.Step) error {
		steps = append(steps, step)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return steps
}

func TestDriver_SetupSteps(t *testing.T) {
	g := NewWithT(t)

	ch := &scriptChannel{}
	setup := testSetup(1, shipSetup(geom.Vec{X: 20, Y: 50}, 0, ch))
	setup.Planets = []world.CreateData{{
		Kind:   world.KindPlanet,
		Mass:   1000,
		Radius: 5,
		State:  world.BodyState{Position: geom.Vec{X: 80, Y: 80}},
	}}
	d, err := NewDriver(setup)
	g.Expect(err).NotTo(HaveOccurred())
	defer d.Close()

	ctx := context.Background()

	first, err := d.Next(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.Clock).To(Equal(0))
	g.Expect(first.Space).NotTo(BeNil())
	g.Expect(first.Space.Dimensions).To(Equal(geom.Vec{X: 100, Y: 100}))
	g.Expect(first.Deltas).To(BeEmpty())

	second, err := d.Next(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second.Clock).To(Equal(1))
	g.Expect(second.Space).To(BeNil())
	g.Expect(second.Deltas).To(HaveLen(2)) // planet + ship

	g.Expect(second.Deltas[0].Op).To(Equal(world.OpCreate))
	g.Expect(second.Deltas[0].Create.Kind).To(Equal(world.KindPlanet))
	g.Expect(second.Deltas[1].Create.Kind).To(Equal(world.KindShip))
	// ships start with the default control
	g.Expect(second.Deltas[1].Create.Ship.Control).To(Equal(world.Control{}))
}

func TestDriver_LifetimeBoundsTotalDuration(t *testing.T) {
	g := NewWithT(t)

	lifetime := 1.0
	setup := testSetup(lifetime, shipSetup(geom.Vec{X: 20, Y: 50}, 0, &scriptChannel{}))
	d, err := NewDriver(setup)
	g.Expect(err).NotTo(HaveOccurred())

	steps := drain(t, d)

	var total float64
	prev := -1
	for _, step := range steps {
		g.Expect(step.Clock).To(Equal(prev+1), "clocks must be contiguous")
		prev = step.Clock
		total += step.Duration
	}
	g.Expect(total).To(BeNumerically(">=", lifetime))
	g.Expect(total).To(BeNumerically("<", lifetime+setup.StepDuration))

	// single use: a drained driver stays complete
	_, err = d.Next(context.Background())
	g.Expect(errors.Is(err, ErrComplete)).To(BeTrue())
}

func TestDriver_PelletCountMatchesWeaponAvailability(t *testing.T) {
	g := NewWithT(t)

	gunner := &scriptChannel{ctrl: world.Control{Fire: true}}
	idle := &scriptChannel{}
	// gunner fires along +x from mid-left; the idle ship sits well off
	// the firing line so nothing ever collides
	setup := testSetup(1,
		shipSetup(geom.Vec{X: 25, Y: 50}, 0, gunner),
		shipSetup(geom.Vec{X: 75, Y: 10}, 0, idle),
	)
	d, err := NewDriver(setup)
	g.Expect(err).NotTo(HaveOccurred())

	steps := drain(t, d)

	pellets := 0
	for _, step := range steps {
		for i := range step.Deltas {
			del := &step.Deltas[i]
			if del.Op == world.OpCreate && del.Create.Kind == world.KindPellet {
				pellets++
			}
		}
	}

	// replay the weapon recurrence: a shot lands exactly on the ticks
	// where reload hit zero and temperature sat below the limit. The
	// gunner answers during setup, so its control is in place for the
	// very first simulated tick.
	weapon := setup.Ships[0].Create.Ship.Weapon
	dt := setup.StepDuration
	mr := weapon.MaxTemperature / (weapon.MaxTemperature + 1)
	simTicks := len(steps) - 2
	expected := 0
	reload, temperature := 0.0, 0.0
	for i := 0; i < simTicks; i++ {
		reload = math.Max(0, reload-dt)
		temperature *= math.Pow(mr, dt/weapon.TemperatureDecay)
		if reload == 0 && temperature < weapon.MaxTemperature {
			expected++
			reload = weapon.MaxReload
			temperature++
		}
	}
	g.Expect(pellets).To(Equal(expected))
}

func TestDriver_CollisionDestroysAndFinalizes(t *testing.T) {
	g := NewWithT(t)

	a := &scriptChannel{}
	b := &scriptChannel{}
	// overlapping ships collide on the first simulated tick
	setup := testSetup(1,
		shipSetup(geom.Vec{X: 50, Y: 50}, 0, a),
		shipSetup(geom.Vec{X: 51, Y: 50}, 0, b),
	)
	d, err := NewDriver(setup)
	g.Expect(err).NotTo(HaveOccurred())

	steps := drain(t, d)

	// both destroyed in the first simulated step
	destroyed := map[world.ObjectID]int{}
	for _, step := range steps {
		for i := range step.Deltas {
			del := &step.Deltas[i]
			if del.Op == world.OpDestroy {
				destroyed[del.ID] = step.Clock
			}
			if del.Op == world.OpUpdate && destroyed[del.ID] != 0 {
				t.Errorf("body %d updated after destruction", del.ID)
			}
		}
	}
	g.Expect(destroyed).To(HaveLen(2))
	g.Expect(len(d.World().Objects)).To(BeZero())

	// each bot finalized exactly once
	g.Expect(a.closes()).To(Equal(1))
	g.Expect(b.closes()).To(Equal(1))
}

func TestDriver_TimeoutHoldsControlForever(t *testing.T) {
	g := NewWithT(t)

	ch := &scriptChannel{ctrl: world.Control{Thrust: 1}}
	setup := testSetup(0.5, shipSetup(geom.Vec{X: 20, Y: 50}, 0, ch))
	d, err := NewDriver(setup)
	g.Expect(err).NotTo(HaveOccurred())

	var failAfter = 3
	var seen []world.Control
	err = d.Run(context.Background(), func(step *world.Step) error {
		if step.Clock == failAfter {
			ch.mu.Lock()
			ch.fail = true
			ch.mu.Unlock()
		}
		for i := range step.Deltas {
			del := &step.Deltas[i]
			if del.Op == world.OpUpdate && del.Update.Control != nil {
				seen = append(seen, *del.Update.Control)
			}
		}
		return nil
	})
	g.Expect(err).NotTo(HaveOccurred())

	// after the bot starts timing out, the echoed control freezes at
	// the last good value instead of reverting to the default
	g.Expect(len(seen)).To(BeNumerically(">", failAfter+1))
	for _, ctrl := range seen[failAfter:] {
		g.Expect(ctrl).To(Equal(world.Control{Thrust: 1}))
	}
}

func TestDriver_ContextCancelStopsRun(t *testing.T) {
	g := NewWithT(t)

	ch := &scriptChannel{}
	d, err := NewDriver(testSetup(1, shipSetup(geom.Vec{X: 20, Y: 50}, 0, ch)))
	g.Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	produced := 0
	err = d.Run(ctx, func(*world.Step) error {
		produced++
		return nil
	})
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(produced).To(BeZero())
	// cancellation tears down like completion does
	g.Expect(ch.closes()).To(Equal(1))

	_, err = d.Next(context.Background())
	g.Expect(errors.Is(err, ErrComplete)).To(BeTrue())
}

func TestDriver_ContextCancelMidRun(t *testing.T) {
	g := NewWithT(t)

	ch := &scriptChannel{}
	d, err := NewDriver(testSetup(1, shipSetup(geom.Vec{X: 20, Y: 50}, 0, ch)))
	g.Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	produced := 0
	err = d.Run(ctx, func(*world.Step) error {
		produced++
		if produced == 4 {
			cancel()
		}
		return nil
	})
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(produced).To(Equal(4))
	g.Expect(ch.closes()).To(Equal(1))
}

func TestDriver_RejectsBadSetup(t *testing.T) {
	if _, err := NewDriver(Setup{StepDuration: 0, Space: world.Space{Lifetime: 1}}); err == nil {
		t.Error("zero step duration accepted")
	}
	if _, err := NewDriver(Setup{StepDuration: 0.05}); err == nil {
		t.Error("zero lifetime accepted")
	}
	bad := testSetup(1, ShipSetup{Create: world.CreateData{Kind: world.KindShip}, Channel: &scriptChannel{}})
	if _, err := NewDriver(bad); err == nil {
		t.Error("ship without ship data accepted")
	}
}
