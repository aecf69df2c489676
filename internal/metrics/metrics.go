// Package metrics collects per-run observations from the step stream.
package metrics

import (
	"github.com/lachiemurray/PhotonAi/internal/world"
)

// Observer is notified after each step has been applied; w reflects the
// post-step state.
type Observer interface {
	OnStep(step *world.Step, w *world.World)
}

// Metric is an Observer with a name and a final scalar value.
type Metric interface {
	Observer
	Name() string
	Value() float64
	Reset()
}

// PelletsFired counts pellet create deltas across the whole run.
type PelletsFired struct {
	total int
}

func (p *PelletsFired) Name() string { return "pellets_fired" }

func (p *PelletsFired) OnStep(step *world.Step, w *world.World) {
	for i := range step.Deltas {
		d := &step.Deltas[i]
		if d.Op == world.OpCreate && d.Create != nil && d.Create.Kind == world.KindPellet {
			p.total++
		}
	}
}

func (p *PelletsFired) Value() float64 { return float64(p.total) }

func (p *PelletsFired) Reset() { p.total = 0 }

// Destructions counts destroy deltas across the whole run.
type Destructions struct {
	total int
}

func (d *Destructions) Name() string { return "destructions" }

func (d *Destructions) OnStep(step *world.Step, w *world.World) {
	for i := range step.Deltas {
		if step.Deltas[i].Op == world.OpDestroy {
			d.total++
		}
	}
}

func (d *Destructions) Value() float64 { return float64(d.total) }

func (d *Destructions) Reset() { d.total = 0 }

// BodyCount records the number of live bodies of one kind per tick.
// The series is what the replay plot draws.
type BodyCount struct {
	kind   world.Kind
	series []float64
}

func NewBodyCount(kind world.Kind) *BodyCount {
	return &BodyCount{kind: kind}
}

func (c *BodyCount) Name() string { return c.kind.String() + "s" }

func (c *BodyCount) OnStep(step *world.Step, w *world.World) {
	n := 0
	for _, b := range w.Objects {
		if b.Kind == c.kind {
			n++
		}
	}
	c.series = append(c.series, float64(n))
}

// Value is the final live count.
func (c *BodyCount) Value() float64 {
	if len(c.series) == 0 {
		return 0
	}
	return c.series[len(c.series)-1]
}

func (c *BodyCount) Series() []float64 { return c.series }

func (c *BodyCount) Reset() { c.series = nil }
