// Package scenario loads game definitions from YAML and turns them
// into driver setups, including bot channel construction.
package scenario

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lachiemurray/PhotonAi/internal/bot"
	"github.com/lachiemurray/PhotonAi/internal/game"
	"github.com/lachiemurray/PhotonAi/internal/geom"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

const (
	DefaultStepDuration = 0.05
	DefaultTimeoutMS    = 100
	DefaultMount        = "/bot"
)

type Scenario struct {
	Name         string         `yaml:"name"`
	StepDuration float64        `yaml:"step_duration"`
	Space        SpaceConfig    `yaml:"space"`
	Planets      []PlanetConfig `yaml:"planets"`
	Ships        []ShipConfig   `yaml:"ships"`
}

type SpaceConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Gravity  float64 `yaml:"gravity"`
	Lifetime float64 `yaml:"lifetime"`
}

type PlanetConfig struct {
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

type ShipConfig struct {
	X           float64      `yaml:"x"`
	Y           float64      `yaml:"y"`
	Orientation float64      `yaml:"orientation"`
	Mass        float64      `yaml:"mass"`
	Radius      float64      `yaml:"radius"`
	MaxThrust   float64      `yaml:"max_thrust"`
	MaxRotate   float64      `yaml:"max_rotate"`
	Weapon      WeaponConfig `yaml:"weapon"`
	Bot         BotConfig    `yaml:"bot"`
}

type WeaponConfig struct {
	MaxReload        float64 `yaml:"max_reload"`
	MaxTemperature   float64 `yaml:"max_temperature"`
	TemperatureDecay float64 `yaml:"temperature_decay"`
	Speed            float64 `yaml:"speed"`
	TimeToLive       float64 `yaml:"time_to_live"`
}

type BotConfig struct {
	Type      string   `yaml:"type"`    // direct | subprocess | docker
	Handler   string   `yaml:"handler"` // direct: built-in handler name
	Command   []string `yaml:"command"` // subprocess: argv
	Image     string   `yaml:"image"`   // docker: image to run
	Path      string   `yaml:"path"`    // docker: host artifact
	Mount     string   `yaml:"mount"`   // docker: mount point
	Entry     []string `yaml:"entry"`   // docker: command inside
	TimeoutMS int      `yaml:"timeout_ms"`
}

func Default() *Scenario {
	return &Scenario{
		Name:         "skirmish",
		StepDuration: DefaultStepDuration,
		Space:        SpaceConfig{Width: 100, Height: 100, Gravity: 1, Lifetime: 60},
	}
}

// Load reads a scenario file over the defaults and normalizes per-ship
// settings so omitted fields get sensible values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

func (s *Scenario) normalize() {
	for i := range s.Ships {
		ship := &s.Ships[i]
		if ship.Mass == 0 {
			ship.Mass = 1
		}
		if ship.Radius == 0 {
			ship.Radius = 1
		}
		if ship.MaxThrust == 0 {
			ship.MaxThrust = 5
		}
		if ship.MaxRotate == 0 {
			ship.MaxRotate = math.Pi
		}
		w := &ship.Weapon
		if w.MaxReload == 0 {
			w.MaxReload = 0.5
		}
		if w.MaxTemperature == 0 {
			w.MaxTemperature = 5
		}
		if w.TemperatureDecay == 0 {
			w.TemperatureDecay = 2
		}
		if w.Speed == 0 {
			w.Speed = 20
		}
		if w.TimeToLive == 0 {
			w.TimeToLive = 2
		}
		if ship.Bot.Type == "" {
			ship.Bot.Type = "direct"
		}
		if ship.Bot.Handler == "" {
			ship.Bot.Handler = "idle"
		}
		if ship.Bot.Mount == "" {
			ship.Bot.Mount = DefaultMount
		}
		if ship.Bot.TimeoutMS == 0 {
			ship.Bot.TimeoutMS = DefaultTimeoutMS
		}
	}
}

func (s *Scenario) Validate() error {
	if s.StepDuration <= 0 {
		return fmt.Errorf("step_duration must be positive, got %f", s.StepDuration)
	}
	if s.Space.Width <= 0 || s.Space.Height <= 0 {
		return fmt.Errorf("space dimensions must be positive, got %fx%f", s.Space.Width, s.Space.Height)
	}
	if s.Space.Lifetime <= 0 {
		return fmt.Errorf("lifetime must be positive, got %f", s.Space.Lifetime)
	}
	if s.Space.Gravity < 0 {
		return fmt.Errorf("gravity must be non-negative, got %f", s.Space.Gravity)
	}
	for i, ship := range s.Ships {
		switch ship.Bot.Type {
		case "direct":
			if _, err := bot.NewHandler(ship.Bot.Handler); err != nil {
				return fmt.Errorf("ship %d: %w", i, err)
			}
		case "subprocess":
			if len(ship.Bot.Command) == 0 {
				return fmt.Errorf("ship %d: subprocess bot needs a command", i)
			}
		case "docker":
			if ship.Bot.Image == "" || ship.Bot.Path == "" || len(ship.Bot.Entry) == 0 {
				return fmt.Errorf("ship %d: docker bot needs image, path and entry", i)
			}
		default:
			return fmt.Errorf("ship %d: unknown bot type %q", i, ship.Bot.Type)
		}
	}
	return nil
}

// Build constructs the driver setup, opening one bot channel per ship.
// If any channel fails to open, every already-opened one is closed
// before returning.
func (s *Scenario) Build() (game.Setup, error) {
	setup := game.Setup{
		StepDuration: s.StepDuration,
		Space: world.Space{
			Dimensions: geom.Vec{X: s.Space.Width, Y: s.Space.Height},
			Gravity:    s.Space.Gravity,
			Lifetime:   s.Space.Lifetime,
		},
	}

	for _, p := range s.Planets {
		setup.Planets = append(setup.Planets, world.CreateData{
			Kind:   world.KindPlanet,
			Mass:   p.Mass,
			Radius: p.Radius,
			State:  world.BodyState{Position: geom.Vec{X: p.X, Y: p.Y}},
		})
	}

	for i, cfg := range s.Ships {
		ch, err := openChannel(cfg.Bot)
		if err != nil {
			for _, built := range setup.Ships {
				built.Channel.Close()
			}
			return game.Setup{}, fmt.Errorf("ship %d: %w", i, err)
		}
		setup.Ships = append(setup.Ships, game.ShipSetup{
			Create: world.CreateData{
				Kind:   world.KindShip,
				Mass:   cfg.Mass,
				Radius: cfg.Radius,
				State: world.BodyState{
					Position:    geom.Vec{X: cfg.X, Y: cfg.Y},
					Orientation: cfg.Orientation,
				},
				Ship: &world.ShipData{
					MaxThrust: cfg.MaxThrust,
					MaxRotate: cfg.MaxRotate,
					Weapon: world.Weapon{
						MaxReload:        cfg.Weapon.MaxReload,
						MaxTemperature:   cfg.Weapon.MaxTemperature,
						TemperatureDecay: cfg.Weapon.TemperatureDecay,
						Speed:            cfg.Weapon.Speed,
						TimeToLive:       cfg.Weapon.TimeToLive,
					},
				},
			},
			Channel: ch,
		})
	}
	return setup, nil
}

func openChannel(cfg BotConfig) (bot.Channel, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	switch cfg.Type {
	case "direct":
		h, err := bot.NewHandler(cfg.Handler)
		if err != nil {
			return nil, err
		}
		return bot.NewDirect(h), nil
	case "subprocess":
		return bot.StartSubprocess(cfg.Command, timeout)
	case "docker":
		return bot.StartSandbox(bot.SandboxConfig{
			SourcePath: cfg.Path,
			Mount:      cfg.Mount,
			Image:      cfg.Image,
			Entry:      cfg.Entry,
			Timeout:    timeout,
		})
	}
	return nil, fmt.Errorf("unknown bot type %q", cfg.Type)
}

// Save writes the scenario back out as YAML so generated files can be
// edited by hand.
func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
