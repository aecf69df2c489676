package scenario

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeScenario(t, `
name: duel
ships:
  - x: 20
    y: 50
  - x: 80
    y: 50
    mass: 2
    bot:
      handler: gunner
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.Name != "duel" {
		t.Errorf("name = %q", s.Name)
	}
	if s.StepDuration != DefaultStepDuration {
		t.Errorf("step_duration = %f", s.StepDuration)
	}
	if s.Space.Width != 100 || s.Space.Height != 100 {
		t.Errorf("space = %fx%f", s.Space.Width, s.Space.Height)
	}

	ship := s.Ships[0]
	if ship.Mass != 1 || ship.Radius != 1 {
		t.Errorf("ship body defaults = mass %f radius %f", ship.Mass, ship.Radius)
	}
	if ship.MaxThrust != 5 || ship.MaxRotate != math.Pi {
		t.Errorf("ship drive defaults = thrust %f rotate %f", ship.MaxThrust, ship.MaxRotate)
	}
	if w := ship.Weapon; w.MaxReload != 0.5 || w.MaxTemperature != 5 || w.TemperatureDecay != 2 || w.Speed != 20 || w.TimeToLive != 2 {
		t.Errorf("weapon defaults = %+v", w)
	}
	if ship.Bot.Type != "direct" || ship.Bot.Handler != "idle" || ship.Bot.TimeoutMS != DefaultTimeoutMS {
		t.Errorf("bot defaults = %+v", ship.Bot)
	}

	// explicit values survive normalization
	if s.Ships[1].Mass != 2 {
		t.Errorf("ship 1 mass = %f", s.Ships[1].Mass)
	}
	if s.Ships[1].Bot.Handler != "gunner" {
		t.Errorf("ship 1 handler = %q", s.Ships[1].Bot.Handler)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero lifetime",
			content: "space:\n  width: 100\n  height: 100\n  lifetime: 0\n  gravity: 1\n",
			wantErr: "lifetime",
		},
		{
			name:    "negative gravity",
			content: "space:\n  gravity: -1\n",
			wantErr: "gravity",
		},
		{
			name:    "bad step duration",
			content: "step_duration: -0.05\n",
			wantErr: "step_duration",
		},
		{
			name:    "unknown handler",
			content: "ships:\n  - bot:\n      handler: berserker\n",
			wantErr: "berserker",
		},
		{
			name:    "subprocess without command",
			content: "ships:\n  - bot:\n      type: subprocess\n",
			wantErr: "command",
		},
		{
			name:    "docker missing image",
			content: "ships:\n  - bot:\n      type: docker\n      path: /tmp/bot.py\n      entry: [python, /bot/bot.py]\n",
			wantErr: "docker",
		},
		{
			name:    "unknown bot type",
			content: "ships:\n  - bot:\n      type: telepathy\n",
			wantErr: "telepathy",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := Default()
	s.Ships = []ShipConfig{{X: 10, Y: 20, Orientation: 1.5}}
	s.normalize()

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != s.Name || got.Space != s.Space {
		t.Errorf("round trip changed scenario: %+v", got)
	}
	if len(got.Ships) != 1 {
		t.Fatalf("ships = %d", len(got.Ships))
	}
	ship := got.Ships[0]
	if ship.X != 10 || ship.Y != 20 || ship.Orientation != 1.5 {
		t.Errorf("round trip changed ship state: %+v", ship)
	}
	if ship.Weapon != s.Ships[0].Weapon {
		t.Errorf("round trip changed weapon: %+v", ship.Weapon)
	}
}

func TestBuild_DirectChannels(t *testing.T) {
	s := Default()
	s.Ships = []ShipConfig{
		{X: 20, Y: 50, Bot: BotConfig{Type: "direct", Handler: "gunner", TimeoutMS: 100}},
		{X: 80, Y: 50, Bot: BotConfig{Type: "direct", Handler: "idle", TimeoutMS: 100}},
	}
	s.normalize()
	s.Planets = []PlanetConfig{{Mass: 1000, Radius: 5, X: 50, Y: 50}}

	setup, err := s.Build()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		for _, ship := range setup.Ships {
			ship.Channel.Close()
		}
	}()

	if len(setup.Planets) != 1 || setup.Planets[0].Mass != 1000 {
		t.Errorf("planets = %+v", setup.Planets)
	}
	if len(setup.Ships) != 2 {
		t.Fatalf("ships = %d", len(setup.Ships))
	}
	for i, ship := range setup.Ships {
		if ship.Channel == nil {
			t.Errorf("ship %d has no channel", i)
		}
		if ship.Create.Ship == nil {
			t.Errorf("ship %d has no ship data", i)
		}
	}
	if setup.Ships[0].Create.State.Position.X != 20 {
		t.Errorf("ship 0 position = %+v", setup.Ships[0].Create.State.Position)
	}
}
