// Package config loads battlegrid's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Garsondee/battlegrid/internal/sim"
)

// DefaultPath is where binaries look for a config file when -config is not
// given. A missing file there is not an error.
const DefaultPath = "battlegrid.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Level     LevelConfig     `yaml:"level"`
	Agent     AgentConfig     `yaml:"agent"`
	Avoidance AvoidanceConfig `yaml:"avoidance"`
	Render    RenderConfig    `yaml:"render"`
	Log       LogConfig       `yaml:"log"`
}

type GridConfig struct {
	Width  int       `yaml:"width"`
	Height int       `yaml:"height"`
	Origin []float64 `yaml:"origin"` // [x, y] of cell (0,0)'s anchor
}

// LevelConfig points at an LDtk project. An empty path uses the map built
// into the binary.
type LevelConfig struct {
	Path  string `yaml:"path"`
	Index int    `yaml:"index"`
	Watch bool   `yaml:"watch"`
}

type AgentConfig struct {
	Speed         float64      `yaml:"speed"`
	ArriveEpsilon float64      `yaml:"arrive_epsilon"`
	Radius        float64      `yaml:"radius"`
	Spawn         [][2]float64 `yaml:"spawn"`
}

type AvoidanceConfig struct {
	Strength   float64 `yaml:"strength"`
	Broadphase string  `yaml:"broadphase"` // pairwise | rtree
}

type RenderConfig struct {
	TilePixels   int     `yaml:"tile_pixels"`
	WindowWidth  int     `yaml:"window_width"`
	WindowHeight int     `yaml:"window_height"`
	MarkerTTL    float64 `yaml:"marker_ttl"` // seconds
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
	// EventLimit caps the simulation event record kept by interactive
	// front ends. 0 keeps every event.
	EventLimit int `yaml:"event_limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: GridConfig{
			Width:  sim.DefaultGridWidth,
			Height: sim.DefaultGridHeight,
			Origin: []float64{0, 0},
		},
		Agent: AgentConfig{
			Speed:         sim.DefaultSpeed,
			ArriveEpsilon: sim.DefaultArriveEpsilon,
			Radius:        sim.DefaultRadius,
			Spawn:         [][2]float64{{10, 0}, {20, 0}, {30, 0}},
		},
		Avoidance: AvoidanceConfig{Strength: 1, Broadphase: "pairwise"},
		Render: RenderConfig{
			TilePixels:   16,
			WindowWidth:  1280,
			WindowHeight: 720,
			MarkerTTL:    1.0,
		},
		Log: LogConfig{Level: "info", Format: "text", EventLimit: 4096},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every section and reports the first problem.
func (c Config) Validate() error {
	switch {
	case c.Grid.Width <= 0 || c.Grid.Height <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalid, c.Grid.Width, c.Grid.Height)
	case len(c.Grid.Origin) != 0 && len(c.Grid.Origin) != 2:
		return fmt.Errorf("%w: grid.origin needs 2 values, got %d", ErrInvalid, len(c.Grid.Origin))
	case c.Level.Index < 0:
		return fmt.Errorf("%w: level.index %d", ErrInvalid, c.Level.Index)
	case c.Render.TilePixels <= 0:
		return fmt.Errorf("%w: render.tile_pixels %d", ErrInvalid, c.Render.TilePixels)
	case c.Render.WindowWidth <= 0 || c.Render.WindowHeight <= 0:
		return fmt.Errorf("%w: render window %dx%d", ErrInvalid, c.Render.WindowWidth, c.Render.WindowHeight)
	case c.Render.MarkerTTL < 0:
		return fmt.Errorf("%w: render.marker_ttl %v", ErrInvalid, c.Render.MarkerTTL)
	case c.Log.EventLimit < 0:
		return fmt.Errorf("%w: log.event_limit %d", ErrInvalid, c.Log.EventLimit)
	}
	if err := c.Movement().Validate(); err != nil {
		return fmt.Errorf("%w: agent: %v", ErrInvalid, err)
	}
	if !(c.Agent.Radius > 0) {
		return fmt.Errorf("%w: agent.radius %v", ErrInvalid, c.Agent.Radius)
	}
	av, err := c.AvoidanceParams()
	if err != nil {
		return fmt.Errorf("%w: avoidance: %v", ErrInvalid, err)
	}
	if err := av.Validate(); err != nil {
		return fmt.Errorf("%w: avoidance: %v", ErrInvalid, err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Origin returns the grid origin as a vector.
func (c Config) Origin() cp.Vector {
	if len(c.Grid.Origin) != 2 {
		return cp.Vector{}
	}
	return cp.Vector{X: c.Grid.Origin[0], Y: c.Grid.Origin[1]}
}

func (c Config) Movement() sim.MovementParams {
	return sim.MovementParams{Speed: c.Agent.Speed, ArriveEpsilon: c.Agent.ArriveEpsilon}
}

func (c Config) AvoidanceParams() (sim.AvoidanceParams, error) {
	bp, err := sim.ParseBroadphase(c.Avoidance.Broadphase)
	if err != nil {
		return sim.AvoidanceParams{}, err
	}
	return sim.AvoidanceParams{Strength: c.Avoidance.Strength, Broadphase: bp}, nil
}

// WorldOptions translates the grid, agent and avoidance sections into
// options for sim.NewWorld. Terrain itself is left to the caller.
func (c Config) WorldOptions() ([]sim.Option, error) {
	av, err := c.AvoidanceParams()
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{
		sim.WithGridSize(c.Grid.Width, c.Grid.Height),
		sim.WithOrigin(c.Origin()),
		sim.WithMovement(c.Movement()),
		sim.WithAvoidance(av),
		sim.WithRadius(c.Agent.Radius),
	}
	for _, p := range c.Agent.Spawn {
		opts = append(opts, sim.WithAgent(p[0], p[1]))
	}
	return opts, nil
}

// NewEventLog returns the event record for an interactive session, bounded
// by EventLimit.
func (c LogConfig) NewEventLog() *sim.EventLog {
	if c.EventLimit == 0 {
		return sim.NewEventLog(false)
	}
	return sim.NewBoundedEventLog(false, c.EventLimit)
}

// NewLogger builds a logrus logger writing to out with the configured level
// and format.
func (c LogConfig) NewLogger(out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	if strings.EqualFold(c.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}
