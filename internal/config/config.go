// Package config handles lodtool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshlod/pkg/lod"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

// Configuration errors.
var (
	ErrUnknownStrategy = errors.New("unknown lod strategy")
	ErrNoLevels        = errors.New("no lod levels configured")
	ErrBadOutsideAngle = errors.New("outside walk angle must be within [0, 180]")
)

// Config holds all lodtool settings.
type Config struct {
	Lod     LodSettings   `yaml:"lod"`
	Logging LoggingConfig `yaml:"logging"`
}

// LodSettings describes how LOD levels are generated.
type LodSettings struct {
	Strategy         string        `yaml:"strategy"` // distance or pixel_count
	Compression      bool          `yaml:"compression"`
	VertexNormals    bool          `yaml:"vertex_normals"`
	OutsideWeight    float32       `yaml:"outside_weight"`
	OutsideWalkAngle float32       `yaml:"outside_walk_angle"` // degrees
	Profile          string        `yaml:"profile"`            // recorded cost profile to replay
	Levels           []LevelConfig `yaml:"levels"`
	Async            bool          `yaml:"async"`
	Auto             bool          `yaml:"auto"`
}

// LevelConfig is one configured LOD level.
type LevelConfig struct {
	Distance float32 `yaml:"distance"`
	Method   string  `yaml:"method"`
	Value    float32 `yaml:"value"`
	Manual   string  `yaml:"manual,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Lod: LodSettings{
			Strategy:      "distance",
			Compression:   true,
			VertexNormals: true,
			Levels: []LevelConfig{
				{Distance: 10, Method: "proportional", Value: 0.25},
				{Distance: 20, Method: "proportional", Value: 0.5},
				{Distance: 40, Method: "proportional", Value: 0.75},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings that do not depend on a mesh.
func (c *Config) Validate() error {
	var err error
	if _, ok := mesh.StrategyByName(c.Lod.Strategy); !ok {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Lod.Strategy))
	}
	if c.Lod.OutsideWalkAngle < 0 || c.Lod.OutsideWalkAngle > 180 {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrBadOutsideAngle, c.Lod.OutsideWalkAngle))
	}
	if !c.Lod.Auto && len(c.Lod.Levels) == 0 {
		err = multierr.Append(err, ErrNoLevels)
	}
	for i, lvl := range c.Lod.Levels {
		if lvl.Manual != "" {
			continue
		}
		if _, perr := lod.ParseReductionMethod(lvl.Method); perr != nil {
			err = multierr.Append(err, fmt.Errorf("level %d: %w", i, perr))
		}
	}
	return err
}

// ToLodConfig builds a generation request for m. With Auto set the levels
// come from lod.AutoConfig and only the advanced settings are applied.
func (s *LodSettings) ToLodConfig(m *mesh.Mesh) (*lod.Config, error) {
	var cfg *lod.Config
	if s.Auto {
		cfg = lod.AutoConfig(m)
	} else {
		strategy, ok := mesh.StrategyByName(s.Strategy)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s.Strategy)
		}
		cfg = lod.NewConfig(m)
		cfg.Strategy = strategy
		for i, lvl := range s.Levels {
			if lvl.Manual != "" {
				cfg.AddManualLevel(lvl.Distance, lvl.Manual)
				continue
			}
			method, err := lod.ParseReductionMethod(lvl.Method)
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", i, err)
			}
			cfg.AddGeneratedLevel(lvl.Distance, method, lvl.Value)
		}
	}

	cfg.Advanced.UseCompression = s.Compression
	cfg.Advanced.UseVertexNormals = s.VertexNormals
	cfg.Advanced.OutsideWeight = s.OutsideWeight
	cfg.Advanced.OutsideWalkAngle = s.OutsideWalkAngle
	if s.Profile != "" {
		profile, err := lod.LoadProfile(s.Profile)
		if err != nil {
			return nil, err
		}
		cfg.Advanced.Profile = profile
	}
	return cfg, cfg.Validate()
}
