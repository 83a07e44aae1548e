package bewegung

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/copyandpaetow/bewegung-sub000/internal/config"
	"github.com/copyandpaetow/bewegung-sub000/internal/debug"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
)

// Config holds the tunables of an Animation.
type Config struct {
	// RootPolicy is "strict" or "last-wins".
	RootPolicy string `yaml:"rootPolicy"`
	// Debounce is the quiet window after the last mutation before the
	// computation is refreshed.
	Debounce time.Duration `yaml:"debounce"`
	// MaxBatch flushes pending mutations early once this many accumulate.
	MaxBatch int `yaml:"maxBatch"`
	// FrameRate drives the default frame clock.
	FrameRate int `yaml:"frameRate"`
	// Budget is the share of every frame spent on computation tasks.
	Budget float64 `yaml:"budget"`

	Logging debug.Config `yaml:"logging"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		RootPolicy: graph.RootPolicyStrict.String(),
		Debounce:   250 * time.Millisecond,
		MaxBatch:   1000,
		FrameRate:  60,
		Budget:     0.5,
		Logging: debug.Config{
			Console: debug.LoggerConfig{Level: debug.LevelNormal},
			File:    debug.LoggerConfig{Level: debug.LevelNone},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RootPolicy, validation.By(func(any) error {
			_, err := graph.ParseRootPolicy(c.RootPolicy)
			return err
		})),
		validation.Field(&c.Debounce, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxBatch, validation.Min(1)),
		validation.Field(&c.FrameRate, validation.Min(1), validation.Max(240)),
		validation.Field(&c.Budget, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&c.Logging, validation.By(func(any) error {
			return c.Logging.Validate()
		})),
	)
}

// Policy returns the parsed root policy.
func (c *Config) Policy() RootPolicy {
	p, _ := graph.ParseRootPolicy(c.RootPolicy)
	return p
}

// LoadConfig reads a YAML configuration on top of DefaultConfig. An empty
// or missing path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := config.LoadOrDefault(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to load configuration: %w", err)
	}
	return cfg, nil
}
