// Package config loads noise generator settings from YAML and command-line
// flags.
package config

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/fpnoise/pkg/felt"
	"github.com/OCharnyshevich/fpnoise/pkg/fixed"
	"github.com/OCharnyshevich/fpnoise/pkg/noise"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the generator configuration.
type Config struct {
	Field  FieldConfig  `yaml:"field"`
	Noise  NoiseConfig  `yaml:"noise"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Output OutputConfig `yaml:"output"`
}

// FieldConfig describes the prime field and fixed-point layout.
type FieldConfig struct {
	Modulus   string `yaml:"modulus"`
	FracBits  uint   `yaml:"frac_bits"`
	BoundBits uint   `yaml:"bound_bits"`
}

// NoiseConfig holds evaluator parameters.
type NoiseConfig struct {
	Dims       int    `yaml:"dims"`
	Scale      int64  `yaml:"scale"`
	Seed       int64  `yaml:"seed"`
	SeedPhrase string `yaml:"seed_phrase"` // overrides Seed when set
	Amplitude  string `yaml:"amplitude"`   // decimal or fraction, e.g. "2.5" or "3/4"
}

// SweepConfig describes a run of evenly spaced queries. Steps 0 means a
// single query at Origin.
type SweepConfig struct {
	Origin    [3]int64 `yaml:"origin"`
	Direction [3]int64 `yaml:"direction"`
	Steps     int      `yaml:"steps"`
	Workers   int      `yaml:"workers"`
}

// OutputConfig names optional sweep artifacts.
type OutputConfig struct {
	CSV   string `yaml:"csv"`
	Chart string `yaml:"chart"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads a YAML file over the embedded defaults. Fields missing from the
// file keep their default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Merge applies file-loaded values into cfg, but only for fields that were
// NOT explicitly set via CLI flags. explicitFlags contains the flag names
// that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	cfg.Field = fromFile.Field

	if !explicitFlags["dims"] {
		cfg.Noise.Dims = fromFile.Noise.Dims
	}
	if !explicitFlags["scale"] {
		cfg.Noise.Scale = fromFile.Noise.Scale
	}
	if !explicitFlags["seed"] {
		cfg.Noise.Seed = fromFile.Noise.Seed
	}
	if !explicitFlags["seed-phrase"] {
		cfg.Noise.SeedPhrase = fromFile.Noise.SeedPhrase
	}
	if !explicitFlags["amplitude"] {
		cfg.Noise.Amplitude = fromFile.Noise.Amplitude
	}
	for i, name := range []string{"x", "y", "z"} {
		if !explicitFlags[name] {
			cfg.Sweep.Origin[i] = fromFile.Sweep.Origin[i]
		}
	}
	if !explicitFlags["dir"] {
		cfg.Sweep.Direction = fromFile.Sweep.Direction
	}
	if !explicitFlags["steps"] {
		cfg.Sweep.Steps = fromFile.Sweep.Steps
	}
	if !explicitFlags["workers"] {
		cfg.Sweep.Workers = fromFile.Sweep.Workers
	}
	if !explicitFlags["csv"] {
		cfg.Output.CSV = fromFile.Output.CSV
	}
	if !explicitFlags["chart"] {
		cfg.Output.Chart = fromFile.Output.Chart
	}
}

// Validate reports the first setting that cannot produce an evaluator.
func (c *Config) Validate() error {
	if c.Noise.Dims != 2 && c.Noise.Dims != 3 {
		return fmt.Errorf("dims %d: want 2 or 3", c.Noise.Dims)
	}
	if c.Noise.Scale <= 0 {
		return fmt.Errorf("scale %d: %w", c.Noise.Scale, noise.ErrInvalidScale)
	}
	if c.Sweep.Steps < 0 {
		return fmt.Errorf("steps %d: must not be negative", c.Sweep.Steps)
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("workers %d: need at least one", c.Sweep.Workers)
	}
	if c.Noise.Dims == 2 && c.Sweep.Direction[2] != 0 {
		return fmt.Errorf("direction %v has a z component for 2D noise", c.Sweep.Direction)
	}
	if _, err := c.FixedContext(); err != nil {
		return err
	}
	return nil
}

// EffectiveSeed returns the seed derived from SeedPhrase when one is set,
// otherwise Seed. The phrase is hashed with SHA3-256 and the first eight
// bytes are read as a big-endian int64.
func (c *Config) EffectiveSeed() int64 {
	if c.Noise.SeedPhrase == "" {
		return c.Noise.Seed
	}
	return SeedFromPhrase(c.Noise.SeedPhrase)
}

// SeedFromPhrase maps a passphrase to a seed.
func SeedFromPhrase(phrase string) int64 {
	sum := sha3.Sum256([]byte(phrase))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// FixedContext builds the fixed-point context described by the field
// section.
func (c *Config) FixedContext() (*fixed.Context, error) {
	f, err := felt.ParseField(c.Field.Modulus)
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}
	bound := new(big.Int).Lsh(big.NewInt(1), c.Field.BoundBits)
	ctx, err := fixed.New(f, c.Field.FracBits, bound)
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}
	return ctx, nil
}

// Evaluator builds a noise evaluator from the configuration.
func (c *Config) Evaluator(log *slog.Logger) (*noise.Evaluator, error) {
	ctx, err := c.FixedContext()
	if err != nil {
		return nil, err
	}
	amp := ctx.One()
	if c.Noise.Amplitude != "" {
		if amp, err = ctx.Parse(c.Noise.Amplitude); err != nil {
			return nil, fmt.Errorf("amplitude: %w", err)
		}
	}
	opts := []noise.Option{
		noise.WithScale(c.Noise.Scale),
		noise.WithSeed(c.EffectiveSeed()),
		noise.WithAmplitude(amp),
	}
	if log != nil {
		opts = append(opts, noise.WithLogger(log))
	}
	return noise.NewEvaluator(ctx, opts...)
}
