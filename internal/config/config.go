// Package config holds the static initialization parameters of a generator.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Keys lists every recognised parameter name.
var Keys = []string{"name", "waveform", "frequency", "samplingrate", "range", "offset", "amplitude", "min", "max"}

// Config is the static parameter set. Numeric parameters are kept raw (number,
// string, or nil when absent) and resolved by the engine, so blank form-style
// values fall back to built-in defaults.
type Config struct {
	Name         string `toml:"name"`
	Waveform     string `toml:"waveform"`
	Frequency    any    `toml:"frequency"`
	SamplingRate any    `toml:"samplingrate"`
	Range        string `toml:"range"`
	Offset       any    `toml:"offset"`
	Amplitude    any    `toml:"amplitude"`
	Min          any    `toml:"min"`
	Max          any    `toml:"max"`

	declared map[string]bool
}

// Default returns a config with nothing declared; every parameter takes its
// built-in default.
func Default() Config {
	return Config{}
}

// Load decodes a TOML file. Keys present in the file are marked declared.
func Load(path string) (Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config at %q: %w", path, err)
	}
	cfg, err := Parse(string(bs))
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text.
func Parse(text string) (Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, k := range Keys {
		if md.IsDefined(k) {
			cfg.markDeclared(k)
		}
	}
	return cfg, nil
}

// Set overrides one parameter from its string form and marks it declared.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "name":
		c.Name = value
	case "waveform":
		c.Waveform = value
	case "frequency":
		c.Frequency = value
	case "samplingrate", "interval":
		key = "samplingrate"
		c.SamplingRate = value
	case "range":
		c.Range = value
	case "offset":
		c.Offset = value
	case "amplitude":
		c.Amplitude = value
	case "min":
		c.Min = value
	case "max":
		c.Max = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	c.markDeclared(strings.ToLower(key))
	return nil
}

// Declared reports whether key was given explicitly rather than derived.
func (c Config) Declared(key string) bool {
	return c.declared[key]
}

// DeclaredKeys returns the declared keys in sorted order.
func (c Config) DeclaredKeys() []string {
	keys := make([]string, 0, len(c.declared))
	for k := range c.declared {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) markDeclared(key string) {
	if c.declared == nil {
		c.declared = make(map[string]bool)
	}
	c.declared[key] = true
}
