package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/pipeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Profile selects the canonical profile and the rendering intent.
type Profile struct {
	CanonicalPath   string `toml:"canonical_path"` // empty: next to the executable
	RenderingIntent string `toml:"rendering_intent"`
}

// Devices controls compute device selection.
type Devices struct {
	Prefer     string `toml:"prefer"`
	Count      int    `toml:"count"`
	CPUThreads int    `toml:"cpu_threads"`
}

// Scale controls the end scale passed to the stylizer.
type Scale struct {
	Policy    string `toml:"policy"`
	MemoryDim int    `toml:"memory_dim"`
}

// Output selects the result representation.
type Output struct {
	Representation string `toml:"representation"`
}

// Stylizer configures the external style-transfer command.
type Stylizer struct {
	Command        []string `toml:"command"`
	InterruptGrace int      `toml:"interrupt_grace"` // seconds
	ScratchDir     string   `toml:"scratch_dir"`
}

// Batch controls directory runs.
type Batch struct {
	OnError      string   `toml:"on_error"`
	SkipExisting bool     `toml:"skip_existing"`
	Extensions   []string `toml:"extensions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"` // auto, console or json
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stylebatch.
type Config struct {
	Profile  Profile  `toml:"profile"`
	Devices  Devices  `toml:"devices"`
	Scale    Scale    `toml:"scale"`
	Output   Output   `toml:"output"`
	Stylizer Stylizer `toml:"stylizer"`
	Batch    Batch    `toml:"batch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads, normalizes and validates the config at path, or at the
// default location when path is empty. A missing file yields defaults. The
// resolved path and whether it existed are returned alongside.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// Intent returns the lcms rendering intent.
func (c *Config) Intent() int {
	intent, _ := color.ParseIntent(c.Profile.RenderingIntent)
	return intent
}

// DeviceOptions returns the device selector options.
func (c *Config) DeviceOptions() device.Options {
	prefer, _ := device.ParsePreference(c.Devices.Prefer)
	return device.Options{Prefer: prefer, Count: c.Devices.Count, CPUThreads: c.Devices.CPUThreads}
}

// ScaleOptions returns the end-scale policy.
func (c *Config) ScaleOptions() pipeline.ScaleOptions {
	policy, _ := pipeline.ParseScalePolicy(c.Scale.Policy)
	return pipeline.ScaleOptions{Policy: policy, MemoryDim: c.Scale.MemoryDim}
}

// Representation returns the configured result representation.
func (c *Config) Representation() ir.Representation {
	rep, _ := ir.ParseRepresentation(c.Output.Representation)
	return rep
}

// InterruptGrace returns how long an interrupted stylizer may take to exit.
func (c *Config) InterruptGrace() time.Duration {
	return time.Duration(c.Stylizer.InterruptGrace) * time.Second
}

// ErrorPolicy returns the batch error policy.
func (c *Config) ErrorPolicy() pipeline.ErrorPolicy {
	p, _ := pipeline.ParseErrorPolicy(c.Batch.OnError)
	return p
}

// LogLevel returns the zerolog level.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
