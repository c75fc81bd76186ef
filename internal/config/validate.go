package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/pipeline"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProfile(); err != nil {
		return err
	}
	if err := c.validateDevices(); err != nil {
		return err
	}
	if err := c.validateScale(); err != nil {
		return err
	}
	if _, err := ir.ParseRepresentation(c.Output.Representation); err != nil {
		return fmt.Errorf("output.representation: %w", err)
	}
	if c.Stylizer.InterruptGrace < 0 {
		return errors.New("stylizer.interrupt_grace must be >= 0")
	}
	if _, err := pipeline.ParseErrorPolicy(c.Batch.OnError); err != nil {
		return fmt.Errorf("batch.on_error: %w", err)
	}
	return c.validateLogging()
}

func (c *Config) validateProfile() error {
	if _, err := color.ParseIntent(c.Profile.RenderingIntent); err != nil {
		return fmt.Errorf("profile.rendering_intent: %w", err)
	}
	return nil
}

func (c *Config) validateDevices() error {
	if _, err := device.ParsePreference(c.Devices.Prefer); err != nil {
		return fmt.Errorf("devices.prefer: %w", err)
	}
	if c.Devices.Count < 1 || c.Devices.Count > device.MaxDevices {
		return fmt.Errorf("devices.count must be between 1 and %d", device.MaxDevices)
	}
	if c.Devices.CPUThreads < 0 {
		return errors.New("devices.cpu_threads must be >= 0")
	}
	return nil
}

func (c *Config) validateScale() error {
	if _, err := pipeline.ParseScalePolicy(c.Scale.Policy); err != nil {
		return fmt.Errorf("scale.policy: %w", err)
	}
	if c.Scale.MemoryDim < 1 {
		return errors.New("scale.memory_dim must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
