package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Profile.RenderingIntent = lowerTrim(c.Profile.RenderingIntent, defaultRenderingIntent)
	c.Devices.Prefer = lowerTrim(c.Devices.Prefer, defaultDevicePrefer)
	if c.Devices.Count == 0 {
		c.Devices.Count = defaultDeviceCount
	}
	c.Scale.Policy = lowerTrim(c.Scale.Policy, defaultScalePolicy)
	if c.Scale.MemoryDim == 0 {
		c.Scale.MemoryDim = defaultMemoryDim
	}
	c.Output.Representation = lowerTrim(c.Output.Representation, defaultRepresentation)
	c.Batch.OnError = lowerTrim(c.Batch.OnError, defaultOnError)
	c.normalizeExtensions()
	c.Logging.Format = lowerTrim(c.Logging.Format, defaultLogFormat)
	c.Logging.Level = lowerTrim(c.Logging.Level, defaultLogLevel)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Profile.CanonicalPath, err = expandPath(strings.TrimSpace(c.Profile.CanonicalPath)); err != nil {
		return fmt.Errorf("profile.canonical_path: %w", err)
	}
	if c.Stylizer.ScratchDir, err = expandPath(strings.TrimSpace(c.Stylizer.ScratchDir)); err != nil {
		return fmt.Errorf("stylizer.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtensions() {
	exts := make([]string, 0, len(c.Batch.Extensions))
	for _, e := range c.Batch.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Batch.Extensions = exts
}

func lowerTrim(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return fallback
	}
	return v
}
