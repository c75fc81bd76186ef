package main

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/color/lcms"
	"github.com/davesmith10/stylebatch/internal/config"
	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/imageio"
	"github.com/davesmith10/stylebatch/internal/logging"
	"github.com/davesmith10/stylebatch/internal/pipeline"
	"github.com/davesmith10/stylebatch/internal/stylize"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	log        zerolog.Logger

	canonicalOnce sync.Once
	canonical     *color.Canonical
	canonicalErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, log: zerolog.Nop()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel(), Format: cfg.Logging.Format})
		c.log.Debug().Str("config", resolved).Bool("exists", exists).Msg("Loaded configuration")
	})
	return c.config, c.configErr
}

// ensureCanonical loads the canonical profile once per process.
func (c *commandContext) ensureCanonical() (*color.Canonical, error) {
	c.canonicalOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.canonicalErr = err
			return
		}
		c.canonical, c.canonicalErr = color.LoadCanonical(cfg.Profile.CanonicalPath)
		if c.canonicalErr == nil {
			info := c.canonical.Info()
			c.log.Debug().Str("version", info.Version).Str("class", info.Class).Msg("Loaded canonical profile")
		}
	})
	return c.canonical, c.canonicalErr
}

func (c *commandContext) loader() (*imageio.Loader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	canonical, err := c.ensureCanonical()
	if err != nil {
		return nil, err
	}
	return imageio.NewLoader(lcms.NewConverter(cfg.Intent()), canonical, c.log), nil
}

func (c *commandContext) saver() (*imageio.Saver, error) {
	canonical, err := c.ensureCanonical()
	if err != nil {
		return nil, err
	}
	return imageio.NewSaver(canonical, c.log), nil
}

func (c *commandContext) selector() (*device.Selector, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return device.NewSelector(cfg.DeviceOptions(), device.NvidiaSMI{}, c.log), nil
}

func (c *commandContext) orchestrator() (*pipeline.Orchestrator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	canonical, err := c.ensureCanonical()
	if err != nil {
		return nil, err
	}
	loader, err := c.loader()
	if err != nil {
		return nil, err
	}
	saver, err := c.saver()
	if err != nil {
		return nil, err
	}
	selector, err := c.selector()
	if err != nil {
		return nil, err
	}
	st, err := stylize.NewExec(stylize.ExecOptions{
		Command:        cfg.Stylizer.Command,
		InterruptGrace: cfg.InterruptGrace(),
		ScratchDir:     cfg.Stylizer.ScratchDir,
	}, canonical, c.log)
	if err != nil {
		return nil, err
	}
	return pipeline.NewOrchestrator(loader, selector, st, saver, pipeline.Options{
		Scale:          cfg.ScaleOptions(),
		Representation: cfg.Representation(),
	}, c.log), nil
}
