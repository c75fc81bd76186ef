// Package pipeline runs stylization jobs: one content image against one
// style, or every image of a directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/imageio"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/stylize"
)

// Seed is the fixed random seed of every stylize call.
const Seed = 0

// Loader brings an image file into the canonical color space.
type Loader interface {
	Load(path, proofPath string) (*ir.Image, error)
}

// Saver writes a result tagged with the canonical profile.
type Saver interface {
	Save(path string, out ir.Output) error
}

// DeviceSelector chooses the compute devices for a job.
type DeviceSelector interface {
	Select(ctx context.Context) (device.Set, error)
}

// State is a step of a job.
type State int

const (
	StateCreated State = iota
	StateLoading
	StateDeviceValidated
	StateStylizing
	StateCancelled
	StateCompleted
	StateSaving
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateDeviceValidated:
		return "device-validated"
	case StateStylizing:
		return "stylizing"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateSaving:
		return "saving"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configure the orchestrator.
type Options struct {
	Scale          ScaleOptions
	Representation ir.Representation
}

// Result describes a finished job.
type Result struct {
	EndScale    int
	Devices     device.Set
	Interrupted bool
	Saved       bool
	Duration    time.Duration
}

// Orchestrator runs single stylization jobs.
type Orchestrator struct {
	loader   Loader
	devices  DeviceSelector
	stylizer stylize.Stylizer
	saver    Saver
	opts     Options
	log      zerolog.Logger

	// interruptContext wraps the stylize call; the default cancels on SIGINT.
	interruptContext func(context.Context) (context.Context, context.CancelFunc)
}

func NewOrchestrator(loader Loader, devices DeviceSelector, st stylize.Stylizer, saver Saver, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		loader:   loader,
		devices:  devices,
		stylizer: st,
		saver:    saver,
		opts:     opts,
		log:      log,
		interruptContext: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

func isInterruption(err error) bool {
	return errors.Is(err, stylize.ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Run stylizes contentPath with stylePath and writes the result to
// destPath. An interrupted stylize call is not an error: whatever partial
// result the stylizer holds is saved.
func (o *Orchestrator) Run(ctx context.Context, contentPath, stylePath, destPath string) (Result, error) {
	start := time.Now()
	log := o.log.With().Str("content", contentPath).Str("dest", destPath).Logger()
	state := StateCreated
	advance := func(next State) {
		log.Debug().Stringer("from", state).Stringer("to", next).Msg("Job state")
		state = next
	}

	var res Result
	if err := imageio.CheckOutput(destPath, o.opts.Representation); err != nil {
		return res, err
	}

	// 1. Load content and style without proofing
	advance(StateLoading)
	content, err := o.loader.Load(contentPath, "")
	if err != nil {
		return res, fmt.Errorf("loading content: %w", err)
	}
	style, err := o.loader.Load(stylePath, "")
	if err != nil {
		return res, fmt.Errorf("loading style: %w", err)
	}

	// 2. Select devices
	set, err := o.devices.Select(ctx)
	if err != nil {
		return res, fmt.Errorf("selecting devices: %w", err)
	}
	res.Devices = set
	advance(StateDeviceValidated)

	// 3. Stylize at the configured end scale with the fixed seed
	res.EndScale = o.opts.Scale.EndScale(content.Width, content.Height)
	req := stylize.Request{
		Content:  content,
		Styles:   []*ir.Image{style},
		EndScale: res.EndScale,
		Seed:     Seed,
		Devices:  set,
	}
	log.Info().
		Int("width", content.Width).
		Int("height", content.Height).
		Int("end_scale", res.EndScale).
		Msg("Stylizing")

	advance(StateStylizing)
	if err := o.stylize(ctx, req); err != nil {
		if !isInterruption(err) {
			return res, fmt.Errorf("stylize: %w", err)
		}
		res.Interrupted = true
		advance(StateCancelled)
		log.Warn().Msg("Stylization interrupted, saving partial result")
	} else {
		advance(StateCompleted)
	}

	// 4. Save whatever the stylizer produced
	out, err := o.stylizer.Result(o.opts.Representation)
	switch {
	case errors.Is(err, stylize.ErrNoResult):
		log.Info().Msg("No result to save")
	case err != nil:
		return res, fmt.Errorf("fetching result: %w", err)
	default:
		advance(StateSaving)
		if err := o.saver.Save(destPath, out); err != nil {
			return res, fmt.Errorf("saving result: %w", err)
		}
		res.Saved = true
	}

	advance(StateDone)
	res.Duration = time.Since(start)
	return res, nil
}

func (o *Orchestrator) stylize(ctx context.Context, req stylize.Request) error {
	sctx, stop := o.interruptContext(ctx)
	defer stop()
	return o.stylizer.Stylize(sctx, req)
}
