package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/imageio"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/stylize"
)

type mockLoader struct {
	images map[string]*ir.Image
	err    error
	loads  []string
}

func (m *mockLoader) Load(path, proofPath string) (*ir.Image, error) {
	m.loads = append(m.loads, path)
	if proofPath != "" {
		panic("orchestrator must not proof")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.images[path], nil
}

type mockSelector struct {
	err  error
	ctxs []context.Context
}

func (m *mockSelector) Select(ctx context.Context) (device.Set, error) {
	m.ctxs = append(m.ctxs, ctx)
	if m.err != nil {
		return device.Set{}, m.err
	}
	return device.NewSet(device.Device{Class: device.CPU, Threads: 4})
}

type mockStylizer struct {
	err      error
	result   *ir.Image
	requests []stylize.Request
	ctx      context.Context
	// cancelled reports whether the context was done when Stylize returned.
	cancelled bool
}

func (m *mockStylizer) Stylize(ctx context.Context, req stylize.Request) error {
	m.requests = append(m.requests, req)
	m.ctx = ctx
	if m.err == nil && ctx.Err() != nil {
		m.cancelled = true
		return errors.Join(stylize.ErrInterrupted, ctx.Err())
	}
	return m.err
}

func (m *mockStylizer) Result(rep ir.Representation) (ir.Output, error) {
	if m.result == nil {
		return nil, stylize.ErrNoResult
	}
	return stylize.Convert(m.result, rep)
}

type mockSaver struct {
	err   error
	saved map[string]ir.Output
	calls int
}

func (m *mockSaver) Save(path string, out ir.Output) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string]ir.Output{}
	}
	m.saved[path] = out
	return nil
}

type fixture struct {
	loader   *mockLoader
	selector *mockSelector
	styl     *mockStylizer
	saver    *mockSaver
	orch     *Orchestrator
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		loader: &mockLoader{images: map[string]*ir.Image{
			"content.png": ir.New(2000, 1000, ir.ModeRGB),
			"style.png":   ir.New(300, 300, ir.ModeRGB),
		}},
		selector: &mockSelector{},
		styl:     &mockStylizer{result: ir.New(4, 2, ir.ModeRGB)},
		saver:    &mockSaver{},
	}
	f.orch = NewOrchestrator(f.loader, f.selector, f.styl, f.saver, opts, zerolog.Nop())
	f.orch.interruptContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithCancel(ctx)
	}
	return f
}

func TestRunLargestSide(t *testing.T) {
	f := newFixture(Options{})

	res, err := f.orch.Run(context.Background(), "content.png", "style.png", "out/result.jpg")

	require.NoError(t, err)
	require.Len(t, f.styl.requests, 1)
	req := f.styl.requests[0]
	assert.Equal(t, 2000, req.EndScale)
	assert.Equal(t, int64(0), req.Seed)
	assert.Len(t, req.Styles, 1)
	assert.Equal(t, device.CPU, req.Devices.Class())
	assert.Equal(t, []string{"content.png", "style.png"}, f.loader.loads)

	assert.Equal(t, 1, f.saver.calls)
	assert.Contains(t, f.saver.saved, "out/result.jpg")
	assert.True(t, res.Saved)
	assert.False(t, res.Interrupted)
	assert.Equal(t, 2000, res.EndScale)
}

func TestRunSafeScale(t *testing.T) {
	f := newFixture(Options{Scale: ScaleOptions{Policy: ScaleSafe, MemoryDim: 512}})
	f.loader.images["content.png"] = ir.New(1000, 500, ir.ModeRGB)

	res, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.png")

	require.NoError(t, err)
	assert.Equal(t, 724, res.EndScale)
}

func TestRunRawRepresentation(t *testing.T) {
	f := newFixture(Options{Representation: ir.RepresentationRaw})

	_, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.tif")

	require.NoError(t, err)
	assert.Equal(t, ir.RepresentationRaw, f.saver.saved["out.tif"].Representation())
}

func TestRunInterruptedSavesPartialResultOnce(t *testing.T) {
	f := newFixture(Options{})
	f.styl.err = stylize.ErrInterrupted

	res, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.png")

	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.True(t, res.Saved)
	assert.Equal(t, 1, f.saver.calls)
}

func TestRunCancelledWithoutResultSkipsSave(t *testing.T) {
	f := newFixture(Options{})
	f.styl.result = nil
	f.orch.interruptContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
		sctx, cancel := context.WithCancel(ctx)
		cancel() // simulates SIGINT arriving during stylize
		return sctx, cancel
	}

	res, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.png")

	require.NoError(t, err)
	assert.True(t, f.styl.cancelled)
	assert.True(t, res.Interrupted)
	assert.False(t, res.Saved)
	assert.Zero(t, f.saver.calls)
}

func TestRunInterruptScopeIsStylizeOnly(t *testing.T) {
	f := newFixture(Options{})
	var installed int
	f.orch.interruptContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
		installed++
		sctx, cancel := context.WithCancel(ctx)
		cancel()
		return sctx, cancel
	}

	_, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.png")

	require.NoError(t, err)
	assert.Equal(t, 1, installed)
	require.Len(t, f.selector.ctxs, 1)
	assert.NoError(t, f.selector.ctxs[0].Err())
	assert.Error(t, f.styl.ctx.Err())
}

func TestRunFatalErrors(t *testing.T) {
	ioErr := &imageio.IOError{Op: "open", Path: "content.png", Err: errors.New("no such file")}
	devErr := &device.ValidationError{Reason: "no devices selected"}
	saveErr := &imageio.IOError{Op: "write", Path: "out.png", Err: errors.New("disk full")}

	tests := []struct {
		name         string
		setup        func(*fixture)
		dest         string
		wantTarget   any
		wantStylized bool
		wantSaves    int
	}{
		{
			name:       "load failure",
			setup:      func(f *fixture) { f.loader.err = ioErr },
			wantTarget: new(*imageio.IOError),
		},
		{
			name:       "device failure",
			setup:      func(f *fixture) { f.selector.err = devErr },
			wantTarget: new(*device.ValidationError),
		},
		{
			name:         "stylizer failure",
			setup:        func(f *fixture) { f.styl.err = errors.New("CUDA out of memory") },
			wantStylized: true,
		},
		{
			name:         "save failure",
			setup:        func(f *fixture) { f.saver.err = saveErr },
			wantTarget:   new(*imageio.IOError),
			wantStylized: true,
			wantSaves:    1,
		},
		{
			name:       "unsupported destination",
			setup:      func(f *fixture) { f.orch.opts.Representation = ir.RepresentationRaw },
			wantTarget: new(*imageio.UnsupportedOutputError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Options{})
			tt.setup(f)

			_, err := f.orch.Run(context.Background(), "content.png", "style.png", "out.png")

			require.Error(t, err)
			if tt.wantTarget != nil {
				assert.ErrorAs(t, err, tt.wantTarget)
			}
			assert.Equal(t, tt.wantStylized, len(f.styl.requests) > 0)
			assert.Equal(t, tt.wantSaves, f.saver.calls)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "device-validated", StateDeviceValidated.String())
	assert.Equal(t, "done", StateDone.String())
}
