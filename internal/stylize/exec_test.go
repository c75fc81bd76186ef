package stylize

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/icc"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/device"
	"github.com/davesmith10/stylebatch/internal/ir"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func testRequest(t *testing.T) Request {
	t.Helper()
	content := ir.New(3, 2, ir.ModeRGB)
	for i := range content.Pix {
		content.Pix[i] = byte(10 * i)
	}
	style := ir.New(2, 2, ir.ModeRGB)
	set, err := device.NewSet(device.Device{Class: device.CPU, Threads: 1})
	require.NoError(t, err)
	return Request{Content: content, Styles: []*ir.Image{style}, EndScale: 3, Devices: set}
}

func newTestExec(t *testing.T, command ...string) *Exec {
	t.Helper()
	canonical, err := color.NewCanonical(icc.SRGBv4Profile)
	require.NoError(t, err)
	e, err := NewExec(ExecOptions{
		Command:        command,
		InterruptGrace: 2 * time.Second,
		ScratchDir:     t.TempDir(),
	}, canonical, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestPlaceholdersExpand(t *testing.T) {
	p := placeholders{
		content:  "/tmp/c.png",
		styles:   []string{"/tmp/s0.png", "/tmp/s1.png"},
		output:   "/tmp/out.png",
		endScale: 512,
		seed:     0,
		devices:  []string{"cuda:0", "cuda:1"},
	}

	tests := []struct {
		name string
		argv []string
		want []string
	}{
		{
			name: "embedded placeholders join with commas",
			argv: []string{"tool", "-content_image", "{content}", "-style_image={styles}", "-image_size", "{end_scale}", "-seed", "{seed}", "-gpu={devices}", "-output_image", "{output}"},
			want: []string{"tool", "-content_image", "/tmp/c.png", "-style_image=/tmp/s0.png,/tmp/s1.png", "-image_size", "512", "-seed", "0", "-gpu=cuda:0,cuda:1", "-output_image", "/tmp/out.png"},
		},
		{
			name: "whole-argument lists expand",
			argv: []string{"style_transfer", "{content}", "{styles}", "--devices", "{devices}"},
			want: []string{"style_transfer", "/tmp/c.png", "/tmp/s0.png", "/tmp/s1.png", "--devices", "cuda:0", "cuda:1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.expand(tt.argv))
		})
	}
}

func TestNewExecRequiresCommand(t *testing.T) {
	_, err := NewExec(ExecOptions{}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestExecCopiesOutput(t *testing.T) {
	requireShell(t)
	e := newTestExec(t, "sh", "-c", `cp "$0" "$1"`, "{content}", "{output}")
	req := testRequest(t)

	require.NoError(t, e.Stylize(context.Background(), req))

	out, err := e.Result(ir.RepresentationImage)
	require.NoError(t, err)
	img, ok := out.(*ir.Image)
	require.True(t, ok)
	assert.Equal(t, req.Content.Pix, img.Pix)

	raw, err := e.Result(ir.RepresentationRaw)
	require.NoError(t, err)
	assert.Equal(t, ir.RepresentationRaw, raw.Representation())
}

func TestExecNoOutput(t *testing.T) {
	requireShell(t)
	e := newTestExec(t, "sh", "-c", "exit 0")

	require.NoError(t, e.Stylize(context.Background(), testRequest(t)))

	_, err := e.Result(ir.RepresentationImage)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestExecFailure(t *testing.T) {
	requireShell(t)
	e := newTestExec(t, "sh", "-c", "echo out of memory >&2; exit 3")

	err := e.Stylize(context.Background(), testRequest(t))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInterrupted)
	assert.Contains(t, err.Error(), "out of memory")
	_, err = e.Result(ir.RepresentationImage)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestExecLargeProgressOutput(t *testing.T) {
	requireShell(t)

	tests := []struct {
		description string
		filler      string
	}{
		{description: "carriage return redraws", filler: `\r`},
		{description: "no delimiter at all", filler: "x"},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			script := `head -c 2000000 /dev/zero | tr '\0' '` + tc.filler + `'; cp "$0" "$1"`
			e := newTestExec(t, "sh", "-c", script, "{content}", "{output}")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			require.NoError(t, e.Stylize(ctx, testRequest(t)))

			_, err := e.Result(ir.RepresentationImage)
			assert.NoError(t, err)
		})
	}
}

func TestScanProgressLines(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("step 1\rstep 2\r\ndone\nlast"))
	scanner.Split(scanProgressLines)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"step 1", "step 2", "", "done", "last"}, got)
}

func TestExecInterruptKeepsPartialResult(t *testing.T) {
	requireShell(t)
	script := `trap 'cp "$0" "$1"; exit 130' INT; echo ready; while :; do sleep 0.05; done`
	e := newTestExec(t, "sh", "-c", script, "{content}", "{output}")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := e.Stylize(ctx, testRequest(t))

	assert.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	out, err := e.Result(ir.RepresentationImage)
	require.NoError(t, err)
	assert.Equal(t, ir.RepresentationImage, out.Representation())
}

func TestExecInterruptWithoutResult(t *testing.T) {
	requireShell(t)
	e := newTestExec(t, "sh", "-c", "while :; do sleep 0.05; done")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	err := e.Stylize(ctx, testRequest(t))

	assert.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = e.Result(ir.RepresentationImage)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestExecRemovesScratchDir(t *testing.T) {
	requireShell(t)
	e := newTestExec(t, "sh", "-c", "exit 0")

	require.NoError(t, e.Stylize(context.Background(), testRequest(t)))

	entries, err := os.ReadDir(e.opts.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequestValidate(t *testing.T) {
	valid := testRequest(t)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "no content", mutate: func(r *Request) { r.Content = nil }},
		{name: "no styles", mutate: func(r *Request) { r.Styles = nil }},
		{name: "zero scale", mutate: func(r *Request) { r.EndScale = 0 }},
		{name: "no devices", mutate: func(r *Request) { r.Devices = device.Set{} }},
	}
	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}
