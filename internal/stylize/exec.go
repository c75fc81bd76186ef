package stylize

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/imageio"
	"github.com/davesmith10/stylebatch/internal/ir"
	"github.com/davesmith10/stylebatch/internal/png"
)

var commandContext = exec.CommandContext

// DefaultInterruptGrace is how long a cancelled command may take to exit
// after SIGINT before it is killed.
const DefaultInterruptGrace = 10 * time.Second

// ExecOptions configure the command-line stylizer.
type ExecOptions struct {
	// Command is the argv template. Arguments may contain the placeholders
	// {content}, {styles}, {output}, {end_scale}, {seed} and {devices}.
	Command        []string
	InterruptGrace time.Duration
	// ScratchDir is the parent of per-run work directories; empty means
	// os.TempDir.
	ScratchDir string
}

// Exec runs an external style-transfer command. Inputs are written as PNG
// tagged with the canonical profile and the command is expected to write
// a PNG, JPEG or TIFF to {output}.
type Exec struct {
	opts      ExecOptions
	canonical *color.Canonical
	log       zerolog.Logger

	result *ir.Image
}

func NewExec(opts ExecOptions, canonical *color.Canonical, log zerolog.Logger) (*Exec, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("stylizer command not configured")
	}
	if opts.InterruptGrace <= 0 {
		opts.InterruptGrace = DefaultInterruptGrace
	}
	return &Exec{opts: opts, canonical: canonical, log: log}, nil
}

type placeholders struct {
	content, output string
	styles          []string
	endScale        int
	seed            int64
	devices         []string
}

// expand substitutes placeholders in argv. An argument that is exactly
// {styles} or {devices} expands to one argument per entry; embedded in a
// longer argument they are joined with commas.
func (p placeholders) expand(argv []string) []string {
	r := strings.NewReplacer(
		"{content}", p.content,
		"{styles}", strings.Join(p.styles, ","),
		"{output}", p.output,
		"{end_scale}", strconv.Itoa(p.endScale),
		"{seed}", strconv.FormatInt(p.seed, 10),
		"{devices}", strings.Join(p.devices, ","),
	)
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		switch a {
		case "{styles}":
			out = append(out, p.styles...)
		case "{devices}":
			out = append(out, p.devices...)
		default:
			out = append(out, r.Replace(a))
		}
	}
	return out
}

// Stylize runs the command once. On cancellation the child receives SIGINT
// and whatever it wrote to {output} becomes the result.
func (e *Exec) Stylize(ctx context.Context, req Request) error {
	e.result = nil
	if err := req.Validate(); err != nil {
		return err
	}

	base := e.opts.ScratchDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "stylebatch-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	contentPath := filepath.Join(dir, "content.png")
	if err := e.writeInput(contentPath, req.Content); err != nil {
		return err
	}
	stylePaths := make([]string, len(req.Styles))
	for i, s := range req.Styles {
		stylePaths[i] = filepath.Join(dir, fmt.Sprintf("style-%d.png", i))
		if err := e.writeInput(stylePaths[i], s); err != nil {
			return err
		}
	}
	outputPath := filepath.Join(dir, "output.png")

	devs := req.Devices.Devices()
	ids := make([]string, len(devs))
	for i, d := range devs {
		ids[i] = d.String()
	}
	argv := placeholders{
		content:  contentPath,
		styles:   stylePaths,
		output:   outputPath,
		endScale: req.EndScale,
		seed:     req.Seed,
		devices:  ids,
	}.expand(e.opts.Command)

	runErr := e.run(ctx, argv)
	interrupted := ctx.Err() != nil

	collectErr := e.collect(outputPath)

	switch {
	case interrupted:
		if collectErr != nil {
			e.log.Warn().Err(collectErr).Msg("Discarding unreadable partial output")
		}
		return errors.Join(ErrInterrupted, ctx.Err())
	case runErr != nil:
		return runErr
	}
	return collectErr
}

func (e *Exec) writeInput(path string, img *ir.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stylizer input: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img.ToRGB().Image(), e.canonical.Bytes()); err != nil {
		return fmt.Errorf("encoding stylizer input: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing stylizer input: %w", err)
	}
	return f.Close()
}

func (e *Exec) run(ctx context.Context, argv []string) error {
	cmd := commandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = e.opts.InterruptGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	e.log.Debug().Strs("argv", argv).Msg("Starting stylizer")
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start stylizer: %w", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e.log.Debug().Str("stream", "stylizer").Msg(line)
		tail = append(tail, line)
		if len(tail) > 5 {
			tail = tail[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		e.log.Debug().Err(err).Msg("Stylizer output no longer logged")
	}
	// The child blocks on a full pipe unless the rest is read.
	_, _ = io.Copy(io.Discard, stdout)

	err = cmd.Wait()
	e.log.Debug().Dur("elapsed", time.Since(start)).Msg("Stylizer exited")
	if err != nil {
		return fmt.Errorf("stylizer failed: %w: %s", err, strings.Join(tail, " | "))
	}
	return nil
}

// scanProgressLines splits on '\r' as well as '\n' so progress bars that
// redraw in place are logged one frame at a time.
func scanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// collect loads the command's output. A missing file is not an error.
func (e *Exec) collect(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stylizer output: %w", err)
	}
	src, _, _, err := imageio.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding stylizer output: %w", err)
	}
	e.result = ir.FromImage(src, e.canonical.Bytes()).ToRGB()
	return nil
}

// Result returns the output of the last Stylize call.
func (e *Exec) Result(rep ir.Representation) (ir.Output, error) {
	if e.result == nil {
		return nil, ErrNoResult
	}
	return Convert(e.result, rep)
}

var _ Stylizer = (*Exec)(nil)
