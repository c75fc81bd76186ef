package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// DefaultExtensions are the input extensions the batch runner picks up.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff", ".bmp"}

// ErrBatchFailed is returned after a continue-on-error batch in which at
// least one item failed.
var ErrBatchFailed = errors.New("one or more batch items failed")

// ErrorPolicy decides what a batch does when an item fails.
type ErrorPolicy string

const (
	OnErrorAbort    ErrorPolicy = "abort"
	OnErrorContinue ErrorPolicy = "continue"
)

// ParseErrorPolicy accepts abort or continue; empty means abort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OnErrorAbort, nil
	case OnErrorAbort, OnErrorContinue:
		return p, nil
	default:
		return "", fmt.Errorf("unknown error policy %q (want abort or continue)", s)
	}
}

// JobRunner runs one stylization job.
type JobRunner interface {
	Run(ctx context.Context, contentPath, stylePath, destPath string) (Result, error)
}

// BatchOptions configure a directory run.
type BatchOptions struct {
	OnError      ErrorPolicy
	SkipExisting bool
	Extensions   []string
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

// ItemStatus is the outcome of one batch item.
type ItemStatus string

const (
	StatusSaved       ItemStatus = "saved"
	StatusInterrupted ItemStatus = "interrupted"
	StatusNoResult    ItemStatus = "no result"
	StatusSkipped     ItemStatus = "skipped"
	StatusFailed      ItemStatus = "failed"
)

// Item records one processed file.
type Item struct {
	Name     string
	Content  string
	Dest     string
	Status   ItemStatus
	EndScale int
	Duration time.Duration
	Err      error
}

// Summary collects the items of a batch in processing order.
type Summary struct {
	Items []Item
}

// Count returns the number of items with the given status.
func (s *Summary) Count(status ItemStatus) int {
	n := 0
	for _, it := range s.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// Batch stylizes every image of a directory with one style.
type Batch struct {
	runner JobRunner
	opts   BatchOptions
	log    zerolog.Logger
}

func NewBatch(runner JobRunner, opts BatchOptions, log zerolog.Logger) *Batch {
	if opts.OnError == "" {
		opts.OnError = OnErrorAbort
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	return &Batch{runner: runner, opts: opts, log: log}
}

// ListInputs returns the regular files of dir whose extension is in exts,
// sorted by name.
func ListInputs(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir: %w", err)
	}
	want := make([]string, len(exts))
	for i, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[i] = e
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if slices.Contains(want, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Run processes contentDir into outDir, writing each result under the same
// file name. The context is checked between items.
func (b *Batch) Run(ctx context.Context, contentDir, stylePath, outDir string) (*Summary, error) {
	if same, err := samePath(contentDir, outDir); err != nil {
		return nil, err
	} else if same {
		return nil, errors.New("output directory must differ from content directory")
	}

	names, err := ListInputs(contentDir, b.opts.Extensions)
	if err != nil {
		return nil, err
	}
	b.log.Info().Int("files", len(names)).Str("content_dir", contentDir).Str("out_dir", outDir).Msg("Starting batch")

	var bar *progressbar.ProgressBar
	if b.opts.Progress != nil && len(names) > 0 {
		bar = progressbar.NewOptions(len(names),
			progressbar.OptionSetWriter(b.opts.Progress),
			progressbar.OptionSetDescription("stylizing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	summary := &Summary{}
	for _, name := range names {
		// The CLI cancels ctx on SIGTERM.
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch stopped: %w", err)
		}
		if bar != nil {
			bar.Describe(name)
		}

		item := b.runItem(ctx, name, filepath.Join(contentDir, name), stylePath, filepath.Join(outDir, name))
		summary.Items = append(summary.Items, item)
		if bar != nil {
			_ = bar.Add(1)
		}

		if item.Status == StatusFailed {
			if b.opts.OnError == OnErrorAbort {
				return summary, fmt.Errorf("%s: %w", name, item.Err)
			}
			b.log.Error().Err(item.Err).Str("file", name).Msg("Item failed, continuing")
		}
	}

	if n := summary.Count(StatusFailed); n > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrBatchFailed, n, len(names))
	}
	return summary, nil
}

func (b *Batch) runItem(ctx context.Context, name, content, style, dest string) Item {
	item := Item{Name: name, Content: content, Dest: dest}
	if b.opts.SkipExisting {
		if _, err := os.Stat(dest); err == nil {
			b.log.Info().Str("file", name).Msg("Output exists, skipping")
			item.Status = StatusSkipped
			return item
		}
	}

	res, err := b.runner.Run(ctx, content, style, dest)
	item.EndScale = res.EndScale
	item.Duration = res.Duration
	switch {
	case err != nil:
		item.Status = StatusFailed
		item.Err = err
	case res.Saved && res.Interrupted:
		item.Status = StatusInterrupted
	case res.Saved:
		item.Status = StatusSaved
	default:
		item.Status = StatusNoResult
	}
	return item
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return filepath.Clean(absA) == filepath.Clean(absB), nil
}
