// Package logging builds the process logger and prints fatal errors.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options select the logger level and output format (auto, console or json).
type Options struct {
	Level  zerolog.Level
	Format string
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New returns a logger writing to out. In auto format, terminals get the
// human-readable console writer and everything else gets JSON lines.
func New(out *os.File, opts Options) zerolog.Logger {
	console := opts.Format == "console" || (opts.Format != "json" && IsTerminal(out))
	return NewWriter(out, opts.Level, console)
}

// NewWriter returns a logger writing to w.
func NewWriter(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

type kinded interface {
	Kind() string
}

// Kind returns the class name of err, taken from the first error in its
// chain that reports one.
func Kind(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}

// PrintError writes err as "KIND: message" with the kind in red.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	red := color.New(color.FgRed)
	fmt.Fprintf(w, "%s %s\n", red.Sprint(Kind(err)+":"), err)
}
