package imageio

import (
	"fmt"

	"github.com/davesmith10/stylebatch/internal/ir"
)

// IOError reports a failure to read, decode, encode or write an image file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Kind names the error class for the top-level printer.
func (e *IOError) Kind() string { return "ImageIOError" }

// UnsupportedOutputError is returned when a result representation cannot
// be written to the requested file extension.
type UnsupportedOutputError struct {
	Representation ir.Representation
	Ext            string
}

func (e *UnsupportedOutputError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("cannot save %s output with extension %s", e.Representation, ext)
}

// Kind names the error class for the top-level printer.
func (e *UnsupportedOutputError) Kind() string { return "UnsupportedOutputError" }
