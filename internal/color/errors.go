package color

import "fmt"

// ConversionError reports a malformed profile or a transform the color
// engine refused to build.
type ConversionError struct {
	Op  string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Kind names the error class for the top-level printer.
func (e *ConversionError) Kind() string { return "ColorConversionError" }
