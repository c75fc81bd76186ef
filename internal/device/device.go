// Package device enumerates compute devices and validates the set handed
// to the stylizer.
package device

import (
	"fmt"
	"strings"
)

// Class is the kind of compute device.
type Class string

const (
	CPU  Class = "cpu"
	CUDA Class = "cuda"
)

// MaxDevices is the largest set the stylizer accepts.
const MaxDevices = 2

// Device is one compute device with its capability metadata. GPU fields
// are zero for the CPU and Threads is zero for GPUs.
type Device struct {
	Class        Class
	Index        int
	Name         string
	ComputeMajor int
	ComputeMinor int
	TotalMemory  uint64 // bytes
	Threads      int
}

// String returns the device identifier passed to the stylizer, e.g. "cuda:0".
func (d Device) String() string {
	if d.Class == CPU {
		return string(CPU)
	}
	return fmt.Sprintf("%s:%d", d.Class, d.Index)
}

// ValidationError reports a device set that violates the selection rules.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid device selection: %s: %v", e.Reason, e.Err)
	}
	return "invalid device selection: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Kind names the error class for the top-level printer.
func (e *ValidationError) Kind() string { return "DeviceValidationError" }

// Set holds one or two devices of the same class.
type Set struct {
	devices [MaxDevices]Device
	n       int
}

// NewSet validates devs and returns them as a Set.
func NewSet(devs ...Device) (Set, error) {
	if len(devs) == 0 {
		return Set{}, &ValidationError{Reason: "no devices selected"}
	}
	if len(devs) > MaxDevices {
		return Set{}, &ValidationError{Reason: fmt.Sprintf("%d devices selected, at most %d supported", len(devs), MaxDevices)}
	}
	var s Set
	for i, d := range devs {
		if d.Class != CPU && d.Class != CUDA {
			return Set{}, &ValidationError{Reason: fmt.Sprintf("unknown device class %q", d.Class)}
		}
		if d.Class != devs[0].Class {
			return Set{}, &ValidationError{Reason: fmt.Sprintf("mixed device classes %s and %s", devs[0].Class, d.Class)}
		}
		for _, prev := range devs[:i] {
			if prev.Index == d.Index {
				return Set{}, &ValidationError{Reason: fmt.Sprintf("device %s selected twice", d)}
			}
		}
		s.devices[i] = d
	}
	s.n = len(devs)
	return s, nil
}

// Len returns the number of devices.
func (s Set) Len() int { return s.n }

// Class returns the shared device class.
func (s Set) Class() Class {
	if s.n == 0 {
		return ""
	}
	return s.devices[0].Class
}

// Devices returns a copy of the devices in selection order.
func (s Set) Devices() []Device {
	out := make([]Device, s.n)
	copy(out, s.devices[:s.n])
	return out
}

// String joins the device identifiers with commas.
func (s Set) String() string {
	ids := make([]string, s.n)
	for i, d := range s.devices[:s.n] {
		ids[i] = d.String()
	}
	return strings.Join(ids, ",")
}
