package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Preference chooses the device class.
type Preference string

const (
	PreferAuto Preference = "auto"
	PreferCPU  Preference = "cpu"
	PreferCUDA Preference = "cuda"
)

// ParsePreference accepts auto, cpu or cuda; empty means auto.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PreferAuto, nil
	case PreferAuto, PreferCPU, PreferCUDA:
		return p, nil
	default:
		return "", fmt.Errorf("unknown device preference %q (want auto, cpu or cuda)", s)
	}
}

// Options control device selection.
type Options struct {
	Prefer     Preference
	Count      int // GPUs requested, default 1
	CPUThreads int // 0 means runtime.GOMAXPROCS
}

// Selector picks the devices for one job.
type Selector struct {
	opts   Options
	prober Prober
	log    zerolog.Logger
}

func NewSelector(opts Options, prober Prober, log zerolog.Logger) *Selector {
	if opts.Prefer == "" {
		opts.Prefer = PreferAuto
	}
	if opts.Count == 0 {
		opts.Count = 1
	}
	return &Selector{opts: opts, prober: prober, log: log}
}

// Select enumerates devices, validates the choice and logs a report.
func (s *Selector) Select(ctx context.Context) (Set, error) {
	set, err := s.choose(ctx)
	if err != nil {
		return Set{}, err
	}
	for _, line := range Report(set) {
		s.log.Info().Msg(line)
	}
	return set, nil
}

func (s *Selector) choose(ctx context.Context) (Set, error) {
	if s.opts.Prefer == PreferCPU {
		return s.cpu()
	}

	gpus, err := s.prober.ProbeGPUs(ctx)
	if err != nil {
		if s.opts.Prefer == PreferCUDA {
			return Set{}, &ValidationError{Reason: "cuda requested but no GPU could be enumerated", Err: err}
		}
		if !errors.Is(err, ErrNoRuntime) {
			s.log.Warn().Err(err).Msg("GPU probe failed, falling back to CPU")
		}
		return s.cpu()
	}
	if len(gpus) == 0 {
		if s.opts.Prefer == PreferCUDA {
			return Set{}, &ValidationError{Reason: "cuda requested but no GPU is present"}
		}
		return s.cpu()
	}

	if s.opts.Count > len(gpus) {
		return Set{}, &ValidationError{Reason: fmt.Sprintf("%d GPUs requested, %d available", s.opts.Count, len(gpus))}
	}
	if s.opts.Count < 1 {
		return Set{}, &ValidationError{Reason: fmt.Sprintf("device count must be at least 1, got %d", s.opts.Count)}
	}
	return NewSet(gpus[:s.opts.Count]...)
}

func (s *Selector) cpu() (Set, error) {
	if s.opts.Count > 1 {
		s.log.Warn().Int("count", s.opts.Count).Msg("Device count ignored for CPU")
	}
	threads := s.opts.CPUThreads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return NewSet(Device{Class: CPU, Threads: threads})
}

// GiB rounds a byte count to whole gibibytes.
func GiB(b uint64) int {
	return int(math.Round(float64(b) / (1 << 30)))
}

// Report describes the set one line per fact.
func Report(set Set) []string {
	devs := set.Devices()
	ids := make([]string, len(devs))
	for i, d := range devs {
		ids[i] = d.String()
	}
	lines := []string{"Using devices: " + strings.Join(ids, " ")}
	for i, d := range devs {
		switch d.Class {
		case CPU:
			lines = append(lines, fmt.Sprintf("CPU threads: %d", d.Threads))
		case CUDA:
			lines = append(lines,
				fmt.Sprintf("GPU %d type: %s (compute %d.%d)", i, d.Name, d.ComputeMajor, d.ComputeMinor),
				fmt.Sprintf("GPU %d RAM: %d GB", i, GiB(d.TotalMemory)),
			)
		}
	}
	return lines
}
