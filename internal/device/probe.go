package device

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoRuntime means the GPU runtime is not installed.
var ErrNoRuntime = errors.New("GPU runtime not available")

// Prober lists the GPUs visible to the process.
type Prober interface {
	ProbeGPUs(ctx context.Context) ([]Device, error)
}

// NvidiaSMI queries GPUs through the nvidia-smi command.
type NvidiaSMI struct {
	// Path overrides the executable looked up on PATH.
	Path string
}

var nvidiaSMIArgs = []string{
	"--query-gpu=index,name,compute_cap,memory.total",
	"--format=csv,noheader,nounits",
}

// ProbeGPUs runs nvidia-smi and parses its CSV output.
func (n NvidiaSMI) ProbeGPUs(ctx context.Context) ([]Device, error) {
	bin := n.Path
	if bin == "" {
		bin = "nvidia-smi"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRuntime, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, nvidiaSMIArgs...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		return nil, fmt.Errorf("nvidia-smi: %w: %s", err, msg)
	}
	return ParseNvidiaSMI(out)
}

// ParseNvidiaSMI parses "index, name, compute_cap, memory.total" rows with
// memory in MiB.
func ParseNvidiaSMI(out []byte) ([]Device, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 4

	var devs []Device
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing nvidia-smi output: %w", err)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("parsing GPU index %q: %w", rec[0], err)
		}
		major, minor, err := parseComputeCap(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, err
		}
		mib, err := strconv.ParseUint(strings.TrimSpace(rec[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing GPU memory %q: %w", rec[3], err)
		}
		devs = append(devs, Device{
			Class:        CUDA,
			Index:        idx,
			Name:         strings.TrimSpace(rec[1]),
			ComputeMajor: major,
			ComputeMinor: minor,
			TotalMemory:  mib << 20,
		})
	}
	return devs, nil
}

func parseComputeCap(s string) (int, int, error) {
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("parsing compute capability %q: missing '.'", s)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing compute capability %q: %w", s, err)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing compute capability %q: %w", s, err)
	}
	return major, minor, nil
}
