// Package workload loads scheduler workloads from process scripts and YAML
// specs and converts between the two formats.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/schedsim/sim"
)

// ErrMalformed marks a workload that cannot be loaded. Errors from the
// script parser carry the offending line number.
var ErrMalformed = errors.New("malformed workload")

// SpecVersion is the current YAML workload format version.
const SpecVersion = "1"

// WorkloadSpec is the format-independent description of a workload.
// Loaded from YAML via LoadWorkloadSpec(path) or from a script via LoadScript(path).
type WorkloadSpec struct {
	Version   string        `yaml:"version"`
	Name      string        `yaml:"name,omitempty"`
	Processes []ProcessSpec `yaml:"processes"`
}

// ProcessSpec describes a single process.
type ProcessSpec struct {
	PID      int           `yaml:"pid"`
	Lifespan int           `yaml:"lifespan"`
	Priority int           `yaml:"priority"`
	Start    int64         `yaml:"start"`
	Acquire  []AcquireSpec `yaml:"acquire,omitempty"`
}

// AcquireSpec schedules a resource acquisition at a process age.
type AcquireSpec struct {
	Resource int `yaml:"resource"`
	At       int `yaml:"at"`
	Duration int `yaml:"duration"`
}

// LoadWorkloadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	spec, err := ParseWorkloadSpec(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if spec.Name == "" {
		spec.Name = nameFromPath(path)
	}
	return spec, nil
}

// ParseWorkloadSpec decodes and validates a YAML workload specification.
func ParseWorkloadSpec(r io.Reader) (*WorkloadSpec, error) {
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing workload spec: %v", ErrMalformed, err)
	}
	if spec.Version == "" {
		spec.Version = SpecVersion
	}
	if spec.Version != SpecVersion {
		return nil, fmt.Errorf("%w: unsupported version %q; valid: %s", ErrMalformed, spec.Version, SpecVersion)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks that every process of the spec can be simulated.
func (s *WorkloadSpec) Validate() error {
	seen := make(map[int]bool, len(s.Processes))
	for i := range s.Processes {
		p := &s.Processes[i]
		if seen[p.PID] {
			return fmt.Errorf("%w: duplicate pid %d", ErrMalformed, p.PID)
		}
		seen[p.PID] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	return nil
}

// Validate checks the fields of a single process.
func (p *ProcessSpec) Validate() error {
	prefix := fmt.Sprintf("process %d", p.PID)
	switch {
	case p.PID < 0:
		return fmt.Errorf("%s: pid must be non-negative", prefix)
	case p.Lifespan < 1:
		return fmt.Errorf("%s: lifespan must be positive, got %d", prefix, p.Lifespan)
	case p.Start < 0:
		return fmt.Errorf("%s: start must be non-negative, got %d", prefix, p.Start)
	case p.Priority < 0 || p.Priority > sim.MaxPriority:
		return fmt.Errorf("%s: prio must be in [0, %d], got %d", prefix, sim.MaxPriority, p.Priority)
	}
	for _, a := range p.Acquire {
		if !sim.IsValidResource(a.Resource) {
			return fmt.Errorf("%s: resource %d out of range [0, %d)", prefix, a.Resource, sim.NumResources)
		}
		if a.At < 0 {
			return fmt.Errorf("%s: acquire %d: at must be non-negative, got %d", prefix, a.Resource, a.At)
		}
		if a.Duration < 1 {
			return fmt.Errorf("%s: acquire %d: duration must be positive, got %d", prefix, a.Resource, a.Duration)
		}
		if a.At+a.Duration > p.Lifespan {
			return fmt.Errorf("%s: acquire %d at %d for %d outlives lifespan %d",
				prefix, a.Resource, a.At, a.Duration, p.Lifespan)
		}
	}
	return nil
}

// NewProcesses builds fresh simulator processes in spec order.
// Each call returns new processes, so one spec can drive several runs.
func (s *WorkloadSpec) NewProcesses() []*sim.Process {
	procs := make([]*sim.Process, 0, len(s.Processes))
	for _, ps := range s.Processes {
		reqs := make([]sim.ResourceRequest, len(ps.Acquire))
		for i, a := range ps.Acquire {
			reqs[i] = sim.ResourceRequest{ResourceID: a.Resource, At: a.At, Duration: a.Duration}
		}
		procs = append(procs, sim.NewProcess(ps.PID, ps.Lifespan, ps.Priority, ps.Start, reqs...))
	}
	return procs
}

// Load reads a workload from path, dispatching on the extension:
// .yaml and .yml files are YAML specs, anything else is a process script.
func Load(path string) (*WorkloadSpec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadWorkloadSpec(path)
	default:
		return LoadScript(path)
	}
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
