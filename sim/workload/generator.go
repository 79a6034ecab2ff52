package workload

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inference-sim/schedsim/sim"
)

// GeneratorConfig shapes a randomly generated workload.
type GeneratorConfig struct {
	Processes          int     // Number of processes, pids 0..Processes-1
	MeanInterarrival   float64 // Mean ticks between forks (exponential); 0 forks everything at tick 0
	MinLifespan        int     // Shortest lifespan
	MaxLifespan        int     // Longest lifespan
	MaxPriority        int     // Priorities are drawn from [0, MaxPriority]
	Resources          int     // Acquisitions draw from resources 0..Resources-1
	MaxAcquires        int     // Acquisition attempts per process
	AcquireProbability float64 // Chance that each attempt yields an acquisition
}

// DefaultGeneratorConfig returns a small mixed workload with some contention.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Processes:          5,
		MeanInterarrival:   2,
		MinLifespan:        1,
		MaxLifespan:        8,
		MaxPriority:        10,
		Resources:          2,
		MaxAcquires:        1,
		AcquireProbability: 0.5,
	}
}

// Validate checks the generator bounds.
func (c GeneratorConfig) Validate() error {
	switch {
	case c.Processes < 0:
		return fmt.Errorf("processes must be non-negative, got %d", c.Processes)
	case c.MeanInterarrival < 0:
		return fmt.Errorf("mean interarrival must be non-negative, got %g", c.MeanInterarrival)
	case c.MinLifespan < 1 || c.MaxLifespan < c.MinLifespan:
		return fmt.Errorf("lifespan range [%d, %d] is empty or below 1", c.MinLifespan, c.MaxLifespan)
	case c.MaxPriority < 0 || c.MaxPriority > sim.MaxPriority:
		return fmt.Errorf("max priority must be in [0, %d], got %d", sim.MaxPriority, c.MaxPriority)
	case c.MaxAcquires < 0:
		return fmt.Errorf("max acquires must be non-negative, got %d", c.MaxAcquires)
	case c.AcquireProbability < 0 || c.AcquireProbability > 1:
		return fmt.Errorf("acquire probability must be in [0, 1], got %g", c.AcquireProbability)
	case c.MaxAcquires > 0 && (c.Resources < 1 || c.Resources > sim.NumResources):
		return fmt.Errorf("resources must be in [1, %d], got %d", sim.NumResources, c.Resources)
	}
	return nil
}

// Generate creates a random workload. Deterministic given the same config and seed.
// A process never acquires the same resource twice, and every hold ends
// before the process exits.
func Generate(cfg GeneratorConfig, seed int64) (*WorkloadSpec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	rng := NewPartitionedRNG(seed)
	arrivals := rng.ForSubsystem(SubsystemArrivals)
	lifespans := rng.ForSubsystem(SubsystemLifespans)
	priorities := rng.ForSubsystem(SubsystemPriorities)
	resources := rng.ForSubsystem(SubsystemResources)

	spec := &WorkloadSpec{
		Version:   SpecVersion,
		Name:      fmt.Sprintf("generated-%d", seed),
		Processes: make([]ProcessSpec, 0, cfg.Processes),
	}
	clock := 0.0
	for pid := 0; pid < cfg.Processes; pid++ {
		if pid > 0 {
			clock += arrivals.ExpFloat64() * cfg.MeanInterarrival
		}
		p := ProcessSpec{
			PID:      pid,
			Lifespan: cfg.MinLifespan + lifespans.Intn(cfg.MaxLifespan-cfg.MinLifespan+1),
			Priority: priorities.Intn(cfg.MaxPriority + 1),
			Start:    int64(clock),
		}
		for i := 0; i < cfg.MaxAcquires; i++ {
			if resources.Float64() >= cfg.AcquireProbability {
				continue
			}
			rid := resources.Intn(cfg.Resources)
			at := resources.Intn(p.Lifespan)
			duration := 1 + resources.Intn(p.Lifespan-at)
			if slices.ContainsFunc(p.Acquire, func(a AcquireSpec) bool { return a.Resource == rid }) {
				continue
			}
			p.Acquire = append(p.Acquire, AcquireSpec{Resource: rid, At: at, Duration: duration})
		}
		slices.SortStableFunc(p.Acquire, func(a, b AcquireSpec) int { return a.At - b.At })
		spec.Processes = append(spec.Processes, p)
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.Join(errors.New("generated workload is invalid"), err)
	}
	return spec, nil
}
