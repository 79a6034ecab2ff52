package workload

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteScript renders the spec in the process script format.
// ParseScript(WriteScript(spec)) yields the same processes.
func WriteScript(w io.Writer, spec *WorkloadSpec) error {
	bw := bufio.NewWriter(w)
	if spec.Name != "" {
		fmt.Fprintf(bw, "# %s\n\n", spec.Name)
	}
	for i, p := range spec.Processes {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "process %d\n", p.PID)
		fmt.Fprintf(bw, "\tlifespan %d\n", p.Lifespan)
		fmt.Fprintf(bw, "\tprio %d\n", p.Priority)
		fmt.Fprintf(bw, "\tstart %d\n", p.Start)
		for _, a := range p.Acquire {
			fmt.Fprintf(bw, "\tacquire %d %d %d\n", a.Resource, a.At, a.Duration)
		}
		fmt.Fprintln(bw, "end")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing workload script: %w", err)
	}
	return nil
}

// WriteYAML renders the spec as a YAML workload specification.
func WriteYAML(w io.Writer, spec *WorkloadSpec) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return fmt.Errorf("encoding workload spec: %w", err)
	}
	return enc.Close()
}

// WriteBriefing prints one paragraph per process describing when it forks,
// how long it runs and which resources it acquires.
func WriteBriefing(w io.Writer, spec *WorkloadSpec) {
	for _, p := range spec.Processes {
		plural := "s"
		if p.Lifespan == 1 {
			plural = ""
		}
		fmt.Fprintf(w, "- Process %d: Forked at tick %d and run for %d tick%s with initial priority %d\n",
			p.PID, p.Start, p.Lifespan, plural, p.Priority)
		for _, a := range p.Acquire {
			fmt.Fprintf(w, "    Acquire resource %d at %d for %d\n", a.Resource, a.At, a.Duration)
		}
	}
}
