package sim

import (
	"fmt"
	"slices"
)

// Policy decides which process runs at every tick and supplies the resource
// protocol used for acquisitions and releases.
//
// Hooks run inside the engine loop:
//   - Initialize / Finalize: once before the first tick and after the last
//   - Forked: after a process is admitted to the ready queue
//   - Exiting: after a process is retired
//   - Schedule: once per tick, returns the process to run or nil to idle
//
// Schedule owns the handoff: a Running current process that is not returned
// must be put back on the ready queue (Simulator.Requeue). A Waiting or
// finished current process is left to the engine.
type Policy interface {
	Name() string
	Initialize(s *Simulator) error
	Finalize(s *Simulator)
	Forked(s *Simulator, p *Process)
	Exiting(s *Simulator, p *Process)
	Schedule(s *Simulator) *Process
	// Arbiter returns the resource protocol. A policy without one cannot run
	// workloads that acquire resources.
	Arbiter() Arbiter
}

// basePolicy provides the name, the arbiter and no-op lifecycle hooks.
type basePolicy struct {
	name    string
	arbiter Arbiter
}

func (b *basePolicy) Name() string                     { return b.name }
func (b *basePolicy) Arbiter() Arbiter                 { return b.arbiter }
func (b *basePolicy) Initialize(_ *Simulator) error    { return nil }
func (b *basePolicy) Finalize(_ *Simulator)            {}
func (b *basePolicy) Forked(_ *Simulator, _ *Process)  {}
func (b *basePolicy) Exiting(_ *Simulator, _ *Process) {}

// policyAliases maps the single-letter policy flags onto policy names.
var policyAliases = map[string]string{
	"":  "fifo",
	"f": "fifo",
	"s": "sjf",
	"S": "srtf",
	"r": "rr",
	"p": "prio",
	"a": "aging",
	"c": "pcp",
	"i": "pip",
}

// policyNames lists the policies in presentation order.
var policyNames = []string{"fifo", "sjf", "srtf", "rr", "prio", "aging", "pcp", "pip"}

// PolicyDescriptions gives a one-line description per policy name.
var PolicyDescriptions = map[string]string{
	"fifo":  "First-In First-Out",
	"sjf":   "Shortest-Job First",
	"srtf":  "Shortest Remaining Time First",
	"rr":    "Round-Robin",
	"prio":  "Priority",
	"aging": "Priority + aging",
	"pcp":   "Priority + Priority Ceiling Protocol",
	"pip":   "Priority + Priority Inheritance Protocol",
}

// ValidPolicies is the set of recognized policy names and aliases.
// Shared by IsValidPolicy() and NewPolicy() to avoid duplication.
var ValidPolicies = func() map[string]bool {
	m := make(map[string]bool, len(policyNames)+len(policyAliases))
	for _, n := range policyNames {
		m[n] = true
	}
	for a := range policyAliases {
		m[a] = true
	}
	return m
}()

// IsValidPolicy returns true if name is a recognized policy name or alias.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// PolicyNames returns the canonical policy names in presentation order.
func PolicyNames() []string {
	return append([]string(nil), policyNames...)
}

// PolicyAliases returns the short aliases of a policy name, sorted.
func PolicyAliases(name string) []string {
	aliases := make([]string, 0, 1)
	for a, n := range policyAliases {
		if n == name && a != "" {
			aliases = append(aliases, a)
		}
	}
	slices.Sort(aliases)
	return aliases
}

// CanonicalPolicyName resolves an alias to its policy name.
// Unknown names are returned unchanged.
func CanonicalPolicyName(name string) string {
	if canonical, ok := policyAliases[name]; ok {
		return canonical
	}
	return name
}

// NewPolicy creates a Policy by name or alias.
// Valid names: "fifo" (default), "sjf", "srtf", "rr", "prio", "aging", "pcp", "pip".
// Empty string defaults to FIFO (for CLI flag default compatibility).
// Panics on unrecognized names.
func NewPolicy(name string) Policy {
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown policy %q", name))
	}
	name = CanonicalPolicyName(name)
	base := basePolicy{name: name, arbiter: FCFSArbiter{}}
	switch name {
	case "fifo":
		return &FIFOPolicy{basePolicy: base}
	case "sjf":
		return &SJFPolicy{basePolicy: base}
	case "srtf":
		return &SRTFPolicy{basePolicy: base}
	case "rr":
		return &RoundRobinPolicy{basePolicy: base}
	case "prio":
		base.arbiter = PriorityArbiter{}
		return &PriorityPolicy{basePolicy: base}
	case "aging":
		return &AgingPolicy{PriorityPolicy: PriorityPolicy{basePolicy: base}}
	case "pcp":
		base.arbiter = CeilingArbiter{}
		return &PriorityPolicy{basePolicy: base}
	case "pip":
		base.arbiter = InheritanceArbiter{}
		return &PriorityPolicy{basePolicy: base}
	default:
		panic(fmt.Sprintf("unhandled policy %q", name))
	}
}

// continuing reports whether the current process can keep the processor
// without a scheduling decision.
func continuing(p *Process) bool {
	return p != nil && p.Status == StatusRunning && !p.Finished()
}
