package sim

// Config groups engine parameters for NewSimulator.
// The zero value runs until the workload drains with no per-tick checks.
type Config struct {
	Horizon         int64 // stop once Clock reaches Horizon (0 = unlimited)
	CheckInvariants bool  // run CheckInvariants after every tick
}
