package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents int
	Forks       int
	Exits       int
	Blocks      int
	Runs        int
	Acquires    int
	Releases    int
	IdleTicks   int
	RunOrder    []int       // pid of every executed tick, in tick order
	RunTicks    map[int]int // pid → executed ticks
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RunOrder: make([]int, 0),
		RunTicks: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Records)
	for _, r := range st.Records {
		switch r.Kind {
		case EventFork:
			summary.Forks++
		case EventExit:
			summary.Exits++
		case EventBlock:
			summary.Blocks++
		case EventRun:
			summary.Runs++
			summary.RunOrder = append(summary.RunOrder, r.PID)
			summary.RunTicks[r.PID]++
		case EventAcquire:
			summary.Acquires++
		case EventRelease:
			summary.Releases++
		case EventIdle:
			summary.IdleTicks++
		}
	}
	return summary
}
