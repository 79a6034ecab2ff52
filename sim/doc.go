// Package sim provides the tick-driven simulation engine of a single-processor
// scheduler.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - process.go: Process lifecycle (ready → running → waiting → exited)
//   - simulator.go: the tick loop (admission, selection, execution, releases)
//   - policy.go: the Policy interface and the name-based factory
//
// # Architecture
//
// A Policy decides which process runs next and bundles the Arbiter that
// decides the outcome of resource acquisitions and releases:
//   - scheduler.go: FIFO, SJF, SRTF and round-robin rules over FCFS resources
//   - priority.go: static priority, aging, priority ceiling and priority inheritance
//   - arbiter.go: FCFS, ceiling and inheritance resource protocols
//
// The engine owns every queue. Policies mutate state only through the
// Simulator helpers (Preempt, the ready queue and the process fields), so the
// single-queue membership of ProcessQueue holds across policy code.
//
// Sub-packages hold the data-only and I/O layers:
//   - sim/trace/: trace records, text and JSON rendering, summaries
//   - sim/workload/: workload script and YAML loaders, seeded generator
//   - sim/history/: SQLite run history
package sim
