// Package harness executes declarative concurrency scenarios under the
// control of an exploration scheduler.
//
// A Scenario lists per-thread operations over shared variables and named
// mutexes. The execution interpreter runs them sequentially, reporting a
// decision point to the scheduler the first time each operation is attempted
// (a preempted op resumes without a new position) and yielding control
// wherever the scheduler, a mutex, or thread completion demands it.
// Because the interpreter is fully deterministic, a recorded interleaving
// replays to the identical outcome, which is what makes failures
// reproducible.
//
// The Runner ties the pieces together: it drives scheduler, interpreter and
// Verifier until a verdict is reached, and can replay any Failure it
// returned.
package harness
