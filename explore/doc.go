// Package explore implements the interleaving-exploration scheduler: the
// decision tree and tactics that pick, at every decision point of a
// concurrent test scenario, which thread runs next or which fault fires,
// while never re-exploring a covered execution and supporting exact replay
// of a discovered failure.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - node.go: the decision tree (thread/switch/event choices) and its
//     exploration statistics
//   - interleaving.go: one record of predetermined choices, its replay
//     cursors, and how a replay grows the tree at the frontier
//   - scheduler.go: the façade the harness drives, one invocation at a time
//
// # Architecture
//
// A Tactic (tactic.go and the tactic_*.go files) walks the tree to produce
// the next Interleaving record; the harness replays the record, calling
// OnDecisionPoint / ChooseNextThread at every decision point; newly observed
// positions queue up at the single uninitialized frontier node; on
// OnInvocationComplete the frontier is committed (or rolled back on abort)
// and exploration statistics bubble bottom-up along the walked path.
//
// The scheduler is single-threaded by contract: the harness serializes all
// callbacks. Determinism comes from the partitioned RNG (rng.go): every
// random stream derives from the master seed, and the record's fallback
// stream is re-seeded identically on every replay.
//
// # Key Interfaces
//
//   - Tactic: hasNext/produceNext plus per-node walk hooks; three built-ins
//     (exhaustive, weighted-random, descend), chosen by name via NewTactic
//   - ThreadOracle: the harness-owned query for currently switchable threads
package explore
