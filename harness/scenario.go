package harness

import "fmt"

// OpKind enumerates the abstract operations a scenario thread can perform.
type OpKind string

const (
	// OpRead loads a shared variable into the thread-local register.
	OpRead OpKind = "read"
	// OpWrite stores register+Delta into a shared variable. A read/write
	// pair models the non-atomic read-modify-write the engine is meant to
	// catch interleavings of.
	OpWrite OpKind = "write"
	// OpAdd adds Delta to a shared variable in one indivisible step.
	OpAdd OpKind = "add"
	// OpLock acquires a named mutex, blocking while another thread holds it.
	OpLock OpKind = "lock"
	// OpUnlock releases a named mutex held by this thread.
	OpUnlock OpKind = "unlock"
)

// ValidOpKinds is the set of recognized operation kinds. Shared by
// Scenario.Validate and the scenario YAML loader.
var ValidOpKinds = map[OpKind]bool{OpRead: true, OpWrite: true, OpAdd: true, OpLock: true, OpUnlock: true}

// Op is one step of a scenario thread.
type Op struct {
	Kind  OpKind
	Var   string // shared variable or mutex name
	Delta int64  // amount for write and add
}

// FaultSpec marks one operation as crash-eligible: exploration may kill the
// thread right before that operation executes.
type FaultSpec struct {
	Thread  int
	OpIndex int
}

// Scenario is a fixed concurrent test case: per-thread operation lists over
// shared variables and named mutexes, plus optional crash-eligible points.
// Thread ids are the indices into Threads.
type Scenario struct {
	Threads [][]Op
	Faults  []FaultSpec
}

// NumThreads returns the number of scenario threads.
func (s *Scenario) NumThreads() int { return len(s.Threads) }

// ThreadIDs returns the thread ids in ascending order.
func (s *Scenario) ThreadIDs() []int {
	ids := make([]int, len(s.Threads))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Validate checks structural soundness: non-empty threads, known op kinds,
// named variables, fault specs pointing at real operations.
func (s *Scenario) Validate() error {
	if len(s.Threads) == 0 {
		return fmt.Errorf("scenario needs at least one thread")
	}
	for ti, ops := range s.Threads {
		if len(ops) == 0 {
			return fmt.Errorf("thread %d has no operations", ti)
		}
		for oi, op := range ops {
			if !ValidOpKinds[op.Kind] {
				return fmt.Errorf("thread %d op %d: unknown op kind %q", ti, oi, op.Kind)
			}
			if op.Var == "" {
				return fmt.Errorf("thread %d op %d: missing variable name", ti, oi)
			}
		}
	}
	seen := make(map[FaultSpec]bool, len(s.Faults))
	for fi, f := range s.Faults {
		if f.Thread < 0 || f.Thread >= len(s.Threads) {
			return fmt.Errorf("fault %d: no such thread %d", fi, f.Thread)
		}
		if f.OpIndex < 0 || f.OpIndex >= len(s.Threads[f.Thread]) {
			return fmt.Errorf("fault %d: thread %d has no op %d", fi, f.Thread, f.OpIndex)
		}
		if seen[f] {
			return fmt.Errorf("fault %d: duplicate of thread %d op %d", fi, f.Thread, f.OpIndex)
		}
		seen[f] = true
	}
	return nil
}
