package harness

import (
	"fmt"

	"github.com/permutest/permutest/explore"
)

// Outcome is the observable result of one invocation: final shared state,
// per-thread progress, crashed threads, and whether the run deadlocked.
type Outcome struct {
	Final      map[string]int64
	Completed  []int // operations executed, per thread
	Crashed    []int // crashed thread ids, ascending
	Deadlocked bool
}

type faultKey struct {
	thread int
	op     int
}

// execution interprets one invocation of a scenario under scheduler control.
// It is the instrumented side of the scheduling protocol: sequential and
// fully deterministic, reporting one decision point per operation execution
// and asking the scheduler for the next thread whenever control can move.
type execution struct {
	scn   *Scenario
	sched *explore.Scheduler

	vars     map[string]int64
	register []int64
	pc       []int
	finished []bool
	crashed  []bool
	decided  []bool // current op already passed its decision point
	owner    map[string]int // mutex name -> owning thread
	faults   map[faultKey][]explore.FaultID
	pos      int
}

func newExecution(scn *Scenario, sched *explore.Scheduler) *execution {
	e := &execution{
		scn:      scn,
		sched:    sched,
		vars:     make(map[string]int64),
		register: make([]int64, len(scn.Threads)),
		pc:       make([]int, len(scn.Threads)),
		finished: make([]bool, len(scn.Threads)),
		crashed:  make([]bool, len(scn.Threads)),
		decided:  make([]bool, len(scn.Threads)),
		owner:    make(map[string]int),
		faults:   make(map[faultKey][]explore.FaultID, len(scn.Faults)),
		pos:      -1,
	}
	for i, f := range scn.Faults {
		k := faultKey{thread: f.Thread, op: f.OpIndex}
		e.faults[k] = append(e.faults[k], explore.FaultID(i+1))
	}
	return e
}

// SwitchableThreads implements explore.ThreadOracle. A thread is switchable
// when it is alive, has operations left, and is not blocked on a mutex held
// by someone else. Ids come back in ascending order.
func (e *execution) SwitchableThreads(excluding int) []int {
	var out []int
	for t := range e.scn.Threads {
		if t == excluding || !e.runnable(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (e *execution) runnable(t int) bool {
	return !e.finished[t] && !e.crashed[t] && !e.blocked(t)
}

func (e *execution) blocked(t int) bool {
	if e.finished[t] || e.crashed[t] {
		return false
	}
	op := e.scn.Threads[t][e.pc[t]]
	if op.Kind != OpLock {
		return false
	}
	owner, held := e.owner[op.Var]
	return held && owner != t
}

// done reports whether every thread has either finished or crashed.
func (e *execution) done() bool {
	for t := range e.scn.Threads {
		if !e.finished[t] && !e.crashed[t] {
			return false
		}
	}
	return true
}

// run drives one invocation to completion or deadlock. A non-nil error means
// the scheduling protocol itself failed and the invocation must be abandoned.
func (e *execution) run() (*Outcome, error) {
	cur, err := e.sched.ChooseNextThread(explore.NoThread)
	if err != nil {
		return nil, err
	}
	for !e.done() {
		// A thread that finished, crashed, or blocked on a mutex cannot
		// continue. Control moves without a new decision position.
		if !e.runnable(cur) {
			next, err := e.yield(cur)
			if err != nil {
				return nil, err
			}
			if next == explore.NoThread {
				return e.outcome(true), nil
			}
			cur = next
			continue
		}

		// Each operation gets exactly one decision position, consulted on its
		// first attempt. A preempted op resumes without minting a new one, so
		// positions per invocation are bounded by the scenario's op count.
		if !e.decided[cur] {
			e.pos++
			d, err := e.sched.OnDecisionPoint(cur, e.pos, e.eligibleFaults(cur))
			if err != nil {
				return nil, err
			}
			if d.Switch {
				if d.Fault != explore.FaultNone {
					e.crashed[cur] = true
					continue
				}
				next, err := e.yield(cur)
				if err != nil {
					return nil, err
				}
				if next != explore.NoThread {
					e.decided[cur] = true
					cur = next
					continue
				}
				// Nobody else can run; the current thread carries on.
			}
		}

		if err := e.step(cur); err != nil {
			return nil, err
		}
		e.decided[cur] = false
	}
	return e.outcome(false), nil
}

// yield hands control to another thread, or reports NoThread when no thread
// is switchable. The scheduler is consulted only when candidates exist, so a
// forced switch cannot desynchronize a replayed record.
func (e *execution) yield(cur int) (int, error) {
	if len(e.SwitchableThreads(cur)) == 0 {
		return explore.NoThread, nil
	}
	return e.sched.ChooseNextThread(cur)
}

func (e *execution) eligibleFaults(t int) []explore.FaultID {
	return e.faults[faultKey{thread: t, op: e.pc[t]}]
}

// step executes the current operation of thread t and advances its counter.
func (e *execution) step(t int) error {
	op := e.scn.Threads[t][e.pc[t]]
	switch op.Kind {
	case OpRead:
		e.register[t] = e.vars[op.Var]
	case OpWrite:
		e.vars[op.Var] = e.register[t] + op.Delta
	case OpAdd:
		e.vars[op.Var] += op.Delta
	case OpLock:
		if owner, held := e.owner[op.Var]; held && owner != t {
			return fmt.Errorf("thread %d stepped into mutex %q held by thread %d", t, op.Var, owner)
		}
		e.owner[op.Var] = t
	case OpUnlock:
		owner, held := e.owner[op.Var]
		if !held || owner != t {
			return fmt.Errorf("thread %d unlocks mutex %q it does not hold", t, op.Var)
		}
		delete(e.owner, op.Var)
	default:
		return fmt.Errorf("thread %d op %d: unknown op kind %q", t, e.pc[t], op.Kind)
	}
	e.pc[t]++
	if e.pc[t] == len(e.scn.Threads[t]) {
		e.finished[t] = true
	}
	return nil
}

func (e *execution) outcome(deadlocked bool) *Outcome {
	out := &Outcome{
		Final:      make(map[string]int64, len(e.vars)),
		Completed:  make([]int, len(e.pc)),
		Deadlocked: deadlocked,
	}
	for k, v := range e.vars {
		out.Final[k] = v
	}
	copy(out.Completed, e.pc)
	for t := range e.scn.Threads {
		if e.crashed[t] {
			out.Crashed = append(out.Crashed, t)
		}
	}
	return out
}
