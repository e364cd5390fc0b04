package harness

import (
	"testing"

	"github.com/permutest/permutest/explore"
)

func singleThread(ops ...Op) *Scenario {
	return &Scenario{Threads: [][]Op{ops}}
}

// === Operation Semantics ===

func TestExecution_StepSemantics(t *testing.T) {
	scn := singleThread(
		Op{Kind: OpAdd, Var: "x", Delta: 2},
		Op{Kind: OpRead, Var: "x"},
		Op{Kind: OpWrite, Var: "y", Delta: 5},
		Op{Kind: OpLock, Var: "m"},
		Op{Kind: OpUnlock, Var: "m"},
	)
	e := newExecution(scn, nil)

	for i := 0; i < 3; i++ {
		if err := e.step(0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if e.vars["x"] != 2 {
		t.Errorf("x = %d, want 2 after the add", e.vars["x"])
	}
	if e.register[0] != 2 {
		t.Errorf("register = %d, want the read value 2", e.register[0])
	}
	if e.vars["y"] != 7 {
		t.Errorf("y = %d, want register+delta = 7", e.vars["y"])
	}

	if err := e.step(0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if owner, held := e.owner["m"]; !held || owner != 0 {
		t.Errorf("mutex owner = %d held=%v, want thread 0", owner, held)
	}
	if err := e.step(0); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, held := e.owner["m"]; held {
		t.Error("mutex still held after unlock")
	}
	if !e.finished[0] {
		t.Error("thread not finished after its last op")
	}
}

func TestExecution_UnlockNotHeld(t *testing.T) {
	e := newExecution(singleThread(Op{Kind: OpUnlock, Var: "m"}), nil)
	if err := e.step(0); err == nil {
		t.Error("unlocking a free mutex must fail")
	}

	scn := &Scenario{Threads: [][]Op{
		{{Kind: OpLock, Var: "m"}, {Kind: OpRead, Var: "x"}},
		{{Kind: OpUnlock, Var: "m"}},
	}}
	e = newExecution(scn, nil)
	if err := e.step(0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := e.step(1); err == nil {
		t.Error("unlocking a foreign mutex must fail")
	}
}

// === Switchability ===

func TestExecution_BlockedThreadsNotSwitchable(t *testing.T) {
	scn := &Scenario{Threads: [][]Op{
		{{Kind: OpLock, Var: "m"}, {Kind: OpUnlock, Var: "m"}},
		{{Kind: OpLock, Var: "m"}, {Kind: OpUnlock, Var: "m"}},
		{{Kind: OpAdd, Var: "x", Delta: 1}},
	}}
	e := newExecution(scn, nil)

	// Before anyone locks, everyone is switchable.
	if got := e.SwitchableThreads(explore.NoThread); len(got) != 3 {
		t.Fatalf("SwitchableThreads = %v, want all three threads", got)
	}

	// Thread 0 takes the mutex: thread 1 is stuck on its lock op.
	if err := e.step(0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	got := e.SwitchableThreads(explore.NoThread)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("SwitchableThreads = %v, want [0 2]: thread 1 is blocked", got)
	}

	// Excluding the running thread drops it from the snapshot.
	got = e.SwitchableThreads(0)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("SwitchableThreads(0) = %v, want [2]", got)
	}

	// The owner itself is not blocked by its own mutex.
	if e.blocked(0) {
		t.Error("lock owner reported blocked on its own mutex")
	}
	if !e.blocked(1) {
		t.Error("thread 1 not reported blocked on a foreign mutex")
	}
}

func TestExecution_FinishedThreadsNotSwitchable(t *testing.T) {
	scn := &Scenario{Threads: [][]Op{
		{{Kind: OpAdd, Var: "x", Delta: 1}},
		{{Kind: OpAdd, Var: "x", Delta: 1}},
	}}
	e := newExecution(scn, nil)
	if err := e.step(0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := e.SwitchableThreads(explore.NoThread); len(got) != 1 || got[0] != 1 {
		t.Errorf("SwitchableThreads = %v, want [1]: thread 0 finished", got)
	}
	if e.done() {
		t.Error("done with thread 1 still pending")
	}
	if err := e.step(1); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !e.done() {
		t.Error("not done with every thread finished")
	}
}

// === Outcome ===

func TestExecution_Outcome(t *testing.T) {
	scn := &Scenario{Threads: [][]Op{
		{{Kind: OpAdd, Var: "x", Delta: 3}},
		{{Kind: OpAdd, Var: "x", Delta: 1}, {Kind: OpAdd, Var: "y", Delta: 1}},
	}}
	e := newExecution(scn, nil)
	if err := e.step(0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := e.step(1); err != nil {
		t.Fatalf("step: %v", err)
	}
	e.crashed[1] = true

	out := e.outcome(false)
	if out.Final["x"] != 4 {
		t.Errorf("final x = %d, want 4", out.Final["x"])
	}
	if len(out.Completed) != 2 || out.Completed[0] != 1 || out.Completed[1] != 1 {
		t.Errorf("Completed = %v, want [1 1]", out.Completed)
	}
	if len(out.Crashed) != 1 || out.Crashed[0] != 1 {
		t.Errorf("Crashed = %v, want [1]", out.Crashed)
	}
	if out.Deadlocked {
		t.Error("Deadlocked = true, want false")
	}
}
