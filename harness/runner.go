package harness

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/permutest/permutest/explore"
)

// Failure describes one invocation whose results were rejected. Record is a
// private copy of the interleaving and stays replayable after exploration
// moves on.
type Failure struct {
	Record     *explore.Interleaving
	Outcome    *Outcome
	Invocation int
}

func (f *Failure) String() string {
	if f.Outcome.Deadlocked {
		return fmt.Sprintf("invocation %d deadlocked: %s", f.Invocation, f.Record)
	}
	return fmt.Sprintf("invocation %d rejected by verifier: %s", f.Invocation, f.Record)
}

// InvocationHook observes progress after each completed invocation.
type InvocationHook func(invocation int, stats explore.Stats)

// oracleProxy lets one scheduler query the execution currently in flight.
// The runner swaps the target before every invocation.
type oracleProxy struct {
	e *execution
}

func (p *oracleProxy) SwitchableThreads(excluding int) []int {
	return p.e.SwitchableThreads(excluding)
}

// Runner drives scheduler, interpreter and verifier until a failure is
// found, the tactic gives up, or the context is cancelled.
type Runner struct {
	scn      *Scenario
	verifier Verifier
	hook     InvocationHook
	sched    *explore.Scheduler
	proxy    *oracleProxy
}

// NewRunner wires a scenario to a fresh scheduler. A nil verifier defaults
// to EpsilonVerifier.
func NewRunner(scn *Scenario, cfg explore.Config, v Verifier) (*Runner, error) {
	if err := scn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if v == nil {
		v = EpsilonVerifier{}
	}
	proxy := &oracleProxy{}
	sched, err := explore.NewScheduler(cfg, scn.ThreadIDs(), proxy)
	if err != nil {
		return nil, err
	}
	return &Runner{scn: scn, verifier: v, sched: sched, proxy: proxy}, nil
}

// OnInvocation registers a hook called after every completed invocation.
func (r *Runner) OnInvocation(hook InvocationHook) { r.hook = hook }

// Stats reports the scheduler's exploration counters.
func (r *Runner) Stats() explore.Stats { return r.sched.Stats() }

// Run explores interleavings until the first failure. It returns (nil, nil)
// when the tactic finished without finding one.
func (r *Runner) Run(ctx context.Context) (*Failure, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.sched.NextInvocation() {
			return nil, r.sched.Err()
		}
		failure, err := r.invoke()
		if err != nil {
			return nil, err
		}
		if failure != nil {
			logrus.Warnf("[invocation %04d] failure: %s", failure.Invocation, failure)
			return failure, nil
		}
	}
}

// invoke executes and verifies the invocation the scheduler has prepared.
func (r *Runner) invoke() (*Failure, error) {
	exec := newExecution(r.scn, r.sched)
	r.proxy.e = exec
	out, err := exec.run()
	if err != nil {
		return nil, fmt.Errorf("invocation %d: %w", r.sched.Stats().Invocations, err)
	}

	inv := r.sched.Stats().Invocations
	var failure *Failure
	if out.Deadlocked || !r.verifier.VerifyResults(r.scn, out) {
		// Copy before completion: completion may hand the record's frontier
		// node over to the tree.
		failure = &Failure{
			Record:     r.sched.CurrentInterleaving().Copy(),
			Outcome:    out,
			Invocation: inv,
		}
	}
	if err := r.sched.OnInvocationComplete(out.Deadlocked); err != nil {
		return nil, err
	}
	if r.hook != nil {
		r.hook(inv, r.sched.Stats())
	}
	return failure, nil
}

// ReplayFailure re-executes a failing record and returns the outcome
// observed. The same scheduler keeps exploring afterwards; replay neither
// grows nor consumes the decision tree.
func (r *Runner) ReplayFailure(f *Failure) (*Outcome, error) {
	if err := r.sched.Replay(f.Record.Copy()); err != nil {
		return nil, err
	}
	exec := newExecution(r.scn, r.sched)
	r.proxy.e = exec
	out, err := exec.run()
	if err != nil {
		return nil, err
	}
	if err := r.sched.OnInvocationComplete(true); err != nil {
		return nil, err
	}
	return out, nil
}
