package explore

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Decision answers one decision-point callback.
type Decision struct {
	// Switch directs the harness to switch threads at this position.
	Switch bool
	// Fault names the fault to inject at this position, FaultNone for a
	// plain switch. Only meaningful when Switch is true.
	Fault FaultID
}

// Scheduler owns the interleaving tree, the chosen tactic, and the record of
// the in-flight invocation. It is single-threaded and synchronous: the
// harness must serialize all callbacks so that only the thread whose turn it
// is calls in at any instant.
type Scheduler struct {
	oracle      ThreadOracle
	tactic      Tactic
	root        *Node
	current     *Interleaving
	invocations int
	err         error
}

// NewScheduler builds a scheduler for the given live thread ids. The root
// thread choice is constructed immediately; the tree below it grows as
// invocations discover decision positions.
func NewScheduler(cfg Config, threads []int, oracle ThreadOracle) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exploration config: %w", err)
	}
	if len(threads) == 0 {
		return nil, fmt.Errorf("exploration needs at least one thread")
	}
	if oracle == nil {
		return nil, fmt.Errorf("exploration needs a thread oracle")
	}
	rng := NewPartitionedRNG(NewExplorationKey(cfg.Seed))
	root := newThreadChoice(threads)
	return &Scheduler{
		oracle: oracle,
		tactic: NewTactic(cfg.Tactic, root, cfg, rng),
		root:   root,
	}, nil
}

// NextInvocation prepares the record for the next invocation. false means the
// tactic is exhausted, the budget is spent, or a fatal error occurred (see
// Err).
func (s *Scheduler) NextInvocation() bool {
	if s.err != nil {
		return false
	}
	if s.current != nil {
		s.fail(fmt.Errorf("%w: nextInvocation with an invocation in flight", ErrInternal))
		return false
	}
	if !s.tactic.HasNext() {
		logrus.Infof("exploration finished after %d invocations", s.invocations)
		return false
	}
	iv, err := s.tactic.ProduceNext()
	if err != nil {
		s.fail(err)
		return false
	}
	if iv == nil {
		logrus.Infof("exploration space exhausted after %d invocations", s.invocations)
		return false
	}
	iv.initialize()
	s.current = iv
	s.invocations++
	logrus.Debugf("[invocation %04d] %s", s.invocations, iv)
	return true
}

// Replay installs a previously produced record (typically a Copy of a failing
// one) as the next invocation, bypassing the tactic. The usual bracket still
// applies: run the harness against it, then call OnInvocationComplete.
func (s *Scheduler) Replay(iv *Interleaving) error {
	if iv == nil {
		return fmt.Errorf("cannot replay a nil interleaving record")
	}
	if s.current != nil {
		return s.fail(fmt.Errorf("%w: replay with an invocation in flight", ErrInternal))
	}
	iv.initialize()
	s.current = iv
	s.invocations++
	logrus.Debugf("[invocation %04d] replaying %s", s.invocations, iv)
	return nil
}

// OnDecisionPoint reports that the running thread reached a decision position
// with the given eligible fault ids (usually none). The returned Decision
// says whether to switch threads and which fault, if any, to inject first.
// Positions must arrive in increasing order, one call per position.
func (s *Scheduler) OnDecisionPoint(threadID, position int, faults []FaultID) (Decision, error) {
	if s.current == nil {
		return Decision{}, s.fail(fmt.Errorf("%w: decision point outside an invocation", ErrInternal))
	}
	d, err := s.current.onPosition(position, threadID, faults, s.oracle.SwitchableThreads(threadID))
	if err != nil {
		return Decision{}, s.fail(err)
	}
	return d, nil
}

// ChooseNextThread returns the thread to run after threadID yields, whether
// the switch was voluntary (a Decision said so) or forced (thread finished or
// blocked). Pass NoThread for the initial choice.
func (s *Scheduler) ChooseNextThread(threadID int) (int, error) {
	if s.current == nil {
		return NoThread, s.fail(fmt.Errorf("%w: thread choice outside an invocation", ErrInternal))
	}
	next, err := s.current.chooseThread(s.oracle.SwitchableThreads(threadID))
	if err != nil {
		return NoThread, s.fail(err)
	}
	return next, nil
}

// OnInvocationComplete finalizes the in-flight invocation. On success the
// children collected at the frontier are committed and statistics bubble
// bottom-up along the walked path; on abort everything pending is discarded
// and the tree is left exactly as if the invocation had never run.
func (s *Scheduler) OnInvocationComplete(aborted bool) error {
	if s.current == nil {
		return s.fail(fmt.Errorf("%w: invocation completion outside an invocation", ErrInternal))
	}
	iv := s.current
	s.current = nil
	if aborted {
		iv.discardPending()
		logrus.Debugf("[invocation %04d] aborted, frontier rolled back", s.invocations)
		return nil
	}
	if iv.frontier != nil {
		if err := iv.frontier.initialize(iv.pending); err != nil {
			return s.fail(err)
		}
		iv.frontier = nil
	}
	last := len(iv.path) - 1
	if iv.atBound && last >= 0 {
		// The walk's leaf sits exactly at the depth bound: its subtree is done
		// for this bound, regardless of what the replay discovered below it.
		iv.path[last].markFullyExplored()
		last--
	}
	for i := last; i >= 0; i-- {
		if err := s.tactic.OnLeaveNode(iv.path[i], i); err != nil {
			return s.fail(err)
		}
	}
	return nil
}

// CurrentInterleaving returns the record of the in-flight invocation, nil
// outside one. Callers keeping it past OnInvocationComplete must Copy it.
func (s *Scheduler) CurrentInterleaving() *Interleaving { return s.current }

// Err returns the first fatal error the scheduler hit, nil if none. After a
// fatal error every entry point refuses further work.
func (s *Scheduler) Err() error { return s.err }

func (s *Scheduler) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}
