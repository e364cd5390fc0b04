package explore

// Stats is a point-in-time snapshot of exploration progress.
type Stats struct {
	// Invocations counts produced records, injected replays included.
	Invocations int
	// DepthBound is the current switch ceiling; 0 for unbounded tactics.
	DepthBound int
	// RootFractionUnexplored estimates the remaining search space, 1 down
	// to 0.
	RootFractionUnexplored float64
	// RootFullyExplored is true once every reachable interleaving at the
	// current bound has been produced.
	RootFullyExplored bool
	// NodeCount is the size of the interleaving tree.
	NodeCount int
}

// depthBounded is implemented by tactics that enforce a switch budget.
type depthBounded interface {
	DepthBound() int
}

// Stats returns a snapshot of exploration progress.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Invocations:            s.invocations,
		RootFractionUnexplored: s.root.FractionUnexplored(),
		RootFullyExplored:      s.root.FullyExplored(),
		NodeCount:              s.root.CountNodes(),
	}
	if t, ok := s.tactic.(depthBounded); ok {
		st.DepthBound = t.DepthBound()
	}
	return st
}
