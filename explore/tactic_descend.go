package explore

import (
	"golang.org/x/exp/rand"
)

// descendTactic favors continuation over breadth: after a fresh root walk
// commits a frontier, subsequent walks re-follow the same edge labels and
// keep growing that branch until it is explored, disappears, or the path
// stretches past twice its starting length; then the ride resets and the
// next walk starts from the root again. Depth is unbounded, as in the
// weighted-random tactic.
type descendTactic struct {
	root         *Node
	rng          *rand.Rand
	fallbackSeed uint64
	used         int
	max          int

	ride     []int // edge labels root to the last grown frontier
	rideBase int   // ride length when the current ride started
}

func newDescendTactic(root *Node, cfg Config, rng *PartitionedRNG) *descendTactic {
	return &descendTactic{
		root:         root,
		rng:          rng.ForSubsystem(SubsystemWalk),
		fallbackSeed: rng.SeedFor(SubsystemFallback),
		max:          cfg.MaxInvocations,
	}
}

func (t *descendTactic) HasNext() bool {
	return t.used < t.max && !t.root.FullyExplored()
}

func (t *descendTactic) ProduceNext() (*Interleaving, error) {
	if !t.HasNext() {
		return nil, nil
	}
	if !t.rideLive() {
		t.ride = nil
	}
	b := newInterleavingBuilder()
	start := t.root
	if t.ride != nil {
		n, err := t.followRide(b)
		if err != nil {
			return nil, err
		}
		start = n
	}
	if err := walkFrom(b, start, t, t.rng, false, 0); err != nil {
		return nil, err
	}
	t.used++
	t.noteRide(b)
	return b.build(t.fallbackSeed), nil
}

func (t *descendTactic) OnEnterNode(*Node, int) error { return nil }

func (t *descendTactic) OnLeaveNode(n *Node, _ int) error {
	return n.UpdateExplorationStats(weightedRandomDecay)
}

// rideLive checks whether the remembered branch can still be extended: every
// node along it initialized and not fully explored, every label still
// resolvable, and the branch end not yet explored.
func (t *descendTactic) rideLive() bool {
	if len(t.ride) == 0 {
		return false
	}
	n := t.root
	for _, label := range t.ride {
		if !n.Initialized() || n.FullyExplored() {
			return false
		}
		c, ok := findChoice(n, label)
		if !ok {
			return false
		}
		n = c.Child
	}
	return !n.FullyExplored()
}

// followRide replays the remembered labels into the builder and returns the
// branch end for the free walk to continue from. rideLive must hold.
func (t *descendTactic) followRide(b *interleavingBuilder) (*Node, error) {
	n := t.root
	for _, label := range t.ride {
		depth := len(b.path)
		b.path = append(b.path, n)
		if err := t.OnEnterNode(n, depth); err != nil {
			return nil, err
		}
		c, _ := findChoice(n, label)
		b.record(n.Kind(), label)
		n = c.Child
	}
	return n, nil
}

// noteRide remembers the walked path as the ride to extend next time, or
// resets once the path has stretched past twice its starting length.
func (t *descendTactic) noteRide(b *interleavingBuilder) {
	if b.frontier == nil {
		t.ride = nil
		return
	}
	if t.ride == nil {
		t.rideBase = len(b.labels)
	}
	if len(b.labels) <= 2*max(t.rideBase, 1) {
		t.ride = b.labels
	} else {
		t.ride = nil
	}
}

func findChoice(n *Node, label int) (Choice, bool) {
	for _, c := range n.Choices() {
		if c.Label == label {
			return c, true
		}
	}
	return Choice{}, false
}
