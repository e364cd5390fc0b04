package explore

import (
	"math"

	"golang.org/x/exp/rand"
)

// weightedRandomDecay shrinks a node's averaged child weight per tree level,
// biasing walks toward shallower and less visited branches.
const weightedRandomDecay = 1 / math.Sqrt2

// weightedRandomTactic ignores the depth bound entirely: every walk descends
// to an uninitialized node, guided by decayed unexplored weights, and the
// exploration ends only when the root is fully explored or the budget is
// spent.
type weightedRandomTactic struct {
	root         *Node
	rng          *rand.Rand
	fallbackSeed uint64
	used         int
	max          int
}

func newWeightedRandomTactic(root *Node, cfg Config, rng *PartitionedRNG) *weightedRandomTactic {
	return &weightedRandomTactic{
		root:         root,
		rng:          rng.ForSubsystem(SubsystemWalk),
		fallbackSeed: rng.SeedFor(SubsystemFallback),
		max:          cfg.MaxInvocations,
	}
}

func (t *weightedRandomTactic) HasNext() bool {
	return t.used < t.max && !t.root.FullyExplored()
}

func (t *weightedRandomTactic) ProduceNext() (*Interleaving, error) {
	if !t.HasNext() {
		return nil, nil
	}
	b := newInterleavingBuilder()
	if err := walkFrom(b, t.root, t, t.rng, false, 0); err != nil {
		return nil, err
	}
	t.used++
	return b.build(t.fallbackSeed), nil
}

func (t *weightedRandomTactic) OnEnterNode(*Node, int) error { return nil }

func (t *weightedRandomTactic) OnLeaveNode(n *Node, _ int) error {
	return n.UpdateExplorationStats(weightedRandomDecay)
}
