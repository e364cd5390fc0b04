package explore

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// exhaustiveTactic sweeps every interleaving reachable within the current
// depth bound before growing the bound by one and resetting exploration
// statistics. It never repeats a fully specified path and gives up only when
// a larger bound uncovers nothing new or the invocation budget runs out.
type exhaustiveTactic struct {
	root         *Node
	rng          *rand.Rand
	fallbackSeed uint64
	bound        int
	used         int
	max          int
	exhausted    bool
}

func newExhaustiveTactic(root *Node, cfg Config, rng *PartitionedRNG) *exhaustiveTactic {
	return &exhaustiveTactic{
		root:         root,
		rng:          rng.ForSubsystem(SubsystemWalk),
		fallbackSeed: rng.SeedFor(SubsystemFallback),
		max:          cfg.MaxInvocations,
	}
}

func (t *exhaustiveTactic) HasNext() bool {
	return !t.exhausted && t.used < t.max
}

func (t *exhaustiveTactic) ProduceNext() (*Interleaving, error) {
	if !t.HasNext() {
		return nil, nil
	}
	if t.root.FullyExplored() {
		t.bound++
		t.root.ResetExploration(1)
		if t.root.FullyExplored() {
			// Even the larger bound uncovers nothing: the whole space is done.
			t.exhausted = true
			return nil, nil
		}
		logrus.Infof("depth bound increased to %d", t.bound)
	}
	b := newInterleavingBuilder()
	if err := walkFrom(b, t.root, t, t.rng, true, t.bound); err != nil {
		return nil, err
	}
	t.used++
	return b.build(t.fallbackSeed), nil
}

func (t *exhaustiveTactic) OnEnterNode(*Node, int) error { return nil }

func (t *exhaustiveTactic) OnLeaveNode(n *Node, _ int) error {
	return n.UpdateExplorationStats(1)
}

// DepthBound returns the current ceiling on voluntary switches per record.
func (t *exhaustiveTactic) DepthBound() int { return t.bound }
