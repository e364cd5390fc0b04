package explore

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Exploration tactic names, as accepted by Config and NewTactic.
const (
	// TacticExhaustive sweeps the tree depth-bounded, growing the bound by
	// one each time the tree is fully explored at the current bound.
	TacticExhaustive = "exhaustive"
	// TacticWeightedRandom ignores the depth bound and walks to a frontier
	// guided by decayed unexplored weights.
	TacticWeightedRandom = "weighted-random"
	// TacticDescend keeps extending the most recently grown branch before
	// resetting to a fresh root walk.
	TacticDescend = "descend"
)

// ValidTactics is the set of recognized tactic names. Shared by
// Config.Validate and NewTactic to avoid duplication.
var ValidTactics = map[string]bool{TacticExhaustive: true, TacticWeightedRandom: true, TacticDescend: true}

// Tactic walks the interleaving tree to pick the next path to explore and
// updates exploration statistics after each invocation.
type Tactic interface {
	// HasNext reports whether the tactic can produce another record within
	// its budget. Exhaustion is discovered lazily: HasNext true only means
	// ProduceNext is worth calling.
	HasNext() bool
	// ProduceNext walks the tree and builds the next record. nil with no
	// error means the explorable space is exhausted.
	ProduceNext() (*Interleaving, error)
	// OnEnterNode is invoked for every node on the walk, root first.
	OnEnterNode(n *Node, depth int) error
	// OnLeaveNode is invoked bottom-up along the walked path when the
	// invocation commits; implementations update exploration statistics
	// with their own decay.
	OnLeaveNode(n *Node, depth int) error
}

// NewTactic builds the named tactic over the given tree root. The name must
// be one of ValidTactics; Config.Validate guards this upstream.
func NewTactic(name string, root *Node, cfg Config, rng *PartitionedRNG) Tactic {
	switch name {
	case TacticExhaustive:
		return newExhaustiveTactic(root, cfg, rng)
	case TacticWeightedRandom:
		return newWeightedRandomTactic(root, cfg, rng)
	case TacticDescend:
		return newDescendTactic(root, cfg, rng)
	default:
		panic(fmt.Sprintf("unknown exploration tactic: %s", name))
	}
}

// walkFrom descends the tree from n, recording choices into b, until it finds
// the record's end: an uninitialized node (the frontier), a SwitchChoice at
// the switch budget (bounded tactics only), or a childless node. Descending a
// SwitchChoice edge consumes one unit of switch budget; ThreadChoice and
// EventChoice edges are free.
func walkFrom(b *interleavingBuilder, n *Node, t Tactic, rng *rand.Rand, bounded bool, maxSwitches int) error {
	for {
		depth := len(b.path)
		b.path = append(b.path, n)
		if err := t.OnEnterNode(n, depth); err != nil {
			return err
		}
		if !n.Initialized() {
			b.frontier = n
			b.atBound = bounded && b.switches() == maxSwitches
			return nil
		}
		if n.Kind() == KindSwitchChoice && bounded && b.switches() == maxSwitches {
			b.atBound = true
			return nil
		}
		if len(n.Choices()) == 0 {
			return nil
		}
		c, err := n.ChooseUnexplored(rng)
		if err != nil {
			return err
		}
		b.record(n.Kind(), c.Label)
		n = c.Child
	}
}
