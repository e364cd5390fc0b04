package explore

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// NodeKind discriminates the closed set of decision-node variants.
type NodeKind int

const (
	// KindThreadChoice picks which thread runs next. Labels are thread ids,
	// children are SwitchChoice nodes.
	KindThreadChoice NodeKind = iota

	// KindSwitchChoice picks the execution position of the next voluntary
	// switch. Labels are position indices, children are ThreadChoice or
	// EventChoice nodes. SwitchChoice nodes are the only nodes created
	// uninitialized; a replay populates them at the frontier.
	KindSwitchChoice

	// KindEventChoice refines a taken switch position: label 0 is a plain
	// context switch, labels >= 1 are fault ids eligible at that position.
	// Children are ThreadChoice nodes over the same switchable snapshot.
	KindEventChoice
)

func (k NodeKind) String() string {
	switch k {
	case KindThreadChoice:
		return "thread-choice"
	case KindSwitchChoice:
		return "switch-choice"
	case KindEventChoice:
		return "event-choice"
	default:
		return fmt.Sprintf("node-kind(%d)", int(k))
	}
}

// FaultID names one injectable fault at a decision position. Zero means no
// fault (a plain context switch).
type FaultID int

// FaultNone is the EventChoice label for a plain context switch.
const FaultNone FaultID = 0

// Choice pairs a child node with the label that selects it: a thread id under
// a ThreadChoice, an execution position under a SwitchChoice, an event label
// under an EventChoice.
type Choice struct {
	Label int
	Child *Node
}

// Node is one decision in the interleaving tree. A node's choices never
// shrink or reorder once initialized; new children may only be appended via
// the single currently-growing frontier of the in-flight interleaving record.
type Node struct {
	kind               NodeKind
	initialized        bool
	choices            []Choice
	fullyExplored      bool
	fractionUnexplored float64
}

// newThreadChoice builds an initialized ThreadChoice over a switchable-thread
// snapshot. Each thread gets a fresh uninitialized SwitchChoice subtree. An
// empty snapshot yields a node that is born fully explored: nothing can be
// scheduled under it.
func newThreadChoice(threads []int) *Node {
	n := &Node{kind: KindThreadChoice, initialized: true}
	for _, t := range threads {
		n.choices = append(n.choices, Choice{Label: t, Child: newSwitchChoice()})
	}
	n.recalcStats(1)
	return n
}

// newSwitchChoice builds the one uninitialized variant. It advertises full
// unexplored weight until a replay discovers and commits its children.
func newSwitchChoice() *Node {
	return &Node{kind: KindSwitchChoice, fractionUnexplored: 1}
}

// newEventChoice builds an initialized EventChoice for a fault-eligible
// position: label 0 for the plain switch plus one label per fault id. Every
// child is an independent ThreadChoice over the same snapshot.
func newEventChoice(threads []int, faults []FaultID) *Node {
	n := &Node{kind: KindEventChoice, initialized: true}
	n.choices = append(n.choices, Choice{Label: int(FaultNone), Child: newThreadChoice(threads)})
	for _, f := range faults {
		n.choices = append(n.choices, Choice{Label: int(f), Child: newThreadChoice(threads)})
	}
	n.recalcStats(1)
	return n
}

// Kind returns the node's variant.
func (n *Node) Kind() NodeKind { return n.kind }

// Initialized reports whether the node's choices have been populated.
func (n *Node) Initialized() bool { return n.initialized }

// FullyExplored reports whether every interleaving reachable under this node,
// up to the depth bound in effect when statistics were last updated, has been
// produced.
func (n *Node) FullyExplored() bool { return n.fullyExplored }

// FractionUnexplored estimates how much of the subtree remains unexplored,
// 1.0 for an unvisited leaf down to 0.0 once fully explored.
func (n *Node) FractionUnexplored() float64 { return n.fractionUnexplored }

// Choices exposes the node's children. Callers must not mutate the returned
// slice; growth happens only through the record frontier.
func (n *Node) Choices() []Choice { return n.choices }

// initialize attaches the pending choice list a replay collected at this
// node. Initializing twice is an internal-consistency violation: it would
// mean two records shared a live frontier.
func (n *Node) initialize(choices []Choice) error {
	if n.initialized {
		return fmt.Errorf("%w: %s node initialized twice", ErrInternal, n.kind)
	}
	n.initialized = true
	n.choices = choices
	return nil
}

// markFullyExplored forces the node into the explored terminal state. Used
// for leaves at the current depth bound.
func (n *Node) markFullyExplored() {
	n.fullyExplored = true
	n.fractionUnexplored = 0
}

// UpdateExplorationStats recomputes this node's statistics from its direct
// children: fractionUnexplored = decay * mean(children), fullyExplored =
// AND(children). An empty choice list is a real leaf and counts as fully
// explored. Calling this on an uninitialized node is an internal error, the
// usual cause being non-deterministic decision positions in the harness.
func (n *Node) UpdateExplorationStats(decay float64) error {
	if !n.initialized {
		return fmt.Errorf("%w: statistics update on uninitialized %s node", ErrInternal, n.kind)
	}
	n.recalcStats(decay)
	return nil
}

func (n *Node) recalcStats(decay float64) {
	if len(n.choices) == 0 {
		n.markFullyExplored()
		return
	}
	total := 0.0
	all := true
	for _, c := range n.choices {
		total += c.Child.fractionUnexplored
		all = all && c.Child.fullyExplored
	}
	n.fullyExplored = all
	if all {
		n.fractionUnexplored = 0
		return
	}
	n.fractionUnexplored = decay * total / float64(len(n.choices))
}

// ResetExploration reopens the subtree after a depth-bound increase.
// Initialized nodes get statistics re-derived bottom-up with the given decay;
// uninitialized nodes revert to the unvisited default. Real leaves (empty
// choice lists) stay fully explored.
func (n *Node) ResetExploration(decay float64) {
	if !n.initialized {
		n.fullyExplored = false
		n.fractionUnexplored = 1
		return
	}
	for _, c := range n.choices {
		c.Child.ResetExploration(decay)
	}
	n.recalcStats(decay)
}

// ChooseUnexplored picks the child to descend into, weighting candidates by
// fractionUnexplored. Deterministic shortcuts keep fresh subtrees swept in
// child order: a single unexplored candidate, or candidates with all-equal
// weights, are returned without consuming randomness. Otherwise the pick is
// a weighted draw (fully explored children carry zero weight), falling back
// to the last unexplored child on float rounding. Precondition: at least one
// child is not fully explored; violating it is a caller error.
func (n *Node) ChooseUnexplored(rng *rand.Rand) (Choice, error) {
	var (
		last     Choice
		found    int
		first    Choice
		equal    = true
		firstSet = false
	)
	for _, c := range n.choices {
		if c.Child.fullyExplored {
			continue
		}
		if !firstSet {
			first = c
			firstSet = true
		} else if c.Child.fractionUnexplored != first.Child.fractionUnexplored {
			equal = false
		}
		last = c
		found++
	}
	if found == 0 {
		return Choice{}, fmt.Errorf("%w: unexplored pick on fully explored %s node", ErrInternal, n.kind)
	}
	if found == 1 || equal {
		return first, nil
	}

	weights := make([]float64, len(n.choices))
	for i, c := range n.choices {
		if !c.Child.fullyExplored {
			weights[i] = c.Child.fractionUnexplored
		}
	}
	idx, ok := sampleuv.NewWeighted(weights, rng).Take()
	if !ok || n.choices[idx].Child.fullyExplored {
		return last, nil
	}
	return n.choices[idx], nil
}

// CountNodes returns the number of nodes in the subtree, this node included.
func (n *Node) CountNodes() int {
	total := 1
	for _, c := range n.choices {
		total += c.Child.CountNodes()
	}
	return total
}
