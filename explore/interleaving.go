package explore

import (
	"fmt"
	"maps"
	"slices"

	"golang.org/x/exp/rand"
)

// Interleaving is one fully determined recipe for an invocation: the
// predetermined thread choices and voluntary switch positions produced by a
// tree walk, plus the live cursors used while the harness replays it. A
// record is consumed by exactly one invocation; during that replay it may
// append newly discovered children to the tree's single frontier node.
type Interleaving struct {
	threadChoices   []int
	switchPositions []int
	switchSet       map[int]bool
	eventChoices    map[int]FaultID

	// frontier is the unique uninitialized node this record populates when
	// replayed; nil once the node has been initialized by a prior replay.
	frontier *Node
	// atBound marks the walk's leaf as sitting exactly at the depth bound,
	// to be marked fully explored when the invocation commits.
	atBound bool
	// path holds the walked nodes root to leaf for bottom-up statistics
	// updates at commit time.
	path []*Node

	// live replay state, reset by initialize
	pos               int
	cursor            int
	pending           []Choice
	fallbackSeed      uint64
	fallback          *rand.Rand
	lastPredetermined int
}

// initialize resets the live cursors for one replay. The fallback RNG is
// re-created from the same derived seed every time so a Copy of this record
// sees the exact same fallback thread picks. A frontier already initialized
// by a prior replay is dropped, turning the record into a pure replay.
func (iv *Interleaving) initialize() {
	iv.pos = -1
	iv.cursor = 0
	iv.fallback = rand.New(rand.NewSource(iv.fallbackSeed))
	if iv.frontier != nil && iv.frontier.Initialized() {
		iv.frontier = nil
		iv.path = nil
		iv.atBound = false
	}
	if iv.frontier != nil {
		iv.pending = []Choice{}
	} else {
		iv.pending = nil
	}
}

// onPosition advances the position counter and answers the should-switch
// query for position p reached by thread t. While the frontier is open,
// positions past the predetermined prefix are collected as its future
// children: a ThreadChoice over the switchable snapshot, or an EventChoice
// when faults are eligible at p.
func (iv *Interleaving) onPosition(p, t int, faults []FaultID, switchable []int) (Decision, error) {
	if p != iv.pos+1 {
		return Decision{}, fmt.Errorf("%w: position %d reported after %d, want %d", ErrInternal, p, iv.pos, iv.pos+1)
	}
	iv.pos = p

	if iv.frontier != nil && p > iv.lastPredetermined {
		var child *Node
		if len(faults) > 0 {
			child = newEventChoice(switchable, faults)
		} else {
			child = newThreadChoice(switchable)
		}
		iv.pending = append(iv.pending, Choice{Label: p, Child: child})
	}

	if !iv.switchSet[p] {
		return Decision{}, nil
	}
	return Decision{Switch: true, Fault: iv.eventChoices[p]}, nil
}

// chooseThread answers "which thread next" from the predetermined prefix,
// validating the choice against the switchable candidates; past the prefix it
// falls back to the record's deterministic RNG.
func (iv *Interleaving) chooseThread(candidates []int) (int, error) {
	if iv.cursor < len(iv.threadChoices) {
		next := iv.threadChoices[iv.cursor]
		iv.cursor++
		if !slices.Contains(candidates, next) {
			return 0, fmt.Errorf("%w: predetermined thread %d not switchable at position %d (candidates %v)",
				ErrDesync, next, iv.pos, candidates)
		}
		return next, nil
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: thread choice requested with no switchable threads at position %d", ErrDesync, iv.pos)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return candidates[iv.fallback.Intn(len(candidates))], nil
}

// discardPending rolls back an aborted replay: collected children are
// dropped and the frontier stays uninitialized for a later retry.
func (iv *Interleaving) discardPending() {
	iv.pending = nil
}

// ThreadChoices returns the predetermined thread choices.
func (iv *Interleaving) ThreadChoices() []int {
	return slices.Clone(iv.threadChoices)
}

// SwitchPositions returns the predetermined switch positions in ascending
// order.
func (iv *Interleaving) SwitchPositions() []int {
	return slices.Clone(iv.switchPositions)
}

// EventChoices returns the event label per fault-refined switch position.
func (iv *Interleaving) EventChoices() map[int]FaultID {
	return maps.Clone(iv.eventChoices)
}

// Copy returns a record with the same predetermined data and fresh live
// cursors, for exact re-replay. A frontier that has been initialized since is
// not carried over; one still uninitialized (the original was aborted) is,
// so the retry can grow the tree.
func (iv *Interleaving) Copy() *Interleaving {
	cp := &Interleaving{
		threadChoices:     slices.Clone(iv.threadChoices),
		switchPositions:   slices.Clone(iv.switchPositions),
		switchSet:         maps.Clone(iv.switchSet),
		eventChoices:      maps.Clone(iv.eventChoices),
		fallbackSeed:      iv.fallbackSeed,
		lastPredetermined: iv.lastPredetermined,
	}
	if iv.frontier != nil && !iv.frontier.Initialized() {
		cp.frontier = iv.frontier
		cp.atBound = iv.atBound
		cp.path = iv.path
	}
	return cp
}

func (iv *Interleaving) String() string {
	if len(iv.eventChoices) == 0 {
		return fmt.Sprintf("threads=%v switches=%v", iv.threadChoices, iv.switchPositions)
	}
	return fmt.Sprintf("threads=%v switches=%v events=%v", iv.threadChoices, iv.switchPositions, iv.eventChoices)
}

// === interleavingBuilder ===

// interleavingBuilder accumulates one tree walk's choices and produces the
// resulting record.
type interleavingBuilder struct {
	threadChoices   []int
	switchPositions []int
	eventChoices    map[int]FaultID
	labels          []int // every chosen edge label in walk order
	path            []*Node
	frontier        *Node
	atBound         bool
}

func newInterleavingBuilder() *interleavingBuilder {
	return &interleavingBuilder{eventChoices: make(map[int]FaultID)}
}

// record notes the label chosen at a node of the given kind. Event labels
// attach to the switch position chosen immediately above them.
func (b *interleavingBuilder) record(kind NodeKind, label int) {
	b.labels = append(b.labels, label)
	switch kind {
	case KindThreadChoice:
		b.threadChoices = append(b.threadChoices, label)
	case KindSwitchChoice:
		b.switchPositions = append(b.switchPositions, label)
	case KindEventChoice:
		b.eventChoices[b.switchPositions[len(b.switchPositions)-1]] = FaultID(label)
	}
}

// switches returns the switch budget consumed so far.
func (b *interleavingBuilder) switches() int {
	return len(b.switchPositions)
}

func (b *interleavingBuilder) build(fallbackSeed uint64) *Interleaving {
	iv := &Interleaving{
		threadChoices:     b.threadChoices,
		switchPositions:   b.switchPositions,
		switchSet:         make(map[int]bool, len(b.switchPositions)),
		eventChoices:      b.eventChoices,
		frontier:          b.frontier,
		atBound:           b.atBound,
		path:              b.path,
		fallbackSeed:      fallbackSeed,
		lastPredetermined: -1,
	}
	for _, p := range b.switchPositions {
		iv.switchSet[p] = true
		if p > iv.lastPredetermined {
			iv.lastPredetermined = p
		}
	}
	return iv
}
