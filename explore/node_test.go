package explore

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
)

func testWalkRNG() *rand.Rand {
	return NewPartitionedRNG(NewExplorationKey(42)).ForSubsystem(SubsystemWalk)
}

// === Construction Tests ===

func TestNewThreadChoice_FreshSubtrees(t *testing.T) {
	// GIVEN a snapshot of two switchable threads
	n := newThreadChoice([]int{0, 1})

	// THEN the node is initialized with one uninitialized SwitchChoice per thread
	if !n.Initialized() {
		t.Fatal("thread choice not initialized at construction")
	}
	if n.Kind() != KindThreadChoice {
		t.Errorf("Kind = %s, want %s", n.Kind(), KindThreadChoice)
	}
	if got := len(n.Choices()); got != 2 {
		t.Fatalf("child count = %d, want 2", got)
	}
	for i, c := range n.Choices() {
		if c.Label != []int{0, 1}[i] {
			t.Errorf("child %d label = %d, want thread id", i, c.Label)
		}
		if c.Child.Kind() != KindSwitchChoice || c.Child.Initialized() {
			t.Errorf("child %d: want an uninitialized switch choice, got %s initialized=%v",
				i, c.Child.Kind(), c.Child.Initialized())
		}
		if c.Child.FractionUnexplored() != 1 {
			t.Errorf("child %d fraction = %v, want 1", i, c.Child.FractionUnexplored())
		}
	}
	if n.FullyExplored() {
		t.Error("fresh thread choice marked fully explored")
	}
	if n.FractionUnexplored() != 1 {
		t.Errorf("fraction = %v, want 1", n.FractionUnexplored())
	}
}

func TestNewThreadChoice_EmptySnapshot(t *testing.T) {
	// GIVEN no switchable threads
	n := newThreadChoice(nil)

	// THEN the node is born fully explored: nothing can be scheduled under it
	if !n.FullyExplored() {
		t.Error("empty thread choice not fully explored")
	}
	if n.FractionUnexplored() != 0 {
		t.Errorf("fraction = %v, want 0", n.FractionUnexplored())
	}
}

func TestNewEventChoice_Labels(t *testing.T) {
	// GIVEN two eligible faults at a position
	n := newEventChoice([]int{0, 1}, []FaultID{3, 5})

	// THEN label 0 is the plain switch and each fault id gets its own child
	if n.Kind() != KindEventChoice || !n.Initialized() {
		t.Fatalf("want an initialized event choice, got %s initialized=%v", n.Kind(), n.Initialized())
	}
	wantLabels := []int{0, 3, 5}
	if len(n.Choices()) != len(wantLabels) {
		t.Fatalf("child count = %d, want %d", len(n.Choices()), len(wantLabels))
	}
	for i, c := range n.Choices() {
		if c.Label != wantLabels[i] {
			t.Errorf("child %d label = %d, want %d", i, c.Label, wantLabels[i])
		}
		if c.Child.Kind() != KindThreadChoice {
			t.Errorf("child %d kind = %s, want %s", i, c.Child.Kind(), KindThreadChoice)
		}
		if got := len(c.Child.Choices()); got != 2 {
			t.Errorf("child %d: thread snapshot size = %d, want 2", i, got)
		}
	}
}

func TestNodeKind_String(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{KindThreadChoice, "thread-choice"},
		{KindSwitchChoice, "switch-choice"},
		{KindEventChoice, "event-choice"},
		{NodeKind(9), "node-kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("NodeKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

// === Initialization Tests ===

func TestNode_InitializeTwice(t *testing.T) {
	// GIVEN a switch choice initialized by one replay
	n := newSwitchChoice()
	if err := n.initialize([]Choice{{Label: 0, Child: newThreadChoice([]int{1})}}); err != nil {
		t.Fatalf("first initialize: %v", err)
	}

	// WHEN a second replay tries to initialize it again
	err := n.initialize(nil)

	// THEN the violation surfaces as an internal-consistency error
	if !errors.Is(err, ErrInternal) {
		t.Errorf("second initialize error = %v, want ErrInternal", err)
	}
}

func TestNode_UpdateStatsUninitialized(t *testing.T) {
	n := newSwitchChoice()
	if err := n.UpdateExplorationStats(1); !errors.Is(err, ErrInternal) {
		t.Errorf("stats update on uninitialized node = %v, want ErrInternal", err)
	}
}

// === Statistics Tests ===

func TestNode_UpdateExplorationStats(t *testing.T) {
	// GIVEN a thread choice over two fresh subtrees
	n := newThreadChoice([]int{0, 1})

	// WHEN one child becomes fully explored
	n.Choices()[0].Child.markFullyExplored()
	if err := n.UpdateExplorationStats(1); err != nil {
		t.Fatalf("update: %v", err)
	}

	// THEN the fraction averages the children and the node stays open
	if got := n.FractionUnexplored(); got != 0.5 {
		t.Errorf("fraction = %v, want 0.5", got)
	}
	if n.FullyExplored() {
		t.Error("node fully explored with an open child")
	}

	// WHEN the other child is explored too
	n.Choices()[1].Child.markFullyExplored()
	if err := n.UpdateExplorationStats(1); err != nil {
		t.Fatalf("update: %v", err)
	}

	// THEN the node closes with fraction zero
	if !n.FullyExplored() || n.FractionUnexplored() != 0 {
		t.Errorf("explored=%v fraction=%v, want true and 0", n.FullyExplored(), n.FractionUnexplored())
	}
}

func TestNode_UpdateExplorationStats_Decay(t *testing.T) {
	// GIVEN a node whose open child carries weight 0.5
	n := newThreadChoice([]int{0, 1})
	n.Choices()[0].Child.markFullyExplored()

	// WHEN stats are computed with decay 0.5
	if err := n.UpdateExplorationStats(0.5); err != nil {
		t.Fatalf("update: %v", err)
	}

	// THEN fraction = decay * mean(children) = 0.5 * 0.5
	if got := n.FractionUnexplored(); got != 0.25 {
		t.Errorf("fraction = %v, want 0.25", got)
	}
}

func TestNode_ResetExploration(t *testing.T) {
	// GIVEN a fully swept thread choice
	n := newThreadChoice([]int{0, 1})
	n.Choices()[0].Child.markFullyExplored()
	n.Choices()[1].Child.markFullyExplored()
	if err := n.UpdateExplorationStats(1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !n.FullyExplored() {
		t.Fatal("setup: node should be fully explored")
	}

	// WHEN the depth bound grows and exploration resets
	n.ResetExploration(1)

	// THEN uninitialized subtrees reopen with full weight
	if n.FullyExplored() {
		t.Error("node still fully explored after reset")
	}
	if got := n.FractionUnexplored(); got != 1 {
		t.Errorf("fraction = %v, want 1", got)
	}
	for i, c := range n.Choices() {
		if c.Child.FullyExplored() || c.Child.FractionUnexplored() != 1 {
			t.Errorf("child %d not reopened: explored=%v fraction=%v",
				i, c.Child.FullyExplored(), c.Child.FractionUnexplored())
		}
	}
}

func TestNode_ResetExploration_RealLeavesStayClosed(t *testing.T) {
	// GIVEN a committed frontier whose only child is a dead end
	n := newSwitchChoice()
	if err := n.initialize([]Choice{{Label: 0, Child: newThreadChoice(nil)}}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := n.UpdateExplorationStats(1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !n.FullyExplored() {
		t.Fatal("setup: node should be fully explored")
	}

	// WHEN exploration resets
	n.ResetExploration(1)

	// THEN nothing reopens: an empty thread choice is a real leaf
	if !n.FullyExplored() {
		t.Error("dead-end subtree reopened by reset")
	}
}

// === ChooseUnexplored Tests ===

func TestNode_ChooseUnexplored_AllEqualWeightsPicksFirst(t *testing.T) {
	// BDD: A fresh node is swept in child order, no randomness consumed
	n := newThreadChoice([]int{4, 7, 9})
	c, err := n.ChooseUnexplored(testWalkRNG())
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if c.Label != 4 {
		t.Errorf("label = %d, want first child 4", c.Label)
	}
}

func TestNode_ChooseUnexplored_SingleCandidate(t *testing.T) {
	n := newThreadChoice([]int{0, 1, 2})
	n.Choices()[0].Child.markFullyExplored()
	n.Choices()[2].Child.markFullyExplored()

	c, err := n.ChooseUnexplored(testWalkRNG())
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if c.Label != 1 {
		t.Errorf("label = %d, want the only open child 1", c.Label)
	}
}

func TestNode_ChooseUnexplored_SkipsExplored(t *testing.T) {
	// GIVEN divergent weights and one fully explored child
	n := newThreadChoice([]int{0, 1, 2})
	n.Choices()[0].Child.markFullyExplored()
	n.Choices()[2].Child.fractionUnexplored = 0.25

	// WHEN drawing many times
	rng := testWalkRNG()
	for i := 0; i < 50; i++ {
		c, err := n.ChooseUnexplored(rng)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		// THEN the explored child never comes up
		if c.Label == 0 {
			t.Fatalf("draw %d picked the fully explored child", i)
		}
	}
}

func TestNode_ChooseUnexplored_FullyExplored(t *testing.T) {
	n := newThreadChoice([]int{0})
	n.Choices()[0].Child.markFullyExplored()

	if _, err := n.ChooseUnexplored(testWalkRNG()); !errors.Is(err, ErrInternal) {
		t.Errorf("choose on explored node = %v, want ErrInternal", err)
	}
}

// === CountNodes Tests ===

func TestNode_CountNodes(t *testing.T) {
	// root thread choice + two switch-choice children
	n := newThreadChoice([]int{0, 1})
	if got := n.CountNodes(); got != 3 {
		t.Errorf("CountNodes = %d, want 3", got)
	}

	// committing one frontier grows the count
	s := n.Choices()[0].Child
	if err := s.initialize([]Choice{{Label: 0, Child: newThreadChoice([]int{1})}}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// added: one thread choice + its switch-choice child
	if got := n.CountNodes(); got != 5 {
		t.Errorf("CountNodes after commit = %d, want 5", got)
	}
}
