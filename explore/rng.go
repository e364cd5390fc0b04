package explore

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
)

// === ExplorationKey ===

// ExplorationKey uniquely identifies a reproducible exploration run.
// Two explorations with the same ExplorationKey and identical scenario
// MUST produce bit-for-bit identical decision sequences.
type ExplorationKey int64

// NewExplorationKey creates an ExplorationKey from a seed value.
func NewExplorationKey(seed int64) ExplorationKey {
	return ExplorationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWalk is the RNG subsystem for tree-walk child selection
	// (weighted picks among unexplored children).
	SubsystemWalk = "walk"

	// SubsystemFallback is the RNG subsystem for thread picks past a
	// record's predetermined prefix. Its derived seed is reused verbatim
	// at every record initialize so that replays of a copied record see
	// the exact same fallback sequence.
	SubsystemFallback = "fallback"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Generators come from golang.org/x/exp/rand so the same streams can be
// handed to gonum's samplers as rand.Source values.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        ExplorationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from an ExplorationKey.
func NewPartitionedRNG(key ExplorationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.SeedFor(name)))
	p.subsystems[name] = rng
	return rng
}

// SeedFor returns the derived seed for the named subsystem without creating
// or advancing a generator. Used where a fresh generator must be re-created
// from the same seed repeatedly (record fallback picks).
func (p *PartitionedRNG) SeedFor(name string) uint64 {
	return uint64(int64(p.key) ^ fnv1a64(name))
}

// Key returns the ExplorationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() ExplorationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
