package explore

import "fmt"

// Config controls one exploration run.
type Config struct {
	// Tactic picks the tree-exploration tactic: exhaustive, weighted-random
	// or descend.
	Tactic string
	// Seed is the master seed; every internal RNG stream derives from it.
	// Identical seed and scenario give identical exploration order.
	Seed int64
	// MaxInvocations bounds the total number of produced records.
	MaxInvocations int
}

// DefaultConfig returns the settings used when a caller specifies nothing.
func DefaultConfig() Config {
	return Config{
		Tactic:         TacticExhaustive,
		Seed:           1,
		MaxInvocations: 10000,
	}
}

// Validate checks the tactic name and parameter ranges.
func (c Config) Validate() error {
	if !ValidTactics[c.Tactic] {
		return fmt.Errorf("unknown exploration tactic %q", c.Tactic)
	}
	if c.MaxInvocations <= 0 {
		return fmt.Errorf("max invocations must be positive, got %d", c.MaxInvocations)
	}
	return nil
}
