package harness

import "fmt"

// Verifier judges whether a completed invocation's results are acceptable.
// It is the external results boundary of the engine: outcomes in, verdict
// out. Deadlocks are rejected by the runner before the verifier sees them.
type Verifier interface {
	VerifyResults(scn *Scenario, out *Outcome) bool
}

// Valid verifier names.
const (
	VerifierEpsilon    = "epsilon"
	VerifierFinalState = "final-state"
)

// ValidVerifiers is the set of recognized verifier names.
var ValidVerifiers = map[string]bool{VerifierEpsilon: true, VerifierFinalState: true}

// EpsilonVerifier accepts every outcome. It drives pure coverage exploration
// where only deadlocks and protocol failures count as findings.
type EpsilonVerifier struct{}

// VerifyResults implements Verifier.
func (EpsilonVerifier) VerifyResults(*Scenario, *Outcome) bool { return true }

// FinalStateVerifier expects exact final values for shared variables when a
// run completes without crashes. Runs that crashed a thread are accepted:
// with threads killed mid-flight there is no single expected state, and
// fault exploration is after deadlocks and protocol violations instead.
type FinalStateVerifier struct {
	Want map[string]int64
}

// VerifyResults implements Verifier.
func (v FinalStateVerifier) VerifyResults(_ *Scenario, out *Outcome) bool {
	if out.Deadlocked {
		return false
	}
	if len(out.Crashed) > 0 {
		return true
	}
	for name, want := range v.Want {
		if out.Final[name] != want {
			return false
		}
	}
	return true
}

// NewVerifier builds the named verifier; want holds the expected final state
// for final-state. Panics on an unknown name, so validate names first.
func NewVerifier(name string, want map[string]int64) Verifier {
	switch name {
	case VerifierEpsilon:
		return EpsilonVerifier{}
	case VerifierFinalState:
		return FinalStateVerifier{Want: want}
	default:
		panic(fmt.Sprintf("unknown verifier: %s", name))
	}
}
