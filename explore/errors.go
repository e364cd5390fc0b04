package explore

import "errors"

// ErrInternal marks internal-consistency violations: an uninitialized node
// queried as initialized, a frontier initialized twice, a non-monotonic
// position counter. These are never retried; they mean the harness behaved
// non-deterministically between runs (for example, iteration order leaking
// from a map), which breaks the tree's replay guarantee.
var ErrInternal = errors.New("internal consistency violation")

// ErrDesync marks a harness/record protocol mismatch: the harness reported a
// thread or position the record did not predict inside its predetermined
// prefix. Always a programming error, fatal for the run.
var ErrDesync = errors.New("record desynchronization")
