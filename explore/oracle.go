package explore

// NoThread is the excluding argument for the initial thread choice, before
// any thread has run.
const NoThread = -1

// ThreadOracle reports which threads are currently eligible to run. The
// scheduler treats it as a pure query; filtering out blocked, parked and
// finished threads is the oracle's business.
type ThreadOracle interface {
	// SwitchableThreads returns the ids of threads eligible to run next,
	// excluding the given thread id (NoThread excludes nothing), in
	// ascending order. Answers must be deterministic: replay correctness
	// depends on identical answers for identical execution prefixes.
	SwitchableThreads(excluding int) []int
}
