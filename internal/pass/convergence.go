package pass

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cm-lang/cmc/internal/mir"
)

// ConvergenceState is the outcome of one pipeline iteration, per spec.md
// §4.4.
type ConvergenceState string

const (
	Converged           ConvergenceState = "converged"
	PracticallyConverged ConvergenceState = "practically_converged"
	CycleDetected        ConvergenceState = "cycle_detected"
	NotConverged         ConvergenceState = "not_converged"
)

// MinorChangeThreshold is the number of consecutive low-change iterations
// that qualify as "practically converged" (spec.md §4.4).
const MinorChangeThreshold = 2

// HashHistorySize is how many recent program hashes the manager retains
// for cycle detection (N=8, spec.md §4.4).
const HashHistorySize = 8

// ConvergenceManager retains recent program hashes and a rolling history of
// change metrics to decide when the pipeline should stop.
type ConvergenceManager struct {
	hashes  []string
	weights []int

	consecutiveMinor int
}

// NewConvergenceManager creates an empty manager.
func NewConvergenceManager() *ConvergenceManager { return &ConvergenceManager{} }

// Observe records one iteration's result (the program's post-iteration
// hash and its ChangeMetrics) and returns the resulting convergence state.
func (c *ConvergenceManager) Observe(program *mir.Program, m ChangeMetrics) ConvergenceState {
	h := HashProgram(program)
	weight := m.Weight()

	// Cycle: current hash already appeared in the recent history.
	cycle := false
	for _, prev := range c.hashes {
		if prev == h {
			cycle = true
		}
	}

	c.hashes = append(c.hashes, h)
	if len(c.hashes) > HashHistorySize {
		c.hashes = c.hashes[len(c.hashes)-HashHistorySize:]
	}
	c.weights = append(c.weights, weight)
	if len(c.weights) > HashHistorySize {
		c.weights = c.weights[len(c.weights)-HashHistorySize:]
	}

	if ababPattern(c.weights) {
		cycle = true
	}
	if cycle {
		c.consecutiveMinor = 0
		return CycleDetected
	}

	if weight == 0 {
		c.consecutiveMinor = 0
		return Converged
	}

	if weight < 10 && !m.CFGChanged {
		c.consecutiveMinor++
	} else {
		c.consecutiveMinor = 0
	}
	if c.consecutiveMinor >= MinorChangeThreshold {
		return PracticallyConverged
	}

	if sumLast(c.weights, 3) < 20 {
		return PracticallyConverged
	}

	return NotConverged
}

// ababPattern reports whether the last four weights form an ABAB
// oscillation (spec.md §4.4).
func ababPattern(weights []int) bool {
	if len(weights) < 4 {
		return false
	}
	n := len(weights)
	a, b, a2, b2 := weights[n-4], weights[n-3], weights[n-2], weights[n-1]
	return a == a2 && b == b2 && a != b
}

func sumLast(weights []int, n int) int {
	if len(weights) < n {
		n = len(weights)
	}
	sum := 0
	for _, w := range weights[len(weights)-n:] {
		sum += w
	}
	return sum
}

// HashProgram computes a stable digest of program's current shape, used by
// the convergence manager for cycle detection. spec.md names SHA-256 for
// the cache's fingerprints; reusing it here for the same purpose (a stable
// content digest) keeps one hashing primitive in the whole module instead
// of two.
func HashProgram(program *mir.Program) string {
	sum := sha256.Sum256([]byte(mir.Print(program)))
	return hex.EncodeToString(sum[:])
}

// IterationCap returns the maximum pipeline iterations for optLevel
// (spec.md §4.4: O1=3, O2=5, O3=7). Levels above 3 reuse the O3 cap; level
// 0 never iterates (RunOptimizationPasses short-circuits on opt_level 0).
func IterationCap(optLevel int) int {
	switch {
	case optLevel <= 1:
		return 3
	case optLevel == 2:
		return 5
	default:
		return 7
	}
}

// PerPassCap is the maximum number of times any single pass may run across
// a whole pipeline invocation (spec.md §4.4).
const PerPassCap = 30
