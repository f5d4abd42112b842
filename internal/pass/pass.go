// Package pass implements the MIR optimization pass framework: the Pass
// contract, the pipeline that drives passes to convergence, and the
// convergence manager itself (spec.md §4.4). It is grounded on the
// teacher's OptimizationPass/OptimizationPipeline shape in
// internal/ir/optimizations.go, extended with the convergence contract the
// teacher's single-shot pipeline never needed.
package pass

import "github.com/cm-lang/cmc/internal/mir"

// Pass is a single optimization transformation. Run operates on one
// function; RunOnProgram defaults to iterating over every function, but a
// pass may override it (e.g. ProgramDCE, which needs the whole program at
// once).
type Pass interface {
	Name() string
	Description() string
	Run(fn *mir.Function) bool
}

// ProgramPass is implemented by passes that need whole-program context
// instead of (or in addition to) per-function treatment, such as
// program-level dead code elimination.
type ProgramPass interface {
	Pass
	RunOnProgram(program *mir.Program) bool
}

// RunOnProgram runs p over every function in program, returning whether any
// function changed. Passes that need whole-program context should
// implement ProgramPass instead.
func RunOnProgram(p Pass, program *mir.Program) bool {
	if pp, ok := p.(ProgramPass); ok {
		return pp.RunOnProgram(program)
	}
	changed := false
	for _, fn := range program.Functions {
		if fn.TooComplex && requiresComplexityBudget(p) {
			continue
		}
		if p.Run(fn) {
			changed = true
		}
	}
	return changed
}

// requiresComplexityBudget reports whether p is one of the passes §5 names
// as skipping "too complex" functions (GVN and the dominator-dependent
// passes).
func requiresComplexityBudget(p Pass) bool {
	switch p.Name() {
	case "GVN", "LICM":
		return true
	default:
		return false
	}
}
