package pass

import (
	"github.com/cm-lang/cmc/internal/cmerrors"
	"github.com/cm-lang/cmc/internal/mir"
)

// Options configures one pipeline invocation (spec.md §6:
// run_optimization_passes(program, opt_level, debug)).
type Options struct {
	OptLevel int
	Debug    bool

	// ComplexityLimits are the advisory §5 bounds; zero values fall back
	// to the spec's defaults.
	MaxBlocks     int
	MaxStatements int
	MaxLocals     int
}

func (o Options) limits() (maxBlocks, maxStatements, maxLocals int) {
	maxBlocks, maxStatements, maxLocals = o.MaxBlocks, o.MaxStatements, o.MaxLocals
	if maxBlocks == 0 {
		maxBlocks = 1000
	}
	if maxStatements == 0 {
		maxStatements = 10000
	}
	if maxLocals == 0 {
		maxLocals = 500
	}
	return
}

// Report is the result of a pipeline run: enough to assert on §8's
// convergence property and to surface non-fatal diagnostics to a caller
// instead of only logging them.
type Report struct {
	Iterations  int
	FinalState  ConvergenceState
	PassRuns    map[string]int
	Diagnostics []*cmerrors.CompilerError
}

// Pipeline drives a fixed-order sequence of passes to convergence.
type Pipeline struct {
	passes []Pass
	logger *cmerrors.Logger
}

// NewPipeline builds a Pipeline that runs passes in the order given.
// StandardPasses returns the standard O>=1 order from spec.md §4.4; tests
// exercising one pass in isolation pass a shorter list.
func NewPipeline(passes []Pass, logger *cmerrors.Logger) *Pipeline {
	return &Pipeline{passes: passes, logger: logger}
}

// Run executes the pipeline against program until a convergence state other
// than NotConverged is reached or the iteration cap for opts.OptLevel is
// hit, returning a Report.
func (p *Pipeline) Run(program *mir.Program, opts Options) Report {
	report := Report{PassRuns: map[string]int{}}

	if opts.OptLevel <= 0 {
		report.FinalState = Converged
		return report
	}

	markComplexity(program, opts)

	cap := IterationCap(opts.OptLevel)
	mgr := NewConvergenceManager()

	// changedLastIter gates the "skip a pass that made no change until
	// another pass reports a change" rule (§4.4); starts true so every
	// pass runs in the first iteration, and any reported change sets it
	// true again for every pass.
	changedLastIter := make(map[string]bool, len(p.passes))
	for _, ps := range p.passes {
		changedLastIter[ps.Name()] = true
	}

	for iter := 0; iter < cap; iter++ {
		before := snapshotProgram(program)
		anyRan := false

		for _, ps := range p.passes {
			if report.PassRuns[ps.Name()] >= PerPassCap {
				continue
			}
			if !changedLastIter[ps.Name()] {
				continue
			}
			changed := RunOnProgram(ps, program)
			report.PassRuns[ps.Name()]++
			changedLastIter[ps.Name()] = changed
			p.logger.OptLine(ps.Name(), ps.Description(), changed)
			if changed {
				anyRan = true
				for name := range changedLastIter {
					changedLastIter[name] = true
				}
				for _, fn := range program.Functions {
					mir.RebuildCFG(fn)
					if opts.Debug {
						if err := mir.CheckInvariants(fn); err != nil {
							report.Diagnostics = append(report.Diagnostics, cmerrors.New(
								cmerrors.InvariantViolation, cmerrors.LevelError, "MIR0001", fn.Name, err.Error()).WithErr(err))
							return finalize(report, CycleDetected, iter)
						}
					}
				}
			}
		}

		after := snapshotProgram(program)
		metrics := diff(before, after)
		state := mgr.Observe(program, metrics)
		report.Iterations = iter + 1

		if state != NotConverged {
			return finalize(report, state, iter)
		}
		if !anyRan {
			return finalize(report, Converged, iter)
		}
	}

	report.Diagnostics = append(report.Diagnostics, cmerrors.New(
		cmerrors.TimeoutOrCycle, cmerrors.LevelWarning, "MIR0100", "", "pipeline reached the iteration cap without converging"))
	return finalize(report, NotConverged, cap)
}

func finalize(report Report, state ConvergenceState, iter int) Report {
	report.FinalState = state
	if report.Iterations == 0 {
		report.Iterations = iter + 1
	}
	return report
}

// markComplexity flags every function exceeding §5's advisory limits as
// TooComplex. No diagnostic or log line is produced for a flagged function.
func markComplexity(program *mir.Program, opts Options) {
	maxBlocks, maxStatements, maxLocals := opts.limits()
	for _, fn := range program.Functions {
		stmts := 0
		for _, b := range mir.Blocks(fn) {
			stmts += len(b.Statements)
		}
		fn.TooComplex = len(fn.Blocks) > maxBlocks || stmts > maxStatements || len(fn.Locals) > maxLocals
	}
}
