package jsemit

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/mir"
)

// cfShape is which recovery strategy a function's body was rendered with.
type cfShape int

const (
	shapeLinear cfShape = iota
	shapeStructured
	shapeDispatch
)

// renderBody picks the best control-flow recovery strategy for fn's CFG and
// renders its body into a fresh emitter sharing e's helper/inline state
// (§4.12's three-strategy scheme: "prefer linear, then structured, and fall
// back to a block-dispatch loop that is always correct"). Grounded on
// original_source/src/codegen/js/control_flow.cpp and structured_flow.cpp's
// strategy selection, simplified to what a single forward CFG walk can
// recover without a full post-dominator tree.
func (e *emitter) renderBody(fn *mir.Function, fi *funcInfo) (string, cfShape) {
	if sub := e.tryLinear(fn, fi); sub != nil {
		return sub.out.String(), shapeLinear
	}

	dom := mir.ComputeDominators(fn)
	loops := mir.AnalyzeLoops(fn, dom)

	sub := e.fork()
	budget := blockBudget
	if sub.tryStructured(fn, fi, loops, fn.EntryBlock, noBlock, map[mir.BlockID]bool{}, &budget) {
		return sub.out.String(), shapeStructured
	}

	sub = e.fork()
	sub.emitDispatch(fn, fi)
	return sub.out.String(), shapeDispatch
}

// noBlock is a stop sentinel that never matches a real BlockID, used at the
// outermost recursion level where the only valid way to finish is Return.
const noBlock mir.BlockID = -1

// tryLinear recognizes a function whose entry falls straight through a
// chain of Goto edges to Return with no branching at all — the common case
// spec.md §8 scenario 5 names ("a linear CFG with no branches or loops
// emits straight-line code with ... no dispatch scaffolding").
func (e *emitter) tryLinear(fn *mir.Function, fi *funcInfo) *emitter {
	sub := e.fork()
	current := fn.EntryBlock
	seen := map[mir.BlockID]bool{}
	for {
		if seen[current] {
			return nil
		}
		seen[current] = true
		b := fn.Block(current)
		if b == nil {
			return nil
		}
		sub.emitBlockStatements(fn, fi, b)
		switch t := b.Terminator.(type) {
		case mir.Goto:
			current = t.Target
		case mir.Call:
			if t.Unwind != nil {
				return nil
			}
			sub.emitCallStatement(fn, fi, t)
			current = t.Success
		case mir.Return:
			sub.emitReturn(fn, fi)
			return sub
		case mir.Unreachable:
			sub.line("throw new Error(%q);", "unreachable")
			return sub
		default:
			return nil
		}
	}
}

// tryStructured recursively walks from start until it reaches stop (a
// recognized merge/back-edge point) or a terminal Return/throw, recovering
// while-loops and if/else from loop headers and two-target SwitchInts.
// Returns false the moment it meets a shape it cannot structure (an
// unrecognized loop header, a >2-target switch, or a Call with an Unwind
// edge), at which point the caller discards the whole attempt.
func (e *emitter) tryStructured(fn *mir.Function, fi *funcInfo, loops *mir.LoopForest, start, stop mir.BlockID, visited map[mir.BlockID]bool, budget *int) bool {
	current := start
	for {
		if current == stop {
			return true
		}
		if visited[current] {
			return false
		}
		if *budget <= 0 {
			return false
		}
		visited[current] = true

		if loop := loopHeaderAt(loops, current); loop != nil {
			return e.emitLoop(fn, fi, loops, loop, stop, visited, budget)
		}

		b := fn.Block(current)
		if b == nil {
			return false
		}
		e.emitBlockStatements(fn, fi, b)
		*budget -= len(b.Statements) + 1

		switch t := b.Terminator.(type) {
		case mir.Goto:
			current = t.Target
		case mir.Call:
			if t.Unwind != nil {
				return false
			}
			e.emitCallStatement(fn, fi, t)
			current = t.Success
		case mir.Return:
			e.emitReturn(fn, fi)
			return true
		case mir.Unreachable:
			e.line("throw new Error(%q);", "unreachable")
			return true
		case mir.SwitchInt:
			if len(t.Cases) != 1 {
				return false
			}
			return e.emitIfElse(fn, fi, loops, t, stop, visited, budget)
		default:
			return false
		}
	}
}

func loopHeaderAt(loops *mir.LoopForest, id mir.BlockID) *mir.Loop {
	for _, l := range loops.Loops {
		if l.Header == id {
			return l
		}
	}
	return nil
}

// emitLoop renders a natural loop whose header's own SwitchInt is the exit
// test as `while (true) { if (exit) break; ...body }` (§4.12: "a block that
// is a loop header generates while(true) with the exit test as an early
// break"). Loops whose header terminates any other way are not recognized
// here and cause the whole structured attempt to fail.
func (e *emitter) emitLoop(fn *mir.Function, fi *funcInfo, loops *mir.LoopForest, loop *mir.Loop, stop mir.BlockID, visited map[mir.BlockID]bool, budget *int) bool {
	header := fn.Block(loop.Header)
	if header == nil {
		return false
	}
	sw, ok := header.Terminator.(mir.SwitchInt)
	if !ok || len(sw.Cases) != 1 {
		return false
	}

	caseTarget := sw.Cases[0].Target
	var contTarget, exitTarget mir.BlockID
	var continueOnMatch bool
	switch {
	case loop.Body[caseTarget] && !loop.Body[sw.Otherwise]:
		contTarget, exitTarget, continueOnMatch = caseTarget, sw.Otherwise, true
	case loop.Body[sw.Otherwise] && !loop.Body[caseTarget]:
		contTarget, exitTarget, continueOnMatch = sw.Otherwise, caseTarget, false
	default:
		return false
	}

	e.line("while (true) {")
	e.indent++
	e.emitBlockStatements(fn, fi, header)
	*budget -= len(header.Statements) + 1
	disc := e.renderOperand(fn, fi, sw.Discriminant)
	if continueOnMatch {
		e.line("if (Number(%s) !== %d) break;", disc, sw.Cases[0].Value)
	} else {
		e.line("if (Number(%s) === %d) break;", disc, sw.Cases[0].Value)
	}
	bodyOK := e.tryStructured(fn, fi, loops, contTarget, loop.Header, cloneVisited(visited), budget)
	e.indent--
	if !bodyOK {
		return false
	}
	e.line("}")

	return e.tryStructured(fn, fi, loops, exitTarget, stop, visited, budget)
}

// emitIfElse renders a two-target SwitchInt as `if (cond) {...} else {...}`,
// recursing each branch to the same stop so a shared tail after the
// branches reconverge is emitted once in each arm rather than hoisted
// (correct, though it duplicates any code following the merge point).
func (e *emitter) emitIfElse(fn *mir.Function, fi *funcInfo, loops *mir.LoopForest, sw mir.SwitchInt, stop mir.BlockID, visited map[mir.BlockID]bool, budget *int) bool {
	disc := e.renderOperand(fn, fi, sw.Discriminant)
	cond := fmt.Sprintf("Number(%s) === %d", disc, sw.Cases[0].Value)

	e.indent++
	thenSub := e.fork()
	elseSub := e.fork()
	e.indent--

	if !thenSub.tryStructured(fn, fi, loops, sw.Cases[0].Target, stop, cloneVisited(visited), budget) {
		return false
	}
	if !elseSub.tryStructured(fn, fi, loops, sw.Otherwise, stop, cloneVisited(visited), budget) {
		return false
	}

	e.line("if (%s) {", cond)
	e.out.WriteString(thenSub.out.String())
	e.line("} else {")
	e.out.WriteString(elseSub.out.String())
	e.line("}")
	return true
}

func cloneVisited(v map[mir.BlockID]bool) map[mir.BlockID]bool {
	out := make(map[mir.BlockID]bool, len(v))
	for k := range v {
		out[k] = true
	}
	return out
}
