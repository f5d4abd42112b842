// Package loopopt implements loop-invariant code motion (spec.md §4.10),
// grounded on original_source's licm.cpp pass and generalized to mir's
// id-indexed blocks via internal/mir's dominator and loop-forest
// analyses.
package loopopt

import "github.com/cm-lang/cmc/internal/mir"

// LICM hoists loop-invariant assignments out of a loop's header into a
// pre-header, processing loops innermost-first. It skips functions
// mir.Function.TooComplex marks (§5) and loops whose header is the
// function's entry block, matching the spec's "pre-header creation must
// preserve entry_block" constraint.
type LICM struct{}

func (LICM) Name() string        { return "LICM" }
func (LICM) Description() string { return "hoist loop-invariant assignments into a pre-header block" }

func (LICM) Run(fn *mir.Function) bool {
	changed := false
	for {
		dom := mir.ComputeDominators(fn)
		forest := mir.AnalyzeLoops(fn, dom)
		if len(forest.Loops) == 0 {
			break
		}
		order := innermostFirst(forest)

		iterChanged := false
		for _, idx := range order {
			if hoistLoop(fn, dom, *forest.Loops[idx]) {
				iterChanged = true
				break // loop shape may have changed; recompute analyses
			}
		}
		if !iterChanged {
			break
		}
		changed = true
		mir.RebuildCFG(fn)
	}
	return changed
}

func innermostFirst(forest *mir.LoopForest) []int {
	depth := make([]int, len(forest.Loops))
	for i, l := range forest.Loops {
		d := 0
		for p := l.Parent; p >= 0; p = forest.Loops[p].Parent {
			d++
		}
		depth[i] = d
	}
	order := make([]int, len(forest.Loops))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && depth[order[j]] > depth[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

func hoistLoop(fn *mir.Function, dom *mir.DominatorInfo, loop mir.Loop) bool {
	if loop.Header == fn.EntryBlock {
		return false
	}
	preheader := findOrCreatePreheader(fn, dom, loop)
	if preheader == nil {
		return false
	}

	modified := map[mir.LocalID]bool{}
	for bID := range loop.Body {
		b := fn.Block(bID)
		if b == nil {
			continue
		}
		for _, s := range b.Statements {
			if w, ok := mir.StatementWrites(s); ok {
				modified[w] = true
			}
		}
		if c, ok := b.Terminator.(mir.Call); ok && c.Destination != nil && c.Destination.Trivial() {
			modified[c.Destination.Local] = true
		}
	}

	header := fn.Block(loop.Header)
	ed := mir.NewEditor()
	changed := false
	for i, s := range header.Statements {
		a, ok := s.(mir.Assign)
		if !ok || a.NoOpt() {
			continue
		}
		if !a.Place.Trivial() {
			continue
		}
		if !isInvariantRvalue(a.Rvalue, modified) {
			continue
		}
		ed.Remove(i)
		preheader.Statements = append(preheader.Statements, a)
		changed = true
	}
	if changed {
		ed.Apply(header)
	}
	return changed
}

func isInvariantRvalue(r mir.Rvalue, modified map[mir.LocalID]bool) bool {
	if _, ok := r.(mir.RefRvalue); ok {
		return false
	}
	if !mir.IsPureRvalue(r) {
		return false
	}
	for _, op := range mir.RvalueOperands(r) {
		p, ok := mir.PlaceOf(op)
		if !ok {
			continue
		}
		// A projection (Field/Index/Deref) reads through memory this
		// analysis cannot alias-check — a different pointer could write
		// the same storage inside the loop body without the base local
		// itself ever appearing in modified — so any non-trivial place
		// disqualifies the rvalue from hoisting (spec.md §4.10 step 3:
		// hoisted statements must "neither contain a Ref nor touch memory
		// through projections"), matching the same conservative stance
		// ConstantFolding and GVN take on projection reads/writes.
		if !p.Trivial() {
			return false
		}
		if modified[p.Local] {
			return false
		}
	}
	return true
}

// findOrCreatePreheader returns a block dominating the header whose only
// successor is the header, reusing a unique non-back-edge predecessor
// that already qualifies, or splicing a new block in otherwise.
func findOrCreatePreheader(fn *mir.Function, dom *mir.DominatorInfo, loop mir.Loop) *mir.BasicBlock {
	header := fn.Block(loop.Header)

	var external []mir.BlockID
	for _, p := range header.Predecessors {
		if !loop.Body[p] {
			external = append(external, p)
		}
	}

	if len(external) == 1 {
		cand := fn.Block(external[0])
		if cand != nil && len(cand.Successors) == 1 && dom.Dominates(cand.ID, loop.Header) {
			if g, ok := cand.Terminator.(mir.Goto); ok && g.Target == loop.Header {
				return cand
			}
		}
	}

	preID := fn.NewBlock()
	pre := fn.Block(preID)
	pre.Terminator = mir.Goto{Target: loop.Header}

	for _, predID := range external {
		pred := fn.Block(predID)
		if pred == nil {
			continue
		}
		retargetToPreheader(pred, loop.Header, preID)
	}
	mir.RebuildCFG(fn)
	return pre
}

func retargetToPreheader(b *mir.BasicBlock, from, to mir.BlockID) {
	switch t := b.Terminator.(type) {
	case mir.Goto:
		if t.Target == from {
			b.Terminator = mir.Goto{Target: to}
		}
	case mir.SwitchInt:
		changed := false
		cases := make([]mir.SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			if c.Target == from {
				c.Target = to
				changed = true
			}
			cases[i] = c
		}
		otherwise := t.Otherwise
		if otherwise == from {
			otherwise = to
			changed = true
		}
		if changed {
			t.Cases = cases
			t.Otherwise = otherwise
			b.Terminator = t
		}
	case mir.Call:
		changed := false
		if t.Success == from {
			t.Success = to
			changed = true
		}
		if t.Unwind != nil && *t.Unwind == from {
			u := to
			t.Unwind = &u
			changed = true
		}
		if changed {
			b.Terminator = t
		}
	}
}
