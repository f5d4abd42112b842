// Package controlflow implements the control-flow-shaping passes:
// SimplifyCFG, function inlining, and tail-call elimination (spec.md §4.7,
// §4.8, §4.9). Grounded on the teacher's CFG-merging and inlining logic in
// internal/ir/optimizations.go, adapted to rebuild predecessor/successor
// lists from terminators (mir.RebuildCFG) instead of mutating the
// teacher's pointer-linked block graph directly.
package controlflow

import "github.com/cm-lang/cmc/internal/mir"

// SimplifyCFG runs to a local fixed point per function (spec.md §4.7):
// delete unreachable blocks, merge a block into its sole successor when
// that successor has no other predecessor, and redirect jumps around an
// empty goto-only block.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string        { return "SimplifyCFG" }
func (SimplifyCFG) Description() string { return "delete unreachable blocks, merge straight-line blocks, and skip empty goto blocks" }

func (SimplifyCFG) Run(fn *mir.Function) bool {
	changed := false
	for {
		iterChanged := mir.DeleteUnreachable(fn)
		iterChanged = mergeStraightLine(fn) || iterChanged
		iterChanged = skipEmptyGoto(fn) || iterChanged
		if iterChanged {
			mir.RebuildCFG(fn)
			changed = true
			continue
		}
		break
	}
	return changed
}

// mergeStraightLine splices B's statements and terminator into A when A's
// only successor is B and B's only predecessor is A.
func mergeStraightLine(fn *mir.Function) bool {
	changed := false
	for _, a := range mir.Blocks(fn) {
		if len(a.Successors) != 1 {
			continue
		}
		bID := a.Successors[0]
		if bID == a.ID {
			continue
		}
		b := fn.Block(bID)
		if b == nil || len(b.Predecessors) != 1 || b.Predecessors[0] != a.ID {
			continue
		}
		a.Statements = append(a.Statements, b.Statements...)
		a.Terminator = b.Terminator
		fn.Blocks[bID] = nil
		changed = true
	}
	return changed
}

// skipEmptyGoto redirects every predecessor of an empty, Goto(T)-only
// block B (T != B) to jump directly to T, then lets DeleteUnreachable
// drop B on the next iteration.
func skipEmptyGoto(fn *mir.Function) bool {
	changed := false
	for _, b := range mir.Blocks(fn) {
		if len(b.Statements) != 0 {
			continue
		}
		g, ok := b.Terminator.(mir.Goto)
		if !ok || g.Target == b.ID || b.ID == fn.EntryBlock {
			continue
		}
		for _, predID := range append([]mir.BlockID(nil), b.Predecessors...) {
			pred := fn.Block(predID)
			if pred == nil {
				continue
			}
			if retarget(pred, b.ID, g.Target) {
				changed = true
			}
		}
	}
	return changed
}

func retarget(b *mir.BasicBlock, from, to mir.BlockID) bool {
	changed := false
	switch t := b.Terminator.(type) {
	case mir.Goto:
		if t.Target == from {
			b.Terminator = mir.Goto{Target: to}
			changed = true
		}
	case mir.SwitchInt:
		newCases := make([]mir.SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			if c.Target == from {
				c.Target = to
				changed = true
			}
			newCases[i] = c
		}
		otherwise := t.Otherwise
		if otherwise == from {
			otherwise = to
			changed = true
		}
		if changed {
			t.Cases = newCases
			t.Otherwise = otherwise
			b.Terminator = t
		}
	case mir.Call:
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
	return changed
}
