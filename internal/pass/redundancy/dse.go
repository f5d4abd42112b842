package redundancy

import "github.com/cm-lang/cmc/internal/mir"

// DeadStoreElimination removes an Assign whose destination local is never
// read before being reassigned or the function ends, provided the
// statement itself has no other effect (spec.md §4.6). It works backward
// within a block and conservatively forgets everything about a local the
// moment its address is taken (RefRvalue), since a reference may be read
// through later without appearing as a direct use of the local.
type DeadStoreElimination struct{}

func (DeadStoreElimination) Name() string { return "DeadStoreElimination" }
func (DeadStoreElimination) Description() string {
	return "remove assignments whose value is never read before the local is redefined"
}

func (DeadStoreElimination) Run(fn *mir.Function) bool {
	changed := false
	for _, b := range mir.Blocks(fn) {
		changed = dseBlock(fn, b) || changed
	}
	return changed
}

func dseBlock(fn *mir.Function, b *mir.BasicBlock) bool {
	addressTaken := map[mir.LocalID]bool{}
	for _, s := range b.Statements {
		if a, ok := s.(mir.Assign); ok {
			if ref, ok := a.Rvalue.(mir.RefRvalue); ok {
				addressTaken[ref.Place.Local] = true
			}
		}
	}

	liveOut := liveAtExit(fn, b)
	live := liveOut
	ed := mir.NewEditor()
	changed := false

	for i := len(b.Statements) - 1; i >= 0; i-- {
		s := b.Statements[i]
		a, ok := s.(mir.Assign)
		if !ok || a.NoOpt() {
			for _, r := range mir.StatementReads(s) {
				live[r] = true
			}
			continue
		}

		w, _ := mir.StatementWrites(s)
		isDeadStore := a.Place.Trivial() && !live[w] && !addressTaken[w] && !hasSideEffect(a.Rvalue)

		if isDeadStore {
			ed.Remove(i)
			changed = true
			continue
		}

		if !a.Place.Trivial() {
			live[a.Place.Local] = true
		} else {
			delete(live, w)
		}
		for _, r := range mir.StatementReads(s) {
			live[r] = true
		}
	}

	if changed {
		ed.Apply(b)
	}
	return changed
}

// liveAtExit seeds liveness with locals that may be read after the block:
// the function's return local, and every local read by any statement or
// terminator anywhere in fn, since a successor block (or a later loop
// iteration) may read it.
func liveAtExit(fn *mir.Function, b *mir.BasicBlock) map[mir.LocalID]bool {
	live := map[mir.LocalID]bool{fn.ReturnLocal: true}
	for _, ob := range mir.Blocks(fn) {
		for _, s := range ob.Statements {
			for _, r := range mir.StatementReads(s) {
				live[r] = true
			}
		}
		for _, r := range terminatorReads(ob.Terminator) {
			live[r] = true
		}
	}
	return live
}

func hasSideEffect(r mir.Rvalue) bool {
	return !mir.IsPureRvalue(r)
}
