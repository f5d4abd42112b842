package redundancy

import "github.com/cm-lang/cmc/internal/mir"

// DCE marks every local and statement that contributes, transitively, to
// the return value, a side-effecting Call's arguments, a SwitchInt's
// discriminant, an Asm statement, or any no_opt statement, then deletes
// every unmarked pure Assign, plus StorageLive/StorageDead pairs and Nop
// statements for locals nothing else needs, and drops unreachable blocks
// (spec.md §4.6). It defers to mir.DeleteUnreachable for the CFG part.
type DCE struct{}

func (DCE) Name() string        { return "DCE" }
func (DCE) Description() string { return "remove unreachable blocks and statements that contribute to nothing observable" }

func (DCE) Run(fn *mir.Function) bool {
	changed := mir.DeleteUnreachable(fn)

	kept := markLiveStatements(fn)

	for _, b := range mir.Blocks(fn) {
		ed := mir.NewEditor()
		for i, s := range b.Statements {
			if a, ok := s.(mir.Assign); ok && !a.NoOpt() && !kept[stmtKey{b.ID, i}] {
				ed.Remove(i)
			}
		}
		if ed.Changed() {
			ed.Apply(b)
			changed = true
		}
	}

	used := map[mir.LocalID]bool{}
	for _, b := range mir.Blocks(fn) {
		for _, s := range b.Statements {
			for _, r := range mir.StatementReads(s) {
				used[r] = true
			}
			if w, ok := mir.StatementWrites(s); ok {
				used[w] = true
			}
		}
	}

	for _, b := range mir.Blocks(fn) {
		ed := mir.NewEditor()
		for i, s := range b.Statements {
			switch st := s.(type) {
			case mir.StorageLive:
				if !used[st.Local] {
					ed.Remove(i)
				}
			case mir.StorageDead:
				if !used[st.Local] {
					ed.Remove(i)
				}
			case mir.NopStmt:
				ed.Remove(i)
			}
		}
		if ed.Changed() {
			ed.Apply(b)
			changed = true
		}
	}

	return changed
}

// stmtKey identifies one statement by its block and index, stable across
// the mark phase since markLiveStatements never mutates the function.
type stmtKey struct {
	block mir.BlockID
	index int
}

// markLiveStatements computes, for every Assign statement in fn, whether it
// must be kept: its own place is non-trivial (a projection write, always
// conservatively kept per the same aliasing stance ConstantFolding/GVN
// take), it is flagged no_opt, or its destination local is (transitively)
// live. A local is live if it is read by any terminator (a Call's
// arguments, a SwitchInt's discriminant) or by an Asm statement, is the
// function's return local, or is read by a statement already marked live.
// The mark set only grows, so the fixed-point loop below always terminates.
func markLiveStatements(fn *mir.Function) map[stmtKey]bool {
	live := map[mir.LocalID]bool{fn.ReturnLocal: true}
	for _, b := range mir.Blocks(fn) {
		for _, r := range terminatorReads(b.Terminator) {
			live[r] = true
		}
		for _, s := range b.Statements {
			if _, ok := s.(mir.Asm); ok {
				for _, r := range mir.StatementReads(s) {
					live[r] = true
				}
			}
		}
	}

	kept := map[stmtKey]bool{}
	for {
		progress := false
		for _, b := range mir.Blocks(fn) {
			for i, s := range b.Statements {
				key := stmtKey{b.ID, i}
				if kept[key] {
					continue
				}
				a, ok := s.(mir.Assign)
				if !ok {
					continue
				}
				if !a.NoOpt() && a.Place.Trivial() && !live[a.Place.Local] {
					continue
				}
				kept[key] = true
				progress = true
				for _, r := range mir.StatementReads(a) {
					if !live[r] {
						live[r] = true
						progress = true
					}
				}
			}
		}
		if !progress {
			break
		}
	}
	return kept
}

// terminatorReads returns every local a terminator reads directly: a
// Call's argument operands or a SwitchInt's discriminant. Goto, Return,
// and Unreachable read no local of their own (Return's dependency on
// fn.ReturnLocal is seeded once, globally, by the caller).
func terminatorReads(t mir.Terminator) []mir.LocalID {
	var out []mir.LocalID
	switch tt := t.(type) {
	case mir.SwitchInt:
		if l, ok := mir.OperandLocal(tt.Discriminant); ok {
			out = append(out, l)
		}
	case mir.Call:
		for _, op := range tt.Args {
			if l, ok := mir.OperandLocal(op); ok {
				out = append(out, l)
			}
		}
	}
	return out
}
