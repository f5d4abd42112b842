package scalar

import "github.com/cm-lang/cmc/internal/mir"

// CopyPropagation replaces a use of a local assigned `Assign{x, Use(Copy(y))}`
// with a direct use of y, when both x and y are trivial places (no
// projections) and no intervening statement redefines y (spec.md §4.5).
// It is intentionally conservative: a single forward scan per block, no
// cross-block propagation, matching the teacher's CopyPropagation pass
// scope in internal/ir/optimizations.go.
type CopyPropagation struct{}

func (CopyPropagation) Name() string { return "CopyPropagation" }
func (CopyPropagation) Description() string {
	return "replace copies of an un-redefined source local with the source itself"
}

func (CopyPropagation) Run(fn *mir.Function) bool {
	changed := false
	for _, b := range mir.Blocks(fn) {
		changed = propagateBlock(b) || changed
	}
	return changed
}

func propagateBlock(b *mir.BasicBlock) bool {
	// copyOf[x] = y means local x currently holds a plain copy of local y.
	copyOf := map[mir.LocalID]mir.LocalID{}
	ed := mir.NewEditor()
	changed := false

	invalidate := func(l mir.LocalID) {
		delete(copyOf, l)
		for k, v := range copyOf {
			if v == l {
				delete(copyOf, k)
			}
		}
	}

	for i, s := range b.Statements {
		a, ok := s.(mir.Assign)
		if !ok || a.NoOpt() {
			if w, ok := mir.StatementWrites(s); ok {
				invalidate(w)
			}
			continue
		}

		rewritten, didRewrite := rewriteRvalue(a.Rvalue, copyOf)
		if didRewrite {
			a.Rvalue = rewritten
			ed.Replace(i, a)
			changed = true
		}

		if !a.Place.Trivial() {
			// Writing through a projection may alias anything; drop all
			// copy facts conservatively.
			copyOf = map[mir.LocalID]mir.LocalID{}
			continue
		}
		invalidate(a.Place.Local)

		if use, ok := a.Rvalue.(mir.UseRvalue); ok {
			if cp, ok := use.Operand.(mir.CopyOperand); ok && cp.Place.Trivial() {
				copyOf[a.Place.Local] = cp.Place.Local
			}
		}
	}

	if changed {
		ed.Apply(b)
	}
	return changed
}

func rewriteRvalue(r mir.Rvalue, copyOf map[mir.LocalID]mir.LocalID) (mir.Rvalue, bool) {
	switch rv := r.(type) {
	case mir.UseRvalue:
		if op, ok := rewriteOperand(rv.Operand, copyOf); ok {
			rv.Operand = op
			return rv, true
		}
	case mir.BinaryOpRvalue:
		lo, lok := rewriteOperand(rv.Lhs, copyOf)
		ro, rok := rewriteOperand(rv.Rhs, copyOf)
		if lok || rok {
			if lok {
				rv.Lhs = lo
			}
			if rok {
				rv.Rhs = ro
			}
			return rv, true
		}
	case mir.UnaryOpRvalue:
		if op, ok := rewriteOperand(rv.Operand, copyOf); ok {
			rv.Operand = op
			return rv, true
		}
	case mir.CastRvalue:
		if op, ok := rewriteOperand(rv.Operand, copyOf); ok {
			rv.Operand = op
			return rv, true
		}
	case mir.FormatConvertRvalue:
		if op, ok := rewriteOperand(rv.Operand, copyOf); ok {
			rv.Operand = op
			return rv, true
		}
	case mir.AggregateRvalue:
		didAny := false
		ops := make([]mir.Operand, len(rv.Operands))
		copy(ops, rv.Operands)
		for i, op := range ops {
			if rewritten, ok := rewriteOperand(op, copyOf); ok {
				ops[i] = rewritten
				didAny = true
			}
		}
		if didAny {
			rv.Operands = ops
			return rv, true
		}
	}
	return r, false
}

func rewriteOperand(op mir.Operand, copyOf map[mir.LocalID]mir.LocalID) (mir.Operand, bool) {
	cp, ok := op.(mir.CopyOperand)
	if !ok || !cp.Place.Trivial() {
		return op, false
	}
	src, ok := copyOf[cp.Place.Local]
	if !ok {
		return op, false
	}
	return mir.CopyOperand{Place: mir.Place{Local: src}}, true
}
