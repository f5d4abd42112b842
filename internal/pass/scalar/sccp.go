package scalar

import "github.com/cm-lang/cmc/internal/mir"

// SCCP is a simplified sparse conditional constant propagation pass: it
// tracks which locals hold a single known constant value across a
// function's reachable blocks and rewrites SwitchInt terminators whose
// discriminant resolves to a constant into a Goto, pruning the
// now-unreachable arms (spec.md §4.5). Unlike a textbook worklist SCCP it
// does not merge lattice values across back-edges beyond a single
// forward pass, matching the bounded, iterate-to-convergence style the
// rest of the pipeline already relies on (spec.md §4.4) rather than
// solving the fixed point in one shot.
type SCCP struct{}

func (SCCP) Name() string { return "SCCP" }
func (SCCP) Description() string {
	return "propagate single-valued constants and resolve constant branches"
}

func (SCCP) Run(fn *mir.Function) bool {
	known := map[mir.LocalID]mir.Constant{}
	changed := false
	reach := mir.Reachable(fn)

	for _, b := range mir.Blocks(fn) {
		// A lattice value can only be soundly carried into a block that
		// has exactly one live (reachable) predecessor: the entry block
		// (0 predecessors) starts the function with nothing known, and a
		// merge point (more than one live predecessor) may be reached
		// along paths that assigned its locals differently, so carrying
		// a single forward-scanned value across it would conflate
		// distinct incoming values into one (spec.md §4.5 requires
		// per-edge tracking; this is the minimum conservative stand-in
		// for it that the single global map can give without one).
		live := 0
		for _, p := range b.Predecessors {
			if reach[p] {
				live++
			}
		}
		if live != 1 {
			known = map[mir.LocalID]mir.Constant{}
		}

		ed := mir.NewEditor()
		for i, s := range b.Statements {
			a, ok := s.(mir.Assign)
			if !ok || a.NoOpt() {
				if w, ok := mir.StatementWrites(s); ok {
					delete(known, w)
				}
				continue
			}

			rewritten, didRewrite := substConstants(a.Rvalue, known)
			if didRewrite {
				a.Rvalue = rewritten
				ed.Replace(i, a)
				changed = true
			}

			if !a.Place.Trivial() {
				continue
			}
			delete(known, a.Place.Local)
			if use, ok := a.Rvalue.(mir.UseRvalue); ok {
				if c, ok := use.Operand.(mir.ConstantOperand); ok {
					known[a.Place.Local] = c.Value
				}
			}
		}
		if ed.Changed() {
			ed.Apply(b)
		}

		// A Call terminator's destination is assigned after every
		// statement in the block has run and is never itself a
		// compile-time constant (spec.md §4.5 treats calls with side
		// effects as producing top), so any stale numbering for it must
		// be dropped before the next block is processed.
		if call, ok := b.Terminator.(mir.Call); ok && call.Destination != nil && call.Destination.Trivial() {
			delete(known, call.Destination.Local)
		}

		if sw, ok := b.Terminator.(mir.SwitchInt); ok {
			if target, ok := resolveSwitch(sw, known); ok {
				b.Terminator = mir.Goto{Target: target}
				changed = true
			}
		}
	}

	if changed {
		mir.RebuildCFG(fn)
	}
	return changed
}

func substConstants(r mir.Rvalue, known map[mir.LocalID]mir.Constant) (mir.Rvalue, bool) {
	switch rv := r.(type) {
	case mir.UseRvalue:
		if op, ok := substOperand(rv.Operand, known); ok {
			rv.Operand = op
			return rv, true
		}
	case mir.BinaryOpRvalue:
		lo, lok := substOperand(rv.Lhs, known)
		ro, rok := substOperand(rv.Rhs, known)
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
		if op, ok := substOperand(rv.Operand, known); ok {
			rv.Operand = op
			return rv, true
		}
	}
	return r, false
}

func substOperand(op mir.Operand, known map[mir.LocalID]mir.Constant) (mir.Operand, bool) {
	p, ok := mir.PlaceOf(op)
	if !ok || !p.Trivial() {
		return op, false
	}
	c, ok := known[p.Local]
	if !ok {
		return op, false
	}
	return mir.ConstantOperand{Value: c}, true
}

func resolveSwitch(sw mir.SwitchInt, known map[mir.LocalID]mir.Constant) (mir.BlockID, bool) {
	var c mir.Constant
	switch d := sw.Discriminant.(type) {
	case mir.ConstantOperand:
		c = d.Value
	default:
		p, ok := mir.PlaceOf(sw.Discriminant)
		if !ok || !p.Trivial() {
			return 0, false
		}
		c, ok = known[p.Local]
		if !ok {
			return 0, false
		}
	}
	if c.Kind != mir.ConstInt {
		return 0, false
	}
	for _, cs := range sw.Cases {
		if cs.Value == c.Int {
			return cs.Target, true
		}
	}
	return sw.Otherwise, true
}
