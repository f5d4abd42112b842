package mir

// Editor buffers edits to a block's statement list and applies them in one
// pass, implementing the Design Notes' "collect edits into a scratch
// buffer ... apply them after the scan; never delete while iterating"
// idiom used throughout the pass implementations in internal/pass.
type Editor struct {
	remove map[int]bool
	replace map[int]Statement
	appended []Statement
}

// NewEditor creates an empty edit buffer.
func NewEditor() *Editor {
	return &Editor{remove: map[int]bool{}, replace: map[int]Statement{}}
}

// Remove marks the statement at index i for deletion.
func (e *Editor) Remove(i int) { e.remove[i] = true }

// Replace marks the statement at index i to be replaced with s.
func (e *Editor) Replace(i int, s Statement) { e.replace[i] = s }

// Append queues a statement to be appended after all existing statements.
func (e *Editor) Append(s Statement) { e.appended = append(e.appended, s) }

// Changed reports whether any edit was queued.
func (e *Editor) Changed() bool {
	return len(e.remove) > 0 || len(e.replace) > 0 || len(e.appended) > 0
}

// Apply rewrites b.Statements according to the buffered edits, in original
// order, then appends any queued statements.
func (e *Editor) Apply(b *BasicBlock) {
	out := make([]Statement, 0, len(b.Statements))
	for i, s := range b.Statements {
		if e.remove[i] {
			continue
		}
		if r, ok := e.replace[i]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, s)
	}
	out = append(out, e.appended...)
	b.Statements = out
}

// RvalueOperands returns every operand read by r, in evaluation order.
func RvalueOperands(r Rvalue) []Operand {
	switch rv := r.(type) {
	case UseRvalue:
		return []Operand{rv.Operand}
	case BinaryOpRvalue:
		return []Operand{rv.Lhs, rv.Rhs}
	case UnaryOpRvalue:
		return []Operand{rv.Operand}
	case RefRvalue:
		return nil
	case AggregateRvalue:
		return rv.Operands
	case CastRvalue:
		return []Operand{rv.Operand}
	case FormatConvertRvalue:
		return []Operand{rv.Operand}
	default:
		return nil
	}
}

// OperandLocal returns the base local an operand reads, if any (Constant
// and FunctionRef operands read no local).
func OperandLocal(op Operand) (LocalID, bool) {
	switch o := op.(type) {
	case CopyOperand:
		return o.Place.Local, true
	case MoveOperand:
		return o.Place.Local, true
	default:
		return 0, false
	}
}

// StatementReads returns every local read by statement s, including index
// locals used in projections on its LHS place.
func StatementReads(s Statement) []LocalID {
	var out []LocalID
	switch st := s.(type) {
	case Assign:
		out = append(out, placeIndexLocals(st.Place)...)
		for _, op := range RvalueOperands(st.Rvalue) {
			if l, ok := OperandLocal(op); ok {
				out = append(out, l)
			}
		}
		if rv, ok := st.Rvalue.(RefRvalue); ok {
			out = append(out, rv.Place.Local)
			out = append(out, placeIndexLocals(rv.Place)...)
		}
	case Asm:
		for _, op := range st.Operands {
			if l, ok := OperandLocal(op); ok {
				out = append(out, l)
			}
		}
	}
	return out
}

func placeIndexLocals(p Place) []LocalID {
	var out []LocalID
	for _, proj := range p.Projections {
		if ip, ok := proj.(IndexProj); ok {
			out = append(out, ip.IndexLocal)
		}
	}
	return out
}

// StatementWrites returns the local written by statement s, if any.
func StatementWrites(s Statement) (LocalID, bool) {
	if a, ok := s.(Assign); ok {
		return a.Place.Local, true
	}
	return 0, false
}

// IsPureRvalue reports whether r has no side effects and does not read
// through memory in a way optimizations must treat conservatively (used by
// DCE, GVN, LICM).
func IsPureRvalue(r Rvalue) bool {
	switch r.(type) {
	case UseRvalue, BinaryOpRvalue, UnaryOpRvalue, AggregateRvalue, CastRvalue, FormatConvertRvalue:
		return true
	case RefRvalue:
		// Taking a reference is pure in itself but makes its target
		// address-taken; callers that care (DSE) check separately.
		return true
	default:
		return false
	}
}
