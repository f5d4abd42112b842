// Package scalar implements the per-function scalar optimization passes:
// ConstantFolding, CopyPropagation, and SCCP. Grounded on the teacher's
// OptimizationPass implementations in internal/ir/optimizations.go (the
// same "scan statements, buffer edits, apply" shape), adapted to operate
// over mir's id-indexed Place/Operand/Rvalue model instead of the
// teacher's pointer-linked IR values.
package scalar

import "github.com/cm-lang/cmc/internal/mir"

// ConstantFolding folds binary and unary operations over two constant
// operands into a single Constant, and simplifies algebraic identities
// (x+0, x*1, x*0, x-x) even when one side is not constant (spec.md §4.5).
type ConstantFolding struct{}

func (ConstantFolding) Name() string { return "ConstantFolding" }
func (ConstantFolding) Description() string {
	return "fold constant binary/unary expressions and algebraic identities"
}

func (ConstantFolding) Run(fn *mir.Function) bool {
	changed := false
	for _, b := range mir.Blocks(fn) {
		ed := mir.NewEditor()
		for i, s := range b.Statements {
			a, ok := s.(mir.Assign)
			if !ok || a.NoOpt() {
				continue
			}
			if folded, ok := foldRvalue(a.Rvalue); ok {
				a.Rvalue = folded
				ed.Replace(i, a)
			}
		}
		if ed.Changed() {
			ed.Apply(b)
			changed = true
		}
	}
	return changed
}

func foldRvalue(r mir.Rvalue) (mir.Rvalue, bool) {
	switch rv := r.(type) {
	case mir.BinaryOpRvalue:
		return foldBinary(rv)
	case mir.UnaryOpRvalue:
		return foldUnary(rv)
	default:
		return nil, false
	}
}

func foldBinary(rv mir.BinaryOpRvalue) (mir.Rvalue, bool) {
	lc, lok := constOf(rv.Lhs)
	rc, rok := constOf(rv.Rhs)

	if lok && rok && lc.Kind == mir.ConstInt && rc.Kind == mir.ConstInt {
		v, ok := foldIntOp(rv.Op, lc.Int, rc.Int)
		if !ok {
			return nil, false
		}
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(v, rv.ResultType)}}, true
	}
	if lok && rok && lc.Kind == mir.ConstBool && rc.Kind == mir.ConstBool {
		v, ok := foldBoolOp(rv.Op, lc.Bool, rc.Bool)
		if !ok {
			return nil, false
		}
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.BoolConst(v)}}, true
	}

	// Algebraic identities requiring only one side constant.
	if rok && rc.Kind == mir.ConstInt {
		switch {
		case rv.Op == mir.OpAdd && rc.Int == 0, rv.Op == mir.OpSub && rc.Int == 0:
			return mir.UseRvalue{Operand: rv.Lhs}, true
		case rv.Op == mir.OpMul && rc.Int == 1:
			return mir.UseRvalue{Operand: rv.Lhs}, true
		case rv.Op == mir.OpMul && rc.Int == 0:
			return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, rv.ResultType)}}, true
		}
	}
	if lok && lc.Kind == mir.ConstInt {
		switch {
		case rv.Op == mir.OpAdd && lc.Int == 0:
			return mir.UseRvalue{Operand: rv.Rhs}, true
		case rv.Op == mir.OpMul && lc.Int == 1:
			return mir.UseRvalue{Operand: rv.Rhs}, true
		case rv.Op == mir.OpMul && lc.Int == 0:
			return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, rv.ResultType)}}, true
		}
	}
	if samePlace(rv.Lhs, rv.Rhs) && rv.Op == mir.OpSub {
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, rv.ResultType)}}, true
	}
	return nil, false
}

func foldUnary(rv mir.UnaryOpRvalue) (mir.Rvalue, bool) {
	c, ok := constOf(rv.Operand)
	if !ok {
		return nil, false
	}
	switch {
	case rv.Op == mir.OpNeg && c.Kind == mir.ConstInt:
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(-c.Int, rv.ResultType)}}, true
	case rv.Op == mir.OpNot && c.Kind == mir.ConstBool:
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.BoolConst(!c.Bool)}}, true
	case rv.Op == mir.OpBitNot && c.Kind == mir.ConstInt:
		return mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(^c.Int, rv.ResultType)}}, true
	default:
		return nil, false
	}
}

// foldIntOp evaluates an integer binary op. Division and remainder by zero
// deliberately return (0, true) rather than failing the fold: spec.md's
// Design Notes call out "division by zero returns 0" as the documented
// interpreter semantics this pass must stay consistent with, rather than
// leaving an unfoldable div-by-zero for the interpreter to special-case
// differently from a constant-folded one.
func foldIntOp(op mir.BinOp, l, r int64) (int64, bool) {
	switch op {
	case mir.OpAdd:
		return l + r, true
	case mir.OpSub:
		return l - r, true
	case mir.OpMul:
		return l * r, true
	case mir.OpDiv:
		if r == 0 {
			return 0, true
		}
		return l / r, true
	case mir.OpRem:
		if r == 0 {
			return 0, true
		}
		return l % r, true
	case mir.OpAnd:
		return l & r, true
	case mir.OpOr:
		return l | r, true
	case mir.OpXor:
		return l ^ r, true
	case mir.OpShl:
		return l << uint(r), true
	case mir.OpShr:
		return l >> uint(r), true
	case mir.OpEq:
		return boolInt(l == r), true
	case mir.OpNe:
		return boolInt(l != r), true
	case mir.OpLt:
		return boolInt(l < r), true
	case mir.OpLe:
		return boolInt(l <= r), true
	case mir.OpGt:
		return boolInt(l > r), true
	case mir.OpGe:
		return boolInt(l >= r), true
	default:
		return 0, false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldBoolOp(op mir.BinOp, l, r bool) (bool, bool) {
	switch op {
	case mir.OpLogicalAnd:
		return l && r, true
	case mir.OpLogicalOr:
		return l || r, true
	case mir.OpEq:
		return l == r, true
	case mir.OpNe:
		return l != r, true
	default:
		return false, false
	}
}

func constOf(op mir.Operand) (mir.Constant, bool) {
	if c, ok := op.(mir.ConstantOperand); ok {
		return c.Value, true
	}
	return mir.Constant{}, false
}

func samePlace(a, b mir.Operand) bool {
	pa, aok := mir.PlaceOf(a)
	pb, bok := mir.PlaceOf(b)
	if !aok || !bok || !pa.Trivial() || !pb.Trivial() {
		return false
	}
	return pa.Local == pb.Local
}
