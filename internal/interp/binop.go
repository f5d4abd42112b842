package interp

import (
	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/mir"
)

// evalBinaryOp dispatches by the operands' runtime kind (spec.md §4.11:
// "integer ops use wrapping semantics; division by zero yields zero ...
// comparisons return bool"). Go's native int64 +/-/* already wrap on
// overflow (two's complement), matching the spec's wrapping requirement
// without extra masking.
func evalBinaryOp(op mir.BinOp, lhs, rhs Value) Value {
	if lhs.Kind == builtinreg.KindFloat || rhs.Kind == builtinreg.KindFloat {
		return evalFloatOp(op, toFloat(lhs), toFloat(rhs))
	}
	if lhs.Kind == builtinreg.KindString || rhs.Kind == builtinreg.KindString {
		return evalStringOp(op, lhs, rhs)
	}
	if lhs.Kind == builtinreg.KindBool && rhs.Kind == builtinreg.KindBool {
		return evalBoolOp(op, lhs.Bool, rhs.Bool)
	}
	return evalIntOp(op, toInt(lhs), toInt(rhs))
}

func toFloat(v Value) float64 {
	if v.Kind == builtinreg.KindInt {
		return float64(v.Int)
	}
	if v.Kind == builtinreg.KindChar {
		return float64(v.Char)
	}
	return v.Float
}

func toInt(v Value) int64 {
	if v.Kind == builtinreg.KindChar {
		return int64(v.Char)
	}
	return v.Int
}

func evalIntOp(op mir.BinOp, a, b int64) Value {
	switch op {
	case mir.OpAdd:
		return builtinreg.Int(a + b)
	case mir.OpSub:
		return builtinreg.Int(a - b)
	case mir.OpMul:
		return builtinreg.Int(a * b)
	case mir.OpDiv:
		if b == 0 {
			return builtinreg.Int(0)
		}
		return builtinreg.Int(a / b)
	case mir.OpRem:
		if b == 0 {
			return builtinreg.Int(0)
		}
		return builtinreg.Int(a % b)
	case mir.OpAnd:
		return builtinreg.Int(a & b)
	case mir.OpOr:
		return builtinreg.Int(a | b)
	case mir.OpXor:
		return builtinreg.Int(a ^ b)
	case mir.OpShl:
		return builtinreg.Int(a << uint64(b))
	case mir.OpShr:
		return builtinreg.Int(a >> uint64(b))
	case mir.OpEq:
		return builtinreg.Bool(a == b)
	case mir.OpNe:
		return builtinreg.Bool(a != b)
	case mir.OpLt:
		return builtinreg.Bool(a < b)
	case mir.OpLe:
		return builtinreg.Bool(a <= b)
	case mir.OpGt:
		return builtinreg.Bool(a > b)
	case mir.OpGe:
		return builtinreg.Bool(a >= b)
	default:
		return builtinreg.Int(0)
	}
}

func evalFloatOp(op mir.BinOp, a, b float64) Value {
	switch op {
	case mir.OpAdd:
		return builtinreg.Float(a + b)
	case mir.OpSub:
		return builtinreg.Float(a - b)
	case mir.OpMul:
		return builtinreg.Float(a * b)
	case mir.OpDiv:
		if b == 0 {
			return builtinreg.Float(0)
		}
		return builtinreg.Float(a / b)
	case mir.OpEq:
		return builtinreg.Bool(a == b)
	case mir.OpNe:
		return builtinreg.Bool(a != b)
	case mir.OpLt:
		return builtinreg.Bool(a < b)
	case mir.OpLe:
		return builtinreg.Bool(a <= b)
	case mir.OpGt:
		return builtinreg.Bool(a > b)
	case mir.OpGe:
		return builtinreg.Bool(a >= b)
	default:
		return builtinreg.Float(0)
	}
}

func evalStringOp(op mir.BinOp, lhs, rhs Value) Value {
	switch op {
	case mir.OpAdd:
		return builtinreg.Str(lhs.String() + rhs.String())
	case mir.OpEq:
		return builtinreg.Bool(lhs.Str == rhs.Str)
	case mir.OpNe:
		return builtinreg.Bool(lhs.Str != rhs.Str)
	case mir.OpLt:
		return builtinreg.Bool(lhs.Str < rhs.Str)
	case mir.OpLe:
		return builtinreg.Bool(lhs.Str <= rhs.Str)
	case mir.OpGt:
		return builtinreg.Bool(lhs.Str > rhs.Str)
	case mir.OpGe:
		return builtinreg.Bool(lhs.Str >= rhs.Str)
	default:
		return builtinreg.Str("")
	}
}

func evalBoolOp(op mir.BinOp, a, b bool) Value {
	switch op {
	case mir.OpLogicalAnd, mir.OpAnd:
		return builtinreg.Bool(a && b)
	case mir.OpLogicalOr, mir.OpOr:
		return builtinreg.Bool(a || b)
	case mir.OpXor:
		return builtinreg.Bool(a != b)
	case mir.OpEq:
		return builtinreg.Bool(a == b)
	case mir.OpNe:
		return builtinreg.Bool(a != b)
	default:
		return builtinreg.Bool(false)
	}
}

// evalUnaryOp dispatches per-operand-kind (spec.md §4.11).
func evalUnaryOp(op mir.UnOp, v Value) Value {
	switch op {
	case mir.OpNeg:
		if v.Kind == builtinreg.KindFloat {
			return builtinreg.Float(-v.Float)
		}
		return builtinreg.Int(-toInt(v))
	case mir.OpNot:
		return builtinreg.Bool(!v.Truthy())
	case mir.OpBitNot:
		return builtinreg.Int(^toInt(v))
	default:
		return builtinreg.Unit()
	}
}
