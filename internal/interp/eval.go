package interp

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// evalOperand evaluates an Operand to a Value. Copy and Move are
// indistinguishable here: both clone (spec.md §3 "for the interpreter,
// both clone" — this interpreter never special-cases Move beyond that,
// since it has no borrow checker to enforce the post-move invalidation).
func (it *interpreter) evalOperand(fr *frame, op mir.Operand) (Value, error) {
	switch o := op.(type) {
	case mir.CopyOperand:
		v, err := it.loadPlace(fr, o.Place)
		if err != nil {
			return builtinreg.Unit(), err
		}
		return v.Clone(), nil
	case mir.MoveOperand:
		v, err := it.loadPlace(fr, o.Place)
		if err != nil {
			return builtinreg.Unit(), err
		}
		return v.Clone(), nil
	case mir.ConstantOperand:
		return constantValue(o.Value), nil
	case mir.FunctionRefOperand:
		// Function references have no Value representation; callers that
		// need the name (call dispatch, callback builtins) inspect the
		// Operand directly instead of going through evalOperand.
		return builtinreg.Unit(), nil
	default:
		return builtinreg.Unit(), fmt.Errorf("interp: unknown operand %T", op)
	}
}

func constantValue(c mir.Constant) Value {
	switch c.Kind {
	case mir.ConstUnit:
		return builtinreg.Unit()
	case mir.ConstBool:
		return builtinreg.Bool(c.Bool)
	case mir.ConstInt:
		if c.Type != nil && c.Type.Kind == hirtype.KindChar {
			return builtinreg.Char(rune(c.Int))
		}
		return builtinreg.Int(c.Int)
	case mir.ConstFloat:
		return builtinreg.Float(c.Float)
	case mir.ConstChar:
		return builtinreg.Char(c.Char)
	case mir.ConstString:
		return builtinreg.Str(c.String)
	default:
		return builtinreg.Unit()
	}
}

// evalRvalue evaluates an Rvalue to a Value (spec.md §4.11).
func (it *interpreter) evalRvalue(fr *frame, rv mir.Rvalue) (Value, error) {
	switch r := rv.(type) {
	case mir.UseRvalue:
		return it.evalOperand(fr, r.Operand)

	case mir.BinaryOpRvalue:
		lhs, err := it.evalOperand(fr, r.Lhs)
		if err != nil {
			return builtinreg.Unit(), err
		}
		rhs, err := it.evalOperand(fr, r.Rhs)
		if err != nil {
			return builtinreg.Unit(), err
		}
		return evalBinaryOp(r.Op, lhs, rhs), nil

	case mir.UnaryOpRvalue:
		v, err := it.evalOperand(fr, r.Operand)
		if err != nil {
			return builtinreg.Unit(), err
		}
		return evalUnaryOp(r.Op, v), nil

	case mir.RefRvalue:
		return it.evalRef(fr, r.Place)

	case mir.AggregateRvalue:
		return it.evalAggregate(fr, r)

	case mir.CastRvalue:
		v, err := it.evalOperand(fr, r.Operand)
		if err != nil {
			return builtinreg.Unit(), err
		}
		return evalCast(v, r.TargetType), nil

	case mir.FormatConvertRvalue:
		v, err := it.evalOperand(fr, r.Operand)
		if err != nil {
			return builtinreg.Unit(), err
		}
		out, cerr := builtinreg.Call("__cm_format_string", []Value{v, builtinreg.Str(r.FormatSpec)})
		if cerr != nil {
			return builtinreg.Unit(), cerr
		}
		return out, nil

	default:
		return builtinreg.Unit(), fmt.Errorf("interp: unknown rvalue %T", rv)
	}
}

// evalRef builds a pointer value for Ref(place) (spec.md §4.11): a pointer
// capturing the base local and, if the final projection is Index, the
// resolved index, except when any projection crosses a struct field — in
// that case the Ref captures a direct cell pointer instead, since a
// (local, index) pair alone cannot name a field.
func (it *interpreter) evalRef(fr *frame, p mir.Place) (Value, error) {
	hasField := false
	for _, proj := range p.Projections {
		if _, ok := proj.(mir.FieldProj); ok {
			hasField = true
			break
		}
	}
	if !hasField {
		switch {
		case len(p.Projections) == 0:
			return Value{Kind: builtinreg.KindPointer, PtrLocal: int(p.Local)}, nil
		case len(p.Projections) == 1:
			if idxProj, ok := p.Projections[0].(mir.IndexProj); ok {
				idx := int(fr.get(idxProj.IndexLocal).Int)
				// ensure the slot exists so later derefs don't panic.
				if _, err := it.resolvePlace(fr, p); err != nil {
					return builtinreg.Unit(), err
				}
				return Value{Kind: builtinreg.KindPointer, PtrLocal: int(p.Local), PtrIndex: idx, HasIndex: true}, nil
			}
		}
	}
	cell, err := it.resolvePlace(fr, p)
	if err != nil {
		return builtinreg.Unit(), err
	}
	return Value{Kind: builtinreg.KindPointer, PtrElemPtr: cell}, nil
}

func (it *interpreter) evalAggregate(fr *frame, r mir.AggregateRvalue) (Value, error) {
	vals := make([]Value, len(r.Operands))
	for i, op := range r.Operands {
		v, err := it.evalOperand(fr, op)
		if err != nil {
			return builtinreg.Unit(), err
		}
		vals[i] = v
	}
	switch r.Kind {
	case mir.AggArray, mir.AggTuple:
		return Value{Kind: builtinreg.KindArray, Elems: vals}, nil
	case mir.AggStruct:
		def := it.program.StructByName(r.StructName)
		sv := builtinreg.Struct(r.StructName)
		for i, v := range vals {
			name := fmt.Sprintf("_f%d", i)
			if def != nil && i < len(def.Fields) {
				name = def.Fields[i].Name
			}
			val := v
			sv.Fields[name] = &val
		}
		return sv, nil
	default:
		return builtinreg.Unit(), fmt.Errorf("interp: unknown aggregate kind %q", r.Kind)
	}
}

func evalCast(v Value, target *hirtype.Type) Value {
	if target == nil {
		return v
	}
	switch target.Kind {
	case hirtype.KindInt:
		switch v.Kind {
		case builtinreg.KindFloat:
			return builtinreg.Int(int64(v.Float))
		case builtinreg.KindChar:
			return builtinreg.Int(int64(v.Char))
		case builtinreg.KindBool:
			return builtinreg.Int(boolToInt(v.Bool))
		default:
			return builtinreg.Int(v.Int)
		}
	case hirtype.KindFloat:
		switch v.Kind {
		case builtinreg.KindInt:
			return builtinreg.Float(float64(v.Int))
		default:
			return builtinreg.Float(v.Float)
		}
	case hirtype.KindChar:
		return builtinreg.Char(rune(v.Int))
	case hirtype.KindBool:
		return builtinreg.Bool(v.Truthy())
	case hirtype.KindString:
		return builtinreg.Str(v.String())
	default:
		return v
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
