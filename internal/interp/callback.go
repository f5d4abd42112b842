package interp

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/mir"
)

// execArrayCallback implements the higher-order array builtins
// (find/findIndex/some/every/reduce/map/filter/sortBy): the registry
// cannot invoke an arbitrary MIR function by reference, so these run here
// against the interpreter's own call-dispatch machinery. The callback is
// always the call's last argument, given as a FunctionRefOperand; every
// other argument is evaluated normally.
func (it *interpreter) execArrayCallback(fr *frame, base string, call mir.Call, depth int) (Value, error) {
	if len(call.Args) == 0 {
		return builtinreg.Unit(), nil
	}
	calleeRef, ok := call.Args[len(call.Args)-1].(mir.FunctionRefOperand)
	if !ok {
		return builtinreg.Unit(), fmt.Errorf("interp: %s expects a function reference as its last argument", call.Callee)
	}
	fn := it.program.FuncByName(calleeRef.Name)
	if fn == nil {
		it.warnf(fr.fn.Name, "MIR0403", "unresolved callback %q for %s", calleeRef.Name, call.Callee)
		return builtinreg.Unit(), nil
	}

	arr, err := it.evalOperand(fr, call.Args[0])
	if err != nil {
		return builtinreg.Unit(), err
	}

	invoke := func(args ...Value) (Value, error) { return it.callFunction(fn, args, depth+1) }

	switch base {
	case "map":
		out := make([]Value, len(arr.Elems))
		for i, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			out[i] = v
		}
		return Value{Kind: arr.Kind, Elems: out, Cap: len(out)}, nil

	case "filter":
		var out []Value
		for _, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if v.Truthy() {
				out = append(out, e.Clone())
			}
		}
		return Value{Kind: arr.Kind, Elems: out, Cap: len(out)}, nil

	case "find":
		for _, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if v.Truthy() {
				return e.Clone(), nil
			}
		}
		return builtinreg.Unit(), nil

	case "findIndex":
		for i, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if v.Truthy() {
				return builtinreg.Int(int64(i)), nil
			}
		}
		return builtinreg.Int(-1), nil

	case "some":
		for _, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if v.Truthy() {
				return builtinreg.Bool(true), nil
			}
		}
		return builtinreg.Bool(false), nil

	case "every":
		for _, e := range arr.Elems {
			v, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if !v.Truthy() {
				return builtinreg.Bool(false), nil
			}
		}
		return builtinreg.Bool(true), nil

	case "reduce":
		if len(call.Args) < 3 {
			return builtinreg.Unit(), fmt.Errorf("interp: reduce requires (array, initial, callback)")
		}
		acc, err := it.evalOperand(fr, call.Args[1])
		if err != nil {
			return builtinreg.Unit(), err
		}
		for _, e := range arr.Elems {
			acc, err = invoke(acc, e)
			if err != nil {
				return builtinreg.Unit(), err
			}
		}
		return acc, nil

	case "sortBy":
		out := make([]Value, len(arr.Elems))
		keys := make([]Value, len(arr.Elems))
		for i, e := range arr.Elems {
			out[i] = e.Clone()
			k, err := invoke(e)
			if err != nil {
				return builtinreg.Unit(), err
			}
			keys[i] = k
		}
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && keyLess(keys[j], keys[j-1]); j-- {
				out[j], out[j-1] = out[j-1], out[j]
				keys[j], keys[j-1] = keys[j-1], keys[j]
			}
		}
		return Value{Kind: arr.Kind, Elems: out, Cap: len(out)}, nil

	default:
		return builtinreg.Unit(), fmt.Errorf("interp: unimplemented callback builtin %q", base)
	}
}

func keyLess(a, b Value) bool {
	switch a.Kind {
	case builtinreg.KindInt:
		return a.Int < b.Int
	case builtinreg.KindFloat:
		return a.Float < b.Float
	case builtinreg.KindString:
		return a.Str < b.Str
	case builtinreg.KindChar:
		return a.Char < b.Char
	default:
		return false
	}
}
