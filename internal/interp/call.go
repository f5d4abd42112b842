package interp

import (
	"fmt"
	"strings"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/cmerrors"
	"github.com/cm-lang/cmc/internal/mir"
)

// callbackBuiltins names the array/slice builtins whose last argument is a
// callee function reference the registry itself cannot invoke (see
// internal/builtinreg/arrays.go); the interpreter implements these here,
// where a call-dispatch hook is available.
var callbackBuiltins = map[string]bool{
	"find": true, "findIndex": true, "some": true, "every": true,
	"reduce": true, "map": true, "filter": true, "sortBy": true,
}

func callbackBuiltinBase(name string) (string, bool) {
	for base := range callbackBuiltins {
		if name == "__builtin_array_"+base || name == "__builtin_array_"+base+"_i32" || name == "__builtin_array_"+base+"_i64" {
			return base, true
		}
	}
	return "", false
}

// execCall performs the §4.11 three-step dispatch and returns the call's
// result value (Unit when the callee has no meaningful return).
func (it *interpreter) execCall(fr *frame, call mir.Call, depth int) (Value, error) {
	// Callback-taking array builtins: the final argument is a function
	// reference, evaluated here (not through evalOperand, which has no
	// Value representation for function names).
	if base, ok := callbackBuiltinBase(call.Callee); ok && len(call.Args) >= 1 {
		return it.execArrayCallback(fr, base, call, depth)
	}

	args := make([]Value, len(call.Args))
	for i, a := range call.Args {
		v, err := it.evalOperand(fr, a)
		if err != nil {
			return builtinreg.Unit(), err
		}
		args[i] = v
	}

	// Constructors mutate their receiver (first arg) and copy the result
	// back into the caller's place for that argument.
	isCtor := strings.Contains(call.Callee, "__ctor")

	// Step 1: builtin registry.
	if def, ok := builtinreg.Lookup(call.Callee); ok {
		result, err := def.Impl(args)
		if err != nil {
			it.warnf(fr.fn.Name, "MIR0402", "builtin %q failed: %v", call.Callee, err)
			return builtinreg.Unit(), nil
		}
		return result, nil
	}

	// Step 2: defined function (or explicit virtual dispatch when the
	// terminator is already flagged).
	calleeName := call.Callee
	if call.IsVirtual && len(args) > 0 && args[0].Kind == builtinreg.KindStruct && args[0].StructType != "" {
		calleeName = args[0].StructType + "__" + call.MethodName
	}
	if fn := it.program.FuncByName(calleeName); fn != nil {
		result, err := it.callFunction(fn, args, depth+1)
		if err != nil {
			return builtinreg.Unit(), err
		}
		if isCtor && len(call.Args) > 0 {
			it.writeBackReceiver(fr, call.Args[0], result)
		}
		return result, nil
	}

	// Step 3: name-shape dynamic dispatch (InterfaceOrBase__method), when
	// the terminator wasn't already flagged virtual.
	if idx := strings.LastIndex(call.Callee, "__"); idx > 0 && len(args) > 0 &&
		args[0].Kind == builtinreg.KindStruct && args[0].StructType != "" {
		method := call.Callee[idx+2:]
		resolved := args[0].StructType + "__" + method
		if fn := it.program.FuncByName(resolved); fn != nil {
			result, err := it.callFunction(fn, args, depth+1)
			if err != nil {
				return builtinreg.Unit(), err
			}
			if isCtor {
				it.writeBackReceiver(fr, call.Args[0], result)
			}
			return result, nil
		}
	}

	it.warnf(fr.fn.Name, "MIR0403", "unresolved call %q", call.Callee)
	return builtinreg.Unit(), nil
}

// writeBackReceiver copies a constructor's mutated receiver back into the
// caller's place for that argument (spec.md §4.11: "Constructors ...
// mutate their receiver and copy the result back into the caller's first
// argument").
func (it *interpreter) writeBackReceiver(fr *frame, arg mir.Operand, result Value) {
	place, ok := mir.PlaceOf(arg)
	if !ok {
		return
	}
	_ = it.storePlace(fr, place, result)
}

func (it *interpreter) warnf(function, code, format string, args ...any) {
	if it.logger == nil {
		return
	}
	it.logger.Warn(&cmerrors.CompilerError{
		Kind: cmerrors.RuntimeError, Level: cmerrors.LevelWarning,
		Code: code, Function: function,
		Message: fmt.Sprintf(format, args...),
	})
}
