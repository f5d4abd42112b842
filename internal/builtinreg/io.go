package builtinreg

import (
	"fmt"
	"os"
)

// registerIO wires cm_println_*/cm_print_* and their format-aware variants
// (spec.md §6). These write to stdout directly since the interpreter is a
// debugging/reference execution mode, not the production JS target.
func registerIO() {
	register(Def{Name: "cm_println_string", JSHelper: "console.log", Impl: func(args []Value) (Value, error) {
		fmt.Fprintln(os.Stdout, argString(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_println_int", JSHelper: "console.log", Impl: func(args []Value) (Value, error) {
		fmt.Fprintln(os.Stdout, argInt(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_println_float", JSHelper: "console.log", Impl: func(args []Value) (Value, error) {
		fmt.Fprintln(os.Stdout, argFloat(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_println_bool", JSHelper: "console.log", Impl: func(args []Value) (Value, error) {
		fmt.Fprintln(os.Stdout, argBool(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_print_string", JSHelper: "process.stdout.write", Impl: func(args []Value) (Value, error) {
		fmt.Fprint(os.Stdout, argString(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_print_int", JSHelper: "process.stdout.write", Impl: func(args []Value) (Value, error) {
		fmt.Fprint(os.Stdout, argInt(args, 0))
		return Unit(), nil
	}})
	register(Def{Name: "cm_println_formatted", JSHelper: "__cm_format", Impl: func(args []Value) (Value, error) {
		v, err := Call("__cm_format", args)
		if err != nil {
			return v, err
		}
		fmt.Fprintln(os.Stdout, v.Str)
		return Unit(), nil
	}})
}

func argAt(args []Value, i int) Value {
	if i < 0 || i >= len(args) {
		return Unit()
	}
	return args[i]
}

func argString(args []Value, i int) string { return argAt(args, i).Str }
func argInt(args []Value, i int) int64     { return argAt(args, i).Int }
func argFloat(args []Value, i int) float64 { return argAt(args, i).Float }
func argBool(args []Value, i int) bool     { return argAt(args, i).Bool }
