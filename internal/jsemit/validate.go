package jsemit

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/cmerrors"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// forbiddenMemoryFuncs are the manual-memory builtins spec.md §4.12 names
// explicitly: "reject the program ... if any function uses
// malloc/free/calloc/realloc". Grounded on
// original_source/src/codegen/js/validation.cpp's name-based rejection and
// mirrored in internal/builtinreg/memory.go's Forbidden: true entries.
var forbiddenMemoryFuncs = map[string]bool{
	"malloc": true, "free": true, "calloc": true, "realloc": true,
}

// Validate rejects program with a *cmerrors.CompilerError (Kind:
// TargetRejection) if any function uses a forbidden memory builtin or a
// void* type in any local, cast target, or cast source (spec.md §4.12
// "Target validation" — "The JS host has no manual memory model").
func Validate(program *mir.Program) error {
	for _, fn := range program.Functions {
		for _, l := range fn.Locals {
			if isVoidPointer(l.Type) {
				return targetRejection(fn.Name, "void*", fmt.Sprintf("local %q has type void*", l.Name))
			}
		}
		for _, b := range mir.Blocks(fn) {
			for _, s := range b.Statements {
				a, ok := s.(mir.Assign)
				if !ok {
					continue
				}
				if cast, ok := a.Rvalue.(mir.CastRvalue); ok {
					if isVoidPointer(cast.TargetType) {
						return targetRejection(fn.Name, "void*", "cast target is void*")
					}
					if srcType := operandType(fn, cast.Operand); isVoidPointer(srcType) {
						return targetRejection(fn.Name, "void*", "cast source is void*")
					}
				}
			}
			if call, ok := b.Terminator.(mir.Call); ok {
				if forbiddenMemoryFuncs[call.Callee] {
					return targetRejection(fn.Name, call.Callee, fmt.Sprintf("call to %q", call.Callee))
				}
			}
		}
	}
	return nil
}

// isVoidPointer reports whether t is a pointer whose pointee is unknown or
// unit — Cm's rendering of C's void*.
func isVoidPointer(t *hirtype.Type) bool {
	if t == nil || t.Kind != hirtype.KindPointer {
		return false
	}
	return t.Elem == nil || t.Elem.Kind == hirtype.KindUnit
}

// operandType resolves the static type of an operand when it names a
// place directly (Copy/Move of a trivial local); constants and
// FunctionRef operands carry no pointer-typing concern here.
func operandType(fn *mir.Function, op mir.Operand) *hirtype.Type {
	if p, ok := mir.PlaceOf(op); ok && p.Trivial() {
		return fn.Local(p.Local).Type
	}
	return nil
}

func targetRejection(function, symbol, detail string) error {
	return &cmerrors.CompilerError{
		Kind: cmerrors.TargetRejection, Level: cmerrors.LevelError,
		Code: "MIR0200", Function: function,
		Message: fmt.Sprintf("JS target rejects %s: %s", symbol, detail),
	}
}
