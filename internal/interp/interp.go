// Package interp implements the tree-walking MIR interpreter (spec.md
// §4.11): an explicit frame stack, place load/store with auto-vivification,
// rvalue evaluation, and the three-step call dispatch (builtin registry →
// defined functions → dynamic dispatch). Grounded on the teacher's
// function-table lookup in internal/stdlib for builtin dispatch, and on
// original_source/src/mir/interpreter/eval.hpp for evaluation order and
// the division-by-zero-returns-zero, unresolved-call-warns-and-continues
// failure modes.
package interp

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/cmerrors"
	"github.com/cm-lang/cmc/internal/mir"
)

// Value is the interpreter's dynamically-typed runtime value. It lives in
// internal/builtinreg (not here) purely to avoid an import cycle: the
// builtin registry's own implementations need to operate on Value, and
// this package needs both Value and the registry's Call/Lookup — so the
// lower-level package owns the type and this one re-exports it under the
// name spec.md's external-interface signature (`interp.Value`) expects.
type Value = builtinreg.Value

// DefaultMaxDepth bounds the interpreter's recursion through block
// terminators and nested function calls alike (spec.md §9: "bounded
// recursion through block terminators, with a MaxCallDepth guard
// producing a RuntimeError instead of a stack overflow"). One counter
// covers both because both recurse through the same Go call stack.
const DefaultMaxDepth = 200000

// Logger receives Warn diagnostics for non-fatal interpreter events
// (unresolved call/dispatch). A nil Logger silently drops them.
type Logger interface {
	Warn(e *cmerrors.CompilerError)
}

type interpreter struct {
	program  *mir.Program
	logger   Logger
	maxDepth int
}

// Execute runs the function named entryName to completion. entryName must
// name a defined, zero-parameter function (spec.md §6); its return
// local's final value is yielded.
func Execute(program *mir.Program, entryName string) (Value, error) {
	return ExecuteWithOptions(program, entryName, nil, DefaultMaxDepth)
}

// ExecuteWithOptions is Execute with an injectable diagnostics Logger and
// an explicit recursion-depth bound, used by tests exercising the
// MaxCallDepth guard without waiting on a real stack overflow.
func ExecuteWithOptions(program *mir.Program, entryName string, logger Logger, maxDepth int) (Value, error) {
	fn := program.FuncByName(entryName)
	if fn == nil {
		return builtinreg.Unit(), fmt.Errorf("interp: entry function %q not found", entryName)
	}
	if len(fn.ArgLocals) != 0 {
		return builtinreg.Unit(), fmt.Errorf("interp: entry function %q must take zero parameters", entryName)
	}
	it := &interpreter{program: program, logger: logger, maxDepth: maxDepth}
	return it.callFunction(fn, nil, 0)
}

// callFunction runs fn with the given already-evaluated argument values and
// returns its return local's final value.
func (it *interpreter) callFunction(fn *mir.Function, args []Value, depth int) (Value, error) {
	if depth > it.maxDepth {
		return builtinreg.Unit(), &cmerrors.CompilerError{
			Kind: cmerrors.RuntimeError, Level: cmerrors.LevelError,
			Code: "MIR0400", Function: fn.Name,
			Message: "max call/recursion depth exceeded",
		}
	}
	fr := newFrame(fn)
	for i, id := range fn.ArgLocals {
		if i < len(args) {
			fr.set(id, args[i])
		}
	}
	ret, err := it.runBlock(fr, fn.EntryBlock, depth+1)
	if err != nil {
		return builtinreg.Unit(), err
	}
	if ret != nil {
		return *ret, nil
	}
	return fr.get(fn.ReturnLocal), nil
}

// runBlock executes bb's statements then its terminator, recursing into
// the next block for Goto/SwitchInt/Call-success and stopping recursion
// at Return (which yields a non-nil *Value) or Unreachable (which errors).
func (it *interpreter) runBlock(fr *frame, id mir.BlockID, depth int) (*Value, error) {
	if depth > it.maxDepth {
		return nil, &cmerrors.CompilerError{
			Kind: cmerrors.RuntimeError, Level: cmerrors.LevelError,
			Code: "MIR0400", Function: fr.fn.Name,
			Message: "max call/recursion depth exceeded",
		}
	}
	bb := fr.fn.Block(id)
	if bb == nil {
		return nil, fmt.Errorf("interp: %s references deleted block bb%d", fr.fn.Name, id)
	}
	for _, stmt := range bb.Statements {
		if err := it.execStatement(fr, stmt); err != nil {
			return nil, err
		}
	}
	return it.execTerminator(fr, bb.Terminator, depth)
}

func (it *interpreter) execStatement(fr *frame, stmt mir.Statement) error {
	switch s := stmt.(type) {
	case mir.Assign:
		v, err := it.evalRvalue(fr, s.Rvalue)
		if err != nil {
			return err
		}
		return it.storePlace(fr, s.Place, v)
	case mir.StorageLive, mir.StorageDead, mir.NopStmt:
		return nil
	case mir.Asm:
		return nil
	default:
		return fmt.Errorf("interp: unknown statement %T", stmt)
	}
}

func (it *interpreter) execTerminator(fr *frame, term mir.Terminator, depth int) (*Value, error) {
	switch t := term.(type) {
	case mir.Goto:
		return it.runBlock(fr, t.Target, depth+1)
	case mir.SwitchInt:
		disc, err := it.evalOperand(fr, t.Discriminant)
		if err != nil {
			return nil, err
		}
		target := t.Otherwise
		for _, c := range t.Cases {
			if disc.Int == c.Value {
				target = c.Target
				break
			}
		}
		return it.runBlock(fr, target, depth+1)
	case mir.Call:
		result, err := it.execCall(fr, t, depth)
		if err != nil {
			return nil, err
		}
		if t.Destination != nil {
			if serr := it.storePlace(fr, *t.Destination, result); serr != nil {
				return nil, serr
			}
		}
		return it.runBlock(fr, t.Success, depth+1)
	case mir.Return:
		v := fr.get(fr.fn.ReturnLocal)
		return &v, nil
	case mir.Unreachable:
		return nil, &cmerrors.CompilerError{
			Kind: cmerrors.RuntimeError, Level: cmerrors.LevelError,
			Code: "MIR0401", Function: fr.fn.Name,
			Message: "reached Unreachable terminator",
		}
	default:
		return nil, fmt.Errorf("interp: unknown terminator %T", term)
	}
}
