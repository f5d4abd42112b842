package scalar

import (
	"testing"

	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// buildAddZero builds: x = Copy(x) + 0; Return.
func buildAddZero(t *testing.T) *mir.Function {
	t.Helper()
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	x := b.Local("x", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(x),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpAdd,
			Lhs:        mir.CopyOperand{Place: mir.PlaceOfLocal(x)},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Return{})
	return b.Finish()
}

func TestConstantFoldingAddZero(t *testing.T) {
	fn := buildAddZero(t)
	if !(ConstantFolding{}).Run(fn) {
		t.Fatalf("expected ConstantFolding to report a change")
	}
	a := fn.Blocks[0].Statements[0].(mir.Assign)
	use, ok := a.Rvalue.(mir.UseRvalue)
	if !ok {
		t.Fatalf("expected rvalue simplified to Use, got %T", a.Rvalue)
	}
	cp, ok := use.Operand.(mir.CopyOperand)
	if !ok || cp.Place.Local != 1 {
		t.Fatalf("expected x+0 folded to Use(Copy(x)), got %#v", use.Operand)
	}
}

func TestConstantFoldingBothConstant(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpMul,
			Lhs:        mir.ConstantOperand{Value: mir.IntConst(6, hirtype.Int())},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(7, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Return{})
	fn := b.Finish()

	if !(ConstantFolding{}).Run(fn) {
		t.Fatalf("expected a change")
	}
	a := fn.Blocks[0].Statements[0].(mir.Assign)
	use := a.Rvalue.(mir.UseRvalue)
	c := use.Operand.(mir.ConstantOperand).Value
	if c.Int != 42 {
		t.Fatalf("expected 42, got %d", c.Int)
	}
}

func TestConstantFoldingDivByZeroReturnsZero(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpDiv,
			Lhs:        mir.ConstantOperand{Value: mir.IntConst(5, hirtype.Int())},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Return{})
	fn := b.Finish()

	(ConstantFolding{}).Run(fn)
	a := fn.Blocks[0].Statements[0].(mir.Assign)
	use := a.Rvalue.(mir.UseRvalue)
	c := use.Operand.(mir.ConstantOperand).Value
	if c.Int != 0 {
		t.Fatalf("expected division by zero to fold to 0, got %d", c.Int)
	}
}

func TestCopyPropagationReplacesChainedCopy(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	x := b.Local("x", hirtype.Int())
	y := b.Local("y", hirtype.Int())
	z := b.Local("z", hirtype.Int())
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(y), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(x)}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(z), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(y)}}})
	b.Terminate(mir.Return{})
	fn := b.Finish()

	if !(CopyPropagation{}).Run(fn) {
		t.Fatalf("expected a change")
	}
	second := fn.Blocks[0].Statements[1].(mir.Assign)
	use := second.Rvalue.(mir.UseRvalue)
	cp := use.Operand.(mir.CopyOperand)
	if cp.Place.Local != x {
		t.Fatalf("expected z's source rewritten to x, got local %d", cp.Place.Local)
	}
}

func TestCopyPropagationStopsAtRedefinition(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	x := b.Local("x", hirtype.Int())
	y := b.Local("y", hirtype.Int())
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(y), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(x)}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(x), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(9, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(y)}}})
	b.Terminate(mir.Return{})
	fn := b.Finish()

	CopyPropagation{}.Run(fn)
	last := fn.Blocks[0].Statements[2].(mir.Assign)
	use := last.Rvalue.(mir.UseRvalue)
	cp := use.Operand.(mir.CopyOperand)
	if cp.Place.Local != y {
		t.Fatalf("must not propagate through x's redefinition; expected still y, got %d", cp.Place.Local)
	}
}

func TestSCCPResolvesConstantSwitch(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	cond := b.Local("cond", hirtype.Bool())
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(cond), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}}})
	arm := b.Block()
	other := b.Block()
	b.Select(b.Program().Functions[0].EntryBlock).Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(cond)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: arm}},
		Otherwise:    other,
	})
	b.Select(arm).Terminate(mir.Return{})
	b.Select(other).Terminate(mir.Return{})
	fn := b.Finish()

	if !(SCCP{}).Run(fn) {
		t.Fatalf("expected SCCP to resolve the constant switch")
	}
	g, ok := fn.Blocks[0].Terminator.(mir.Goto)
	if !ok || g.Target != arm {
		t.Fatalf("expected Goto(%d), got %#v", arm, fn.Blocks[0].Terminator)
	}
}

// TestSCCPDoesNotMergeConstantAcrossMultiplePredecessors builds a diamond
// entry -> {a, b} -> merge where a assigns x via a Call terminator's
// destination (never a compile-time constant) and b assigns x = 5, then
// merge reads y = Copy(x). Folding y to the constant 5 would be unsound on
// the path through a, so merge (two live predecessors) must not inherit
// either arm's knowledge of x.
func TestSCCPDoesNotMergeConstantAcrossMultiplePredecessors(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("f", hirtype.Int())
	flag := b.Local("flag", hirtype.Bool())
	x := b.Local("x", hirtype.Int())
	y := b.Local("y", hirtype.Int())

	a := b.Block()
	bb := b.Block()
	merge := b.Block()

	b.Select(b.Program().Functions[0].EntryBlock).Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(flag)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: a}},
		Otherwise:    bb,
	})

	b.Select(a).Terminate(mir.Call{Callee: "foo", Destination: &mir.Place{Local: x}, Success: merge})

	b.Select(bb)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(x), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(5, hirtype.Int())}}})
	b.Terminate(mir.Goto{Target: merge})

	b.Select(merge)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(y), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(x)}}})
	b.Terminate(mir.Return{})

	fn := b.Finish()

	SCCP{}.Run(fn)
	assign := fn.Block(merge).Statements[0].(mir.Assign)
	use := assign.Rvalue.(mir.UseRvalue)
	if _, ok := use.Operand.(mir.ConstantOperand); ok {
		t.Fatalf("must not fold y across a merge with a non-constant predecessor, got %#v", use.Operand)
	}
	cp, ok := use.Operand.(mir.CopyOperand)
	if !ok || cp.Place.Local != x {
		t.Fatalf("expected y to still copy x, got %#v", use.Operand)
	}
}
