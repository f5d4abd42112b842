package interp

import (
	"testing"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// buildSumLoop builds: sum := 0; for i in 0..100 { sum = sum + i }; return sum.
func buildSumLoop(t *testing.T) *mir.Program {
	t.Helper()
	b := mir.NewBuilder()
	b.Func("sumLoop", hirtype.Int())
	i := b.Local("i", hirtype.Int())
	cond := b.Local("cond", hirtype.Bool())

	header := b.Block()
	body := b.Block()
	exit := b.Block()

	b.Select(mir.BlockID(0)) // entry
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(i), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Terminate(mir.Goto{Target: header})

	b.Select(header)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(cond),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpLt,
			Lhs:        mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(100, hirtype.Int())},
			ResultType: hirtype.Bool(),
		},
	})
	b.Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(cond)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: body}},
		Otherwise:    exit,
	})

	b.Select(body)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpAdd,
			Lhs:        mir.CopyOperand{Place: mir.PlaceOfLocal(0)},
			Rhs:        mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			ResultType: hirtype.Int(),
		},
	})
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(i),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpAdd,
			Lhs:        mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Goto{Target: header})

	b.Select(exit)
	b.Terminate(mir.Return{})

	b.Finish()
	return b.Program()
}

func TestExecuteSumLoop(t *testing.T) {
	prog := buildSumLoop(t)
	v, err := Execute(prog, "sumLoop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 4950 {
		t.Fatalf("expected 4950, got %d", v.Int)
	}
}

// buildFibIter builds: a=0; b=1; i=0; while i<10 { tmp=a+b; a=b; b=tmp; i=i+1 }; return a.
func buildFibIter(t *testing.T) *mir.Program {
	t.Helper()
	b := mir.NewBuilder()
	b.Func("fib", hirtype.Int())
	a := b.Local("a", hirtype.Int())
	bb := b.Local("b", hirtype.Int())
	i := b.Local("i", hirtype.Int())
	tmp := b.Local("tmp", hirtype.Int())
	cond := b.Local("cond", hirtype.Bool())

	header := b.Block()
	body := b.Block()
	exit := b.Block()

	b.Select(mir.BlockID(0))
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(a), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(bb), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(i), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Terminate(mir.Goto{Target: header})

	b.Select(header)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(cond),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpLt, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(10, hirtype.Int())}, ResultType: hirtype.Bool(),
		},
	})
	b.Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(cond)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: body}},
		Otherwise:    exit,
	})

	b.Select(body)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(tmp),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(a)},
			Rhs: mir.CopyOperand{Place: mir.PlaceOfLocal(bb)}, ResultType: hirtype.Int(),
		},
	})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(a), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(bb)}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(bb), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(tmp)}}})
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(i),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}, ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Goto{Target: header})

	b.Select(exit)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(a)}}})
	b.Terminate(mir.Return{})

	b.Finish()
	return b.Program()
}

func TestExecuteFibIterative(t *testing.T) {
	prog := buildFibIter(t)
	v, err := Execute(prog, "fib")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 55 {
		t.Fatalf("expected fib(10)=55, got %d", v.Int)
	}
}

func TestDivisionByZeroReturnsZero(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("divz", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpDiv, Lhs: mir.ConstantOperand{Value: mir.IntConst(10, hirtype.Int())},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}, ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Return{})
	prog := b.Finish()
	progW := &mir.Program{Functions: []*mir.Function{prog}}

	v, err := Execute(progW, "divz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 0 {
		t.Fatalf("expected division by zero to yield 0, got %d", v.Int)
	}
}

func TestUnreachableAborts(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("boom", hirtype.Int())
	b.Terminate(mir.Unreachable{})
	fn := b.Finish()
	prog := &mir.Program{Functions: []*mir.Function{fn}}

	if _, err := Execute(prog, "boom"); err == nil {
		t.Fatalf("expected Unreachable to produce an error")
	}
}

func TestUnresolvedCallWarnsAndYieldsUnit(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("caller", hirtype.Int())
	next := b.Block()
	b.Terminate(mir.Call{Callee: "does_not_exist", Success: next})
	b.Select(next)
	b.Terminate(mir.Return{})
	fn := b.Finish()
	prog := &mir.Program{Functions: []*mir.Function{fn}}

	v, err := Execute(prog, "caller")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != builtinreg.KindUnit {
		t.Fatalf("expected unit result for unresolved call's return local, got %+v", v)
	}
}

func TestMaxCallDepthGuardTriggers(t *testing.T) {
	// A self-recursive function with no base case must hit the depth
	// guard rather than overflow the Go stack.
	b := mir.NewBuilder()
	b.Func("loopForever", hirtype.Int())
	next := b.Block()
	b.Terminate(mir.Call{Callee: "loopForever", Success: next})
	b.Select(next)
	b.Terminate(mir.Return{})
	fn := b.Finish()
	prog := &mir.Program{Functions: []*mir.Function{fn}}

	_, err := ExecuteWithOptions(prog, "loopForever", nil, 100)
	if err == nil {
		t.Fatalf("expected max-depth error")
	}
}

// buildStructCopy builds a function mutate(p Point) int that sets p.x = 99
// and returns p.x, plus a caller that builds a Point{x:1,y:2}, calls
// mutate on a copy, and returns the original's x (scenario 3: copy
// semantics leave the caller's struct unchanged).
func buildStructCopy(t *testing.T) *mir.Program {
	t.Helper()
	prog := &mir.Program{
		Structs: []*mir.StructDef{{
			Name: "Point",
			Fields: []mir.FieldDef{
				{Name: "x", Type: hirtype.Int()},
				{Name: "y", Type: hirtype.Int()},
			},
		}},
	}

	// mutate(p): p.x = 99; return p.x
	mb := mir.NewBuilder()
	mb.Func("mutate", hirtype.Int())
	p := mb.Arg("p", hirtype.Struct("Point"))
	mb.Emit(mir.Assign{
		Place:  mir.PlaceOfLocal(p).Field(0),
		Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(99, hirtype.Int())}},
	})
	mb.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(p).Field(0)}}})
	mb.Terminate(mir.Return{})
	mutateFn := mb.Finish()

	// caller(): pt.x=1; pt.y=2; _ = mutate(pt); return pt.x
	cb := mir.NewBuilder()
	cb.Func("caller", hirtype.Int())
	pt := cb.Local("pt", hirtype.Struct("Point"))
	cb.Emit(mir.Assign{Place: mir.PlaceOfLocal(pt).Field(0), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}}})
	cb.Emit(mir.Assign{Place: mir.PlaceOfLocal(pt).Field(1), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(2, hirtype.Int())}}})
	next := cb.Block()
	cb.Terminate(mir.Call{
		Callee: "mutate",
		Args:   []mir.Operand{mir.CopyOperand{Place: mir.PlaceOfLocal(pt)}},
		Success: next,
	})
	cb.Select(next)
	cb.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(pt).Field(0)}}})
	cb.Terminate(mir.Return{})
	callerFn := cb.Finish()

	prog.Functions = []*mir.Function{mutateFn, callerFn}
	return prog
}

func TestStructCopySemanticsLeaveCallerUnchanged(t *testing.T) {
	prog := buildStructCopy(t)
	v, err := Execute(prog, "caller")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 1 {
		t.Fatalf("expected caller's Point.x to remain 1 after passing a copy, got %d", v.Int)
	}
}

// buildDynamicDispatch builds Circle__area(c) -> radius*radius*3 and a
// caller that builds a Circle{radius:2} and invokes Shape__area on it,
// expecting name-shape dynamic dispatch to resolve to Circle__area.
func buildDynamicDispatch(t *testing.T) *mir.Program {
	t.Helper()
	prog := &mir.Program{
		Structs: []*mir.StructDef{{
			Name:   "Circle",
			Fields: []mir.FieldDef{{Name: "radius", Type: hirtype.Int()}},
		}},
	}

	ab := mir.NewBuilder()
	ab.Func("Circle__area", hirtype.Int())
	c := ab.Arg("c", hirtype.Struct("Circle"))
	r := ab.Local("r", hirtype.Int())
	ab.Emit(mir.Assign{Place: mir.PlaceOfLocal(r), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(c).Field(0)}}})
	ab.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpMul,
			Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(r)},
			Rhs: mir.CopyOperand{Place: mir.PlaceOfLocal(r)},
			ResultType: hirtype.Int(),
		},
	})
	ab.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpMul,
			Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(0)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(3, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	ab.Terminate(mir.Return{})
	areaFn := ab.Finish()

	cb := mir.NewBuilder()
	cb.Func("caller", hirtype.Int())
	circ := cb.Local("circ", hirtype.Struct("Circle"))
	cb.Emit(mir.Assign{Place: mir.PlaceOfLocal(circ).Field(0), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(2, hirtype.Int())}}})
	next := cb.Block()
	cb.Terminate(mir.Call{
		Callee:      "Shape__area",
		Args:        []mir.Operand{mir.CopyOperand{Place: mir.PlaceOfLocal(circ)}},
		Destination: &mir.Place{Local: 0},
		Success:     next,
		IsVirtual:   true,
		MethodName:  "area",
	})
	cb.Select(next)
	cb.Terminate(mir.Return{})
	callerFn := cb.Finish()

	prog.Functions = []*mir.Function{areaFn, callerFn}
	return prog
}

func TestDynamicDispatchResolvesToConcreteImpl(t *testing.T) {
	prog := buildDynamicDispatch(t)
	v, err := Execute(prog, "caller")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 12 {
		t.Fatalf("expected Shape__area on radius-2 Circle to resolve to Circle__area and return 12, got %d", v.Int)
	}
}
