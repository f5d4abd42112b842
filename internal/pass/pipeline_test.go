package pass

import (
	"testing"

	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

func TestRunOptimizationPassesFoldsAndConvergesAtO1(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("main", hirtype.Int())
	b.Program().Functions[0].Exported = true
	x := b.Local("x", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(x),
		Rvalue: mir.BinaryOpRvalue{
			Op:         mir.OpAdd,
			Lhs:        mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())},
			Rhs:        mir.ConstantOperand{Value: mir.IntConst(2, hirtype.Int())},
			ResultType: hirtype.Int(),
		},
	})
	b.Emit(mir.Assign{
		Place:  mir.PlaceOfLocal(b.Program().Functions[0].ReturnLocal),
		Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(x)}},
	})
	b.Terminate(mir.Return{})
	program := b.Program()

	report := RunOptimizationPasses(program, 1, false)

	if report.FinalState != Converged && report.FinalState != PracticallyConverged {
		t.Fatalf("expected the pipeline to converge, got %v", report.FinalState)
	}

	fn := program.FuncByName("main")
	foundFoldedConst := false
	for _, stmt := range fn.Blocks[fn.EntryBlock].Statements {
		if a, ok := stmt.(mir.Assign); ok {
			if use, ok := a.Rvalue.(mir.UseRvalue); ok {
				if c, ok := use.Operand.(mir.ConstantOperand); ok && c.Value.Int == 3 {
					foundFoldedConst = true
				}
			}
		}
	}
	if !foundFoldedConst {
		t.Fatalf("expected 1+2 constant-folded to 3 somewhere in main")
	}
}

func TestRunOptimizationPassesNoOptAtO0(t *testing.T) {
	b := mir.NewBuilder()
	b.Func("main", hirtype.Unit())
	b.Terminate(mir.Return{})
	program := b.Program()

	report := RunOptimizationPasses(program, 0, false)
	if report.FinalState != Converged {
		t.Fatalf("expected immediate Converged at opt level 0, got %v", report.FinalState)
	}
	if report.Iterations != 0 {
		t.Fatalf("expected zero iterations at opt level 0, got %d", report.Iterations)
	}
}

func TestIterationCapByLevel(t *testing.T) {
	cases := map[int]int{0: 3, 1: 3, 2: 5, 3: 7, 4: 7}
	for level, want := range cases {
		if got := IterationCap(level); got != want {
			t.Fatalf("IterationCap(%d) = %d, want %d", level, got, want)
		}
	}
}
