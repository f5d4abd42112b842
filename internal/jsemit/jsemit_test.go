package jsemit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// buildLinear constructs a function with a straight Goto chain from entry
// to Return: `x + 1` returned, no branches.
func buildLinear() *mir.Program {
	b := mir.NewBuilder()
	b.Func("add_one", hirtype.Int())
	x := b.Arg("x", hirtype.Int())
	b.Emit(mir.Assign{
		Place:  mir.PlaceOfLocal(0),
		Rvalue: mir.BinaryOpRvalue{Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(x)}, Rhs: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}, ResultType: hirtype.Int()},
	})
	b.Terminate(mir.Return{})
	b.Finish()
	return b.Program()
}

func TestCompileLinearHasNoDispatchScaffolding(t *testing.T) {
	program := buildLinear()
	dir := t.TempDir()
	out := filepath.Join(dir, "add_one.js")

	if err := Compile(program, Options{OutputFile: out}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	src := string(data)
	if strings.Contains(src, "__block") {
		t.Errorf("linear function emitted dispatch scaffolding:\n%s", src)
	}
	if !strings.Contains(src, "function add_one(") {
		t.Errorf("missing function declaration:\n%s", src)
	}
	if !strings.Contains(src, "return") {
		t.Errorf("missing return statement:\n%s", src)
	}
}

// buildCountingLoop constructs a loop counting i from 0 to 3, the loop
// shape of spec.md §8 scenario 6; the body only increments i and makes no
// calls.
func buildCountingLoop() *mir.Program {
	b := mir.NewBuilder()
	b.Func("count_to_three", hirtype.Unit())
	i := b.Local("i", hirtype.Int())

	// Func() always creates the entry block first, so it is id 0; reserve
	// the rest of the blocks before filling any of them in so the entry
	// block's own Terminate call isn't clobbered by a later Block() select.
	const entryID = mir.BlockID(0)
	headerID := b.Block()
	bodyID := b.Block()
	exitID := b.Block()

	b.Select(entryID)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(i), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Terminate(mir.Goto{Target: headerID})

	b.Select(headerID)
	cond := b.Local("cond", hirtype.Bool())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(cond),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpLt, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(3, hirtype.Int())}, ResultType: hirtype.Bool(),
		},
	})
	b.Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(cond)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: bodyID}},
		Otherwise:    exitID,
	})

	b.Select(bodyID)
	next := b.Local("next", hirtype.Int())
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(next),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}, ResultType: hirtype.Int(),
		},
	})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(i), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(next)}}})
	b.Terminate(mir.Goto{Target: headerID})

	b.Select(exitID)
	b.Terminate(mir.Return{})

	return func() *mir.Program {
		b.Finish()
		return b.Program()
	}()
}

func TestCompileLoopRecoversWhileLoop(t *testing.T) {
	program := buildCountingLoop()
	dir := t.TempDir()
	out := filepath.Join(dir, "count.js")

	if err := Compile(program, Options{OutputFile: out}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	src := string(data)
	if !strings.Contains(src, "while (true)") {
		t.Errorf("expected a recovered while loop, got:\n%s", src)
	}
	if !strings.Contains(src, "break") {
		t.Errorf("expected an early break for the loop exit test, got:\n%s", src)
	}
	if strings.Contains(src, "__block") {
		t.Errorf("structured loop should not need dispatch scaffolding:\n%s", src)
	}
}

// buildMallocCaller constructs a function that calls the forbidden malloc
// builtin, matching spec.md §8 scenario 7.
func buildMallocCaller() *mir.Program {
	b := mir.NewBuilder()
	b.Func("allocate", hirtype.Unit())
	size := b.Local("size", hirtype.Int())

	const entryID = mir.BlockID(0)
	success := b.Block()

	b.Select(entryID)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(size), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(16, hirtype.Int())}}})
	b.Terminate(mir.Call{Callee: "malloc", Args: []mir.Operand{mir.CopyOperand{Place: mir.PlaceOfLocal(size)}}, Success: success})

	b.Select(success)
	b.Terminate(mir.Return{})
	b.Finish()
	return b.Program()
}

func TestCompileRejectsMallocWithoutWritingOutput(t *testing.T) {
	program := buildMallocCaller()
	dir := t.TempDir()
	out := filepath.Join(dir, "allocate.js")

	err := Compile(program, Options{OutputFile: out})
	if err == nil {
		t.Fatal("expected Compile to reject a malloc call")
	}
	if !strings.Contains(err.Error(), "allocate") {
		t.Errorf("diagnostic should name the offending function, got: %v", err)
	}
	if !strings.Contains(err.Error(), "malloc") {
		t.Errorf("diagnostic should name the offending symbol, got: %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("expected no .js file to be written on rejection")
	}
}
