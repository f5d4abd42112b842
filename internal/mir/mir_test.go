package mir

import (
	"testing"

	"github.com/cm-lang/cmc/internal/hirtype"
)

// buildDiamond builds entry -> (a, b) -> join -> Return, a four-block
// diamond with no loop.
func buildDiamond(t *testing.T) *Function {
	t.Helper()
	b := NewBuilder()
	b.Func("diamond", hirtype.Int())
	cond := b.Local("cond", hirtype.Bool())
	entry := b.fnEntry()

	a := b.Block()
	join := b.Block()
	bBlk := b.Block()

	b.Select(entry).Terminate(SwitchInt{
		Discriminant: CopyOperand{Place: PlaceOfLocal(cond)},
		Cases:        []SwitchCase{{Value: 1, Target: a}},
		Otherwise:    bBlk,
	})
	b.Select(a).Terminate(Goto{Target: join})
	b.Select(bBlk).Terminate(Goto{Target: join})
	b.Select(join).Terminate(Return{})

	return b.Finish()
}

// fnEntry is a test helper exposing the builder's current function entry
// block id.
func (b *Builder) fnEntry() BlockID { return b.fn.EntryBlock }

func TestRebuildCFG(t *testing.T) {
	fn := buildDiamond(t)
	join := fn.Blocks[2] // see buildDiamond block order: entry, a, join, b

	if len(join.Predecessors) != 2 {
		t.Fatalf("expected join to have 2 predecessors, got %d", len(join.Predecessors))
	}
}

func TestReachableExcludesDeadBlock(t *testing.T) {
	fn := buildDiamond(t)
	dead := fn.NewBlock()
	fn.Block(dead).Terminate_testonly(Return{})
	RebuildCFG(fn)

	reach := Reachable(fn)
	if reach[dead] {
		t.Fatalf("dead block should not be reachable")
	}
}

// Terminate_testonly lets tests set a terminator without a Builder cursor.
func (b *BasicBlock) Terminate_testonly(t Terminator) { b.Terminator = t }

func TestDeleteUnreachable(t *testing.T) {
	fn := buildDiamond(t)
	dead := fn.NewBlock()
	fn.Block(dead).Terminate_testonly(Return{})
	RebuildCFG(fn)

	if !DeleteUnreachable(fn) {
		t.Fatalf("expected DeleteUnreachable to report a change")
	}
	if fn.Block(dead) != nil {
		t.Fatalf("dead block should have been deleted")
	}
	if DeleteUnreachable(fn) {
		t.Fatalf("second call should be a no-op")
	}
}

func TestCheckInvariantsPassesOnWellFormedFunction(t *testing.T) {
	fn := buildDiamond(t)
	if err := CheckInvariants(fn); err != nil {
		t.Fatalf("unexpected invariant violation: %v", err)
	}
}

func TestCheckInvariantsCatchesDanglingTerminator(t *testing.T) {
	fn := buildDiamond(t)
	fn.Blocks[0].Terminator = Goto{Target: BlockID(999)}
	RebuildCFG(fn) // successors now include the bogus id

	err := CheckInvariants(fn)
	if err == nil {
		t.Fatalf("expected invariant violation for dangling goto target")
	}
	ie, ok := err.(*InvariantError)
	if !ok || ie.Invariant != 1 {
		t.Fatalf("expected invariant 1 violation, got %v", err)
	}
}

func TestCheckInvariantsCatchesDuplicateSwitchCases(t *testing.T) {
	fn := buildDiamond(t)
	sw := fn.Blocks[0].Terminator.(SwitchInt)
	sw.Cases = append(sw.Cases, SwitchCase{Value: 1, Target: sw.Otherwise})
	fn.Blocks[0].Terminator = sw

	err := CheckInvariants(fn)
	ie, ok := err.(*InvariantError)
	if !ok || ie.Invariant != 4 {
		t.Fatalf("expected invariant 4 violation, got %v", err)
	}
}

func TestPlaceProjectionChain(t *testing.T) {
	p := PlaceOfLocal(3).Field(1).Index(4).Deref()
	if p.Trivial() {
		t.Fatalf("expected non-trivial place")
	}
	if !p.HasDeref() {
		t.Fatalf("expected HasDeref to be true")
	}
	if len(p.Projections) != 3 {
		t.Fatalf("expected 3 projections, got %d", len(p.Projections))
	}
}

func TestConstantCharReinterpretation(t *testing.T) {
	c := Constant{Kind: ConstInt, Int: 65, Type: hirtype.Char()}
	if got := c.Char_(); got != 'A' {
		t.Fatalf("expected reinterpreted char 'A', got %q", got)
	}
}
