package controlflow

import "github.com/cm-lang/cmc/internal/mir"

// TailCallElimination rewrites a self-recursive Call terminator whose
// success block immediately returns the call's destination into argument
// copies followed by Goto(entry_block), trading a stack frame for a loop
// back-edge while preserving observable behavior (spec.md §4.9).
type TailCallElimination struct{}

func (TailCallElimination) Name() string { return "TailCallElimination" }
func (TailCallElimination) Description() string {
	return "rewrite a self-call immediately followed by return into argument copies and a jump to entry"
}

func (TailCallElimination) Run(fn *mir.Function) bool {
	changed := false
	for _, b := range mir.Blocks(fn) {
		c, ok := b.Terminator.(mir.Call)
		if !ok || c.IsVirtual || c.Callee != fn.Name {
			continue
		}
		succ := fn.Block(c.Success)
		if succ == nil || len(succ.Statements) != 0 {
			continue
		}
		if _, ok := succ.Terminator.(mir.Return); !ok {
			continue
		}
		if c.Destination != nil && !destinationIsReturnLocal(fn, *c.Destination) {
			continue
		}

		var copies []mir.Statement
		for i, argLocal := range fn.ArgLocals {
			if i >= len(c.Args) {
				break
			}
			copies = append(copies, mir.Assign{
				Place:  mir.Place{Local: argLocal},
				Rvalue: mir.UseRvalue{Operand: c.Args[i]},
			})
		}
		b.Statements = append(b.Statements, copies...)
		b.Terminator = mir.Goto{Target: fn.EntryBlock}
		changed = true
	}
	if changed {
		mir.RebuildCFG(fn)
	}
	return changed
}

func destinationIsReturnLocal(fn *mir.Function, p mir.Place) bool {
	return p.Trivial() && p.Local == fn.ReturnLocal
}
