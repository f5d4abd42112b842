package controlflow

import "github.com/cm-lang/cmc/internal/mir"

// InlineThreshold is the "small statement count" heuristic cutoff from
// spec.md §4.8.
const InlineThreshold = 12

// Inlining inlines call sites whose callee has fewer than InlineThreshold
// statements, is not the caller itself, and has exactly one non-virtual
// call site in the whole program (spec.md §4.8). A callee with two or more
// call sites is never inlined; there is no per-function inline marker. It
// is a ProgramPass since the single-call-site heuristic needs a
// whole-program call-site count.
type Inlining struct{}

func (Inlining) Name() string        { return "Inlining" }
func (Inlining) Description() string { return "clone small, non-recursive callees directly into their call site" }

func (Inlining) Run(fn *mir.Function) bool { return false }

func (Inlining) RunOnProgram(program *mir.Program) bool {
	callSiteCount := map[string]int{}
	for _, fn := range program.Functions {
		for _, b := range mir.Blocks(fn) {
			if c, ok := b.Terminator.(mir.Call); ok && !c.IsVirtual {
				callSiteCount[c.Callee]++
			}
		}
	}

	changed := false
	for _, fn := range program.Functions {
		if inlineInto(program, fn, callSiteCount, map[string]bool{fn.Name: true}) {
			changed = true
			mir.RebuildCFG(fn)
		}
	}
	return changed
}

func inlineInto(program *mir.Program, fn *mir.Function, callSiteCount map[string]int, chain map[string]bool) bool {
	changed := false
	// Repeat until no more call sites in fn qualify; each inline can
	// expose new call sites in the cloned blocks, but the chain set, which
	// holds fn itself, blocks inlining fn into itself.
	for {
		didOne := false
		for _, b := range mir.Blocks(fn) {
			c, ok := b.Terminator.(mir.Call)
			if !ok || c.IsVirtual || chain[c.Callee] {
				continue
			}
			callee := program.FuncByName(c.Callee)
			if callee == nil || callee.Extern {
				continue
			}
			if !qualifies(callee, c.Callee, callSiteCount) {
				continue
			}
			inlineCallSite(fn, b, c, callee)
			didOne = true
			changed = true
			break // block set mutated; restart the scan
		}
		if !didOne {
			break
		}
	}
	return changed
}

func qualifies(callee *mir.Function, name string, callSiteCount map[string]int) bool {
	stmts := 0
	for _, b := range mir.Blocks(callee) {
		stmts += len(b.Statements)
	}
	if stmts >= InlineThreshold {
		return false
	}
	return callSiteCount[name] == 1
}

// inlineCallSite clones callee's locals and blocks into fn with fresh
// ids, remaps every reference, replaces the Call terminator with a Goto
// into the cloned entry, and rewrites the callee's Return into a Goto to
// the call's success block that first assigns the cloned return local
// into the call's destination.
func inlineCallSite(fn *mir.Function, callBlock *mir.BasicBlock, call mir.Call, callee *mir.Function) {
	localMap := make(map[mir.LocalID]mir.LocalID, len(callee.Locals))
	for _, l := range callee.Locals {
		localMap[l.ID] = fn.NewLocal("_inl$"+l.Name, l.Type)
	}

	blockMap := make(map[mir.BlockID]mir.BlockID, len(callee.Blocks))
	for _, b := range mir.Blocks(callee) {
		blockMap[b.ID] = fn.NewBlock()
	}

	for _, src := range mir.Blocks(callee) {
		dst := fn.Block(blockMap[src.ID])
		for _, s := range src.Statements {
			dst.Statements = append(dst.Statements, remapStatement(s, localMap))
		}
		if ret, ok := src.Terminator.(mir.Return); ok {
			_ = ret
			var assign mir.Statement
			if call.Destination != nil {
				assign = mir.Assign{
					Place:  *call.Destination,
					Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.Place{Local: localMap[callee.ReturnLocal]}}},
				}
			}
			if assign != nil {
				dst.Statements = append(dst.Statements, assign)
			}
			dst.Terminator = mir.Goto{Target: call.Success}
			continue
		}
		dst.Terminator = remapTerminator(src.Terminator, localMap, blockMap)
	}

	for i, argLocal := range callee.ArgLocals {
		if i >= len(call.Args) {
			break
		}
		assign := mir.Assign{Place: mir.Place{Local: localMap[argLocal]}, Rvalue: mir.UseRvalue{Operand: call.Args[i]}}
		entry := fn.Block(blockMap[callee.EntryBlock])
		entry.Statements = append([]mir.Statement{assign}, entry.Statements...)
	}

	callBlock.Terminator = mir.Goto{Target: blockMap[callee.EntryBlock]}
}

func remapPlace(p mir.Place, localMap map[mir.LocalID]mir.LocalID) mir.Place {
	if l, ok := localMap[p.Local]; ok {
		p.Local = l
	}
	projs := make([]mir.Projection, len(p.Projections))
	for i, pr := range p.Projections {
		if ip, ok := pr.(mir.IndexProj); ok {
			if l, ok := localMap[ip.IndexLocal]; ok {
				ip.IndexLocal = l
			}
			projs[i] = ip
			continue
		}
		projs[i] = pr
	}
	p.Projections = projs
	return p
}

func remapOperand(op mir.Operand, localMap map[mir.LocalID]mir.LocalID) mir.Operand {
	switch o := op.(type) {
	case mir.CopyOperand:
		o.Place = remapPlace(o.Place, localMap)
		return o
	case mir.MoveOperand:
		o.Place = remapPlace(o.Place, localMap)
		return o
	default:
		return op
	}
}

func remapRvalue(r mir.Rvalue, localMap map[mir.LocalID]mir.LocalID) mir.Rvalue {
	switch rv := r.(type) {
	case mir.UseRvalue:
		rv.Operand = remapOperand(rv.Operand, localMap)
		return rv
	case mir.BinaryOpRvalue:
		rv.Lhs = remapOperand(rv.Lhs, localMap)
		rv.Rhs = remapOperand(rv.Rhs, localMap)
		return rv
	case mir.UnaryOpRvalue:
		rv.Operand = remapOperand(rv.Operand, localMap)
		return rv
	case mir.RefRvalue:
		rv.Place = remapPlace(rv.Place, localMap)
		return rv
	case mir.AggregateRvalue:
		ops := make([]mir.Operand, len(rv.Operands))
		for i, op := range rv.Operands {
			ops[i] = remapOperand(op, localMap)
		}
		rv.Operands = ops
		return rv
	case mir.CastRvalue:
		rv.Operand = remapOperand(rv.Operand, localMap)
		return rv
	case mir.FormatConvertRvalue:
		rv.Operand = remapOperand(rv.Operand, localMap)
		return rv
	default:
		return r
	}
}

func remapStatement(s mir.Statement, localMap map[mir.LocalID]mir.LocalID) mir.Statement {
	switch st := s.(type) {
	case mir.Assign:
		st.Place = remapPlace(st.Place, localMap)
		st.Rvalue = remapRvalue(st.Rvalue, localMap)
		return st
	case mir.StorageLive:
		st.Local = localMap[st.Local]
		return st
	case mir.StorageDead:
		st.Local = localMap[st.Local]
		return st
	case mir.Asm:
		ops := make([]mir.Operand, len(st.Operands))
		for i, op := range st.Operands {
			ops[i] = remapOperand(op, localMap)
		}
		st.Operands = ops
		return st
	default:
		return s
	}
}

func remapTerminator(t mir.Terminator, localMap map[mir.LocalID]mir.LocalID, blockMap map[mir.BlockID]mir.BlockID) mir.Terminator {
	switch term := t.(type) {
	case mir.Goto:
		term.Target = blockMap[term.Target]
		return term
	case mir.SwitchInt:
		term.Discriminant = remapOperand(term.Discriminant, localMap)
		cases := make([]mir.SwitchCase, len(term.Cases))
		for i, c := range term.Cases {
			c.Target = blockMap[c.Target]
			cases[i] = c
		}
		term.Cases = cases
		term.Otherwise = blockMap[term.Otherwise]
		return term
	case mir.Call:
		args := make([]mir.Operand, len(term.Args))
		for i, a := range term.Args {
			args[i] = remapOperand(a, localMap)
		}
		term.Args = args
		if term.Destination != nil {
			d := remapPlace(*term.Destination, localMap)
			term.Destination = &d
		}
		term.Success = blockMap[term.Success]
		if term.Unwind != nil {
			u := blockMap[*term.Unwind]
			term.Unwind = &u
		}
		return term
	default:
		return t
	}
}
