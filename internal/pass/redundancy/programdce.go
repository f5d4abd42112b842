package redundancy

import "github.com/cm-lang/cmc/internal/mir"

// ProgramDCE computes whole-program reachability from the entry function
// ("main", if present) and every exported function, then deletes unused
// functions and vtables whose concrete type is otherwise unreferenced
// (spec.md §4.6, "Program-DCE"). Virtual calls (Call.IsVirtual) can target
// any impl of the called interface, so every vtable's impl functions are
// treated as reachable once any virtual call exists — this pass does not attempt the more precise "only the
// dynamic type in play" analysis.
type ProgramDCE struct{}

func (ProgramDCE) Name() string        { return "ProgramDCE" }
func (ProgramDCE) Description() string { return "delete functions and vtables unreachable from the program's entry points" }

// Run is unused directly; ProgramDCE always runs whole-program via
// RunOnProgram (it implements pass.ProgramPass).
func (ProgramDCE) Run(fn *mir.Function) bool { return false }

func (ProgramDCE) RunOnProgram(program *mir.Program) bool {
	roots := map[string]bool{}
	for _, fn := range program.Functions {
		if fn.Name == "main" || fn.Exported {
			roots[fn.Name] = true
		}
	}

	// A virtual call site names the interface via the call's MethodName,
	// not a concrete function; conservatively, once any virtual call
	// exists at all, every vtable impl is considered reachable. This
	// keeps ProgramDCE sound (never deletes something still callable)
	// at the cost of precision, matching the rest of the pipeline's bias
	// toward conservative whole-program passes.
	anyVirtualCall := false
	for _, fn := range program.Functions {
		for _, b := range mir.Blocks(fn) {
			if c, ok := b.Terminator.(mir.Call); ok && c.IsVirtual {
				anyVirtualCall = true
			}
		}
	}

	reachable := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		fn := program.FuncByName(name)
		if fn == nil {
			return
		}
		for _, b := range mir.Blocks(fn) {
			if c, ok := b.Terminator.(mir.Call); ok && !c.IsVirtual {
				visit(c.Callee)
			}
			for _, s := range b.Statements {
				if a, ok := s.(mir.Assign); ok {
					if use, ok := a.Rvalue.(mir.UseRvalue); ok {
						if fr, ok := use.Operand.(mir.FunctionRefOperand); ok {
							visit(fr.Name)
						}
					}
				}
			}
		}
	}
	for name := range roots {
		visit(name)
	}

	reachableVTableImpls := map[string]bool{}
	if anyVirtualCall {
		for _, vt := range program.VTables {
			for _, e := range vt.Impls {
				reachableVTableImpls[e.Impl] = true
			}
		}
		for name := range reachableVTableImpls {
			visit(name)
		}
	}

	changed := false
	kept := program.Functions[:0]
	for _, fn := range program.Functions {
		if fn.Extern || reachable[fn.Name] {
			kept = append(kept, fn)
			continue
		}
		changed = true
	}
	program.Functions = kept

	keptVT := program.VTables[:0]
	for _, vt := range program.VTables {
		live := false
		for _, e := range vt.Impls {
			if reachable[e.Impl] {
				live = true
				break
			}
		}
		if live {
			keptVT = append(keptVT, vt)
		} else {
			changed = true
		}
	}
	program.VTables = keptVT

	return changed
}
