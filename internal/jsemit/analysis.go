package jsemit

import "github.com/cm-lang/cmc/internal/mir"

// funcInfo holds the three analyses spec.md §4.12 "Statement emission"
// requires be computed once before emitting a function body, plus the
// boxed-local set §4.12's "Reference semantics" section derives from the
// same pass over the function. Grounded on
// original_source/src/codegen/js/analysis.cpp's single forward scan
// gathering all of these together.
type funcInfo struct {
	used        map[mir.LocalID]bool
	useCount    map[mir.LocalID]int
	assignCount map[mir.LocalID]int
	// projected marks a local read through any non-trivial place
	// projection anywhere, disqualifying it from inlining (§4.12: "locals
	// read through any projection are flagged non-inlinable").
	projected map[mir.LocalID]bool
	// addressTaken marks a local that is ever the base of a Ref with a
	// trivial place — these are boxed (§4.12 "Reference semantics").
	addressTaken map[mir.LocalID]bool
	// firstWriteBlock/firstWriteIdx locate the one Assign statement a
	// single-assignment local has, for declare-on-assign placement.
	firstWriteBlock map[mir.LocalID]mir.BlockID
	firstWriteIdx   map[mir.LocalID]int
}

func analyzeFunc(fn *mir.Function) *funcInfo {
	fi := &funcInfo{
		used:            map[mir.LocalID]bool{},
		useCount:        map[mir.LocalID]int{},
		assignCount:     map[mir.LocalID]int{},
		projected:       map[mir.LocalID]bool{},
		addressTaken:    map[mir.LocalID]bool{},
		firstWriteBlock: map[mir.LocalID]mir.BlockID{},
		firstWriteIdx:   map[mir.LocalID]int{},
	}

	markOperand := func(op mir.Operand) {
		p, ok := mir.PlaceOf(op)
		if !ok {
			return
		}
		fi.used[p.Local] = true
		fi.useCount[p.Local]++
		if !p.Trivial() {
			fi.projected[p.Local] = true
		}
		for _, proj := range p.Projections {
			if ip, ok := proj.(mir.IndexProj); ok {
				fi.used[ip.IndexLocal] = true
				fi.useCount[ip.IndexLocal]++
			}
		}
	}

	for _, b := range mir.Blocks(fn) {
		for si, s := range b.Statements {
			switch st := s.(type) {
			case mir.Assign:
				fi.used[st.Place.Local] = true
				if !st.Place.Trivial() {
					fi.projected[st.Place.Local] = true
					for _, proj := range st.Place.Projections {
						if ip, ok := proj.(mir.IndexProj); ok {
							fi.used[ip.IndexLocal] = true
							fi.useCount[ip.IndexLocal]++
						}
					}
				} else {
					fi.assignCount[st.Place.Local]++
					if _, seen := fi.firstWriteBlock[st.Place.Local]; !seen {
						fi.firstWriteBlock[st.Place.Local] = b.ID
						fi.firstWriteIdx[st.Place.Local] = si
					}
				}
				if rv, ok := st.Rvalue.(mir.RefRvalue); ok && rv.Place.Trivial() {
					fi.addressTaken[rv.Place.Local] = true
				}
				for _, op := range mir.RvalueOperands(st.Rvalue) {
					markOperand(op)
				}
			case mir.Asm:
				for _, op := range st.Operands {
					markOperand(op)
				}
			}
		}
		switch t := b.Terminator.(type) {
		case mir.SwitchInt:
			markOperand(t.Discriminant)
		case mir.Call:
			for _, op := range t.Args {
				markOperand(op)
			}
			if t.Destination != nil {
				fi.used[t.Destination.Local] = true
				if !t.Destination.Trivial() {
					fi.projected[t.Destination.Local] = true
				} else {
					fi.assignCount[t.Destination.Local]++
				}
			}
		}
	}

	for _, id := range fn.ArgLocals {
		fi.used[id] = true
	}
	fi.used[fn.ReturnLocal] = true

	return fi
}

// isBoxed reports whether local must be boxed in a single-element array
// wrapper because it is the base of a Ref whose pointee type is not a
// struct or array (§4.12 "Reference semantics in a reference-only host").
func (fi *funcInfo) isBoxed(fn *mir.Function, id mir.LocalID) bool {
	if !fi.addressTaken[id] {
		return false
	}
	return !fn.Local(id).Type.IsAggregate()
}

// inlineCandidate reports whether local qualifies as an inline candidate:
// single-assignment, single-use, non-address-taken, and not read through a
// projection anywhere (§4.12, bullet 3).
func (fi *funcInfo) inlineCandidate(fn *mir.Function, id mir.LocalID) bool {
	if fi.addressTaken[id] || fi.projected[id] {
		return false
	}
	if fi.assignCount[id] != 1 || fi.useCount[id] != 1 {
		return false
	}
	for _, a := range fn.ArgLocals {
		if a == id {
			return false
		}
	}
	if id == fn.ReturnLocal {
		return false
	}
	return true
}

// declareOnAssign reports whether local should be declared at its one
// defining write (`let name = value`) rather than upfront with a default
// value — single dominating initial write, no prior read, not an argument
// (§4.12, bullet 4).
func (fi *funcInfo) declareOnAssign(fn *mir.Function, id mir.LocalID) bool {
	if fi.assignCount[id] != 1 || fi.projected[id] {
		return false
	}
	for _, a := range fn.ArgLocals {
		if a == id {
			return false
		}
	}
	if id == fn.ReturnLocal {
		return false
	}
	return true
}

// inlineValue finds the single Assign statement defining an inline
// candidate local, for pre-rendering at the call site.
func (fi *funcInfo) inlineValue(fn *mir.Function, id mir.LocalID) (mir.Rvalue, bool) {
	blk, ok := fi.firstWriteBlock[id]
	if !ok {
		return nil, false
	}
	idx := fi.firstWriteIdx[id]
	b := fn.Block(blk)
	if b == nil || idx >= len(b.Statements) {
		return nil, false
	}
	a, ok := b.Statements[idx].(mir.Assign)
	if !ok {
		return nil, false
	}
	return a.Rvalue, true
}
