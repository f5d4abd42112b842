package mir

import "fmt"

// InvariantError names the specific §3 invariant a function violates,
// together with the function and (where applicable) block at fault.
type InvariantError struct {
	Invariant int
	Function  string
	Block     BlockID
	HasBlock  bool
	Message   string
}

func (e *InvariantError) Error() string {
	if e.HasBlock {
		return fmt.Sprintf("invariant %d violated in function %q block %d: %s",
			e.Invariant, e.Function, e.Block, e.Message)
	}
	return fmt.Sprintf("invariant %d violated in function %q: %s", e.Invariant, e.Function, e.Message)
}

// CheckInvariants verifies §3's eight invariants hold for fn, returning the
// first violation found, or nil.
func CheckInvariants(fn *Function) error {
	blockExists := func(id BlockID) bool { return fn.Block(id) != nil }

	// 1. Every block id referenced by a terminator denotes an existing block.
	for _, b := range Blocks(fn) {
		for _, s := range b.Terminator.Successors() {
			if !blockExists(s) {
				return &InvariantError{1, fn.Name, b.ID, true, fmt.Sprintf("terminator references missing block %d", s)}
			}
		}
	}

	// 2. entry_block exists.
	if !blockExists(fn.EntryBlock) {
		return &InvariantError{2, fn.Name, fn.EntryBlock, true, "entry block does not exist"}
	}

	// 3. Projection chains are type-consistent is enforced at construction
	// time by mir.Builder / HIR->MIR lowering; nothing further to check
	// generically here without a type checker, which is out of scope.

	// 4. SwitchInt case values are unique within one switch.
	for _, b := range Blocks(fn) {
		if sw, ok := b.Terminator.(SwitchInt); ok {
			seen := map[int64]bool{}
			for _, c := range sw.Cases {
				if seen[c.Value] {
					return &InvariantError{4, fn.Name, b.ID, true, fmt.Sprintf("duplicate switch case value %d", c.Value)}
				}
				seen[c.Value] = true
			}
		}
	}

	// 5. Call.destination, when present, refers to a valid place;
	// Call.success is valid.
	for _, b := range Blocks(fn) {
		if call, ok := b.Terminator.(Call); ok {
			if !blockExists(call.Success) {
				return &InvariantError{5, fn.Name, b.ID, true, "call success block missing"}
			}
			if call.Destination != nil && !localExists(fn, call.Destination.Local) {
				return &InvariantError{5, fn.Name, b.ID, true, "call destination local missing"}
			}
		}
	}

	// 6. return_local and every arg_local appear in locals.
	if !localExists(fn, fn.ReturnLocal) {
		return &InvariantError{6, fn.Name, 0, false, "return_local missing from locals"}
	}
	for _, a := range fn.ArgLocals {
		if !localExists(fn, a) {
			return &InvariantError{6, fn.Name, 0, false, "arg_local missing from locals"}
		}
	}

	// 7. Cached predecessor/successor lists are coherent with terminators.
	expectedPreds := map[BlockID][]BlockID{}
	for _, b := range Blocks(fn) {
		for _, s := range b.Terminator.Successors() {
			expectedPreds[s] = append(expectedPreds[s], b.ID)
		}
		if !sameSuccessors(b.Successors, b.Terminator.Successors()) {
			return &InvariantError{7, fn.Name, b.ID, true, "cached successors stale"}
		}
	}
	for _, b := range Blocks(fn) {
		if !sameBlockSet(b.Predecessors, expectedPreds[b.ID]) {
			return &InvariantError{7, fn.Name, b.ID, true, "cached predecessors stale"}
		}
	}

	// 8. no_opt statements are checked by passes directly (they must leave
	// them untouched); nothing to check structurally post hoc beyond the
	// fact that they still exist, which DCE/GVN enforce by construction.

	return nil
}

func localExists(fn *Function, id LocalID) bool {
	return int(id) >= 0 && int(id) < len(fn.Locals)
}

func sameSuccessors(a, b []BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameBlockSet(a, b []BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[BlockID]int{}
	for _, x := range a {
		count[x]++
	}
	for _, x := range b {
		count[x]--
	}
	for _, c := range count {
		if c != 0 {
			return false
		}
	}
	return true
}
