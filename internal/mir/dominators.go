package mir

// DominatorInfo holds, for each reachable block, its dominator set and
// immediate dominator (§4.2).
type DominatorInfo struct {
	entry BlockID
	dom   map[BlockID]map[BlockID]bool
	idom  map[BlockID]BlockID
	reach map[BlockID]bool
}

// ComputeDominators runs the iterative dataflow fixed point described in
// §4.2: Dom(entry) = {entry}, Dom(b) = All for others, then
// Dom(b) = {b} ∪ (⋂ Dom(p) for p ∈ preds(b)) until no set changes.
// Unreachable blocks are excluded entirely.
func ComputeDominators(fn *Function) *DominatorInfo {
	reach := Reachable(fn)

	all := map[BlockID]bool{}
	for id := range reach {
		all[id] = true
	}

	dom := map[BlockID]map[BlockID]bool{}
	for id := range reach {
		if id == fn.EntryBlock {
			dom[id] = map[BlockID]bool{fn.EntryBlock: true}
		} else {
			dom[id] = copySet(all)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range Blocks(fn) {
			if !reach[b.ID] || b.ID == fn.EntryBlock {
				continue
			}
			var intersection map[BlockID]bool
			for _, p := range b.Predecessors {
				if !reach[p] {
					continue
				}
				if intersection == nil {
					intersection = copySet(dom[p])
				} else {
					intersectInPlace(intersection, dom[p])
				}
			}
			if intersection == nil {
				intersection = map[BlockID]bool{}
			}
			intersection[b.ID] = true

			if !setsEqual(intersection, dom[b.ID]) {
				dom[b.ID] = intersection
				changed = true
			}
		}
	}

	idom := map[BlockID]BlockID{}
	for id := range reach {
		if id == fn.EntryBlock {
			continue
		}
		// idom(b) is the strictly-dominating block whose dominator set is
		// largest (i.e. the closest strict dominator).
		var best BlockID
		bestSize := -1
		for cand := range dom[id] {
			if cand == id {
				continue
			}
			if len(dom[cand]) > bestSize {
				best = cand
				bestSize = len(dom[cand])
			}
		}
		if bestSize >= 0 {
			idom[id] = best
		}
	}

	return &DominatorInfo{entry: fn.EntryBlock, dom: dom, idom: idom, reach: reach}
}

// Dominates reports whether a dominates b, per the §4.2 contract:
// true iff a == b, or a is the entry block and b is reachable, or
// a is in Dom(b). Undefined (returns false) for unreachable b.
func (d *DominatorInfo) Dominates(a, b BlockID) bool {
	if !d.reach[b] {
		return false
	}
	if a == b {
		return true
	}
	if a == d.entry {
		return true
	}
	return d.dom[b][a]
}

// ImmediateDominator returns idom(b) and whether it exists (false for the
// entry block or an unreachable block).
func (d *DominatorInfo) ImmediateDominator(b BlockID) (BlockID, bool) {
	id, ok := d.idom[b]
	return id, ok
}

// Dom returns the dominator set of b (nil if b is unreachable).
func (d *DominatorInfo) Dom(b BlockID) map[BlockID]bool { return d.dom[b] }

func copySet(s map[BlockID]bool) map[BlockID]bool {
	out := make(map[BlockID]bool, len(s))
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	return out
}

func intersectInPlace(a, b map[BlockID]bool) {
	for k := range a {
		if !b[k] {
			delete(a, k)
		}
	}
}

func setsEqual(a, b map[BlockID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
