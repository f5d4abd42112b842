package mir

// Loop is one natural loop: a header that dominates every back-edge source,
// plus the body blocks transitively reaching the header without leaving it.
type Loop struct {
	Header BlockID
	Body   map[BlockID]bool
	// Parent is the id of the loop immediately containing this one, or -1
	// for an outermost loop (loops form a nesting forest, §4.3).
	Parent int
}

// LoopForest is the result of loop analysis: the list of natural loops and
// a map from every block to its innermost containing loop index.
type LoopForest struct {
	Loops     []*Loop
	Innermost map[BlockID]int // block -> index into Loops, absent if none
}

// AnalyzeLoops detects back-edges (i -> h where h dominates i) and builds
// one Loop per distinct header, its nesting tree, and the block->innermost
// map (§4.3).
func AnalyzeLoops(fn *Function, dom *DominatorInfo) *LoopForest {
	headerToBody := map[BlockID]map[BlockID]bool{}
	var headersInOrder []BlockID

	for _, b := range Blocks(fn) {
		for _, s := range b.Successors {
			if dom.Dominates(s, b.ID) {
				// Back-edge b.ID -> s, header s.
				body, ok := headerToBody[s]
				if !ok {
					body = map[BlockID]bool{s: true}
					headerToBody[s] = body
					headersInOrder = append(headersInOrder, s)
				}
				addLoopBody(fn, s, b.ID, body)
			}
		}
	}

	loops := make([]*Loop, 0, len(headersInOrder))
	for _, h := range headersInOrder {
		loops = append(loops, &Loop{Header: h, Body: headerToBody[h], Parent: -1})
	}

	// Nesting: A contains B iff A.blocks ⊇ B.blocks ∧ A.header ≠ B.header.
	// Parent of B is the smallest such containing A.
	for bi, b := range loops {
		bestParent := -1
		bestSize := -1
		for ai, a := range loops {
			if ai == bi || a.Header == b.Header {
				continue
			}
			if supersetOf(a.Body, b.Body) {
				if bestParent == -1 || len(a.Body) < bestSize {
					bestParent = ai
					bestSize = len(a.Body)
				}
			}
		}
		b.Parent = bestParent
	}

	innermost := map[BlockID]int{}
	for li, l := range loops {
		for b := range l.Body {
			cur, ok := innermost[b]
			if !ok || len(loops[cur].Body) > len(l.Body) {
				innermost[b] = li
				_ = cur
			}
		}
	}

	return &LoopForest{Loops: loops, Innermost: innermost}
}

// addLoopBody walks predecessors backward from the back-edge source i,
// adding every block transitively reaching i without passing through the
// header again, stopping at the header (§4.3).
func addLoopBody(fn *Function, header, i BlockID, body map[BlockID]bool) {
	if body[i] {
		return
	}
	body[i] = true
	b := fn.Block(i)
	if b == nil {
		return
	}
	for _, p := range b.Predecessors {
		addLoopBody(fn, header, p, body)
	}
}

func supersetOf(a, b map[BlockID]bool) bool {
	if len(a) <= len(b) {
		return false
	}
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}

// InnermostLoop returns the Loop containing b most tightly, or nil.
func (f *LoopForest) InnermostLoop(b BlockID) *Loop {
	idx, ok := f.Innermost[b]
	if !ok {
		return nil
	}
	return f.Loops[idx]
}
