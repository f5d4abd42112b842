package mir

// RebuildCFG recomputes predecessor and successor lists for every block in
// fn by walking its terminator (§4.1). Must be called after any pass that
// mutates terminators or deletes blocks.
func RebuildCFG(fn *Function) {
	preds := make(map[BlockID][]BlockID, len(fn.Blocks))

	for _, b := range fn.Blocks {
		if b == nil {
			continue
		}
		b.Successors = b.Terminator.Successors()
		for _, s := range b.Successors {
			preds[s] = append(preds[s], b.ID)
		}
	}

	for _, b := range fn.Blocks {
		if b == nil {
			continue
		}
		b.Predecessors = preds[b.ID]
	}
}

// Reachable returns the set of block ids reachable from fn.EntryBlock by a
// BFS over successor lists (§4.1).
func Reachable(fn *Function) map[BlockID]bool {
	seen := map[BlockID]bool{fn.EntryBlock: true}
	queue := []BlockID{fn.EntryBlock}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		b := fn.Block(id)
		if b == nil {
			continue
		}
		for _, s := range b.Successors {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return seen
}

// DeleteUnreachable nils out every block not reachable from the entry
// block, returning whether anything changed. Block ids are never
// compacted or reused, so remaining blocks keep their ids stable.
func DeleteUnreachable(fn *Function) bool {
	reach := Reachable(fn)
	changed := false
	for i, b := range fn.Blocks {
		if b == nil {
			continue
		}
		if !reach[b.ID] {
			fn.Blocks[i] = nil
			changed = true
		}
	}
	if changed {
		RebuildCFG(fn)
	}
	return changed
}

// Blocks returns the non-nil blocks of fn in id order.
func Blocks(fn *Function) []*BasicBlock {
	out := make([]*BasicBlock, 0, len(fn.Blocks))
	for _, b := range fn.Blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
