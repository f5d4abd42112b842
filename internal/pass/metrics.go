package pass

import "github.com/cm-lang/cmc/internal/mir"

// ChangeMetrics records how much one pipeline iteration changed the
// program (spec.md §4.4): instructions changed, blocks changed, and
// whether the CFG shape changed at all.
type ChangeMetrics struct {
	InstructionsChanged int
	BlocksChanged       int
	CFGChanged          bool
}

// Weight returns the scalar digest of total change: instructions=1,
// blocks=10, cfg=1000.
func (m ChangeMetrics) Weight() int {
	w := m.InstructionsChanged + m.BlocksChanged*10
	if m.CFGChanged {
		w += 1000
	}
	return w
}

// programSnapshot captures just enough of a program's shape to compute
// ChangeMetrics by comparison, without holding onto IR nodes themselves
// (so it can't accidentally alias into the program being mutated).
type programSnapshot struct {
	// statementCount and blockIDs are keyed by function name since
	// function identity is stable across a pipeline run even as their
	// contents mutate.
	statementCount map[string]int
	blockIDs       map[string][]mir.BlockID
	cfgSignature   map[string]string
}

func snapshotProgram(program *mir.Program) programSnapshot {
	snap := programSnapshot{
		statementCount: map[string]int{},
		blockIDs:       map[string][]mir.BlockID{},
		cfgSignature:   map[string]string{},
	}
	for _, fn := range program.Functions {
		count := 0
		var ids []mir.BlockID
		sig := ""
		for _, b := range mir.Blocks(fn) {
			count += len(b.Statements)
			ids = append(ids, b.ID)
			sig += cfgBlockSignature(b)
		}
		snap.statementCount[fn.Name] = count
		snap.blockIDs[fn.Name] = ids
		snap.cfgSignature[fn.Name] = sig
	}
	return snap
}

func cfgBlockSignature(b *mir.BasicBlock) string {
	sig := "|"
	for _, s := range b.Successors {
		sig += string(rune('a' + (int(s) % 26)))
	}
	return sig
}

// diff computes the ChangeMetrics between two snapshots of the same
// program taken before and after a pipeline iteration.
func diff(before, after programSnapshot) ChangeMetrics {
	var m ChangeMetrics
	for name, afterCount := range after.statementCount {
		beforeCount := before.statementCount[name]
		if afterCount != beforeCount {
			delta := afterCount - beforeCount
			if delta < 0 {
				delta = -delta
			}
			m.InstructionsChanged += delta
		}
		if len(after.blockIDs[name]) != len(before.blockIDs[name]) {
			m.BlocksChanged += abs(len(after.blockIDs[name]) - len(before.blockIDs[name]))
			m.CFGChanged = true
		}
		if after.cfgSignature[name] != before.cfgSignature[name] {
			m.CFGChanged = true
		}
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
