package interp

import (
	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/mir"
)

// frame owns one function activation's locals: a map from local id to its
// current Value (spec.md §4.11: "a frame owns a map local_id → Value").
// Cells are stored by pointer so Ref(place) can hand out a stable Go
// pointer to the exact storage cell a place denotes, without needing to
// re-resolve the place on every future dereference.
type frame struct {
	fn     *mir.Function
	locals map[mir.LocalID]*Value
}

func newFrame(fn *mir.Function) *frame {
	return &frame{fn: fn, locals: make(map[mir.LocalID]*Value, len(fn.Locals))}
}

// slot returns the addressable cell for id, creating a Unit cell on first
// access.
func (fr *frame) slot(id mir.LocalID) *Value {
	if v, ok := fr.locals[id]; ok {
		return v
	}
	v := builtinreg.Unit()
	fr.locals[id] = &v
	return fr.locals[id]
}

func (fr *frame) get(id mir.LocalID) Value { return *fr.slot(id) }

func (fr *frame) set(id mir.LocalID, v Value) { *fr.slot(id) = v }
