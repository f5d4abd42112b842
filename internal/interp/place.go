package interp

import (
	"fmt"

	"github.com/cm-lang/cmc/internal/builtinreg"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/mir"
)

// loadPlace reads the value currently stored at p.
func (it *interpreter) loadPlace(fr *frame, p mir.Place) (Value, error) {
	cell, err := it.resolvePlace(fr, p)
	if err != nil {
		return builtinreg.Unit(), err
	}
	return *cell, nil
}

// storePlace writes v into the cell p denotes, auto-vivifying any missing
// intermediate aggregate (spec.md §4.11 "Assign" — Projection-bearing
// place).
func (it *interpreter) storePlace(fr *frame, p mir.Place, v Value) error {
	cell, err := it.resolvePlace(fr, p)
	if err != nil {
		return err
	}
	*cell = v
	return nil
}

// resolvePlace walks p's projection chain starting from its base local,
// returning the addressable cell the full chain denotes. Missing
// aggregates are vivified in place: an Index step on an uninitialized
// cell allocates a default-length array (from the static type, when
// known); a Field step allocates an empty struct of the static field's
// owning type.
func (it *interpreter) resolvePlace(fr *frame, p mir.Place) (*Value, error) {
	cell := fr.slot(p.Local)
	typ := fr.fn.Local(p.Local).Type

	for _, proj := range p.Projections {
		switch pr := proj.(type) {
		case mir.FieldProj:
			structDef, fieldName := it.fieldOf(typ, pr.Field)
			if cell.Kind != builtinreg.KindStruct {
				name := ""
				if structDef != nil {
					name = structDef.Name
				}
				*cell = builtinreg.Struct(name)
			}
			next, ok := cell.Fields[fieldName]
			if !ok {
				v := builtinreg.Unit()
				cell.Fields[fieldName] = &v
				next = cell.Fields[fieldName]
			}
			cell = next
			if structDef != nil {
				typ = fieldType(structDef, pr.Field)
			} else {
				typ = nil
			}

		case mir.IndexProj:
			idx := int(fr.get(pr.IndexLocal).Int)
			if idx < 0 {
				return nil, fmt.Errorf("interp: negative index on local %d", p.Local)
			}
			if cell.Kind != builtinreg.KindArray && cell.Kind != builtinreg.KindSlice {
				n := 0
				if typ != nil && typ.Kind == hirtype.KindArray {
					n = typ.Len
				}
				if n <= idx {
					n = idx + 1
				}
				*cell = builtinreg.Array(n)
			}
			if idx >= len(cell.Elems) {
				grown := make([]Value, idx+1)
				copy(grown, cell.Elems)
				for i := len(cell.Elems); i <= idx; i++ {
					grown[i] = builtinreg.Unit()
				}
				cell.Elems = grown
			}
			cell = &cell.Elems[idx]
			if typ != nil {
				typ = typ.Elem
			}

		case mir.DerefProj:
			target, err := it.derefPointer(fr, *cell)
			if err != nil {
				return nil, err
			}
			cell = target
			if typ != nil {
				typ = typ.Elem
			}

		default:
			return nil, fmt.Errorf("interp: unknown projection %T", proj)
		}
	}
	return cell, nil
}

// derefPointer resolves a Pointer value to the cell it targets: the
// captured field cell when the Ref crossed a struct field, or the base
// local's (optionally indexed) cell otherwise.
func (it *interpreter) derefPointer(fr *frame, ptr Value) (*Value, error) {
	if ptr.Kind != builtinreg.KindPointer {
		// Spec §4.11: "deref of an uninitialized pointer yields unit" —
		// treat any non-pointer operand the same way defensively.
		u := builtinreg.Unit()
		return &u, nil
	}
	if ptr.PtrElemPtr != nil {
		return ptr.PtrElemPtr, nil
	}
	cell := fr.slot(ptr.PtrLocal)
	if !ptr.HasIndex {
		return cell, nil
	}
	if ptr.PtrIndex < 0 || ptr.PtrIndex >= len(cell.Elems) {
		u := builtinreg.Unit()
		return &u, nil
	}
	return &cell.Elems[ptr.PtrIndex], nil
}

// fieldOf resolves a FieldID against typ's struct definition, returning
// the struct's definition and the field's name (used both to vivify with
// the right type name and to key the Fields map, which is name-keyed at
// runtime even though places address fields by stable id).
func (it *interpreter) fieldOf(typ *hirtype.Type, id mir.FieldID) (*mir.StructDef, string) {
	if typ == nil || typ.Kind != hirtype.KindStruct {
		return nil, fmt.Sprintf("_f%d", id)
	}
	def := it.program.StructByName(typ.Name)
	if def == nil || int(id) < 0 || int(id) >= len(def.Fields) {
		return def, fmt.Sprintf("_f%d", id)
	}
	return def, def.Fields[id].Name
}

func fieldType(def *mir.StructDef, id mir.FieldID) *hirtype.Type {
	if int(id) < 0 || int(id) >= len(def.Fields) {
		return nil
	}
	return def.Fields[id].Type
}
