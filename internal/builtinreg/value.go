// Package builtinreg implements the Value sum type shared across the MIR
// interpreter and its builtin registry (spec.md §4.11, §6), plus the
// fixed builtin-name table both back-ends dispatch against. Grounded on
// the teacher's BuiltinType enum idiom in internal/builtins/types.go
// (a closed set of named kinds with a lookup table), generalized from
// EVM value kinds to the dynamically-typed runtime values spec.md's
// interpreter needs.
package builtinreg

import "fmt"

// Kind discriminates a Value's variant.
type Kind string

const (
	KindUnit    Kind = "unit"
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindChar    Kind = "char"
	KindString  Kind = "string"
	KindStruct  Kind = "struct"
	KindArray   Kind = "array"
	KindSlice   Kind = "slice"
	KindPointer Kind = "pointer"
)

// Value is the interpreter's dynamically-typed runtime value (spec.md
// §4.11: "primitives ... aggregates ... and pointer"). Struct/array/slice
// payloads are stored so that Clone performs a deep copy: locals hold
// Values by value (assignment copies), and only Pointer values alias a
// shared location, matching the language's struct-copy-on-assignment
// semantics.
type Value struct {
	Kind Kind

	Bool  bool
	Int   int64
	Float float64
	Char  rune
	Str   string

	// StructType names the struct whose fields this aggregate carries;
	// used by dynamic dispatch's "recorded type_name" lookup (§4.11).
	StructType string
	// Fields holds each field's cell by pointer (not value) so Ref on a
	// Field place can yield a stable Go pointer into it (PtrElemPtr
	// below) — Go map values are not addressable, so a plain
	// map[string]Value could never support field-pointer semantics.
	Fields map[string]*Value // KindStruct

	Elems []Value // KindArray, KindSlice
	Cap   int     // KindSlice only; len(Elems) is the current length

	// Pointer fields: target local id plus an optional array index,
	// captured by Ref (§4.11 "Ref(place)").
	PtrLocal   int
	PtrIndex   int
	HasIndex   bool
	PtrElemPtr *Value // only set for pointers into a struct field's cell, resolved at Ref time
}

// Unit, Bool, Int, Float, Char, Str are constructors for the primitive
// variants.
func Unit() Value            { return Value{Kind: KindUnit} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func Char(c rune) Value      { return Value{Kind: KindChar, Char: c} }
func Str(s string) Value     { return Value{Kind: KindString, Str: s} }

// Struct constructs an empty struct value of the given recorded type
// name, ready for field assignment.
func Struct(typeName string) Value {
	return Value{Kind: KindStruct, StructType: typeName, Fields: map[string]*Value{}}
}

// Array constructs a fixed-size array of n default (unit) elements.
func Array(n int) Value {
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = Unit()
	}
	return Value{Kind: KindArray, Elems: elems}
}

// Slice constructs a slice value with the given backing elements and
// capacity.
func Slice(elems []Value, cap int) Value {
	return Value{Kind: KindSlice, Elems: elems, Cap: cap}
}

// Clone performs the deep copy assignment of an aggregate value requires
// (struct-copy semantics): maps and slices are duplicated recursively so
// the copy and the original never alias through Go's reference types.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindStruct:
		fields := make(map[string]*Value, len(v.Fields))
		for k, f := range v.Fields {
			cloned := f.Clone()
			fields[k] = &cloned
		}
		return Value{Kind: KindStruct, StructType: v.StructType, Fields: fields}
	case KindArray, KindSlice:
		elems := make([]Value, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = e.Clone()
		}
		return Value{Kind: v.Kind, Elems: elems, Cap: v.Cap}
	default:
		return v
	}
}

// Truthy reports v's boolean interpretation for conditions that read a
// non-bool value (defensive default: only KindBool is ever truthy).
func (v Value) Truthy() bool { return v.Kind == KindBool && v.Bool }

func (v Value) String() string {
	switch v.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindChar:
		return string(v.Char)
	case KindString:
		return v.Str
	case KindStruct:
		return fmt.Sprintf("%s{...}", v.StructType)
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.Elems))
	case KindSlice:
		return fmt.Sprintf("slice[%d/%d]", len(v.Elems), v.Cap)
	case KindPointer:
		return fmt.Sprintf("&local(%d)", v.PtrLocal)
	default:
		return "<invalid>"
	}
}
