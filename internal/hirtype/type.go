// Package hirtype holds the small, already-checked type surface that the
// MIR carries on locals and constants. It does not check anything; name
// resolution and type checking happen upstream, outside this module.
package hirtype

import "fmt"

// Kind distinguishes the primitive shapes a Type can take.
type Kind string

const (
	KindUnit      Kind = "unit"
	KindBool      Kind = "bool"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindChar      Kind = "char"
	KindString    Kind = "string"
	KindPointer   Kind = "pointer"
	KindArray     Kind = "array"
	KindSlice     Kind = "slice"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
)

// Type is the HIR type decorating a local, constant, or cast target.
type Type struct {
	Kind Kind

	// Pointer, Array, Slice
	Elem *Type

	// Array only
	Len int

	// Struct, Interface
	Name string
}

func Unit() *Type   { return &Type{Kind: KindUnit} }
func Bool() *Type   { return &Type{Kind: KindBool} }
func Int() *Type    { return &Type{Kind: KindInt} }
func Float() *Type  { return &Type{Kind: KindFloat} }
func Char() *Type   { return &Type{Kind: KindChar} }
func String() *Type { return &Type{Kind: KindString} }

func Pointer(elem *Type) *Type { return &Type{Kind: KindPointer, Elem: elem} }
func Array(elem *Type, n int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}
func Slice(elem *Type) *Type       { return &Type{Kind: KindSlice, Elem: elem} }
func Struct(name string) *Type     { return &Type{Kind: KindStruct, Name: name} }
func Interface(name string) *Type  { return &Type{Kind: KindInterface, Name: name} }

// KnownKinds contains every kind this module recognizes, mirroring the
// teacher's BuiltinTypes lookup table.
var KnownKinds = map[Kind]bool{
	KindUnit: true, KindBool: true, KindInt: true, KindFloat: true,
	KindChar: true, KindString: true, KindPointer: true, KindArray: true,
	KindSlice: true, KindStruct: true, KindInterface: true,
}

// IsKnownKind reports whether k is one hirtype recognizes.
func IsKnownKind(k Kind) bool { return KnownKinds[k] }

// IsInteger reports whether t is the int kind (Cm has a single integer
// width, i64, per spec.md's Constant grammar).
func (t *Type) IsInteger() bool { return t != nil && t.Kind == KindInt }

// IsPointer reports whether t is a pointer type.
func (t *Type) IsPointer() bool { return t != nil && t.Kind == KindPointer }

// IsAggregate reports whether t is a struct or array (the JS emitter never
// boxes locals of these kinds, because host objects/arrays are already
// shared by reference).
func (t *Type) IsAggregate() bool {
	return t != nil && (t.Kind == KindStruct || t.Kind == KindArray)
}

// IsVoid reports whether t denotes no value, i.e. a function with no
// meaningful return.
func (t *Type) IsVoid() bool { return t == nil || t.Kind == KindUnit }

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPointer:
		return fmt.Sprintf("*%s", t.Elem)
	case KindArray:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem)
	case KindSlice:
		return fmt.Sprintf("[]%s", t.Elem)
	case KindStruct:
		return t.Name
	case KindInterface:
		return fmt.Sprintf("interface(%s)", t.Name)
	default:
		return string(t.Kind)
	}
}

// Equal reports structural equality between two types.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPointer, KindSlice:
		return Equal(a.Elem, b.Elem)
	case KindArray:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case KindStruct, KindInterface:
		return a.Name == b.Name
	default:
		return true
	}
}
