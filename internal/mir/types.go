// Package mir implements the Mid-level Intermediate Representation: a
// typed, SSA-adjacent IR with explicit places/projections and well-formed
// control-flow graphs. Unlike the teacher IR this package is modeled on
// (kanso's internal/ir, which links blocks and values with Go pointers),
// every cross-reference here is a small stable integer id resolved by
// index into its owning slice — see DESIGN.md for why.
package mir

import "github.com/cm-lang/cmc/internal/hirtype"

// LocalID identifies a local within a single function.
type LocalID int

// BlockID identifies a basic block within a single function.
type BlockID int

// FieldID identifies a struct field by index, not name.
type FieldID int

// Program is the whole compilation unit handed to the pass pipeline and
// consumed by a back-end. Names are unique within their kind.
type Program struct {
	Functions []*Function
	Structs   []*StructDef
	Interfaces []*InterfaceDef
	VTables   []*VTable
	Globals   []*Global
}

// FuncByName returns the function named name, or nil.
func (p *Program) FuncByName(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// StructByName returns the struct definition named name, or nil.
func (p *Program) StructByName(name string) *StructDef {
	for _, s := range p.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StructDef is a named aggregate type with ordered, stably-indexed fields.
type StructDef struct {
	Name   string
	Fields []FieldDef
	// CSSTagged marks a struct whose field names the JS emitter renders in
	// kebab-case, quoted, with bracket-notation reads (spec.md §4.12).
	CSSTagged bool
}

type FieldDef struct {
	Name string
	Type *hirtype.Type
}

// InterfaceDef names a set of methods a vtable entry must resolve.
type InterfaceDef struct {
	Name    string
	Methods []string
}

// VTable is the ordered (method_name, impl_function_name) table for one
// (concrete_type, interface) pair. The pipeline only emits a VTable once
// every Impls entry resolves to a defined function (§3 "VTable").
type VTable struct {
	ConcreteType string
	Interface    string
	Impls        []VTableEntry
}

type VTableEntry struct {
	Method string
	Impl   string
}

// Global is a module-level variable.
type Global struct {
	Name string
	Type *hirtype.Type
}

// Function is a single compiled routine.
type Function struct {
	Name     string
	Extern   bool
	Async    bool
	IsClosure bool
	// Exported marks a function reachable from outside the program unit
	// (a public API surface), making it a root for Program-DCE
	// regardless of whether anything inside the program calls it.
	Exported bool

	Locals []Local

	ReturnLocal LocalID
	ArgLocals   []LocalID

	Blocks     []*BasicBlock
	EntryBlock BlockID

	// TooComplex is set by the pipeline (§5) when this function exceeds
	// the advisory complexity limits; GVN and dominator-dependent passes
	// skip it.
	TooComplex bool
}

// Local fetches the Local with the given id. Panics if out of range —
// local ids are dense and assigned by NewLocal, so an out-of-range id is
// always a bug in the caller, not malformed input.
func (fn *Function) Local(id LocalID) *Local { return &fn.Locals[id] }

// NewLocal appends a fresh local and returns its id. Ids are never reused
// within a function (§3 "Ids are not reused").
func (fn *Function) NewLocal(name string, typ *hirtype.Type) LocalID {
	id := LocalID(len(fn.Locals))
	fn.Locals = append(fn.Locals, Local{ID: id, Name: name, Type: typ})
	return id
}

// Block fetches the BasicBlock with the given id, or nil if it has been
// deleted (CFG simplification nils out dead slots rather than
// compacting the slice, so other blocks' ids remain stable).
func (fn *Function) Block(id BlockID) *BasicBlock {
	if int(id) < 0 || int(id) >= len(fn.Blocks) {
		return nil
	}
	return fn.Blocks[id]
}

// NewBlock appends a fresh empty block (terminator Unreachable until the
// caller sets one) and returns its id.
func (fn *Function) NewBlock() BlockID {
	id := BlockID(len(fn.Blocks))
	fn.Blocks = append(fn.Blocks, &BasicBlock{ID: id, Terminator: Unreachable{}})
	return id
}

// Local is a named storage slot in a function, identified by a stable
// integer id. Generated names begin with "_" (§3 "Function").
type Local struct {
	ID   LocalID
	Name string
	Type *hirtype.Type

	IsArg          bool
	IsStatic       bool
	IsGlobal       bool
	IsUserVariable bool
	IsClosure      bool
	Captures       []LocalID // only meaningful when IsClosure
}

// BasicBlock is a sequence of statements terminated by exactly one
// Terminator, plus CFG-utility-maintained predecessor/successor lists.
type BasicBlock struct {
	ID           BlockID
	Statements   []Statement
	Terminator   Terminator
	Predecessors []BlockID
	Successors   []BlockID
}

// Projection is one step of access into a composite value.
type Projection interface{ isProjection() }

type FieldProj struct{ Field FieldID }
type IndexProj struct{ IndexLocal LocalID }
type DerefProj struct{}

func (FieldProj) isProjection() {}
func (IndexProj) isProjection() {}
func (DerefProj) isProjection() {}

// Place is a storage location: a local plus an ordered projection chain,
// composed left-to-right.
type Place struct {
	Local       LocalID
	Projections []Projection
}

// Trivial reports whether p denotes the local directly, with no
// projection (used throughout the scalar passes, e.g. CopyPropagation
// requires "both places trivial").
func (p Place) Trivial() bool { return len(p.Projections) == 0 }

// HasDeref reports whether any projection in the chain is a Deref.
func (p Place) HasDeref() bool {
	for _, pr := range p.Projections {
		if _, ok := pr.(DerefProj); ok {
			return true
		}
	}
	return false
}

// Operand is one of Copy(place), Move(place), Constant(c), FunctionRef(name).
type Operand interface{ isOperand() }

type CopyOperand struct{ Place Place }
type MoveOperand struct{ Place Place }
type ConstantOperand struct{ Value Constant }
type FunctionRefOperand struct{ Name string }

func (CopyOperand) isOperand()       {}
func (MoveOperand) isOperand()       {}
func (ConstantOperand) isOperand()   {}
func (FunctionRefOperand) isOperand() {}

// PlaceOf returns the underlying Place for Copy/Move operands, and false
// otherwise.
func PlaceOf(op Operand) (Place, bool) {
	switch o := op.(type) {
	case CopyOperand:
		return o.Place, true
	case MoveOperand:
		return o.Place, true
	default:
		return Place{}, false
	}
}

// ConstKind distinguishes Constant variants.
type ConstKind string

const (
	ConstUnit   ConstKind = "unit"
	ConstBool   ConstKind = "bool"
	ConstInt    ConstKind = "int"
	ConstFloat  ConstKind = "float"
	ConstChar   ConstKind = "char"
	ConstString ConstKind = "string"
)

// Constant is a compile-time value plus its declared HIR type. A char
// constant whose Kind was accidentally set to ConstInt (by lowering that
// didn't distinguish the two) is reinterpreted by Char_(), per §3.
type Constant struct {
	Kind   ConstKind
	Bool   bool
	Int    int64
	Float  float64
	Char   rune
	String string
	Type   *hirtype.Type
}

// Char_ returns the constant's value as a rune, reinterpreting an Int
// constant whose declared type is Char (§3 "Constant").
func (c Constant) Char_() rune {
	if c.Kind == ConstChar {
		return c.Char
	}
	if c.Kind == ConstInt && c.Type != nil && c.Type.Kind == hirtype.KindChar {
		return rune(c.Int)
	}
	return c.Char
}

func IntConst(v int64, t *hirtype.Type) Constant    { return Constant{Kind: ConstInt, Int: v, Type: t} }
func BoolConst(v bool) Constant                     { return Constant{Kind: ConstBool, Bool: v, Type: hirtype.Bool()} }
func FloatConst(v float64, t *hirtype.Type) Constant { return Constant{Kind: ConstFloat, Float: v, Type: t} }
func CharConst(v rune) Constant                     { return Constant{Kind: ConstChar, Char: v, Type: hirtype.Char()} }
func StringConst(v string) Constant                 { return Constant{Kind: ConstString, String: v, Type: hirtype.String()} }
func UnitConst() Constant                           { return Constant{Kind: ConstUnit, Type: hirtype.Unit()} }

// BinOp enumerates Rvalue.BinaryOp operators.
type BinOp string

const (
	OpAdd BinOp = "add"
	OpSub BinOp = "sub"
	OpMul BinOp = "mul"
	OpDiv BinOp = "div"
	OpRem BinOp = "rem"
	OpAnd BinOp = "and"
	OpOr  BinOp = "or"
	OpXor BinOp = "xor"
	OpShl BinOp = "shl"
	OpShr BinOp = "shr"
	OpEq  BinOp = "eq"
	OpNe  BinOp = "ne"
	OpLt  BinOp = "lt"
	OpLe  BinOp = "le"
	OpGt  BinOp = "gt"
	OpGe  BinOp = "ge"
	OpLogicalAnd BinOp = "logand"
	OpLogicalOr  BinOp = "logor"
)

// UnOp enumerates Rvalue.UnaryOp operators.
type UnOp string

const (
	OpNeg    UnOp = "neg"
	OpNot    UnOp = "not"
	OpBitNot UnOp = "bitnot"
)

// AggregateKind distinguishes Rvalue.Aggregate shapes.
type AggregateKind string

const (
	AggArray  AggregateKind = "array"
	AggTuple  AggregateKind = "tuple"
	AggStruct AggregateKind = "struct"
)

// Rvalue is the tagged union of value-producing expressions.
type Rvalue interface{ isRvalue() }

type UseRvalue struct{ Operand Operand }
type BinaryOpRvalue struct {
	Op         BinOp
	Lhs, Rhs   Operand
	ResultType *hirtype.Type
}
type UnaryOpRvalue struct {
	Op         UnOp
	Operand    Operand
	ResultType *hirtype.Type
}
type RefRvalue struct{ Place Place }
type AggregateRvalue struct {
	Kind       AggregateKind
	StructName string // only when Kind == AggStruct
	Operands   []Operand
}
type CastRvalue struct {
	Operand    Operand
	TargetType *hirtype.Type
}
type FormatConvertRvalue struct {
	Operand    Operand
	FormatSpec string
}

func (UseRvalue) isRvalue()           {}
func (BinaryOpRvalue) isRvalue()      {}
func (UnaryOpRvalue) isRvalue()       {}
func (RefRvalue) isRvalue()           {}
func (AggregateRvalue) isRvalue()     {}
func (CastRvalue) isRvalue()          {}
func (FormatConvertRvalue) isRvalue() {}

// Statement is one of Assign, StorageLive, StorageDead, Nop, Asm.
type Statement interface {
	isStatement()
	// NoOpt reports whether this statement is opaque to all optimizations
	// (§3 invariant 8).
	NoOpt() bool
}

type Assign struct {
	Place  Place
	Rvalue Rvalue
	NoOptFlag bool
}
type StorageLive struct{ Local LocalID }
type StorageDead struct{ Local LocalID }
type NopStmt struct{}
type Asm struct {
	Template string
	Operands []Operand
	NoOptFlag bool
}

func (a Assign) isStatement()      {}
func (StorageLive) isStatement()   {}
func (StorageDead) isStatement()   {}
func (NopStmt) isStatement()       {}
func (a Asm) isStatement()         {}

func (a Assign) NoOpt() bool      { return a.NoOptFlag }
func (StorageLive) NoOpt() bool   { return false }
func (StorageDead) NoOpt() bool   { return false }
func (NopStmt) NoOpt() bool       { return false }
func (a Asm) NoOpt() bool         { return true }

// Terminator is the single control-flow instruction at the end of a block.
type Terminator interface {
	isTerminator()
	// Successors lists the block ids this terminator may transfer control
	// to, in a stable order.
	Successors() []BlockID
}

type Goto struct{ Target BlockID }

type SwitchCase struct {
	Value  int64
	Target BlockID
}
type SwitchInt struct {
	Discriminant Operand
	Cases        []SwitchCase
	Otherwise    BlockID
}

type Call struct {
	Callee      string
	Args        []Operand
	Destination *Place // nil if the result is discarded
	Success     BlockID
	Unwind      *BlockID
	IsVirtual   bool
	MethodName  string // only when IsVirtual
}

type Return struct{}
type Unreachable struct{}

func (Goto) isTerminator()        {}
func (SwitchInt) isTerminator()   {}
func (Call) isTerminator()        {}
func (Return) isTerminator()      {}
func (Unreachable) isTerminator() {}

func (g Goto) Successors() []BlockID { return []BlockID{g.Target} }
func (s SwitchInt) Successors() []BlockID {
	out := make([]BlockID, 0, len(s.Cases)+1)
	for _, c := range s.Cases {
		out = append(out, c.Target)
	}
	return append(out, s.Otherwise)
}
func (c Call) Successors() []BlockID {
	out := []BlockID{c.Success}
	if c.Unwind != nil {
		out = append(out, *c.Unwind)
	}
	return out
}
func (Return) Successors() []BlockID      { return nil }
func (Unreachable) Successors() []BlockID { return nil }
