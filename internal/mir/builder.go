package mir

import "github.com/cm-lang/cmc/internal/hirtype"

// Builder provides fluent construction of MIR functions for tests and for
// cmd/cmc's demo mode. It plays the role the teacher's AST-to-IR Builder
// plays for hand-built IR, minus any AST: there is no parser in this
// module, so every caller either is a test or hands the Builder's output
// straight to the pass pipeline.
type Builder struct {
	program *Program
	fn      *Function
	block   *BasicBlock
}

// NewBuilder creates an empty program builder.
func NewBuilder() *Builder {
	return &Builder{program: &Program{}}
}

// Program returns the program built so far.
func (b *Builder) Program() *Program { return b.program }

// Func starts a new function named name and makes it current. The entry
// block is created and selected automatically.
func (b *Builder) Func(name string, returnType *hirtype.Type) *Builder {
	fn := &Function{Name: name}
	fn.ReturnLocal = fn.NewLocal("_ret", returnType)
	b.program.Functions = append(b.program.Functions, fn)
	b.fn = fn
	entry := fn.NewBlock()
	fn.EntryBlock = entry
	b.block = fn.Block(entry)
	return b
}

// Arg adds a new argument local of the given name/type to the current
// function and returns its id.
func (b *Builder) Arg(name string, typ *hirtype.Type) LocalID {
	id := b.fn.NewLocal(name, typ)
	b.fn.Local(id).IsArg = true
	b.fn.ArgLocals = append(b.fn.ArgLocals, id)
	return id
}

// Local adds a new plain local of the given name/type and returns its id.
func (b *Builder) Local(name string, typ *hirtype.Type) LocalID {
	id := b.fn.NewLocal(name, typ)
	b.fn.Local(id).IsUserVariable = true
	return id
}

// Block creates a new block in the current function and selects it.
func (b *Builder) Block() BlockID {
	id := b.fn.NewBlock()
	b.block = b.fn.Block(id)
	return id
}

// Select makes id the current block for subsequent Emit/Terminate calls.
func (b *Builder) Select(id BlockID) *Builder {
	b.block = b.fn.Block(id)
	return b
}

// Emit appends a statement to the current block.
func (b *Builder) Emit(s Statement) *Builder {
	b.block.Statements = append(b.block.Statements, s)
	return b
}

// Terminate sets the current block's terminator.
func (b *Builder) Terminate(t Terminator) *Builder {
	b.block.Terminator = t
	return b
}

// Finish rebuilds the CFG for the current function and returns it.
func (b *Builder) Finish() *Function {
	RebuildCFG(b.fn)
	return b.fn
}

// PlaceOfLocal constructs a trivial place for local.
func PlaceOfLocal(id LocalID) Place { return Place{Local: id} }

// Field returns a place that projects a field off p.
func (p Place) Field(f FieldID) Place {
	np := Place{Local: p.Local, Projections: append(append([]Projection{}, p.Projections...), FieldProj{Field: f})}
	return np
}

// Index returns a place that indexes p by the current value of idx.
func (p Place) Index(idx LocalID) Place {
	np := Place{Local: p.Local, Projections: append(append([]Projection{}, p.Projections...), IndexProj{IndexLocal: idx})}
	return np
}

// Deref returns a place that dereferences p.
func (p Place) Deref() Place {
	np := Place{Local: p.Local, Projections: append(append([]Projection{}, p.Projections...), DerefProj{})}
	return np
}
