package builtinreg

import "fmt"

// Func is the signature every builtin registry entry implements.
type Func func(args []Value) (Value, error)

// Def pairs a builtin's interpreter implementation with the metadata the
// JS emitter needs to decide how to call it (spec.md §6: "a fixed table
// of ~150 runtime names").
type Def struct {
	Name string
	Impl Func
	// JSHelper names the JS function the JS back-end calls for this
	// builtin: a `__cm_`-prefixed runtime helper or a host function such
	// as `console.log`. When it is "", the back-end emits a call to the
	// builtin's own name; no inline JS expression is constructed.
	JSHelper string
	// Forbidden marks memory builtins the JS target's validator must
	// reject outright (spec.md §4.12 "Target validation").
	Forbidden bool
}

var registry = map[string]Def{}

func register(d Def) {
	registry[d.Name] = d
}

// Lookup returns the Def for name, or false if name is not a builtin.
func Lookup(name string) (Def, bool) {
	d, ok := registry[name]
	return d, ok
}

// IsBuiltin reports whether name is in the registry.
func IsBuiltin(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns every registered builtin name, for the JS emitter's
// "scan for `__cm_` identifiers and expand dependencies once" pass.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}

// Call looks up name and invokes it; returns an error wrapping the
// interpreter's "unresolved call" diagnostic when name is unregistered
// (the caller, internal/interp, converts this into the §7 RuntimeError
// warning-and-unit-value behavior, not a hard abort).
func Call(name string, args []Value) (Value, error) {
	d, ok := registry[name]
	if !ok {
		return Unit(), fmt.Errorf("unresolved builtin %q", name)
	}
	return d.Impl(args)
}

func init() {
	registerIO()
	registerStrings()
	registerArrays()
	registerSlices()
	registerArraySliceConv()
	registerFormat()
	registerMemory()
}
