package builtinreg

// registerMemory wires malloc/realloc/free/memcpy/memset as recognized
// but Forbidden builtins (spec.md §4.12 target validation: the JS back-end
// must reject any use of these rather than emit them). The interpreter
// still needs a name to resolve against when running a program that uses
// them outside the JS target, so each returns a RuntimeError-style
// failure rather than panicking or silently succeeding.
func registerMemory() {
	for _, name := range []string{"malloc", "realloc", "free", "memcpy", "memset"} {
		n := name
		register(Def{
			Name:      n,
			Forbidden: true,
			Impl: func(args []Value) (Value, error) {
				return Unit(), errForbidden(n)
			},
		})
	}
}

type forbiddenErr string

func (e forbiddenErr) Error() string {
	return "builtin " + string(e) + " is forbidden: manual memory management has no Value representation"
}

func errForbidden(name string) error { return forbiddenErr(name) }
