package cmerrors

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger is the ambient debug-logging surface the pass pipeline uses for
// its per-iteration "[OPT] <pass>: <description>" lines (spec.md §7: "every
// fatal error names the function ... diagnostics include the pass name in
// [OPT] log lines at debug level"). Unlike the teacher's unconditional
// fmt.Printf logging in OptimizationPipeline.Run, output is gated by
// Debug so normal compiles stay quiet.
type Logger struct {
	Debug bool
	Out   io.Writer
}

// NewLogger creates a Logger writing to os.Stderr.
func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, Out: os.Stderr}
}

// OptLine logs one pass-iteration line at debug verbosity.
func (l *Logger) OptLine(pass, description string, changed bool) {
	if l == nil || !l.Debug {
		return
	}
	mark := color.New(color.FgYellow).Sprint("-")
	if changed {
		mark = color.New(color.FgGreen).Sprint("+")
	}
	fmt.Fprintf(l.Out, "[OPT] %s %s: %s\n", mark, pass, description)
}

// Warn logs a non-fatal diagnostic.
func (l *Logger) Warn(e *CompilerError) {
	if l == nil {
		return
	}
	fmt.Fprint(l.Out, Format(e))
}
