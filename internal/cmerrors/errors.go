// Package cmerrors implements the error-kind taxonomy and colored
// diagnostic rendering for the pipeline and back-ends (spec.md §7),
// grounded on the teacher's internal/errors package (CompilerError /
// ErrorReporter / level-to-color mapping), re-pointed from source-position
// diagnostics to function/block-id-located ones since MIR carries no
// source spans.
package cmerrors

import (
	"fmt"

	"github.com/fatih/color"
)

// Level mirrors the teacher's ErrorLevel.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
)

// Kind is one of the five error kinds spec.md §7 recognizes.
type Kind string

const (
	InvariantViolation Kind = "invariant_violation"
	TimeoutOrCycle     Kind = "timeout_or_cycle"
	TargetRejection    Kind = "target_rejection"
	RuntimeError       Kind = "runtime_error"
	CacheError         Kind = "cache_error"
)

// CompilerError wraps an underlying error with the kind, code, and location
// metadata spec.md §7 requires every fatal diagnostic to carry.
type CompilerError struct {
	Kind     Kind
	Level    Level
	Code     string
	Function string
	HasBlock bool
	Block    int
	Message  string
	Err      error
}

func (e *CompilerError) Error() string {
	loc := e.Function
	if e.HasBlock {
		loc = fmt.Sprintf("%s:bb%d", e.Function, e.Block)
	}
	if loc != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, loc, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error so callers can errors.As/Is through
// CompilerError.
func (e *CompilerError) Unwrap() error { return e.Err }

// New constructs a CompilerError. Code conventions follow spec.md §7:
// invariant violations, pass/convergence issues, JS target rejections, and
// cache errors each get their own code prefix.
func New(kind Kind, level Level, code, function, message string) *CompilerError {
	return &CompilerError{Kind: kind, Level: level, Code: code, Function: function, Message: message}
}

func (e *CompilerError) WithBlock(block int) *CompilerError {
	e.HasBlock = true
	e.Block = block
	return e
}

func (e *CompilerError) WithErr(err error) *CompilerError {
	e.Err = err
	return e
}

// Format renders e the way the teacher's ErrorReporter.FormatError renders
// parser diagnostics: a colored "level[code]: message" header, with the
// function/block location on the same style of "-->" line, but with no
// source excerpt (MIR has none).
func Format(e *CompilerError) string {
	levelColor := levelColorFunc(e.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	header := fmt.Sprintf("%s[%s]: %s\n", levelColor(string(e.Level)), e.Code, e.Message)
	loc := e.Function
	if e.HasBlock {
		loc = fmt.Sprintf("%s bb%d", e.Function, e.Block)
	}
	return header + fmt.Sprintf("   %s %s\n", dim("-->"), bold(loc))
}

func levelColorFunc(level Level) func(...interface{}) string {
	switch level {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
