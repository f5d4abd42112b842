// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/cm-lang/cmc/internal/cache"
	"github.com/cm-lang/cmc/internal/cmerrors"
	"github.com/cm-lang/cmc/internal/hirtype"
	"github.com/cm-lang/cmc/internal/interp"
	"github.com/cm-lang/cmc/internal/jsemit"
	"github.com/cm-lang/cmc/internal/mir"
	"github.com/cm-lang/cmc/internal/pass"
)

// cmc has no parser to drive (lexing/parsing/HIR->MIR lowering are out of
// scope, spec.md §1): instead of reading a .ka source file like the
// teacher's kanso-cli, it builds a small demonstration *mir.Program with
// mir.Builder -- playing the part an upstream lowering pass would play --
// then runs that program through the optimizer and the requested back end.
// This mirrors kanso-cli's flow (read input, process, report success in
// color) with the upstream half replaced by the fixture builder.
func main() {
	target := flag.String("target", "interp", "back end: interp or js")
	optLevel := flag.Int("opt", 2, "optimization level (0-3)")
	debug := flag.Bool("debug", false, "log [OPT] lines for each pass iteration")
	out := flag.String("out", "out.js", "output path for -target=js")
	cacheDir := flag.String("cache-dir", "", "incremental cache directory (enables caching when set)")
	flag.Parse()

	program := buildDemoProgram()

	report := pass.RunOptimizationPasses(program, *optLevel, *debug)
	color.Cyan("optimizer: %d iteration(s), final state %s", report.Iterations, report.FinalState)
	for _, d := range report.Diagnostics {
		fmt.Fprintln(os.Stderr, cmerrors.Format(d))
	}

	if *cacheDir != "" {
		runCacheDemo(*cacheDir, *optLevel, *target)
	}

	switch *target {
	case "interp":
		v, err := interp.Execute(program, "fib")
		if err != nil {
			color.Red("❌ execution failed: %s", err)
			os.Exit(1)
		}
		fmt.Printf("fib(10) = %d\n", v.Int)
		color.Green("✅ executed demo program")
	case "js":
		if err := jsemit.Compile(program, jsemit.Options{OutputFile: *out, ESModule: true, StrictMode: true}); err != nil {
			color.Red("❌ JS emission failed: %s", err)
			os.Exit(1)
		}
		color.Green("✅ wrote %s", *out)
	default:
		color.Red("❌ unknown -target %q (want interp or js)", *target)
		os.Exit(1)
	}
}

// buildDemoProgram constructs the iterative Fibonacci function from
// spec.md §8 scenario 2 (a=0; b=1; i=0; while i<10 { tmp=a+b; a=b; b=tmp;
// i=i+1 }; return a), the same shape internal/interp's tests exercise, so
// the CLI has a stable, spec-grounded program to optimize and run without
// needing a source file.
func buildDemoProgram() *mir.Program {
	b := mir.NewBuilder()
	b.Func("fib", hirtype.Int())
	a := b.Local("a", hirtype.Int())
	bb := b.Local("b", hirtype.Int())
	i := b.Local("i", hirtype.Int())
	tmp := b.Local("tmp", hirtype.Int())
	cond := b.Local("cond", hirtype.Bool())

	header := b.Block()
	body := b.Block()
	exit := b.Block()

	b.Select(mir.BlockID(0))
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(a), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(bb), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(i), Rvalue: mir.UseRvalue{Operand: mir.ConstantOperand{Value: mir.IntConst(0, hirtype.Int())}}})
	b.Terminate(mir.Goto{Target: header})

	b.Select(header)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(cond),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpLt, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(10, hirtype.Int())}, ResultType: hirtype.Bool(),
		},
	})
	b.Terminate(mir.SwitchInt{
		Discriminant: mir.CopyOperand{Place: mir.PlaceOfLocal(cond)},
		Cases:        []mir.SwitchCase{{Value: 1, Target: body}},
		Otherwise:    exit,
	})

	b.Select(body)
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(tmp),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(a)},
			Rhs: mir.CopyOperand{Place: mir.PlaceOfLocal(bb)}, ResultType: hirtype.Int(),
		},
	})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(a), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(bb)}}})
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(bb), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(tmp)}}})
	b.Emit(mir.Assign{
		Place: mir.PlaceOfLocal(i),
		Rvalue: mir.BinaryOpRvalue{
			Op: mir.OpAdd, Lhs: mir.CopyOperand{Place: mir.PlaceOfLocal(i)},
			Rhs: mir.ConstantOperand{Value: mir.IntConst(1, hirtype.Int())}, ResultType: hirtype.Int(),
		},
	})
	b.Terminate(mir.Goto{Target: header})

	b.Select(exit)
	b.Emit(mir.Assign{Place: mir.PlaceOfLocal(0), Rvalue: mir.UseRvalue{Operand: mir.CopyOperand{Place: mir.PlaceOfLocal(a)}}})
	b.Terminate(mir.Return{})

	b.Finish()
	return b.Program()
}

// runCacheDemo exercises the incremental cache (spec.md §4.13) against
// cmc itself: a composite fingerprint over the running cmc executable
// (cmd/cmc/main.go when the executable's path is unavailable) plus a
// lookup, reporting a hit or a miss the way a real build driver would
// before deciding whether to recompile. It stops at Lookup and does not
// Store, since the demo program has no object file on disk to cache.
func runCacheDemo(dir string, optLevel int, target string) {
	c := cache.New(cache.Config{Dir: dir})
	self, err := os.Executable()
	files := []string{"cmd/cmc/main.go"}
	if err == nil {
		files = []string{self}
	}
	fp, hashes, err := c.ComputeFingerprint(files, target, optLevel)
	if err != nil {
		color.Yellow("cache disabled: %s", err)
		return
	}
	if _, hit, err := c.Lookup(fp); err == nil && hit {
		color.Cyan("cache: hit for fingerprint %s", fp[:12])
	} else {
		color.Cyan("cache: miss for fingerprint %s (%d file(s) hashed)", fp[:12], len(hashes))
	}
}
