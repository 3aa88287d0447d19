// Command npaflow is the CLI driver: it loads a Go package tree via
// ir/source, builds the engine the chosen subcommand needs (PDG slicing or
// IFDS taint), and renders a report.Header-carrying result to stdout.
//
// Grounded on inspector/coder/example/main.go's "small main wiring library
// calls, printing as it goes" shape; the teacher's own example uses neither
// a CLI framework nor the flag package, so the subcommand/flag.FlagSet
// layout below is the standard-library idiom for the same job (no
// cobra/urfave-cli go.mod anywhere in the pack to draw on instead).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/ifds"
	"github.com/viant/npaflow/ir"
	"github.com/viant/npaflow/ir/source"
	"github.com/viant/npaflow/pdg"
	"github.com/viant/npaflow/report"
	"github.com/viant/npaflow/slice"
	"github.com/viant/npaflow/taint"
)

// Exit codes per SPEC_FULL.md §6.
const (
	exitSuccess = 0
	exitParse   = 1
	exitConfig  = 2
	exitAborted = 3
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: npaflow <slice|taint> [flags]")
		os.Exit(exitConfig)
	}
	var err error
	switch os.Args[1] {
	case "slice":
		err = runSlice(os.Args[2:])
	case "taint":
		err = runTaint(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "npaflow: unknown subcommand %q\n", os.Args[1])
		os.Exit(exitConfig)
	}
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "npaflow:", err)
	switch err.(type) {
	case *ir.ErrMalformed:
		os.Exit(exitParse)
	case *config.Error:
		os.Exit(exitConfig)
	default:
		os.Exit(exitConfig)
	}
}

// loadModule lowers dir into an ir.Module via ir/source, wrapping any
// non-ErrMalformed failure (a missing directory, an unreadable file) as one
// too — every ir/source failure is a parse failure from the CLI's point of
// view.
func loadModule(ctx context.Context, dir string) (ir.Module, error) {
	m, err := source.Load(ctx, dir)
	if err != nil {
		if _, ok := err.(*ir.ErrMalformed); ok {
			return nil, err
		}
		return nil, &ir.ErrMalformed{Reason: err.Error()}
	}
	return m, nil
}

// funcSeeds returns every pdg.NodeID for instructions in fn's entry block,
// the CLI's function-name-addressed stand-in for a raw instruction handle.
func funcSeeds(g *pdg.Graph, fn ir.Function) ([]pdg.NodeID, error) {
	var seeds []pdg.NodeID
	for inst := range fn.Entry().Instructions() {
		id, ok := g.InstructionNode(inst.Handle())
		if !ok {
			continue
		}
		seeds = append(seeds, id)
	}
	if len(seeds) == 0 {
		return nil, &config.Error{Reason: fmt.Sprintf("function %q has no instructions to seed a slice from", fn.Name())}
	}
	return seeds, nil
}

func resolveFunc(m ir.Module, name string) (ir.Function, error) {
	fn, ok := m.FunctionByName(name)
	if !ok {
		return nil, &config.Error{Reason: fmt.Sprintf("function %q not found", name)}
	}
	return fn, nil
}

func runSlice(args []string) error {
	fs := flag.NewFlagSet("slice", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Go package directory to analyze")
	mode := fs.String("mode", "backward", "backward|forward|chop|thin")
	fn := fs.String("fn", "", "seed function name (every instruction in its entry block seeds the slice)")
	sinkFn := fs.String("sink-fn", "", "sink function name, required for -mode=chop")
	maxDepth := fs.Int("max-depth", 0, "config.Slicing.MaxDepth (0 = unbounded)")
	maxPaths := fs.Int("max-paths", 0, "config.Slicing.MaxPaths (0 = unbounded, -mode=chop only)")
	maxPathLength := fs.Int("max-path-length", 0, "config.Slicing.MaxPathLength (0 = unbounded, -mode=chop only)")
	maxStackDepth := fs.Int("max-stack-depth", 0, "config.Slicing.MaxStackDepth (0 = unbounded)")
	edgeTypes := fs.String("edge-types", "", "comma-separated allowed edge kinds (data,control,parameter-in,parameter-out); empty = all")
	contextSensitive := fs.Bool("context-sensitive", false, "thin-slice call/return matching (-mode=thin only)")
	format := fs.String("format", "yaml", "yaml (only format currently rendered)")
	if err := fs.Parse(args); err != nil {
		return &config.Error{Reason: "parsing slice flags", Err: err}
	}
	if *fn == "" {
		return &config.Error{Reason: "-fn is required"}
	}
	if *mode == "chop" && *sinkFn == "" {
		return &config.Error{Reason: "-sink-fn is required for -mode=chop"}
	}
	if *format != "yaml" {
		return &config.Error{Reason: fmt.Sprintf("unsupported -format %q (only yaml is implemented)", *format)}
	}

	start := time.Now()
	ctx := context.Background()

	m, err := loadModule(ctx, *dir)
	if err != nil {
		return err
	}
	g, err := pdg.Build(m)
	if err != nil {
		return err
	}
	seedFn, err := resolveFunc(m, *fn)
	if err != nil {
		return err
	}
	seeds, err := funcSeeds(g, seedFn)
	if err != nil {
		return err
	}

	var edgeTypeList []string
	if *edgeTypes != "" {
		edgeTypeList = strings.Split(*edgeTypes, ",")
	}
	opts := config.NewSlicing(
		config.WithMaxDepth(*maxDepth),
		config.WithMaxPaths(*maxPaths),
		config.WithMaxPathLength(*maxPathLength),
		config.WithMaxStackDepth(*maxStackDepth),
		config.WithContextSensitive(*contextSensitive),
		config.WithEdgeTypes(edgeTypeList...),
	)

	var nodes slice.NodeSet
	var diag slice.Diagnostics
	switch *mode {
	case "backward":
		nodes, diag = slice.Backward(g, opts, seeds...)
	case "forward":
		nodes, diag = slice.Forward(g, opts, seeds...)
	case "thin":
		nodes, diag = slice.ThinBackward(g, opts, seeds...)
	case "chop":
		sinkFunc, err := resolveFunc(m, *sinkFn)
		if err != nil {
			return err
		}
		sinks, err := funcSeeds(g, sinkFunc)
		if err != nil {
			return err
		}
		nodes, diag = slice.Chop(g, opts, seeds, sinks)
	default:
		return &config.Error{Reason: fmt.Sprintf("unknown -mode %q", *mode)}
	}

	header := report.NewHeader("slice:"+*mode, *fn, start, false, false)
	rep := report.ToSlice(header, g, nodes, diag)
	return renderYAML(rep)
}

func runTaint(args []string) error {
	fs := flag.NewFlagSet("taint", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Go package directory to analyze")
	specPath := fs.String("spec", "", "taint specification file (src/snk/pipe/ignore lines)")
	stepBudget := fs.Int("step-budget", 0, "config.IFDS.StepBudget (0 = unbounded)")
	timeout := fs.Duration("timeout", 0, "abort the solve after this long (0 = no timeout)")
	if err := fs.Parse(args); err != nil {
		return &config.Error{Reason: "parsing taint flags", Err: err}
	}
	if *specPath == "" {
		return &config.Error{Reason: "-spec is required"}
	}

	start := time.Now()

	specFile, err := os.Open(*specPath)
	if err != nil {
		return &config.Error{Reason: fmt.Sprintf("opening %s", *specPath), Err: err}
	}
	defer specFile.Close()
	spec, err := taint.ParseSpec(specFile)
	if err != nil {
		return &config.Error{Reason: fmt.Sprintf("parsing %s", *specPath), Err: err}
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	m, err := loadModule(ctx, *dir)
	if err != nil {
		return err
	}

	client := taint.NewClient(spec, nil)
	ifdsCfg := config.NewIFDS(config.WithStepBudget(*stepBudget))
	result, err := ifds.Solve[taint.Fact](ctx, client, m, ifds.DirectCallGraph{}, ifds.Options{
		ShowProgress: ifdsCfg.ShowProgress,
		StepBudget:   ifdsCfg.StepBudget,
	})
	if err != nil {
		return &config.Error{Reason: "solving taint problem", Err: err}
	}

	header := report.NewHeader("taint", modulePathOrDir(ctx, *dir), start, result.Incomplete, result.Cancelled)
	rep := report.ToTaint(header, client)
	if err := renderYAML(rep); err != nil {
		return err
	}
	if result.Incomplete || result.Cancelled {
		os.Exit(exitAborted)
	}
	return nil
}

func modulePathOrDir(ctx context.Context, dir string) string {
	if path, err := source.ModulePath(ctx, dir); err == nil {
		return path
	}
	return dir
}

func renderYAML(v any) error {
	data, err := report.RenderYAML(v)
	if err != nil {
		return &config.Error{Reason: "rendering report", Err: err}
	}
	_, err = os.Stdout.Write(data)
	return err
}
