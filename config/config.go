// Package config holds the engine configuration tables (SPEC_FULL.md §6),
// built with the functional-options idiom teacher's analyzer/option.go uses
// for its own Analyzer configuration.
package config

import (
	"fmt"
	"time"

	"github.com/viant/npaflow/npa"
)

// Error reports a configuration failure: an unknown option, a malformed
// taint spec file, or a missing input file (SPEC_FULL.md §7
// "Configuration-error"), surfaced by cmd/npaflow as exit code 2.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Interproc configures the interprocedural engine (C4).
type Interproc struct {
	KCFADepth      int
	LinearStrategy npa.LinearStrategy
	MaxNewtonIter  int
	Verbose        bool
}

// InterprocOption customizes an Interproc config.
type InterprocOption func(*Interproc)

// NewInterproc builds an Interproc config from defaults plus opts.
// Defaults: 0-CFA (context-insensitive), worklist linear strategy, 64 max
// Newton iterations, not verbose.
func NewInterproc(opts ...InterprocOption) Interproc {
	c := Interproc{KCFADepth: 0, LinearStrategy: npa.Worklist, MaxNewtonIter: 64}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithKCFADepth(depth int) InterprocOption {
	return func(c *Interproc) { c.KCFADepth = depth }
}

func WithLinearStrategy(s npa.LinearStrategy) InterprocOption {
	return func(c *Interproc) { c.LinearStrategy = s }
}

func WithMaxNewtonIter(n int) InterprocOption {
	return func(c *Interproc) { c.MaxNewtonIter = n }
}

func WithInterprocVerbose(v bool) InterprocOption {
	return func(c *Interproc) { c.Verbose = v }
}

// IFDS configures the IFDS/IDE solver.
type IFDS struct {
	ShowProgress      bool
	StepBudget        int
	CancellationToken <-chan struct{}
	Timeout           time.Duration
}

// IFDSOption customizes an IFDS config.
type IFDSOption func(*IFDS)

// NewIFDS builds an IFDS config from defaults plus opts. StepBudget<=0
// means unbounded.
func NewIFDS(opts ...IFDSOption) IFDS {
	c := IFDS{}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithShowProgress(v bool) IFDSOption { return func(c *IFDS) { c.ShowProgress = v } }
func WithStepBudget(n int) IFDSOption    { return func(c *IFDS) { c.StepBudget = n } }
func WithCancellationToken(ch <-chan struct{}) IFDSOption {
	return func(c *IFDS) { c.CancellationToken = ch }
}
func WithIFDSTimeout(d time.Duration) IFDSOption { return func(c *IFDS) { c.Timeout = d } }

// Slicing configures the PDG slicer.
type Slicing struct {
	EdgeTypes        []string
	MaxDepth         int
	MaxPaths         int
	MaxPathLength    int
	ContextSensitive bool
	MaxStackDepth    int
	MaxStates        int
}

// SlicingOption customizes a Slicing config.
type SlicingOption func(*Slicing)

// NewSlicing builds a Slicing config from defaults plus opts. Zero-valued
// Max* fields mean unbounded.
func NewSlicing(opts ...SlicingOption) Slicing {
	c := Slicing{}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithEdgeTypes(types ...string) SlicingOption {
	return func(c *Slicing) { c.EdgeTypes = types }
}
func WithMaxDepth(n int) SlicingOption      { return func(c *Slicing) { c.MaxDepth = n } }
func WithMaxPaths(n int) SlicingOption      { return func(c *Slicing) { c.MaxPaths = n } }
func WithMaxPathLength(n int) SlicingOption { return func(c *Slicing) { c.MaxPathLength = n } }
func WithContextSensitive(v bool) SlicingOption {
	return func(c *Slicing) { c.ContextSensitive = v }
}
func WithMaxStackDepth(n int) SlicingOption { return func(c *Slicing) { c.MaxStackDepth = n } }
func WithMaxStates(n int) SlicingOption     { return func(c *Slicing) { c.MaxStates = n } }
