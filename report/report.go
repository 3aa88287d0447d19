// Package report renders analysis results (equation solutions, slice/chop
// node sets, taint findings) for presentation, per SPEC_FULL.md §6
// "Reports". Every report carries a Header (analysis name, module
// identifier, wall-clock time, Incomplete/Cancelled flags) per §7
// "User-visible behavior" — grounded on teacher's analyzer_test.go
// yaml.Marshal/Unmarshal usage for round-tripping structured results.
package report

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Header is attached to every report kind below.
type Header struct {
	Analysis   string        `yaml:"analysis"`
	Module     string        `yaml:"module"`
	Duration   time.Duration `yaml:"duration"`
	Incomplete bool          `yaml:"incomplete,omitempty"`
	Cancelled  bool          `yaml:"cancelled,omitempty"`
}

// NewHeader builds a Header, recording elapsed wall-clock time since start.
func NewHeader(analysis, module string, start time.Time, incomplete, cancelled bool) Header {
	return Header{
		Analysis:   analysis,
		Module:     module,
		Duration:   time.Since(start),
		Incomplete: incomplete,
		Cancelled:  cancelled,
	}
}

// Solution reports an NPA equation system's solved bindings. V is rendered
// via its own fmt.Stringer when the caller supplies pre-stringified values
// (ToSolution below), matching spec.md §6's "printable via the domain's own
// string conversion."
type Solution struct {
	Header Header            `yaml:"header"`
	Values map[string]string `yaml:"values"`
}

// ToSolution converts a map[Symbol]V into a Solution, stringifying each
// value with stringer (typically a domain.Domain's own String method, or
// fmt.Sprint as a fallback for a V with no natural textual form).
func ToSolution[Sym ~string, V any](header Header, values map[Sym]V, stringer func(V) string) Solution {
	out := make(map[string]string, len(values))
	for sym, v := range values {
		out[string(sym)] = stringer(v)
	}
	return Solution{Header: header, Values: out}
}

// RenderYAML marshals any report value (Solution, Slice, Taint, ...) to
// YAML, used by tests and the CLI's -format=yaml flag.
func RenderYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
