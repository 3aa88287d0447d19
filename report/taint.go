package report

import (
	"fmt"

	"github.com/viant/npaflow/taint"
)

// TaintHop is one entry in a Taint report: the sink a tainted fact reached,
// its configured position, and its file:line when the sink instruction
// carries a DebugLoc (spec.md §6 "file:line per hop"). This is a single-hop
// report, not a full source->...->sink trace: ifds.Result carries no
// path-edge provenance (which predecessor fact/instruction produced each
// reached fact), so there is no trace to reconstruct beyond the sink itself
// and the fact that reached it.
type TaintHop struct {
	Function string `yaml:"function"`
	Position string `yaml:"position"`
	FactKind string `yaml:"fact_kind"`
	Location string `yaml:"location,omitempty"`
}

// Taint is the taint-analysis report: one TaintHop per Client.Findings
// entry, plus the Header.
type Taint struct {
	Header Header     `yaml:"header"`
	Hops   []TaintHop `yaml:"hops"`
}

// ToTaint converts a Client's accumulated Findings into a Taint report.
func ToTaint(header Header, client *taint.Client) Taint {
	hops := make([]TaintHop, 0, len(client.Findings))
	for _, f := range client.Findings {
		name := ""
		if callee, ok := f.Sink.Callee(); ok {
			name = callee.Name()
		}
		loc := ""
		if dl, ok := f.Sink.DebugLoc(); ok {
			loc = fmt.Sprintf("%s:%d", dl.File, dl.Line)
		}
		factKind := "value"
		if f.Fact.Kind == taint.FactMemory {
			factKind = "memory"
		}
		hops = append(hops, TaintHop{
			Function: name,
			Position: positionString(f.SinkPos),
			FactKind: factKind,
			Location: loc,
		})
	}
	return Taint{Header: header, Hops: hops}
}

func positionString(pos taint.Position) string {
	prefix := "arg"
	switch pos.Kind {
	case taint.PosAfterArg:
		prefix = "afterarg"
	case taint.PosRet:
		return retPositionString(pos)
	}
	suffix := "V"
	if pos.Deref {
		suffix = "D"
	}
	return fmt.Sprintf("%s%d%s", prefix, pos.Index, suffix)
}

func retPositionString(pos taint.Position) string {
	if pos.Deref {
		return "retD"
	}
	return "retV"
}
