package parse

import (
	"time"

	"github.com/vela-lang/vela/config"
	"github.com/vela-lang/vela/lexsrc"
	"github.com/vela-lang/vela/pstream"
	"github.com/vela-lang/vela/syntax"
	"github.com/vela-lang/vela/token"
)

// Result is the output of a top-level parse: a lossless concrete tree plus
// every diagnostic raised along the way.
// Telemetry is nil unless a WithTelemetry* Opt was passed to Parse.
type Result struct {
	Tree        *syntax.GreenNode
	Diagnostics []syntax.Diagnostic
	Telemetry   *Telemetry
}

// Parse runs parse_statements to exhaustion over src and folds the
// resulting span log into a tree. grammar may
// be nil, which parses under the newest known grammar with every gated
// feature enabled.
func Parse(src []byte, grammar *config.Grammar, opts ...Opt) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var start time.Time
	if o.telemetry == TelemetryTiming {
		start = time.Now()
	}

	stream := pstream.New(lexsrc.New(src), src)
	ps := New(stream, grammar)
	ParseStatements(ps, token.NodeToplevel)

	result := Result{
		Tree:        syntax.Build(stream.Spans()),
		Diagnostics: stream.Diagnostics(),
	}

	if o.telemetry != TelemetryOff {
		t := &Telemetry{
			BumpCount:       stream.BumpCount(),
			DiagnosticCount: len(result.Diagnostics),
		}
		if o.telemetry == TelemetryTiming {
			t.ParseTime = time.Since(start)
		}
		result.Telemetry = t
	}
	return result
}
