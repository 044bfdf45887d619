package parse

import "time"

// Opt configures a Parse call using a functional-options shape.
type Opt func(*options)

// TelemetryMode controls how much parse telemetry Parse collects. Off is
// zero-overhead and is the default.
type TelemetryMode int

const (
	TelemetryOff TelemetryMode = iota
	TelemetryBasic
	TelemetryTiming
)

type options struct {
	telemetry TelemetryMode
}

// WithTelemetryBasic enables token/diagnostic counting, attached to
// Result.Telemetry.
func WithTelemetryBasic() Opt {
	return func(o *options) { o.telemetry = TelemetryBasic }
}

// WithTelemetryTiming enables counting plus wall-clock parse duration.
func WithTelemetryTiming() Opt {
	return func(o *options) { o.telemetry = TelemetryTiming }
}

// Telemetry holds the production-safe metrics a telemetry-enabled Parse
// call reports.
type Telemetry struct {
	BumpCount      int
	DiagnosticCount int
	ParseTime      time.Duration // zero unless WithTelemetryTiming was passed
}
