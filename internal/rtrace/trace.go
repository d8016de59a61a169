// Package rtrace plumbs a single schuko tracer through every interpreter
// package, mirroring the T() convention used throughout gorgo's own
// packages (see runtime.T, lr.T, terex.tracer).
package rtrace

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to the global interpreter tracer. Packages call rtrace.T() the
// way gorgo's packages call their package-local T(); we centralize it here
// since the RPAL pipeline is one cohesive module rather than a toolbox of
// independently reusable packages.
func T() tracing.Trace {
	return gtrace.SyntaxTracer
}
