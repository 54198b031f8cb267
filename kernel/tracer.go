package kernel

import "go.opentelemetry.io/otel"

// tracer instruments each primitive kernel call with one span named after
// the kernel; the spans carry no attributes, so the chosen execution path
// is visible only in the debug log and the Prometheus counters. When no
// TracerProvider has been
// configured (the common case for library callers that never call
// otel.SetTracerProvider) this degrades to otel's no-op tracer at zero
// cost.
var tracer = otel.Tracer("github.com/dkoslov/tensen/kernel")
