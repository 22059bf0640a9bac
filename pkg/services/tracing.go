package services

import "go.opentelemetry.io/otel"

// tracer instruments the use-case operations. Spans are no-ops until a
// provider is installed at startup.
var tracer = otel.Tracer("debugattor.services")
