package server

import "go.opentelemetry.io/otel"

const scopeName = "github.com/auravoice/aura-core/server"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
)
