package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across contractgen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Domain model
	FieldContextMap     = "context_map"
	FieldBoundedContext = "bounded_context"
	FieldAggregate      = "aggregate"
	FieldDataType       = "data_type"
	FieldEndpoint       = "endpoint"

	// Protected regions
	FieldRegion      = "region"
	FieldDeclaration = "declaration"
	FieldReason      = "reason"

	// Files and paths
	FieldFile = "file"
	FieldLine = "line"

	// Errors
	FieldError = "error"

	// Counts and timing
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a generation run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	w := watch.New(path, watch.Options{Logger: logger.ComponentLogger("watch")})
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
