package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/flowlog/pkg/telemetry/logging"
	"mercator-hq/flowlog/pkg/telemetry/tracing"
)

// Outcome labels passed to Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder is satisfied by *metrics.Collector.
type Recorder interface {
	RecordToolInvocation(tool, outcome string, duration time.Duration)
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithRecorder records every invocation.
func WithRecorder(r Recorder) Option {
	return func(k *Toolkit) { k.recorder = r }
}

// WithTracer starts a span per invocation.
func WithTracer(tracer trace.Tracer) Option {
	return func(k *Toolkit) { k.tracer = tracer }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(k *Toolkit) { k.logger = logger }
}

// Toolkit is a registry of tools keyed by name. It is safe for concurrent
// use once built.
type Toolkit struct {
	tools    map[string]Tool
	order    []string
	recorder Recorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewToolkit registers tools in the given order. Duplicate names are an
// error.
func NewToolkit(tools []Tool, opts ...Option) (*Toolkit, error) {
	k := &Toolkit{
		tools:  make(map[string]Tool, len(tools)),
		tracer: noop.NewTracerProvider().Tracer(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}

	for _, tool := range tools {
		name := tool.Name()
		if _, dup := k.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		k.tools[name] = tool
		k.order = append(k.order, name)
	}

	return k, nil
}

// Names returns the registered tool names in registration order.
func (k *Toolkit) Names() []string {
	return append([]string(nil), k.order...)
}

// Definitions returns the tool definitions in registration order.
func (k *Toolkit) Definitions() []Definition {
	defs := make([]Definition, 0, len(k.order))
	for _, name := range k.order {
		defs = append(defs, k.tools[name].Definition())
	}
	return defs
}

// Lookup returns the tool registered under name.
func (k *Toolkit) Lookup(name string) (Tool, bool) {
	tool, ok := k.tools[name]
	return tool, ok
}

// Invoke calls the tool registered under name with JSON arguments.
func (k *Toolkit) Invoke(ctx context.Context, name string, args json.RawMessage) (string, error) {
	tool, ok := k.tools[name]
	if !ok {
		err := &UnknownToolError{Name: name}
		k.logger.WarnContext(ctx, "unknown tool requested", "tool", name)
		return "", err
	}

	ctx = logging.WithTool(ctx, name)
	ctx, span := k.tracer.Start(ctx, "tool."+name)
	defer span.End()
	tracing.SetToolAttributes(span, name, logging.GetRequestID(ctx))

	start := time.Now()
	out, err := tool.Call(ctx, args)
	duration := time.Since(start)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
		errType := ErrorType(err)
		tracing.SetErrorType(span, err, errType)
		k.logger.WarnContext(ctx, "tool invocation failed",
			"error", err,
			"error_type", errType,
			"duration_ms", duration.Milliseconds(),
		)
	} else {
		span.SetAttributes(attribute.Int(tracing.AttrOutputSize, len(out)))
		tracing.SetStatus(span, nil)
		k.logger.DebugContext(ctx, "tool invocation completed",
			"duration_ms", duration.Milliseconds(),
			"output_bytes", len(out),
		)
	}

	if k.recorder != nil {
		k.recorder.RecordToolInvocation(name, outcome, duration)
	}

	return out, err
}
