package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github-mcp/internal/github"
)

// Upstream is the subset of the GitHub client the handlers use. A failed
// upstream call returns an error that wraps *github.APIError.
type Upstream interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Dispatcher routes invocations to the tool handlers. It holds no mutable
// state, so one Dispatcher serves any number of concurrent calls.
type Dispatcher struct {
	upstream Upstream
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTracerProvider sets where spans go. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		d.tracer = tp.Tracer("github-mcp/internal/tools")
	}
}

// NewDispatcher returns a Dispatcher calling up for every invocation.
func NewDispatcher(up Upstream, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		upstream: up,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github-mcp/internal/tools"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tools lists the tools the dispatcher serves.
func (d *Dispatcher) Tools() []ToolSpec { return ListTools() }

// Call runs one invocation. The Envelope is only meaningful when the error
// is nil; a non-nil error is always protocol-level and no Envelope exists.
func (d *Dispatcher) Call(ctx context.Context, name string, args Arguments) (Envelope, error) {
	id := uuid.NewString()
	ctx, span := d.tracer.Start(ctx, "tools/call "+name, trace.WithAttributes(
		attribute.String("mcp.tool.name", name),
		attribute.String("mcp.invocation.id", id),
	))
	defer span.End()

	logger := d.logger.With("tool", name, "invocation_id", id)
	if sc := span.SpanContext(); sc.IsValid() {
		logger = logger.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	start := time.Now()

	env, err := d.call(ctx, logger, name, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isRejection(err) {
			logger.WarnContext(ctx, "tool call rejected", "error", err)
		} else {
			logger.ErrorContext(ctx, "tool call failed", "error", err, "duration", time.Since(start))
		}
		return Envelope{}, err
	}

	span.SetAttributes(attribute.Bool("mcp.tool.is_error", env.IsError))
	if env.IsError {
		span.SetStatus(codes.Error, env.Text())
	}
	logger.InfoContext(ctx, "tool call completed", "is_error", env.IsError, "duration", time.Since(start))
	return env, nil
}

func (d *Dispatcher) call(ctx context.Context, logger *slog.Logger, name string, args Arguments) (Envelope, error) {
	spec, ok := Lookup(name)
	if !ok {
		return Envelope{}, UnknownTool(name)
	}
	if err := Validate(spec, args); err != nil {
		return Envelope{}, err
	}
	inv, err := decode(spec, args)
	if err != nil {
		return Envelope{}, err
	}

	body, err := inv.execute(ctx, d.upstream)
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("github.status_code", apiErr.StatusCode))
		logger.WarnContext(ctx, "github request failed",
			"status", apiErr.StatusCode,
			"message", apiErr.Message,
			"documentation_url", apiErr.DocumentationURL,
		)
	}
	return ToEnvelope(body, err)
}

// isRejection reports whether the request was refused before anything ran.
func isRejection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code != CodeInternal
}
