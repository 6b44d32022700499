package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KexinAnswer/gitbook/internal/shared/id"
)

// ErrorAttribute is set to true on every span whose operation failed.
const ErrorAttribute = "error"

// CanceledAttribute is set to true when the failure was a context cancellation.
const CanceledAttribute = "canceled"

// Record is the completion record emitted once per traced operation.
type Record struct {
	TraceID    id.TraceID
	SpanID     id.SpanID
	ParentID   id.SpanID
	Name       string
	Service    string
	Start      time.Time
	Duration   time.Duration
	Attributes map[string]any
	Errored    bool
	Err        error
}

// DurationMs returns the elapsed time in milliseconds.
func (r Record) DurationMs() float64 {
	if r.Duration < 0 {
		return 0
	}
	return float64(r.Duration) / float64(time.Millisecond)
}

// End returns the wall-clock time the operation settled.
func (r Record) End() time.Time {
	return r.Start.Add(r.Duration)
}

// Span records attributes for one traced operation. It is handed to the
// operation and owned by it until the trace completes.
type Span struct {
	traceID  id.TraceID
	spanID   id.SpanID
	parentID id.SpanID
	name     string
	start    time.Time

	mu    sync.Mutex
	attrs map[string]any
}

// SetAttribute records a bool, string or numeric attribute. Later calls with
// the same key overwrite earlier ones.
func (s *Span) SetAttribute(key string, value any) {
	v := normalize(value)

	s.mu.Lock()
	s.attrs[key] = v
	s.mu.Unlock()
}

// TraceID returns the trace the span belongs to.
func (s *Span) TraceID() id.TraceID { return s.traceID }

// SpanID returns the span's own ID.
func (s *Span) SpanID() id.SpanID { return s.spanID }

// Name returns the traced operation name.
func (s *Span) Name() string { return s.name }

// attributes returns a snapshot of the recorded attributes.
func (s *Span) attributes() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// normalize maps attribute values onto bool, string, int64 and float64.
func normalize(value any) any {
	switch v := value.(type) {
	case bool, string, int64, float64:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case time.Duration:
		return float64(v) / float64(time.Millisecond)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

// Tracer starts spans and hands completed records to its sink.
type Tracer struct {
	service string
	logger  *zap.Logger
	sink    Sink
	now     func() time.Time
}

// New creates a tracer for the given service. With no sinks, completed
// records are logged through logger. A nil logger logs to stderr.
func New(service string, logger *zap.Logger, sinks ...Sink) *Tracer {
	if logger == nil {
		logger = stderrLogger()
	}

	var sink Sink
	switch len(sinks) {
	case 0:
		sink = LogSink(logger)
	case 1:
		sink = sinks[0]
	default:
		sink = MultiSink(sinks...)
	}

	return &Tracer{
		service: service,
		logger:  logger,
		sink:    sink,
		now:     time.Now,
	}
}

// Nop returns a tracer that discards records.
func Nop() *Tracer {
	return New("", zap.NewNop(), SinkFunc(func(Record) {}))
}

// Service returns the service name stamped on every record.
func (t *Tracer) Service() string { return t.service }

// Trace runs fn inside a span named name and returns its result unchanged.
// The completion record is emitted exactly once whether fn returns, fails or
// panics; failures set the error attribute and are returned (or re-panic)
// with the original value.
func Trace[T any](ctx context.Context, t *Tracer, name string, fn func(context.Context, *Span) (T, error)) (result T, err error) {
	if t == nil {
		t = Nop()
	}

	span, ctx := t.startSpan(ctx, name)

	settled := false
	defer func() {
		failed := !settled || err != nil
		if failed {
			span.SetAttribute(ErrorAttribute, true)
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				span.SetAttribute(CanceledAttribute, true)
			}
		}
		t.finish(span, failed, err)
	}()

	result, err = fn(ctx, span)
	settled = true
	return result, err
}

// Run is Trace for operations without a result value.
func (t *Tracer) Run(ctx context.Context, name string, fn func(context.Context, *Span) error) error {
	_, err := Trace(ctx, t, name, func(ctx context.Context, span *Span) (struct{}, error) {
		return struct{}{}, fn(ctx, span)
	})
	return err
}

// startSpan creates a span, continuing the trace found in ctx if any.
func (t *Tracer) startSpan(ctx context.Context, name string) (*Span, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = id.NewTraceID()
	}

	span := &Span{
		traceID:  traceID,
		spanID:   id.NewSpanID(),
		parentID: GetSpanID(ctx),
		name:     name,
		start:    t.now(),
		attrs:    make(map[string]any),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.spanID)

	return span, ctx
}

// finish computes the duration and emits the record. A panicking sink is
// logged and swallowed so it cannot replace the operation's own outcome.
func (t *Tracer) finish(span *Span, failed bool, err error) {
	duration := t.now().Sub(span.start)
	if duration < 0 {
		duration = 0
	}

	rec := Record{
		TraceID:    span.traceID,
		SpanID:     span.spanID,
		ParentID:   span.parentID,
		Name:       span.name,
		Service:    t.service,
		Start:      span.start,
		Duration:   duration,
		Attributes: span.attributes(),
		Errored:    failed,
		Err:        err,
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("trace sink panicked",
				zap.String("operation", rec.Name),
				zap.Any("panic", r),
			)
		}
	}()

	t.sink.Emit(rec)
}

func stderrLogger() *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return zap.New(core)
}

// Context keys for trace propagation
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// ContextWithTrace seeds ctx with an incoming trace and parent span.
func ContextWithTrace(ctx context.Context, traceID id.TraceID, parentID id.SpanID) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if parentID != "" {
		ctx = context.WithValue(ctx, spanIDKey, parentID)
	}
	return ctx
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) id.TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(id.TraceID); ok {
		return traceID
	}
	return ""
}

// GetSpanID retrieves the span ID from context
func GetSpanID(ctx context.Context) id.SpanID {
	if spanID, ok := ctx.Value(spanIDKey).(id.SpanID); ok {
		return spanID
	}
	return ""
}

// ExtractTraceContext extracts trace context from headers
func ExtractTraceContext(headers map[string]string) (id.TraceID, id.SpanID) {
	return id.TraceID(headers[HeaderTraceID]), id.SpanID(headers[HeaderSpanID])
}

// InjectTraceContext injects trace context into headers
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		headers[HeaderTraceID] = string(traceID)
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		headers[HeaderSpanID] = string(spanID)
	}
}

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)
