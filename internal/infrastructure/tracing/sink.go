package tracing

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Sink receives completed trace records.
type Sink interface {
	Emit(rec Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec Record)

// Emit calls f(rec).
func (f SinkFunc) Emit(rec Record) { f(rec) }

type multiSink []Sink

// MultiSink fans a record out to every sink in order. Nil sinks are skipped.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(rec Record) {
	for _, s := range m {
		s.Emit(rec)
	}
}

type logSink struct {
	logger *zap.Logger
}

// LogSink logs each record as "trace <name> <durationMs>ms" with the
// attributes as structured fields. Failed operations log at warn level.
func LogSink(logger *zap.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Emit(rec Record) {
	msg := FormatRecord(rec)

	fields := make([]zap.Field, 0, len(rec.Attributes)+4)
	fields = append(fields,
		zap.String("trace_id", string(rec.TraceID)),
		zap.String("span_id", string(rec.SpanID)),
	)
	if rec.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(rec.ParentID)))
	}
	if rec.Service != "" {
		fields = append(fields, zap.String("service", rec.Service))
	}
	fields = append(fields, zap.Any("attributes", rec.Attributes))

	if rec.Errored {
		if rec.Err != nil {
			fields = append(fields, zap.Error(rec.Err))
		}
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}

// FormatRecord renders the record headline, e.g. "trace render 12.5ms".
func FormatRecord(rec Record) string {
	return fmt.Sprintf("trace %s %sms", rec.Name, strconv.FormatFloat(rec.DurationMs(), 'f', -1, 64))
}

// FormatAttributes renders attributes as sorted key=value pairs.
func FormatAttributes(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := "{"
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, attrs[k])
	}
	return out + "}"
}

// WriterSink prints each record as a single diagnostic line:
// "trace <name> <durationMs>ms {key=value ...}".
func WriterSink(w io.Writer) Sink {
	return SinkFunc(func(rec Record) {
		fmt.Fprintf(w, "%s %s\n", FormatRecord(rec), FormatAttributes(rec.Attributes))
	})
}

// MetricsRecorder is implemented by the monitoring package.
type MetricsRecorder interface {
	RecordTrace(name string, errored bool, duration time.Duration)
}

// MetricsSink forwards record durations to a metrics recorder.
func MetricsSink(m MetricsRecorder) Sink {
	return SinkFunc(func(rec Record) {
		m.RecordTrace(rec.Name, rec.Errored, rec.Duration)
	})
}
