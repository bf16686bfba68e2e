// Package logger wraps a process-wide logrus logger. Entries built from a
// context carry the trace and run ids stored in it.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey int

const (
	traceIDKey contextKey = iota
	runIDKey
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(jsonFormatter())
	return l
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// Setup applies the configured level and picks a formatter for the mode:
// text in development, JSON otherwise. Unknown levels fall back to info.
func Setup(level, mode string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	switch mode {
	case "development":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	default:
		log.SetFormatter(jsonFormatter())
	}
}

func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Logger() *logrus.Logger {
	return log
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithRunID stores the pipeline run id so that every *Ctx entry logged
// under ctx is tagged with it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FromContext returns an entry tagged with the ids found in ctx.
func FromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if id := TraceIDFromContext(ctx); id != "" {
		fields["trace_id"] = id
	}
	if id := RunIDFromContext(ctx); id != "" {
		fields["run_id"] = id
	}
	return log.WithFields(fields)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(fields)
}

func WithRun(runID string) *logrus.Entry {
	return log.WithField("run_id", runID)
}

func WithVehicle(vin string) *logrus.Entry {
	return log.WithField("vin", vin)
}

func WithStage(runID, stage string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"run_id": runID, "stage": stage})
}

func Debug(msg string) { log.Debug(msg) }
func Info(msg string)  { log.Info(msg) }
func Warn(msg string)  { log.Warn(msg) }
func Error(msg string) { log.Error(msg) }
func Fatal(msg string) { log.Fatal(msg) }

func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }

func DebugCtx(ctx context.Context, msg string) { FromContext(ctx).Debug(msg) }
func InfoCtx(ctx context.Context, msg string)  { FromContext(ctx).Info(msg) }
func WarnCtx(ctx context.Context, msg string)  { FromContext(ctx).Warn(msg) }
func ErrorCtx(ctx context.Context, msg string) { FromContext(ctx).Error(msg) }

func DebugCtxf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Debugf(format, args...)
}

func InfoCtxf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Infof(format, args...)
}

func WarnCtxf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warnf(format, args...)
}

func ErrorCtxf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Errorf(format, args...)
}
