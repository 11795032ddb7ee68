package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
)

type contextKey string

// RequestIDKey is the context key under which middleware stores the request id.
const RequestIDKey contextKey = "request_id"

// Logger wraps a logrus instance plus the optional rotating file sink.
type Logger struct {
	log      *logrus.Logger
	fileSink io.Closer
}

// NewLogger builds a Logger from config. Output is stdout unless the config
// selects a file, in which case a size/age-rotated sink is used.
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	svc := &Logger{log: l}
	if cfg.Log.Output == "file" && cfg.Log.Filename != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.Log.Filename,
			MaxSize:    cfg.Log.MaxSize,
			MaxAge:     cfg.Log.MaxAge,
			MaxBackups: cfg.Log.MaxBackups,
			Compress:   cfg.Log.Compress,
		}
		l.SetOutput(sink)
		svc.fileSink = sink
	} else {
		l.SetOutput(os.Stdout)
	}
	return svc
}

// Close flushes and closes the file sink if one is configured.
func (s *Logger) Close() {
	if s != nil && s.fileSink != nil {
		_ = s.fileSink.Close()
	}
}

var globalLogger = &Logger{log: logrus.StandardLogger()}

// SetGlobalLogger installs the process-wide logger. Called once in app.Run.
func SetGlobalLogger(s *Logger) {
	if s != nil {
		globalLogger = s
	}
}

func Infof(format string, args ...interface{}) {
	globalLogger.log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	globalLogger.log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	globalLogger.log.Errorf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	globalLogger.log.Debugf(format, args...)
}

// Fatal logs the message and exits the process.
func Fatal(msg string) {
	globalLogger.log.Fatal(msg)
}

// WithContext returns an entry annotated with the request id, if present.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(globalLogger.log)
	if ctx == nil {
		return entry
	}
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	return entry
}
