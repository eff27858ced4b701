package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "sales-analyzer"

// Log is a no-op until InitWithFormat runs, so packages can log from tests.
var Log = zap.NewNop()

type ctxKey string

// RequestIDKey is the context key the API stores the request id under.
const RequestIDKey ctxKey = "requestID"

// InitWithFormat builds the global logger. format is "json" or "console";
// development mode always logs to the console with colored levels.
func InitWithFormat(lvl, format string, development bool) error {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if format == "console" {
			config.Encoding = "console"
			config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	config.Level = zap.NewAtomicLevelAt(parseLevel(lvl))

	l, err := config.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return err
	}

	Log = l

	return nil
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(lvl string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(lvl)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Component returns a child logger named after a subsystem (csv, etl, ...).
func Component(name string) *zap.Logger {
	return Log.Named(name)
}

func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Log
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return Log.With(zap.String("request_id", requestID))
	}
	return Log
}

func Close() {
	_ = Log.Sync()
}

func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}
