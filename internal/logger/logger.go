package logger

import (
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/neocities-go/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the object-style logging surface shared by the app packages.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// base is the logger built by the last Init; Close flushes it.
var base *zap.Logger

// Init initializes the zap logger using settings from config. Records go to
// stderr so command output on stdout stays clean.
func Init(cfg *config.Config) (Logger, error) {
	return initWithWriter(cfg, os.Stderr), nil
}

func initWithWriter(cfg *config.Config, w io.Writer) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(zapcore.Lock(zapcore.AddSync(w))),
		parseLevel(cfg.LogLevel),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", cfg.AppName))
	base = l
	return zapLogger{l: l}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if base == nil {
		return nil
	}
	return base.Sync()
}

type zapLogger struct {
	l *zap.Logger
}

// Minimal object logging helpers -------------------------------------------------
// These log the given object as a structured field named `key` and do not attempt
// to parse arbitrary kv arrays.
func (z zapLogger) InfoObj(msg, key string, obj interface{})  { z.l.Info(msg, field(key, obj)) }
func (z zapLogger) DebugObj(msg, key string, obj interface{}) { z.l.Debug(msg, field(key, obj)) }
func (z zapLogger) WarnObj(msg, key string, obj interface{})  { z.l.Warn(msg, field(key, obj)) }
func (z zapLogger) ErrorObj(msg, key string, obj interface{}) { z.l.Error(msg, field(key, obj)) }

func field(key string, obj interface{}) zap.Field {
	if err, ok := obj.(error); ok {
		return zap.NamedError(key, err)
	}
	return zap.Any(key, obj)
}

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}
