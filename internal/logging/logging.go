package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Named(name string) Logger
	Enabled(level Level) bool
	Sync() error
}

type zapLogger struct {
	zap *zap.Logger
}

// New returns a console logger writing to out at the given level.
func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stderr
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(out), zapLevel(level))
	return &zapLogger{zap: zap.New(core)}
}

// FromZap adapts an existing zap logger, e.g. one built on an observer core.
func FromZap(logger *zap.Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return &zapLogger{zap: logger}
}

func Nop() Logger {
	return &zapLogger{zap: zap.NewNop()}
}

func (l *zapLogger) Enabled(level Level) bool {
	if l == nil || l.zap == nil {
		return false
	}
	return l.zap.Core().Enabled(zapLevel(level))
}

func (l *zapLogger) With(fields ...Field) Logger {
	if l == nil || l.zap == nil {
		return Nop()
	}
	return &zapLogger{zap: l.zap.With(zapFields(fields)...)}
}

func (l *zapLogger) Named(name string) Logger {
	if l == nil || l.zap == nil {
		return Nop()
	}
	return &zapLogger{zap: l.zap.Named(name)}
}

func (l *zapLogger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *zapLogger) log(level Level, msg string, fields ...Field) {
	if l == nil || l.zap == nil {
		return
	}
	if ce := l.zap.Check(zapLevel(level), msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		switch v := field.Value.(type) {
		case error:
			out = append(out, zap.NamedError(field.Key, v))
		default:
			out = append(out, zap.Any(field.Key, v))
		}
	}
	return out
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}
