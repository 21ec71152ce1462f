package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerKey struct{}

func NewContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a debug console logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return New(zap.DebugLevel, Rotation{}, false)
}

// Rotation configures the log file. An empty Filename disables file logging.
type Rotation struct {
	Filename string
	// MaxFiles is the number of rotated files kept, 0 keeps them all.
	MaxFiles int
	// MaxSize is the size in megabytes triggering a rotation.
	MaxSize int
}

func New(level zapcore.LevelEnabler, rotation Rotation, json bool) *zap.Logger {
	var encoder zapcore.Encoder
	if json {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)}
	if rotation.Filename != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   rotation.Filename,
			MaxSize:    rotation.MaxSize,
			MaxBackups: rotation.MaxFiles,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileLogger), zap.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...))
}
