package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/talos-labs/staking-wallet/util"
)

// NewRootLogger builds a zap logger writing to w using the given encoder
// format (json, console/auto, logfmt) and level.
func NewRootLogger(format string, level string, w io.Writer) (*zap.Logger, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	}
	cfg.LevelKey = "lvl"

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(cfg)
	case "auto", "console":
		enc = zapcore.NewConsoleEncoder(cfg)
	case "logfmt":
		enc = zaplogfmt.NewEncoder(cfg)
	default:
		return nil, fmt.Errorf("unrecognized log format %q", format)
	}

	var lvl zapcore.Level
	switch level {
	case "trace", "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	case "panic":
		lvl = zapcore.PanicLevel
	case "fatal":
		lvl = zapcore.FatalLevel
	default:
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}

	return zap.New(zapcore.NewCore(
		enc,
		zapcore.AddSync(w),
		lvl,
	)), nil
}

// NewRootLoggerWithFile writes logs to both stderr and the given log file.
func NewRootLoggerWithFile(logFile string, format string, level string) (*zap.Logger, error) {
	if err := util.MakeDirectory(filepath.Dir(logFile)); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	mw := io.MultiWriter(os.Stderr, f)

	return NewRootLogger(format, level, mw)
}
