// Package logger holds the process-wide logger of the recordgen command.
package logger

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger. It discards everything until
	// Initialize is called.
	Logger *zap.SugaredLogger
	// JSONOutput reports whether records are written as JSON.
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize replaces the global logger. Records at level and above are
// written to stderr, as JSON when jsonOutput is set and in a compact
// console format otherwise.
func Initialize(level string, jsonOutput bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "logger: invalid level %q", level)
	}
	JSONOutput = jsonOutput

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	Logger = zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)).Sugar()
	return nil
}

// Desugar returns the structured logger handed to library packages.
func Desugar() *zap.Logger {
	return Logger.Desugar()
}

// Sync flushes buffered records. Errors from syncing a terminal are
// ignored.
func Sync() {
	_ = Logger.Sync()
}
