package boon

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a zap logger at the configured level, writing to stderr
// and, when logFile is non-empty, additionally rotating through lumberjack.
// The engine logs tick diagnostics at debug, pass-cap overruns at warn, and
// Effect node output at the effect's own level. Arithmetic errors and
// snapshot failures are not logged: they travel as Flushed payloads or
// returned errors. Never fatal; a library must not call os.Exit.
func newLogger(level string, logFile string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "" // the embedding host decides how to timestamp
	encoder := zapcore.NewJSONEncoder(encCfg)

	ws := zapcore.AddSync(os.Stderr)
	if logFile != "" {
		ws = zapcore.NewMultiWriteSyncer(ws, zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}))
	}
	core := zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(lvl))
	return zap.New(core)
}

// zapPasses builds the "passes" field list for the pass-cap warning.
func zapPasses(passes int) []zap.Field {
	return []zap.Field{zap.Int("passes", passes)}
}
