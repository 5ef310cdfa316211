package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "COUPONWIZ_LOG_LEVEL"

// LogFileEnvVar redirects log output to a file. The interactive wizard owns
// stdout, so logs written there would corrupt the screen.
const LogFileEnvVar = "COUPONWIZ_LOG_FILE"

// InitializeWithOutput creates a new logger with the specified level writing
// to path. An empty level falls back to COUPONWIZ_LOG_LEVEL; if neither is set
// logging is disabled (silent mode). An empty path falls back to
// COUPONWIZ_LOG_FILE, then stdout.
func InitializeWithOutput(level, path string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if path == "" {
		path = os.Getenv(LogFileEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if path != "" {
		// No ANSI colours in files
		config.OutputPaths = []string{path}
		config.ErrorOutputPaths = []string{path}
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	return nil
}

// ParseLevel maps a level name to a zap level.
// Unknown names fall back to info since logging was explicitly requested.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogTransition logs a wizard section change
func LogTransition(from, to, reason string) {
	Debug("Wizard transition",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason),
	)
}

// LogValidation logs the outcome of a section validation
func LogValidation(section string, valid bool, problems []error) {
	fields := []zap.Field{
		zap.String("section", section),
		zap.Bool("valid", valid),
	}
	if len(problems) > 0 {
		fields = append(fields, zap.Int("problems", len(problems)), zap.Errors("errors", problems))
	}
	Debug("Section validated", fields...)
}

// LogPersistence logs a draft or coupon store operation.
// Failures are logged at warn level since persistence is best effort from
// the wizard's point of view.
func LogPersistence(op string, couponID string, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("coupon_id", couponID),
	}
	if err != nil {
		Warn("Persistence failed", append(fields, zap.Error(err))...)
		return
	}
	Info("Persistence succeeded", fields...)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
