// Package log provides the structured logging interface used by every examscore stage.
//
// A Logger is created once by the command layer and passed explicitly to stage
// constructors; there is no process-wide default. The zerolog backend lives in
// zerolog.go and a capturing implementation for tests in testing.go.
//
// Example usage:
//
//	logger := log.NewZerologLogger(os.Stderr, log.LevelInfo, log.FormatConsole).With(
//		log.StageKey, log.StageTrain,
//	)
//	logger.Info("Model evaluated",
//		log.ModelNameKey, "Ridge",
//		log.R2ScoreKey, 0.89,
//	)
package log

import (
	"context"
	"strings"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. If the first field of Warn or Error is
// an error value, it is logged under the "error" key together with its stack trace.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs a condition that does not stop the pipeline.
	Warn(msg string, fields ...any)

	// Error logs a failure.
	//
	// Example:
	//   logger.Error("Training failed",
	//       err,
	//       log.StageKey, log.StageTrain,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn", "error")
// into a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", "must be one of debug, info, warn, error", s)
	}
}

// Output formats understood by NewZerologLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)
