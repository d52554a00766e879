// Package logging builds the charmbracelet logger used by qvmdis, configured from
// QVMDIS_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	lg.SetLevel(LevelFromEnv())

	// Set prefix from environment
	prefix := os.Getenv("QVMDIS_LOG_PREFIX")
	if prefix == "" {
		prefix = "qvmdis "
	}

	var closer io.Closer
	// stderr and stdout outlive the logger
	if c, ok := w.(io.Closer); ok && w != io.Writer(os.Stderr) && w != io.Writer(os.Stdout) {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// QVMDIS_LOG_LEVEL: debug, info, warn, error (default: info)
// QVMDIS_LOG_PREFIX: prefix for log messages (default: "qvmdis ")
// QVMDIS_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	// Check if we should log to file
	if os.Getenv("QVMDIS_LOG_TO_FILE") == "1" {
		// Create timestamped log file
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("qvmdis-%s-debug.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

// LevelFromEnv maps QVMDIS_LOG_LEVEL to a log level, defaulting to info.
func LevelFromEnv() log.Level {
	switch os.Getenv("QVMDIS_LOG_LEVEL") {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return os.Getenv("QVMDIS_LOG_LEVEL") == "debug"
}
