// Package log sets up the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup sends JSON logs to logFile, rotating it as it grows. Only the first
// call has any effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		logRotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,    // Max size in MB
			MaxBackups: 0,     // Number of backups
			MaxAge:     30,    // Days
			Compress:   false, // Enable compression
		}

		slog.SetDefault(slog.New(slog.NewJSONHandler(logRotator, &slog.HandlerOptions{
			Level:     level(debug),
			AddSource: true,
		})))
		initialized.Store(true)
	})
}

// SetupConsole sends human readable logs to w instead. It is used for
// --verbose runs.
func SetupConsole(w io.Writer, debug bool) {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(NewConsoleHandler(w, debug)))
		initialized.Store(true)
	})
}

// NewConsoleHandler returns a slog handler writing styled lines to w.
func NewConsoleHandler(w io.Writer, debug bool) slog.Handler {
	lvl := charmlog.InfoLevel
	if debug {
		lvl = charmlog.DebugLevel
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "pagelist",
	})
}

// Initialized reports whether Setup or SetupConsole has run.
func Initialized() bool {
	return initialized.Load()
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// RecoverPanic is meant to be deferred at the top of goroutines. It writes
// a timestamped panic report to the working directory and runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		slog.Error("Panic recovered", "name", name, "panic", r)

		timestamp := time.Now().Format("20060102-150405")
		filename := fmt.Sprintf("pagelist-panic-%s-%s.log", name, timestamp)

		file, err := os.Create(filename)
		if err == nil {
			defer file.Close()

			fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
			fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
			fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
		}

		if cleanup != nil {
			cleanup()
		}
	}
}
