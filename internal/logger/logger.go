// Package logger provides leveled logging for the auditrag CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// describing each pipeline stage are printed to stderr. Warnings and
// errors are always printed.
package logger

import (
	"io"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

const prefix = "auditrag"

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = newLogger(os.Stderr, false)
)

func newLogger(w io.Writer, v bool) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: prefix,
		Level:  levelFor(v),
	})
}

func levelFor(v bool) charmlog.Level {
	if v {
		return charmlog.DebugLevel
	}
	return charmlog.WarnLevel
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base.SetLevel(levelFor(v))
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w, verbose)
}

// Output returns the current log writer.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

func current() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Section prints a stage header if verbose mode is enabled.
func Section(name string) {
	current().Debug("=== " + name + " ===")
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// With returns a logger carrying key/value pairs, sharing the current
// output and level.
func With(keyvals ...any) *charmlog.Logger {
	return current().With(keyvals...)
}
