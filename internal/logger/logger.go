// Package logger provides the application-wide leveled logger. Messages may
// use printf formatting or trailing key/value pairs, matching hclog.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	rootOnce sync.Once
	root     hclog.Logger
)

func rootLogger() hclog.Logger {
	rootOnce.Do(func() {
		root = hclog.New(&hclog.LoggerOptions{
			Name:       "camwatch",
			Level:      levelFromEnv(),
			JSONFormat: strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		})
	})
	return root
}

func levelFromEnv() hclog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	return rootLogger().Named(name)
}

// Info logs informational messages.
func Info(format string, args ...interface{}) {
	msg, kv := split(format, args)
	rootLogger().Info(msg, kv...)
}

// Warn logs warning messages.
func Warn(format string, args ...interface{}) {
	msg, kv := split(format, args)
	rootLogger().Warn(msg, kv...)
}

// Error logs error messages.
func Error(format string, args ...interface{}) {
	msg, kv := split(format, args)
	rootLogger().Error(msg, kv...)
}

// Debug logs debug messages. Suppressed unless LOG_LEVEL=debug.
func Debug(format string, args ...interface{}) {
	msg, kv := split(format, args)
	rootLogger().Debug(msg, kv...)
}

// split decides whether the arguments are printf operands or key/value
// pairs. A format string containing a verb gets printf treatment; anything
// else is passed through to hclog as structured pairs.
func split(format string, args []interface{}) (string, []interface{}) {
	if len(args) == 0 {
		return format, nil
	}
	if strings.ContainsRune(format, '%') {
		return fmt.Sprintf(format, args...), nil
	}
	return format, args
}
