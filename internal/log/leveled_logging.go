// Package log wraps a structured logger behind printf-style leveled
// helpers, so the rest of the module does not need to care which slog
// implementation is in use on the current Go version.
package log

import "fmt"

func Debugf(format string, args ...any) {
	defaultLogger.Debug(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	defaultLogger.Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	defaultLogger.Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	defaultLogger.Error(fmt.Sprintf(format, args...))
}

// The L-prefixed variants log to a specific logger instead of the
// package default, used by components carrying a per-instance logger.

func LDebugf(logger *Logger, format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func LInfof(logger *Logger, format string, args ...any) {
	logger.Info(fmt.Sprintf(format, args...))
}

func LWarnf(logger *Logger, format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func LErrorf(logger *Logger, format string, args ...any) {
	logger.Error(fmt.Sprintf(format, args...))
}
