// Package zlog provides the context-carried, leveled logger used by every
// other package in this module. Callers install a logger into a context
// with WithLogger; packages that don't receive one fall back to a
// package-level default, the same shape as the teacher's dcontext logger.
package zlog

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger   = logrus.StandardLogger().WithField("go.version", runtime.Version())
	defaultLoggerMu sync.RWMutex
)

// Logger is the leveled-logging interface every package in this module
// logs through.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	WithError(err error) *logrus.Entry
}

type loggerKey struct{}

// WithLogger returns a context carrying logger as the logger all zlog
// accessors will retrieve.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Get returns the logger installed on ctx, or the package default
// decorated with any of the given context keys that resolve to a value.
func Get(ctx context.Context, keys ...any) Logger {
	var entry *logrus.Entry

	if v := ctx.Value(loggerKey{}); v != nil {
		if e, ok := v.(*logrus.Entry); ok {
			entry = e
		} else if l, ok := v.(Logger); ok {
			return withFields(l, ctx, keys)
		}
	}

	if entry == nil {
		defaultLoggerMu.RLock()
		entry = defaultLogger
		defaultLoggerMu.RUnlock()
	}

	fields := logrus.Fields{}
	for _, k := range keys {
		if v := ctx.Value(k); v != nil {
			fields[fmt.Sprint(k)] = v
		}
	}

	return entry.WithFields(fields)
}

func withFields(l Logger, ctx context.Context, keys []any) Logger {
	entry, ok := l.(*logrus.Entry)
	if !ok {
		return l
	}
	fields := logrus.Fields{}
	for _, k := range keys {
		if v := ctx.Value(k); v != nil {
			fields[fmt.Sprint(k)] = v
		}
	}
	return entry.WithFields(fields)
}

// SetDefault replaces the package-level fallback logger.
func SetDefault(logger *logrus.Entry) {
	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()
}

// DetachedContext returns a context that won't be canceled when ctx is
// canceled, while preserving values (notably the installed logger). Used
// by background operations that must run to completion even if the
// request that started them (e.g. a GUI callback) goes away. No other
// package in this module calls it.
func DetachedContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
