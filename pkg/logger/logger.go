// pkg/logger/logger.go

package logger

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process logger, initialising the console fallback on first use.
func L() *zap.Logger {
	if log == nil {
		InitializeWithFallback()
	}
	return log
}

// SetLogger replaces the process logger, zap's globals and the otelzap
// globals behind otelzap.Ctx.
func SetLogger(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// Sync flushes buffered log entries.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
