// Package logger wires the global zap logger.  Call sites use the sugared
// zap.S() accessor throughout the codebase.
package logger

import (
	"go.uber.org/zap"
)

// Init builds the global logger: JSON output in production, console output
// with colored levels everywhere else.  The returned function flushes
// buffered entries and is meant to be deferred from main.
func Init(env string) func() {
	var zapConfig zap.Config
	if env == "prod" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	l, err := zapConfig.Build()
	if err != nil {
		// Fall back to a no-op logger rather than failing startup.
		l = zap.NewNop()
	}
	zap.ReplaceGlobals(l)
	return func() { _ = l.Sync() }
}
