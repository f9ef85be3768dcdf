// Package log provides the single structured logger shared by every native
// operation. It wraps zap the way the teacher's services do: one process
// logger, configured once, injected by value into callers that need it.
package log

import "go.uber.org/zap"

// New builds a production JSON logger. Callers at process start (cmd/, test
// harnesses) construct one and pass it down; library code never reaches for
// a global.
func New() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Nop returns a logger that discards everything, used by tests that don't
// care about log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}
