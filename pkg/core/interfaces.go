package core

// Logger interface for renderer and frame loop logging
type Logger interface {
	Printf(format string, args ...interface{})
}
