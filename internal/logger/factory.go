package logger

import (
	"io"
	"os"
	"sync"
)

// Factory creates and caches component loggers sharing one level and output.
type Factory struct {
	mu      sync.RWMutex
	out     io.Writer
	level   string
	root    *StandardLogger
	loggers map[string]Logger
}

var (
	globalFactory *Factory
	factoryOnce   sync.Once
)

// GetFactory returns the global logger factory instance
func GetFactory() *Factory {
	factoryOnce.Do(func() {
		globalFactory = NewFactory("info", os.Stderr)
	})
	return globalFactory
}

// NewFactory creates a factory writing to out at the given level.
func NewFactory(level string, out io.Writer) *Factory {
	return &Factory{
		out:     out,
		level:   level,
		root:    NewStandardLogger(level, out),
		loggers: make(map[string]Logger),
	}
}

// Configure replaces the level and output. Loggers handed out earlier keep
// their previous settings.
func (f *Factory) Configure(level string, out io.Writer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if out == nil {
		out = f.out
	}
	f.out = out
	f.level = level
	f.root = NewStandardLogger(level, out)
	f.loggers = make(map[string]Logger)
}

// GetLogger returns the logger for a component, tagging every record with it.
func (f *Factory) GetLogger(component string) Logger {
	f.mu.RLock()
	if l, ok := f.loggers[component]; ok {
		f.mu.RUnlock()
		return l
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check after acquiring write lock
	if l, ok := f.loggers[component]; ok {
		return l
	}

	var l Logger
	switch component {
	case "noop", "discard":
		l = GetNoOpLogger()
	case "", "default":
		l = f.root
	default:
		l = f.root.WithField("component", component)
	}
	f.loggers[component] = l
	return l
}

// For returns the component logger from the global factory.
func For(component string) Logger {
	return GetFactory().GetLogger(component)
}

// NoOp returns a no-op logger
func NoOp() Logger {
	return GetNoOpLogger()
}
