package console

import (
	"sync"

	"github.com/lukaszraczylo/idptest/internal/debugflow"
)

// Router keeps the navigation history of the console and tells listeners
// about every push.
type Router struct {
	mu        sync.Mutex
	history   []string
	listeners []func(debugflow.Route)
	logger    Logger
}

// NewRouter creates a router positioned at start, if given.
func NewRouter(start string, logger Logger) *Router {
	if logger == nil {
		logger = noOpLogger{}
	}
	r := &Router{logger: logger}
	if start != "" {
		r.history = append(r.history, start)
	}
	return r
}

// Listen registers fn for future navigations.
func (r *Router) Listen(fn func(debugflow.Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Push navigates to path. Unparseable paths are recorded but not announced.
func (r *Router) Push(path string) {
	r.mu.Lock()
	r.history = append(r.history, path)
	listeners := append(([]func(debugflow.Route))(nil), r.listeners...)
	r.mu.Unlock()

	route, err := debugflow.ParseRoute(path)
	if err != nil {
		r.logger.Errorf("Ignoring navigation to %q: %v", path, err)
		return
	}
	for _, fn := range listeners {
		fn(route)
	}
}

// Current returns the latest path, or "" before any navigation.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return ""
	}
	return r.history[len(r.history)-1]
}

// History returns every path visited, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
