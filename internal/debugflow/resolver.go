package debugflow

import (
	"context"
	"net/url"

	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

// SessionIDKeys are the URL parameter spellings that may carry a session id,
// in priority order. Upstream redirects do not agree on one.
var SessionIDKeys = []string{"sessionId", "sessionid", "sid"}

// Lookup is one source of a session id.
type Lookup interface {
	Name() string
	Lookup(ctx context.Context) (string, bool)
}

type lookupFunc struct {
	name string
	fn   func(ctx context.Context) (string, bool)
}

func (l lookupFunc) Name() string                              { return l.name }
func (l lookupFunc) Lookup(ctx context.Context) (string, bool) { return l.fn(ctx) }

// NewLookup builds a Lookup from a function.
func NewLookup(name string, fn func(ctx context.Context) (string, bool)) Lookup {
	return lookupFunc{name: name, fn: fn}
}

// OpenerContext is read access to the persisted state of the opening context.
type OpenerContext interface {
	Closed(ctx context.Context) bool
	GetItem(ctx context.Context, key string) (string, bool, error)
}

// Resolver tries its lookups in order and returns the first session id found.
type Resolver struct {
	lookups []Lookup
	logger  Logger
}

// NewResolver creates a resolver over lookups, tried in the given order.
func NewResolver(logger Logger, lookups ...Lookup) *Resolver {
	if logger == nil {
		logger = noOpLogger{}
	}
	return &Resolver{lookups: lookups, logger: logger}
}

// Resolve returns the first session id any lookup finds.
func (r *Resolver) Resolve(ctx context.Context) (string, bool) {
	for _, l := range r.lookups {
		if id, ok := r.try(ctx, l); ok {
			r.logger.Debugf("Resolved session id from %s", l.Name())
			return id, true
		}
	}
	r.logger.Debugf("No session id found in %d sources", len(r.lookups))
	return "", false
}

// try runs one lookup; a panicking lookup counts as not found.
func (r *Resolver) try(ctx context.Context, l Lookup) (id string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debugf("Session id lookup %s failed: %v", l.Name(), rec)
			id, ok = "", false
		}
	}()
	id, ok = l.Lookup(ctx)
	return id, ok && id != ""
}

// StorageLookup reads the id a run persisted in the current context.
func StorageLookup(storage sessionctx.Storage, logger Logger) Lookup {
	if logger == nil {
		logger = noOpLogger{}
	}
	return NewLookup("context storage", func(ctx context.Context) (string, bool) {
		if storage == nil {
			return "", false
		}
		id, ok, err := storage.GetItem(ctx, sessionctx.KeySessionID)
		if err != nil {
			logger.Debugf("Reading context storage failed: %v", err)
			return "", false
		}
		return id, ok
	})
}

// LocationLookup reads the id from the query, then from the fragment, of loc.
func LocationLookup(loc *url.URL) Lookup {
	return NewLookup("location", func(context.Context) (string, bool) {
		return SessionIDFromURL(loc)
	})
}

// OpenerLookup reads the id persisted by the opening context. An absent,
// closed or failing opener is simply not a source.
func OpenerLookup(opener OpenerContext, logger Logger) Lookup {
	if logger == nil {
		logger = noOpLogger{}
	}
	return NewLookup("opener context", func(ctx context.Context) (string, bool) {
		if opener == nil || opener.Closed(ctx) {
			return "", false
		}
		id, ok, err := opener.GetItem(ctx, sessionctx.KeySessionID)
		if err != nil {
			logger.Debugf("Opener context is not readable: %v", err)
			return "", false
		}
		return id, ok
	})
}

// SessionIDFromURL returns the first non-empty session id parameter of the
// query, then of the fragment.
func SessionIDFromURL(loc *url.URL) (string, bool) {
	if loc == nil {
		return "", false
	}
	if id, ok := firstParam(loc.Query()); ok {
		return id, true
	}
	if loc.Fragment == "" {
		return "", false
	}
	// Malformed pairs are skipped; the well-formed ones are still usable.
	fragment, _ := url.ParseQuery(loc.EscapedFragment())
	return firstParam(fragment)
}

func firstParam(values url.Values) (string, bool) {
	for _, key := range SessionIDKeys {
		if v := values.Get(key); v != "" {
			return v, true
		}
	}
	return "", false
}
